package config

const (
	AppName    = "ne2keep"
	ConfigName = "ne2keep"
	EnvPrefix  = "NE2KEEP"

	// DefaultStateDatabaseName holds cached tokens and the run history
	DefaultStateDatabaseName = "ne2keep.db"

	// DefaultKeyFileName holds the token encryption key when none is configured
	DefaultKeyFileName = "token.key"

	DefaultKeepAuthURL = "https://android.clients.google.com/auth"
	DefaultKeepAPIURL  = "https://www.googleapis.com/notes/v1/"
)
