package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		State
		Token
		Keep
		Log
	}

	State struct {
		Dir          string
		DatabasePath string // Token cache and run history
		// Runs older than this are pruned before each convert; 0 keeps all
		RunRetentionDays int
	}
	Token struct {
		EncryptionKey string // base64, 32 bytes
		KeyFile       string
		CacheEnabled  bool
	}
	Keep struct {
		Email       string
		AuthURL     string
		APIURL      string
		HTTPTimeout time.Duration
	}
	Log struct {
		File       string // Empty: stderr only
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

// NewConfig builds the configuration from defaults, an optional YAML file and
// NE2KEEP_* environment variables, in increasing order of precedence.
// An empty configFile searches ./ne2keep.yaml and the state directory.
func NewConfig(configFile string) (*Config, error) {
	stateDir := defaultStateDir()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("state_dir", stateDir)
	v.SetDefault("state_database_path", "")
	v.SetDefault("run_retention_days", 90)
	v.SetDefault("token_encryption_key", "")
	v.SetDefault("token_key_file", "")
	v.SetDefault("token_cache_enabled", true)
	v.SetDefault("keep_email", "")
	v.SetDefault("keep_auth_url", DefaultKeepAuthURL)
	v.SetDefault("keep_api_url", DefaultKeepAPIURL)
	v.SetDefault("keep_http_timeout", "30s")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(stateDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		State: State{
			Dir:              v.GetString("STATE_DIR"),
			DatabasePath:     v.GetString("STATE_DATABASE_PATH"),
			RunRetentionDays: v.GetInt("RUN_RETENTION_DAYS"),
		},
		Token: Token{
			EncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
			KeyFile:       v.GetString("TOKEN_KEY_FILE"),
			CacheEnabled:  v.GetBool("TOKEN_CACHE_ENABLED"),
		},
		Keep: Keep{
			Email:       v.GetString("KEEP_EMAIL"),
			AuthURL:     v.GetString("KEEP_AUTH_URL"),
			APIURL:      v.GetString("KEEP_API_URL"),
			HTTPTimeout: v.GetDuration("KEEP_HTTP_TIMEOUT"),
		},
		Log: Log{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}

	// Paths inside the state directory follow it unless set explicitly
	if cfg.State.DatabasePath == "" {
		cfg.State.DatabasePath = filepath.Join(cfg.State.Dir, DefaultStateDatabaseName)
	}
	if cfg.Token.KeyFile == "" {
		cfg.Token.KeyFile = filepath.Join(cfg.State.Dir, DefaultKeyFileName)
	}

	return cfg, nil
}

// EnsureStateDir creates the state directory with owner-only permissions.
func (c *Config) EnsureStateDir() error {
	if err := os.MkdirAll(c.State.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(dir, AppName)
}
