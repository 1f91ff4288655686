package keep

import (
	"errors"
	"fmt"
)

// ErrAuthentication indicates Google rejected the credentials or token
var ErrAuthentication = errors.New("google keep authentication failed")

// ErrNotLoggedIn is returned by API calls made before Login or Resume
var ErrNotLoggedIn = errors.New("google keep session is not authenticated")

// ErrResyncRequired indicates the server demanded a full resync, which this
// client does not implement
var ErrResyncRequired = errors.New("google keep requested a full resync")

// ErrSyncStalled indicates the server kept reporting a truncated change set
// without advancing the version
var ErrSyncStalled = errors.New("google keep sync did not advance")

// AuthError carries the error code returned by the Google auth endpoint.
// It matches ErrAuthentication with errors.Is.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("google keep authentication failed: %s", e.Code)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}

// ServerError represents an unexpected HTTP status from a Google endpoint
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("google keep server error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("google keep server error: HTTP %d: %s", e.StatusCode, e.Body)
}
