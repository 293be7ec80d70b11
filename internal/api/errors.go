package api

import "fmt"

// RemoteError is a non-success HTTP response or network fault, carrying the
// server-provided message when one was available.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// AuthError is a rejected sign-in or sign-up, surfaced directly to the caller
// for display.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func authError(err error, fallback string) *AuthError {
	if remote, ok := err.(*RemoteError); ok && remote.Message != "" {
		return &AuthError{Message: remote.Message}
	}
	return &AuthError{Message: fallback}
}
