package httpclient

import (
	"fmt"
	"net/http"
)

// RequestError reports a transport-level failure with the attempted
// method and URL, so the cause is never swallowed.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}
func (e *RequestError) Unwrap() error { return e.Err }
func (e *RequestError) ExitCode() int { return 6 }

// StatusError marks a completed request that came back non-2xx.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	if text := http.StatusText(e.Status); text != "" {
		return fmt.Sprintf("HTTP %d %s", e.Status, text)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}
func (e *StatusError) ExitCode() int { return 6 }

// AuthError reports a failed credential exchange, carrying the upstream
// status when the token endpoint answered at all.
type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("auth: token request failed with HTTP %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("auth: %v", e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }
func (e *AuthError) ExitCode() int { return 5 }
