package cligen

import "fmt"

// MissingFlagError reports a required flag absent at invocation time.
type MissingFlagError struct {
	Flag string
}

func (e *MissingFlagError) Error() string {
	return fmt.Sprintf("missing required flag --%s", e.Flag)
}
func (e *MissingFlagError) ExitCode() int { return 2 }

// FlagTypeError reports a flag value that failed type coercion, naming
// the offending flag and the expected type.
type FlagTypeError struct {
	Flag  string
	Want  string
	Value string
}

func (e *FlagTypeError) Error() string {
	return fmt.Sprintf("invalid value %q for --%s: expected %s", e.Value, e.Flag, e.Want)
}
func (e *FlagTypeError) ExitCode() int { return 2 }

// MissingBodyError reports a declared-required request body with no
// supplied value.
type MissingBodyError struct{}

func (e *MissingBodyError) Error() string {
	return "request body required: provide --data with inline JSON or @file"
}
func (e *MissingBodyError) ExitCode() int { return 2 }

// NoServerError reports that neither a --server override nor a declared
// server was available to resolve the base URL.
type NoServerError struct{}

func (e *NoServerError) Error() string {
	return "no server URL: pass --server or declare servers in the spec"
}
func (e *NoServerError) ExitCode() int { return 4 }
