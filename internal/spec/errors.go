package spec

// ErrorCode categorizes loader failures.
type ErrorCode string

const (
	// CodeUnreachable covers file and network I/O failures fetching the document.
	CodeUnreachable ErrorCode = "SpecUnreachable"
	// CodeParse covers malformed YAML/JSON and unknown version markers.
	CodeParse ErrorCode = "SpecParse"
	// CodeInvalid covers structurally unusable documents: missing paths,
	// failed v2 conversion, or a path placeholder without a parameter.
	CodeInvalid ErrorCode = "SpecInvalid"
)

// Error is the structured load-time error. All loader failures are fatal;
// non-fatal degradations are reported through Model.Warnings instead.
type Error struct {
	Code    ErrorCode
	Message string
	Source  string // file path or URL
	Cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Cause }

// ExitCode maps all spec-load failures to the documented exit code.
func (e *Error) ExitCode() int { return 3 }
