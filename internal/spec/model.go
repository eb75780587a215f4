package spec

import (
	"encoding/json"
	"strings"
)

// ParamType is the coarse primitive type a parameter coerces to.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
)

// Model is the version-neutral representation of an API description.
// It is built once per process by Load and never mutated afterwards.
type Model struct {
	Title       string
	Description string
	Version     string

	Servers  []Server
	Security map[string]SecurityScheme

	// Operations follow the source document's declaration order, so that
	// repeated loads of the same bytes always produce the same command
	// list in the same order.
	Operations []Operation

	// Warnings collects non-fatal degradations (dropped parameters,
	// unsupported constructs). The caller decides how to surface them.
	Warnings []string
}

type Server struct {
	URL         string
	Description string
}

// SecurityScheme is the subset of an OpenAPI security scheme the request
// builder needs to place credentials.
type SecurityScheme struct {
	// Type is one of "basic", "bearer", "apiKey", "oauth2".
	Type string
	// ParamName and In locate an apiKey credential (header or query).
	ParamName string
	In        string
	// TokenURL is the client-credentials token endpoint for oauth2 schemes.
	TokenURL string
}

// Operation is one method+path entry of the loaded document.
type Operation struct {
	// OperationID is the identifier declared in the document, if any.
	OperationID string
	Method      string
	Path        string
	Summary     string
	Description string

	// Params preserves declaration order: path-level parameters first,
	// then operation-level ones, with operation-level overriding on
	// location+name collisions.
	Params []Param

	Body *Body
}

type Param struct {
	// Name as declared in the document (commonly camelCase).
	Name     string
	In       string // path, query, header, cookie
	Required bool
	Type     ParamType
	// Elem is the element type for array parameters.
	Elem        ParamType
	Default     any
	Description string
}

// Body describes a declared request body. The body value itself is always
// supplied opaquely by the caller; Schema and Fields exist only for help
// text and advisory validation.
type Body struct {
	Required     bool
	ContentTypes []string

	// Schema is the application/json schema as a standalone JSON document,
	// suitable for advisory jsonschema validation. May be nil.
	Schema json.RawMessage

	// Fields lists the top-level properties of an object body schema.
	Fields []BodyField
}

type BodyField struct {
	Name     string
	Type     string
	Required bool
}

// Placeholders returns the {name} placeholders of a path template in order.
func Placeholders(path string) []string {
	var out []string
	for i := 0; i < len(path); i++ {
		if path[i] != '{' {
			continue
		}
		j := strings.IndexByte(path[i:], '}')
		if j <= 1 {
			continue
		}
		out = append(out, path[i+1:i+j])
		i += j
	}
	return out
}
