package cligen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/clify-dev/clify/internal/spec"
)

// readBodyArg resolves the --data flag value into raw request bytes.
// "-" reads stdin, "@path" reads a file, anything else is the literal
// payload.
func readBodyArg(arg string, stdin io.Reader) ([]byte, error) {
	switch {
	case arg == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading request body from stdin: %w", err)
		}
		return b, nil
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("reading request body file: %w", err)
		}
		return b, nil
	default:
		return []byte(arg), nil
	}
}

// resolveBody turns the --data argument into the payload for an
// operation, enforcing presence for required bodies and JSON syntax
// when the operation accepts JSON.
func resolveBody(op *spec.Operation, dataArg string, stdin io.Reader) ([]byte, string, error) {
	if op.Body == nil {
		return nil, "", nil
	}
	if dataArg == "" {
		if op.Body.Required {
			return nil, "", &MissingBodyError{}
		}
		return nil, "", nil
	}
	payload, err := readBodyArg(dataArg, stdin)
	if err != nil {
		return nil, "", err
	}
	ct := bodyContentType(op.Body)
	if strings.HasPrefix(ct, "application/json") && !json.Valid(payload) {
		return nil, "", &FlagTypeError{Flag: "data", Want: "JSON", Value: summarize(payload)}
	}
	return payload, ct, nil
}

func bodyContentType(b *spec.Body) string {
	for _, ct := range b.ContentTypes {
		if strings.HasPrefix(ct, "application/json") {
			return ct
		}
	}
	if len(b.ContentTypes) > 0 {
		return b.ContentTypes[0]
	}
	return "application/json"
}

func summarize(payload []byte) string {
	const max = 40
	s := string(payload)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// validateBody checks a JSON payload against the operation's request
// schema and returns a human-readable warning when it does not
// conform. Validation is advisory: schema compilation failures and
// mismatches never block the request.
func validateBody(op *spec.Operation, payload []byte) string {
	if op.Body == nil || len(op.Body.Schema) == 0 || len(payload) == 0 {
		return ""
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("body.json", strings.NewReader(string(op.Body.Schema))); err != nil {
		return fmt.Sprintf("request body schema unavailable: %v", err)
	}
	schema, err := compiler.Compile("body.json")
	if err != nil {
		return fmt.Sprintf("request body schema unavailable: %v", err)
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return ""
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Sprintf("request body does not match the operation schema: %v", err)
	}
	return ""
}
