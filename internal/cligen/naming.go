package cligen

import (
	"strings"
	"unicode"

	"github.com/clify-dev/clify/internal/spec"
)

// commandName derives the canonical command name for an operation: the
// lower-kebab-cased operationId when declared, else method plus path
// segments with placeholder braces stripped (DELETE /users/{id} ->
// delete-users-id). Collisions are resolved later by Synthesize.
func commandName(op *spec.Operation) string {
	if op.OperationID != "" {
		if n := kebabCase(op.OperationID); n != "" {
			return n
		}
	}
	path := strings.NewReplacer("{", "", "}", "").Replace(op.Path)
	if n := kebabCase(strings.ToLower(op.Method) + " " + path); n != "" {
		return n
	}
	return strings.ToLower(op.Method)
}

func kebabCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	prevDash := false
	var prevCat runeCategory

	for _, r := range s {
		cat := categorize(r)
		switch cat {
		case catLower, catUpper, catDigit:
			if b.Len() > 0 && !prevDash {
				// Insert a dash on lower->upper boundaries (camelCase).
				if cat == catUpper && (prevCat == catLower || prevCat == catDigit) {
					b.WriteByte('-')
				}
			}
			if cat == catUpper {
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
			prevDash = false
		default:
			if b.Len() > 0 && !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
		prevCat = cat
	}

	out := strings.Trim(b.String(), "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return out
}

type runeCategory int

const (
	catOther runeCategory = iota
	catLower
	catUpper
	catDigit
)

func categorize(r rune) runeCategory {
	switch {
	case r >= 'a' && r <= 'z':
		return catLower
	case r >= 'A' && r <= 'Z':
		return catUpper
	case r >= '0' && r <= '9':
		return catDigit
	default:
		// Non-ASCII letters act as separators to keep names predictable ASCII.
		return catOther
	}
}
