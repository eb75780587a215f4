package cligen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/clify-dev/clify/internal/spec"
)

// paramBinding ties a FlagDescriptor to its bound pflag storage. All
// parameter flags are bound as strings (string arrays when repeatable)
// and coerced at invocation time so that type failures surface as
// FlagTypeError naming the flag.
type paramBinding struct {
	desc FlagDescriptor

	s  *string
	sa *[]string
}

func bindParamFlags(flags *pflag.FlagSet, d *Descriptor) []*paramBinding {
	out := make([]*paramBinding, 0, len(d.Flags))
	for _, fd := range d.Flags {
		b := &paramBinding{desc: fd}
		usage := flagUsage(fd)
		if fd.Param.Type == spec.TypeArray {
			b.sa = new([]string)
			var def []string
			if fd.Param.Default != nil {
				def = defaultValues(fd.Param.Default)
			}
			flags.StringArrayVar(b.sa, fd.Name, def, usage)
		} else {
			b.s = new(string)
			def := ""
			if fd.Param.Default != nil {
				def = fmt.Sprint(fd.Param.Default)
			}
			flags.StringVar(b.s, fd.Name, def, usage)
		}
		out = append(out, b)
	}
	return out
}

func flagUsage(fd FlagDescriptor) string {
	p := fd.Param
	usage := p.Description
	if usage == "" {
		usage = fmt.Sprintf("%s parameter %q", p.In, p.Name)
	}
	switch p.Type {
	case spec.TypeArray:
		elem := p.Elem
		if elem == "" {
			elem = spec.TypeString
		}
		usage += fmt.Sprintf(" (%s, repeatable)", elem)
	case spec.TypeString, "":
	default:
		usage += fmt.Sprintf(" (%s)", p.Type)
	}
	if p.Required {
		usage += " (required)"
	}
	return usage
}

func (b *paramBinding) changed(flags *pflag.FlagSet) bool {
	return flags.Changed(b.desc.Name)
}

// paramValue is one parameter with its coerced wire values, in flag
// declaration order.
type paramValue struct {
	desc   FlagDescriptor
	values []string
}

// collectValues checks required flags and coerces every supplied value
// per the declared type. A required flag that was not set and has no
// schema default fails with MissingFlagError; a value that does not
// parse fails with FlagTypeError.
func collectValues(flags *pflag.FlagSet, bindings []*paramBinding) ([]paramValue, error) {
	out := make([]paramValue, 0, len(bindings))
	for _, b := range bindings {
		p := b.desc.Param
		changed := b.changed(flags)
		if !changed && p.Required && p.Default == nil {
			return nil, &MissingFlagError{Flag: b.desc.Name}
		}
		if !changed && p.Default == nil {
			continue
		}

		var raw []string
		if p.Type == spec.TypeArray {
			if b.sa == nil || len(*b.sa) == 0 {
				continue
			}
			raw = append([]string(nil), (*b.sa)...)
		} else {
			raw = []string{*b.s}
		}

		elem := p.Type
		if p.Type == spec.TypeArray {
			elem = p.Elem
		}
		coerced := make([]string, 0, len(raw))
		for _, v := range raw {
			cv, err := coerceValue(b.desc.Name, elem, v)
			if err != nil {
				return nil, err
			}
			coerced = append(coerced, cv)
		}
		out = append(out, paramValue{desc: b.desc, values: coerced})
	}
	return out, nil
}

// defaultValues renders a schema default as raw flag values; list
// defaults keep one value per element.
func defaultValues(v any) []string {
	if items, ok := v.([]any); ok {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, fmt.Sprint(it))
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}

// coerceValue validates raw against the declared primitive type and
// returns the canonical wire form.
func coerceValue(flag string, t spec.ParamType, raw string) (string, error) {
	switch t {
	case spec.TypeInteger:
		if _, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err != nil {
			return "", &FlagTypeError{Flag: flag, Want: "integer", Value: raw}
		}
		return strings.TrimSpace(raw), nil
	case spec.TypeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
			return "", &FlagTypeError{Flag: flag, Want: "number", Value: raw}
		}
		return strings.TrimSpace(raw), nil
	case spec.TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			return "true", nil
		case "false":
			return "false", nil
		default:
			return "", &FlagTypeError{Flag: flag, Want: "boolean", Value: raw}
		}
	default:
		return raw, nil
	}
}
