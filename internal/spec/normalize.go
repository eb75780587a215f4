package spec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Build converts a resolved OpenAPI v3 document into the Model. All
// version-specific handling happens before this point; Build never sees
// Swagger 2.0 constructs. order carries the declaration order recovered
// from the raw bytes; nil falls back to sorted paths with a fixed
// method order.
func Build(doc *openapi3.T, order *DocOrder) (*Model, error) {
	if doc == nil {
		return nil, &Error{Code: CodeInvalid, Message: "spec: nil document"}
	}
	if doc.Paths == nil || len(doc.Paths) == 0 {
		return nil, &Error{Code: CodeInvalid, Message: "spec: document has no paths"}
	}

	m := &Model{}
	if doc.Info != nil {
		m.Title = strings.TrimSpace(doc.Info.Title)
		m.Description = strings.TrimSpace(doc.Info.Description)
		m.Version = strings.TrimSpace(doc.Info.Version)
	}
	for _, s := range doc.Servers {
		if s == nil || strings.TrimSpace(s.URL) == "" {
			continue
		}
		m.Servers = append(m.Servers, Server{URL: strings.TrimSpace(s.URL), Description: strings.TrimSpace(s.Description)})
	}
	m.Security = buildSecuritySchemes(doc)

	for _, p := range orderedPathKeys(doc.Paths, order) {
		item := doc.Paths[p]
		if item == nil {
			continue
		}
		if item.Options != nil || item.Trace != nil {
			m.warnf("%s: OPTIONS/TRACE operations are not exposed as commands", p)
		}

		for _, method := range orderedMethods(p, item, order) {
			op, err := buildOperation(m, p, method, item, operationFor(item, method))
			if err != nil {
				return nil, err
			}
			m.Operations = append(m.Operations, *op)
		}
	}

	return m, nil
}

var methodOrder = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD"}

func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "GET":
		return item.Get
	case "POST":
		return item.Post
	case "PUT":
		return item.Put
	case "DELETE":
		return item.Delete
	case "PATCH":
		return item.Patch
	case "HEAD":
		return item.Head
	default:
		return nil
	}
}

// orderedPathKeys returns path keys in document order, with any paths
// the document order does not cover (or all of them, when order is nil)
// appended sorted so the result stays deterministic.
func orderedPathKeys(paths openapi3.Paths, order *DocOrder) []string {
	keys := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	if order != nil {
		for _, p := range order.Paths {
			if _, ok := paths[p]; ok && !seen[p] {
				keys = append(keys, p)
				seen[p] = true
			}
		}
	}
	rest := make([]string, 0, len(paths))
	for p := range paths {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// orderedMethods returns the path item's declared methods in document
// order, falling back to a fixed method order for any the recovered
// order misses.
func orderedMethods(path string, item *openapi3.PathItem, order *DocOrder) []string {
	out := make([]string, 0, len(methodOrder))
	seen := make(map[string]bool, len(methodOrder))
	if order != nil {
		for _, m := range order.Methods[path] {
			if operationFor(item, m) != nil && !seen[m] {
				out = append(out, m)
				seen[m] = true
			}
		}
	}
	for _, m := range methodOrder {
		if operationFor(item, m) != nil && !seen[m] {
			out = append(out, m)
		}
	}
	return out
}

func buildOperation(m *Model, path, method string, item *openapi3.PathItem, src *openapi3.Operation) (*Operation, error) {
	op := &Operation{
		OperationID: strings.TrimSpace(src.OperationID),
		Method:      method,
		Path:        path,
		Summary:     strings.TrimSpace(src.Summary),
		Description: strings.TrimSpace(src.Description),
	}

	// Path-level parameters first, operation-level ones override in place.
	merged := make([]Param, 0, len(item.Parameters)+len(src.Parameters))
	index := map[string]int{}
	add := func(pref *openapi3.ParameterRef) {
		pm := buildParam(m, method, path, pref)
		if pm == nil {
			return
		}
		key := pm.In + ":" + pm.Name
		if i, ok := index[key]; ok {
			merged[i] = *pm
			return
		}
		index[key] = len(merged)
		merged = append(merged, *pm)
	}
	for _, pref := range item.Parameters {
		add(pref)
	}
	for _, pref := range src.Parameters {
		add(pref)
	}

	// Every placeholder needs a declared path parameter; this is a
	// load-time failure, not a dispatch-time one.
	byName := map[string]bool{}
	for _, pm := range merged {
		if pm.In == "path" {
			byName[pm.Name] = true
		}
	}
	for _, ph := range Placeholders(path) {
		if !byName[ph] {
			return nil, &Error{
				Code:    CodeInvalid,
				Message: fmt.Sprintf("spec: %s %s: path placeholder {%s} has no path parameter", method, path, ph),
			}
		}
	}
	// Declared path params that never appear in the template cannot be
	// placed anywhere; drop them rather than failing the whole load.
	kept := merged[:0]
	phSet := map[string]bool{}
	for _, ph := range Placeholders(path) {
		phSet[ph] = true
	}
	for _, pm := range merged {
		if pm.In == "path" && !phSet[pm.Name] {
			m.warnf("%s %s: dropping path parameter %q with no matching placeholder", method, path, pm.Name)
			continue
		}
		kept = append(kept, pm)
	}
	op.Params = kept

	if src.RequestBody != nil {
		op.Body = buildBody(m, method, path, src.RequestBody)
	}
	return op, nil
}

func buildParam(m *Model, method, path string, pref *openapi3.ParameterRef) *Param {
	if pref == nil || pref.Value == nil {
		m.warnf("%s %s: dropping unresolved parameter reference", method, path)
		return nil
	}
	p := pref.Value
	name := strings.TrimSpace(p.Name)
	in := strings.ToLower(strings.TrimSpace(p.In))
	if name == "" {
		return nil
	}
	switch in {
	case "path", "query", "header", "cookie":
	default:
		m.warnf("%s %s: dropping parameter %q with unsupported location %q", method, path, name, p.In)
		return nil
	}

	pm := &Param{
		Name:        name,
		In:          in,
		Required:    p.Required || in == "path",
		Type:        TypeString,
		Description: strings.TrimSpace(p.Description),
	}

	if p.Schema != nil && p.Schema.Value != nil {
		s := p.Schema.Value
		pm.Default = s.Default
		switch strings.ToLower(s.Type) {
		case "string", "":
			pm.Type = TypeString
		case "integer":
			pm.Type = TypeInteger
		case "number":
			pm.Type = TypeNumber
		case "boolean":
			pm.Type = TypeBoolean
		case "array":
			if in == "path" {
				m.warnf("%s %s: path parameter %q has array type, treating as string", method, path, name)
				break
			}
			pm.Type = TypeArray
			pm.Elem = TypeString
			if s.Items != nil && s.Items.Value != nil {
				switch strings.ToLower(s.Items.Value.Type) {
				case "integer":
					pm.Elem = TypeInteger
				case "number":
					pm.Elem = TypeNumber
				case "boolean":
					pm.Elem = TypeBoolean
				}
			}
		default:
			// Deep objects in query/header have no flat flag mapping.
			m.warnf("%s %s: parameter %q has unsupported type %q, treating as string", method, path, name, s.Type)
		}
	}
	return pm
}

func buildBody(m *Model, method, path string, ref *openapi3.RequestBodyRef) *Body {
	if ref.Value == nil {
		m.warnf("%s %s: dropping unresolved requestBody reference", method, path)
		return nil
	}
	rb := ref.Value
	if len(rb.Content) == 0 {
		return nil
	}

	body := &Body{Required: rb.Required}
	cts := make([]string, 0, len(rb.Content))
	for ct := range rb.Content {
		cts = append(cts, ct)
	}
	sort.Strings(cts)
	body.ContentTypes = cts

	var schema *openapi3.Schema
	for _, ct := range cts {
		if strings.HasPrefix(ct, "application/json") {
			if mt := rb.Content[ct]; mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
				schema = mt.Schema.Value
			}
			break
		}
	}
	if schema == nil {
		return body
	}

	if raw, err := json.Marshal(schema); err == nil {
		body.Schema = raw
	}
	if len(schema.Properties) > 0 {
		required := map[string]bool{}
		for _, r := range schema.Required {
			required[r] = true
		}
		names := make([]string, 0, len(schema.Properties))
		for n := range schema.Properties {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			typ := "object"
			if pr := schema.Properties[n]; pr != nil && pr.Value != nil && pr.Value.Type != "" {
				typ = pr.Value.Type
			}
			body.Fields = append(body.Fields, BodyField{Name: n, Type: typ, Required: required[n]})
		}
	}
	return body
}

func buildSecuritySchemes(doc *openapi3.T) map[string]SecurityScheme {
	if doc.Components == nil || len(doc.Components.SecuritySchemes) == 0 {
		return nil
	}
	out := make(map[string]SecurityScheme, len(doc.Components.SecuritySchemes))
	for name, ref := range doc.Components.SecuritySchemes {
		if ref == nil || ref.Value == nil {
			continue
		}
		ss := ref.Value
		switch strings.ToLower(ss.Type) {
		case "http":
			switch strings.ToLower(ss.Scheme) {
			case "basic":
				out[name] = SecurityScheme{Type: "basic"}
			case "bearer":
				out[name] = SecurityScheme{Type: "bearer"}
			}
		case "apikey":
			out[name] = SecurityScheme{Type: "apiKey", ParamName: ss.Name, In: strings.ToLower(ss.In)}
		case "oauth2":
			scheme := SecurityScheme{Type: "oauth2"}
			if ss.Flows != nil && ss.Flows.ClientCredentials != nil {
				scheme.TokenURL = ss.Flows.ClientCredentials.TokenURL
			}
			out[name] = scheme
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m *Model) warnf(format string, args ...any) {
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}
