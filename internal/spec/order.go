package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// DocOrder captures the order in which paths and methods appear in the
// source document. Generic YAML/JSON decoding loses mapping key order,
// so it is recovered from the raw bytes via the yaml.v3 node API before
// the document is handed to kin-openapi.
type DocOrder struct {
	Paths []string
	// Methods maps a path to its declared HTTP methods, uppercased, in
	// document order.
	Methods map[string][]string
}

// orderFromDocument extracts the path and method declaration order from
// raw spec bytes. Returns nil when the document has no usable paths
// mapping; the normalizer then falls back to sorted order.
func orderFromDocument(raw []byte) *DocOrder {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}

	var pathsNode *yaml.Node
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "paths" {
			pathsNode = doc.Content[i+1]
			break
		}
	}
	if pathsNode == nil || pathsNode.Kind != yaml.MappingNode {
		return nil
	}

	ord := &DocOrder{Methods: make(map[string][]string)}
	for i := 0; i+1 < len(pathsNode.Content); i += 2 {
		p := pathsNode.Content[i].Value
		ord.Paths = append(ord.Paths, p)

		item := pathsNode.Content[i+1]
		if item.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(item.Content); j += 2 {
			switch m := strings.ToUpper(item.Content[j].Value); m {
			case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD":
				ord.Methods[p] = append(ord.Methods[p], m)
			}
		}
	}
	if len(ord.Paths) == 0 {
		return nil
	}
	return ord
}
