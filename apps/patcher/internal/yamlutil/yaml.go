package yamlutil

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseNode unmarshals a YAML string into a document node, keeping comments
// and key order so the document can be re-encoded faithfully.
func ParseNode(content string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	return &doc, nil
}

// MarshalNode serializes a node with two-space indentation, the layout
// GitHub workflow files conventionally use.
func MarshalNode(node *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("yaml marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("yaml marshal: %w", err)
	}
	return buf.String(), nil
}

// GetNode traverses nested mappings by key and returns the value node.
// A document node is unwrapped to its root first.
func GetNode(node *yaml.Node, keys ...string) (*yaml.Node, error) {
	current := root(node)
	for _, key := range keys {
		if current == nil || current.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("key %q: parent is not a map", key)
		}
		next := lookup(current, key)
		if next == nil {
			return nil, fmt.Errorf("key %q not found", key)
		}
		current = next
	}
	return current, nil
}

// ScalarValues returns the values of a sequence of scalars. A single scalar
// is returned as a one-element slice, matching the shorthand GitHub accepts
// for branch filters.
func ScalarValues(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: sequence item is not a scalar", item.Line)
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: expected a scalar or sequence", node.Line)
	}
}

func root(node *yaml.Node) *yaml.Node {
	if node != nil && node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return node.Content[0]
	}
	return node
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
