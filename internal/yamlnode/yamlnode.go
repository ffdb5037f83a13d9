// Package yamlnode holds helpers for custom yaml.v3 unmarshalers.
package yamlnode

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// DecodeStrict decodes a mapping node into out, rejecting keys outside
// allowed. Node.Decode ignores KnownFields, so unions decoding their own
// mappings go through here instead.
func DecodeStrict(node *yaml.Node, out any, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return fmt.Errorf("line %d: unknown field %q", key.Line, key.Value)
		}
	}
	return node.Decode(out)
}
