package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compose renders a mapping node as a frontmatter block followed by body.
// Leading blank lines of body are dropped and exactly one blank line
// separates the block from the body.
func Compose(fields *yaml.Node, body string) ([]byte, error) {
	if fields == nil || fields.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parser: compose: fields must be a mapping node")
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if len(fields.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(fields); err != nil {
			return nil, fmt.Errorf("parser: compose: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("parser: compose: %w", err)
		}
	}
	buf.WriteString(delim + "\n")

	body = strings.TrimLeft(body, "\r\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}

// Merge returns a new mapping node holding the keys of first in order,
// followed by the keys of rest that first does not define.
func Merge(first, rest *yaml.Node) *yaml.Node {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := map[string]struct{}{}
	for _, m := range []*yaml.Node{first, rest} {
		if m == nil || m.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(m.Content); i += 2 {
			key := m.Content[i].Value
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out.Content = append(out.Content, m.Content[i], m.Content[i+1])
		}
	}
	return out
}
