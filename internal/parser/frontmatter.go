// Package parser splits and rewrites YAML frontmatter in Markdown content.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var bom = []byte("\xef\xbb\xbf")

var (
	// ErrNoFrontmatter means the content does not start with a --- line.
	ErrNoFrontmatter = errors.New("no frontmatter block")
	// ErrMalformedFrontmatter means the block is unterminated or is not a
	// YAML mapping.
	ErrMalformedFrontmatter = errors.New("malformed mapping")
)

// Document is Markdown content split at its frontmatter block.
type Document struct {
	// Raw is the YAML text between the delimiters.
	Raw string
	// Fields is the decoded mapping. Never nil on success.
	Fields map[string]any
	// Node is the decoded mapping node, preserving key order.
	Node *yaml.Node
	// Body is everything after the closing delimiter line.
	Body string
}

// Split separates the leading frontmatter block from the body. The first
// line must be exactly --- (an optional UTF-8 BOM is tolerated) and the
// block ends at the next line that is exactly ---.
func Split(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, bom)
	lines := strings.SplitAfter(string(data), "\n")
	if len(lines) == 0 || !isDelim(lines[0]) {
		return nil, ErrNoFrontmatter
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if isDelim(lines[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("%w: closing %s not found", ErrMalformedFrontmatter, delim)
	}

	raw := strings.Join(lines[1:end], "")
	body := strings.Join(lines[end+1:], "")

	node, fields, err := decodeMapping(raw)
	if err != nil {
		return nil, err
	}
	return &Document{Raw: raw, Fields: fields, Node: node, Body: body}, nil
}

func isDelim(line string) bool {
	return strings.TrimRight(line, "\r\n") == delim
}

// decodeMapping parses raw YAML and requires a mapping at the top level.
// An empty block is an empty mapping.
func decodeMapping(raw string) (*yaml.Node, map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFrontmatter, err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, map[string]any{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformedFrontmatter)
	}

	fields := map[string]any{}
	if err := root.Decode(&fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFrontmatter, err)
	}
	return root, fields, nil
}
