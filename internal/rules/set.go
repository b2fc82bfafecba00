package rules

import (
	"crypto/sha256"
	"encoding/hex"

	"gopkg.in/yaml.v3"
)

// Group is a named, weighted list of rules evaluated into one report.
type Group struct {
	Name        string
	Description string
	Weight      int
	Rules       []Rule
}

// FrontmatterFix standardises the frontmatter of files matching Path.
type FrontmatterFix struct {
	Path string
	// Fields is a mapping node; its key order is the output order.
	Fields *yaml.Node
}

// Set is a loaded rule set.
type Set struct {
	Version int
	Groups  []Group
	Fixes   []FrontmatterFix

	raw []byte
}

// Rules returns every rule of every group in declaration order.
func (s *Set) Rules() []Rule {
	var out []Rule
	for _, g := range s.Groups {
		out = append(out, g.Rules...)
	}
	return out
}

// Group returns the group with the given name.
func (s *Set) Group(name string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Raw returns the YAML the set was loaded from.
func (s *Set) Raw() []byte {
	return s.raw
}

// Checksum returns the hex-encoded SHA-256 digest of the source YAML.
func (s *Set) Checksum() string {
	h := sha256.Sum256(s.raw)
	return hex.EncodeToString(h[:])
}
