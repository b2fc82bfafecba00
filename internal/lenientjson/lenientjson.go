// Package lenientjson parses editor-style JSON: line and block comments
// outside string literals and trailing commas are accepted.
package lenientjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/tailscale/hujson"
)

// ErrNotObject is returned when a settings document is not a JSON object.
var ErrNotObject = errors.New("top-level value is not an object")

// Standardize strips comments and trailing commas, returning strict JSON.
func Standardize(data []byte) ([]byte, error) {
	out, err := hujson.Standardize(append([]byte(nil), data...))
	if err != nil {
		return nil, fmt.Errorf("lenientjson: %w", err)
	}
	return out, nil
}

// Document is a standardised JSON object ready for key lookups.
type Document struct {
	data []byte
}

// Parse standardises data and requires a top-level object.
func Parse(data []byte) (*Document, error) {
	std, err := Standardize(data)
	if err != nil {
		return nil, err
	}
	if !json.Valid(std) {
		return nil, fmt.Errorf("lenientjson: invalid JSON")
	}
	_, typ, _, err := jsonparser.Get(std)
	if err != nil {
		return nil, fmt.Errorf("lenientjson: %w", err)
	}
	if typ != jsonparser.Object {
		return nil, fmt.Errorf("lenientjson: %w", ErrNotObject)
	}
	return &Document{data: std}, nil
}

// Bytes returns the standardised JSON.
func (d *Document) Bytes() []byte {
	return d.data
}

// Lookup resolves key and decodes its value. A dotted key is matched
// against literal object keys first (editor settings use dotted names such
// as "editor.formatOnSave"), then by nested traversal, longest literal
// prefix first. found is false when no interpretation of key exists.
func (d *Document) Lookup(key string) (value any, found bool, err error) {
	raw, typ, ok := lookup(d.data, strings.Split(key, "."))
	if !ok {
		return nil, false, nil
	}
	v, err := decode(raw, typ)
	if err != nil {
		return nil, true, fmt.Errorf("lenientjson: decode %q: %w", key, err)
	}
	return v, true, nil
}

func lookup(obj []byte, segs []string) ([]byte, jsonparser.ValueType, bool) {
	for n := len(segs); n >= 1; n-- {
		k := strings.Join(segs[:n], ".")
		val, typ, _, err := jsonparser.Get(obj, k)
		if err != nil || typ == jsonparser.NotExist {
			continue
		}
		if n == len(segs) {
			return val, typ, true
		}
		if typ != jsonparser.Object {
			continue
		}
		if v, t, ok := lookup(val, segs[n:]); ok {
			return v, t, true
		}
	}
	return nil, jsonparser.NotExist, false
}

// decode turns a jsonparser value into plain Go data (the same shapes
// encoding/json produces for interface{} targets).
func decode(raw []byte, typ jsonparser.ValueType) (any, error) {
	switch typ {
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Null:
		return nil, nil
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Normalize converts arbitrary Go data (for example values decoded from
// YAML) into the shapes encoding/json produces, so values from different
// sources can be compared with Equal.
func Normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Equal reports whether a and b are the same JSON value.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

// Format renders v compactly for messages.
func Format(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
