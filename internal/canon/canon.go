// Package canon implements the Canonicalizer (§4.A): an order-independent,
// type-preserving normalization of structured values, used as the common
// input to both the request hasher and the structural differ.
//
// Grounded on internal/rules/engine.go's jsonPointer/splitPtr walk over a
// decoded `any` tree (map[string]any / []any / string / float64 / bool /
// nil) — the same shapes encoding/json produces and that canon normalizes.
package canon

import (
	"encoding/json"
	"sort"
	"strings"
)

// Canonicalize normalizes v into its canonical form:
//   - map keys are not reordered in the return value (Go maps have no
//     order), but every consumer of a canonical map must range over
//     sorted keys — see SortedKeys — so the *observed* order is always
//     lexicographic.
//   - sequences are recursed element-wise; order is preserved (sorting
//     is the tolerance engine's job, §4.C, not the canonicalizer's).
//   - a string response body is parsed as JSON only when its first
//     non-space rune is '{' or '[', otherwise it is left as a string.
//   - numbers/bools/nil pass through unchanged; equality is left to the
//     caller (value comparison, not textual).
//
// Canonicalize never fails: any input that cannot be recognized as one
// of the above is returned unchanged.
func Canonicalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Canonicalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Canonicalize(val)
		}
		return out
	case string:
		if parsed, ok := maybeParseJSON(x); ok {
			return Canonicalize(parsed)
		}
		return x
	default:
		return x
	}
}

// maybeParseJSON parses s as JSON only when its first non-whitespace rune
// is '{' or '[', per §4.A.
func maybeParseJSON(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, false
	}
	switch trimmed[0] {
	case '{', '[':
	default:
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, false
	}
	return v, true
}

// SortedKeys returns the keys of m sorted lexicographically, stable
// across platforms (§4.A).
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromJSON decodes a JSON byte slice into a canonical value. Numbers
// decode as float64 via the standard decoder (equality is by value, so
// this is sufficient per §4.A).
func FromJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return Canonicalize(v), nil
}

// FromAny canonicalizes a Go value that has already passed through
// encoding/json decoding (map[string]any / []any / primitives), or a
// plain Go struct — in the latter case it round-trips through JSON to
// obtain the decoded shape.
func FromAny(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any, string, float64, int, int64, bool, nil:
		return Canonicalize(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return FromJSON(data)
	}
}

// Encode produces a deterministic textual serialization of a canonical
// value: object keys are emitted in sorted order, recursively. This is
// the `encode` function referenced by §4.B's hash definition.
func Encode(v any) []byte {
	var sb strings.Builder
	encode(&sb, v)
	return []byte(sb.String())
}

func encode(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case map[string]any:
		sb.WriteByte('{')
		keys := SortedKeys(x)
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeString(sb, k)
			sb.WriteByte(':')
			encode(sb, x[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				sb.WriteByte(',')
			}
			encode(sb, e)
		}
		sb.WriteByte(']')
	default:
		data, err := json.Marshal(x)
		if err != nil {
			sb.WriteString("null")
			return
		}
		sb.Write(data)
	}
}

func encodeString(sb *strings.Builder, s string) {
	data, _ := json.Marshal(s)
	sb.Write(data)
}

// TypeCategory classifies a canonical value's runtime type into the
// categories §4.D's type-change detection compares: object, sequence,
// string, number, boolean, null.
type TypeCategory string

const (
	TypeObject   TypeCategory = "object"
	TypeSequence TypeCategory = "sequence"
	TypeString   TypeCategory = "string"
	TypeNumber   TypeCategory = "number"
	TypeBoolean  TypeCategory = "boolean"
	TypeNull     TypeCategory = "null"
)

// CategoryOf returns v's TypeCategory.
func CategoryOf(v any) TypeCategory {
	switch v.(type) {
	case nil:
		return TypeNull
	case map[string]any:
		return TypeObject
	case []any:
		return TypeSequence
	case string:
		return TypeString
	case float64, int, int64, float32:
		return TypeNumber
	case bool:
		return TypeBoolean
	default:
		return TypeString
	}
}
