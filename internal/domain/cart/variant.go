package cart

import "encoding/json"

// Variant is an optional attribute set (color, size, ...) that together with
// the product id identifies a cart line. Values may be any JSON value,
// including nested objects and arrays. A nil or empty Variant means
// "no variant".
type Variant map[string]any

// Key returns a canonical encoding of the variant: deeply equal attribute
// sets give equal keys regardless of insertion order. No variant encodes
// as "".
func (v Variant) Key() string {
	if len(v) == 0 {
		return ""
	}
	// encoding/json writes map keys in sorted order at every level.
	b, err := json.Marshal(map[string]any(v))
	if err != nil {
		return ""
	}
	return string(b)
}

// normalize maps an empty variant to nil and deep-copies the rest so the
// cart never aliases a caller's maps or slices.
func (v Variant) normalize() Variant {
	if len(v) == 0 {
		return nil
	}
	out := make(Variant, len(v))
	for k, val := range v {
		out[k] = copyValue(val)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case Variant:
		return map[string]any(t.normalize())
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
