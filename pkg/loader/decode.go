package loader

import (
	"fmt"
	"reflect"
)

// TryDecode attempts to parse a string value as serialized structured data.
// It returns the decoded structure and true only when the result is a map or
// slice; plain strings and scalars return (nil, false).
func TryDecode(value string) (any, bool) {
	if value == "" {
		return nil, false
	}

	parsed, err := LoadRoot(value)
	if err != nil {
		return nil, false
	}

	if isStructured(parsed) {
		return parsed, true
	}
	return nil, false
}

// RecursiveDecode walks a data tree and replaces any string leaf that can be
// deserialized with its parsed structure, so paths can resolve into embedded
// documents. Depth is capped to guard against pathological nesting.
func RecursiveDecode(node any) any {
	return recursiveDecode(node, 0)
}

const maxDecodeDepth = 20

func recursiveDecode(node any, depth int) any {
	if depth > maxDecodeDepth {
		return node
	}

	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = recursiveDecode(val, depth+1)
		}
		return out

	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = recursiveDecode(val, depth+1)
		}
		return out

	case string:
		if decoded, ok := TryDecode(v); ok {
			// The decoded structure may itself contain serialized strings.
			return recursiveDecode(decoded, depth+1)
		}
		return v

	default:
		return recursiveDecodeReflect(node, depth)
	}
}

// recursiveDecodeReflect handles typed containers (map[K]V, []T) that do not
// match the common dynamic cases, converting them to map[string]any / []any
// while decoding string leaves.
func recursiveDecodeReflect(node any, depth int) any {
	if node == nil {
		return nil
	}

	rv := reflect.ValueOf(node)
	switch rv.Kind() { //nolint:exhaustive // only containers are decodable
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			var keyStr string
			if k.Kind() == reflect.String {
				keyStr = k.String()
			} else {
				keyStr = fmt.Sprintf("%v", k.Interface())
			}
			out[keyStr] = recursiveDecode(iter.Value().Interface(), depth+1)
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = recursiveDecode(rv.Index(i).Interface(), depth+1)
		}
		return out

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return recursiveDecode(rv.Elem().Interface(), depth+1)

	default:
		return node
	}
}

// isStructured reports whether v is a map or slice, i.e. a navigable
// structure.
func isStructured(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	rv := reflect.ValueOf(v)
	kind := rv.Kind()
	return kind == reflect.Map || kind == reflect.Slice
}
