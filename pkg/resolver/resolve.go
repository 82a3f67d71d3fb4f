// Package resolver retrieves values from arbitrarily nested dynamic data by
// dotted/bracketed path, returning a caller-supplied default whenever the
// path cannot be resolved. It never returns an error and never panics,
// whatever the shape of the input.
package resolver

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/oakwood-commons/dotget/internal/formatter"
)

// previewWidth caps value previews in trace output.
const previewWidth = 80

// undefinedValue is the type behind Undefined.
type undefinedValue struct{}

func (undefinedValue) String() string { return "<undefined>" }

// Undefined marks a key that exists structurally but carries no value.
// Callers building trees by hand can store it to distinguish "present but
// empty" from an explicit nil; Resolve returns the default for it
// regardless of options.
var Undefined = undefinedValue{}

// Resolve walks path into root and returns the value found, or def when the
// path cannot be resolved. Equivalent to ResolveWith with zero Options.
//
//	Resolve(data, "user.profile.name", "anonymous")
//	Resolve(data, "user.tags[1]", nil)
func Resolve(root any, path string, def any) any {
	return ResolveWith(root, path, def, Options{})
}

// ResolveWith is Resolve with explicit Options. Resolution is a pure
// function of (root, path, opts): repeated calls yield identical results,
// with parsed paths memoized process-wide.
func ResolveWith(root any, path string, def any, opts Options) any {
	if !isTraversable(root) {
		if opts.DebugTrace {
			opts.tracer().Info("resolve: root is not traversable",
				"path", path,
				"root", formatter.Preview(root, previewWidth))
		}
		return def
	}

	cur := root
	for _, key := range splitPath(path) {
		if !isTraversable(cur) {
			if opts.DebugTrace {
				opts.tracer().Info("resolve: cannot descend into scalar",
					"path", path,
					"key", key,
					"value", formatter.Preview(cur, previewWidth))
			}
			return def
		}
		next, ok := step(cur, key)
		if !ok {
			if opts.DebugTrace {
				opts.tracer().Info("resolve: key not found",
					"path", path,
					"key", key)
			}
			return def
		}
		cur = next
	}

	// Missingness checks on the final value, in fixed order.
	if _, ok := cur.(undefinedValue); ok {
		return def
	}
	if isNilValue(cur) && opts.NilAsMissing {
		return def
	}
	if s, ok := cur.(string); ok && s == "" && opts.EmptyStringAsMissing {
		return def
	}
	return cur
}

// isNilValue reports whether v is nil, including typed nil pointers and
// other nilable kinds boxed in an interface.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() { //nolint:exhaustive // only nilable kinds
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// isTraversable reports whether v is a structure a key can descend into:
// a map with string-convertible keys, a slice or array, or a struct.
// Nil and scalars are not traversable.
func isTraversable(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case map[string]any, []any:
		return true
	case undefinedValue:
		return false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() { //nolint:exhaustive // only container kinds are relevant
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

// step performs one key lookup on cur. The boolean result is presence:
// blocked keys, unknown keys, and out-of-range indices all report absent.
// Only keys owned by the value itself resolve; for structs that means
// exported fields, honoring json tags.
func step(cur any, key string) (any, bool) {
	if isBlockedKey(key) {
		return nil, false
	}

	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[key]
		return v, ok
	case []any:
		idx, ok := sliceIndex(key, len(t))
		if !ok {
			return nil, false
		}
		return t[idx], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() { //nolint:exhaustive // only container kinds can hold children
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mapKey := reflect.ValueOf(key).Convert(rv.Type().Key())
		value := rv.MapIndex(mapKey)
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, ok := sliceIndex(key, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Struct:
		return structFieldValue(rv, key)
	default:
		return nil, false
	}
}

// sliceIndex parses key as a sequence index and bounds-checks it.
func sliceIndex(key string, length int) (int, bool) {
	if !isIndexToken(key) {
		return 0, false
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx >= length {
		return 0, false
	}
	return idx, true
}

func structFieldValue(rv reflect.Value, key string) (any, bool) {
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		tagName := strings.Split(tag, ",")[0]
		if tagName == "-" {
			continue
		}
		if tagName == key || field.Name == key {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}
