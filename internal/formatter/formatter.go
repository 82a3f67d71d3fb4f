// Package formatter renders dynamic values for CLI output and for the short
// previews embedded in resolver trace logs.
package formatter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

// Stringify returns a compact single-line string representation for an
// arbitrary dynamic value. Scalars render verbatim, containers as compact
// JSON. Typed maps, slices, and structs passed by embedding users are
// marshaled the same way instead of falling back to Go's fmt map syntax.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return escapeScalarString(t)
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	case map[string]any, []any:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", t)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() { //nolint:exhaustive // only container kinds need JSON marshaling
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			if b, err := json.Marshal(v); err == nil {
				return string(b)
			}
		case reflect.Ptr:
			if !rv.IsNil() {
				elem := rv.Elem()
				if elem.Kind() == reflect.Struct || elem.Kind() == reflect.Map || elem.Kind() == reflect.Slice {
					if b, err := json.Marshal(v); err == nil {
						return string(b)
					}
				}
			}
		}
		return fmt.Sprintf("%v", v)
	}
}

// Preview returns Stringify output truncated to at most maxWidth display
// cells, with an ellipsis when content was cut. Wide runes are measured by
// display width so previews line up in log output. maxWidth <= 0 disables
// truncation.
func Preview(v any, maxWidth int) string {
	s := Stringify(v)
	if maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// escapeScalarString flattens control characters in scalar strings so
// rendered values stay single-line.
func escapeScalarString(s string) string {
	if s == "" {
		return s
	}
	// Normalize Windows newlines first, then escape what remains.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if strings.Contains(s, "\n") {
		s = strings.ReplaceAll(s, "\n", "\\n")
	}
	return s
}
