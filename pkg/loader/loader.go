// Package loader parses serialized input into the dynamic trees the resolver
// walks. Input format is auto-detected: JSON, NDJSON, single and
// multi-document YAML, TOML, and JWT tokens are recognized.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/dotget/pkg/logger"
)

// LoadData loads structured data from a string, auto-detecting the format.
// Every format returns a []any with one element per document; single-document
// inputs produce a one-element slice.
func LoadData(input string) ([]any, error) {
	return loadData(input, logger.GetNoopLogger())
}

func loadData(input string, lgr *logr.Logger) ([]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	// JWT first: a single dot-separated base64url line.
	if IsJWT(input) {
		lgr.V(1).Info("loader: input detected as JWT")
		return loadJWT(input)
	}

	// Multi-document YAML is the most restrictive shape, check it early.
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		lgr.V(1).Info("loader: input detected as multi-document YAML")
		return loadMultiDocYAML(input)
	}

	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		lgr.V(1).Info("loader: input detected as NDJSON")
		return loadNDJSON(input)
	}

	// TOML before JSON: "[section]" headers look like JSON arrays.
	if isLikelyTOML(input) {
		lgr.V(1).Info("loader: input detected as TOML")
		return loadTOML(input)
	}

	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		lgr.V(1).Info("loader: input detected as JSON")
		return loadJSON(input)
	}

	lgr.V(1).Info("loader: falling back to YAML parse")
	return loadYAML(input)
}

// LoadRoot parses input into a single root node. Multi-document inputs are
// returned as a slice.
func LoadRoot(input string) (any, error) {
	return LoadRootWithLogger(input, *logger.GetNoopLogger())
}

// LoadRootWithLogger is LoadRoot with a logger that records which format the
// detection heuristics picked.
func LoadRootWithLogger(input string, lgr logr.Logger) (any, error) {
	results, err := loadData(input, &lgr)
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// LoadRootBytes parses input bytes into a single root node.
func LoadRootBytes(data []byte) (any, error) {
	return LoadRoot(string(data))
}

// LoadRootBytesWithLogger is LoadRootBytes with format-detection logging.
func LoadRootBytesWithLogger(data []byte, lgr logr.Logger) (any, error) {
	return LoadRootWithLogger(string(data), lgr)
}

// LoadFile reads a file and parses it into a single root node.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadRootBytes(data)
}

// LoadFileWithLogger is LoadFile with format-detection logging.
func LoadFileWithLogger(path string, lgr logr.Logger) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadRootBytesWithLogger(data, lgr)
}

// LoadObject accepts an already parsed object (maps, slices, structs).
// Strings and byte slices go through format detection; custom structs are
// normalized to map[string]any via a JSON round-trip so that resolver and
// expression evaluation see plain dynamic values.
func LoadObject(value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("object input is nil")
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() { //nolint:exhaustive // nilable kinds only
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil, fmt.Errorf("object input is nil")
		}
	}

	switch v := value.(type) {
	case string:
		return LoadRoot(v)
	case []byte:
		return LoadRootBytes(v)
	default:
		return normalizeValue(value)
	}
}

// normalizeValue converts arbitrary Go values to the dynamic types the rest
// of the system traverses. Plain scalars, maps, and already-dynamic slices
// pass through; structs are converted via JSON so tags are honored.
func normalizeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	kind := rv.Kind()
	if kind == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		kind = rv.Kind()
	}

	switch kind { //nolint:exhaustive // remaining kinds handled by the JSON fallback
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Map:
		return value, nil
	case reflect.Slice, reflect.Array:
		length := rv.Len()
		normalized := make([]any, length)
		for i := 0; i < length; i++ {
			val, err := normalizeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element [%d]: %w", i, err)
			}
			normalized[i] = val
		}
		return normalized, nil
	case reflect.Interface:
		return normalizeValue(rv.Interface())
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal custom type to JSON: %w", err)
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("cannot unmarshal to dynamic type: %w", err)
		}
		return result, nil
	}
}

// loadJSON parses a single JSON object or array.
func loadJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

// loadYAML parses a single YAML document.
func loadYAML(input string) ([]any, error) {
	var data any
	if err := yaml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return []any{data}, nil
}

// loadMultiDocYAML parses YAML with documents separated by "---".
func loadMultiDocYAML(input string) ([]any, error) {
	var results []any
	decoder := yaml.NewDecoder(strings.NewReader(input))

	for {
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		if doc != nil {
			results = append(results, doc)
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in multi-document YAML")
	}
	return results, nil
}

// loadNDJSON parses newline-delimited JSON. Lines that fail to parse are
// kept as plain strings.
func loadNDJSON(input string) ([]any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

// isLikelyNDJSON: a majority of non-empty lines must start with '{' or '['.
// Positive matching keeps YAML list files from being misclassified.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}

	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

// TOML section headers like [server] or [[items]], including quoted and
// dotted keys. JSON arrays like [1, 2, 3] do not match.
var tomlSectionPattern = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)

// TOML key = value lines (not "key: value", which is YAML).
var tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)

// isLikelyTOML: any section header, or a majority of key=value lines.
func isLikelyTOML(input string) bool {
	lines := strings.Split(input, "\n")

	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++

		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

// loadTOML parses TOML content.
func loadTOML(input string) ([]any, error) {
	var data any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{data}, nil
}
