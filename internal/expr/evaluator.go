// Package expr evaluates CEL expressions against loaded data, for queries
// that go beyond plain path lookup (filtering, projection, comparisons).
// The loaded document is bound to the variable "_".
package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Evaluator compiles and evaluates CEL expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the standard extension libraries
// (strings, encoders, lists, math) enabled.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Evaluate compiles and runs expr with data bound to "_", converting the
// result back to native Go values.
//
//	e.Evaluate(`_.items.filter(x, x.active)`, root)
func (e *Evaluator) Evaluate(expression string, data any) (any, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}

	result, _, err := prg.Eval(map[string]any{
		"_": data,
	})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}

	converted := toGo(result)
	if refVal, ok := converted.(ref.Val); ok {
		if valFunc, ok := refVal.(interface{ Value() any }); ok {
			converted = valFunc.Value()
		}
	}
	return converted, nil
}

// toGo converts CEL values to native Go types recursively, covering both
// primitives and collection types.
func toGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	if valuer, ok := val.(interface{ Value() any }); ok {
		inner := valuer.Value()

		if refSlice, ok := inner.([]ref.Val); ok {
			result := make([]any, len(refSlice))
			for i, elem := range refSlice {
				result[i] = toGo(elem)
			}
			return result
		}

		if slice, ok := inner.([]any); ok {
			result := make([]any, len(slice))
			for i, elem := range slice {
				if refVal, ok := elem.(ref.Val); ok {
					result[i] = toGo(refVal)
				} else if elemMap, ok := elem.(map[string]any); ok {
					result[i] = convertMapValues(elemMap)
				} else {
					result[i] = elem
				}
			}
			return result
		}

		if m, ok := inner.(map[string]any); ok {
			return convertMapValues(m)
		}

		// CEL map literals carry ref.Val keys and values.
		if m, ok := inner.(map[ref.Val]ref.Val); ok {
			result := make(map[string]any, len(m))
			for k, v := range m {
				keyStr := ""
				if keyVal, ok := k.(interface{ Value() any }); ok {
					keyStr = fmt.Sprintf("%v", keyVal.Value())
				} else {
					keyStr = fmt.Sprintf("%v", k)
				}
				result[keyStr] = toGo(v)
			}
			return result
		}

		return inner
	}

	return val
}

// convertMapValues recursively converts map values from CEL types.
func convertMapValues(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if refVal, ok := v.(ref.Val); ok {
			result[k] = toGo(refVal)
		} else if innerMap, ok := v.(map[string]any); ok {
			result[k] = convertMapValues(innerMap)
		} else if slice, ok := v.([]any); ok {
			converted := make([]any, len(slice))
			for i, elem := range slice {
				if refVal, ok := elem.(ref.Val); ok {
					converted[i] = toGo(refVal)
				} else {
					converted[i] = elem
				}
			}
			result[k] = converted
		} else {
			result[k] = v
		}
	}
	return result
}

var functionCallPattern = regexp.MustCompile(`\b(?:map|filter|all|exists|exists_one|size|has|dyn)\s*\(`)

// IsExpression reports whether s needs full CEL evaluation rather than plain
// path lookup: function calls, comparisons, or explicit "_" references.
func IsExpression(s string) bool {
	if functionCallPattern.MatchString(s) {
		return true
	}
	for _, op := range []string{"==", "!=", "<=", ">=", "&&", "||"} {
		if strings.Contains(s, op) {
			return true
		}
	}
	return len(s) >= 2 && (s[:2] == "_." || s[:2] == "_[")
}
