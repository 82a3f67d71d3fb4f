// Package core is the embedding surface for dotget: a small Engine bundling
// the path resolver, the CEL evaluator, and output formatting behind
// swappable interfaces.
package core

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dotget/internal/expr"
	"github.com/oakwood-commons/dotget/internal/formatter"
	"github.com/oakwood-commons/dotget/pkg/loader"
	"github.com/oakwood-commons/dotget/pkg/resolver"
)

// Resolver resolves a path into a root value, falling back to def.
type Resolver interface {
	ResolveWith(root any, path string, def any, opts resolver.Options) any
}

// Evaluator evaluates expressions against a root node.
type Evaluator interface {
	Evaluate(expression string, root any) (any, error)
}

// Formatter defines rendering behavior for resolved values.
type Formatter interface {
	Stringify(v any) string
	FormatYAML(v any) (string, error)
	FormatJSON(v any, pretty bool) (string, error)
}

// Engine provides a minimal shared API for loading, resolving, evaluating,
// and rendering data.
type Engine struct {
	Resolver  Resolver
	Evaluator Evaluator
	Formatter Formatter
	Defaults  resolver.Options
}

// Option configures the Engine.
type Option func(*Engine)

// WithResolver sets a custom resolver.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.Resolver = r
	}
}

// WithEvaluator sets a custom expression evaluator.
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) {
		e.Evaluator = ev
	}
}

// WithFormatter sets a custom formatter.
func WithFormatter(f Formatter) Option {
	return func(e *Engine) {
		e.Formatter = f
	}
}

// WithDefaults sets the resolver options applied by Get.
func WithDefaults(opts resolver.Options) Option {
	return func(e *Engine) {
		e.Defaults = opts
	}
}

// New creates an Engine with defaults.
func New(opts ...Option) (*Engine, error) {
	engine := &Engine{}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.Resolver == nil {
		engine.Resolver = defaultResolver{}
	}
	if engine.Evaluator == nil {
		ev, err := expr.NewEvaluator()
		if err != nil {
			return nil, err
		}
		engine.Evaluator = ev
	}
	if engine.Formatter == nil {
		engine.Formatter = defaultFormatter{}
	}
	return engine, nil
}

// LoadRoot parses input into a single root node; multi-doc inputs return a slice.
func LoadRoot(input string) (any, error) {
	return loader.LoadRoot(input)
}

// LoadRootBytes parses input bytes into a single root node.
func LoadRootBytes(data []byte) (any, error) {
	return loader.LoadRootBytes(data)
}

// LoadRootBytesWithLogger is like LoadRootBytes but records format detection
// through the provided logger.
func LoadRootBytesWithLogger(data []byte, lgr logr.Logger) (any, error) {
	return loader.LoadRootBytesWithLogger(data, lgr)
}

// LoadFile reads a file and parses it into a single root node.
func LoadFile(path string) (any, error) {
	return loader.LoadFile(path)
}

// LoadFileWithLogger is like LoadFile but records format detection through
// the provided logger.
func LoadFileWithLogger(path string, lgr logr.Logger) (any, error) {
	return loader.LoadFileWithLogger(path, lgr)
}

// LoadObject accepts an already parsed object and normalizes it for
// traversal. Strings and byte slices go through format auto-detection.
func LoadObject(value any) (any, error) {
	return loader.LoadObject(value)
}

// Get resolves path into root with the Engine's default options, returning
// def when the path cannot be resolved.
func (e *Engine) Get(root any, path string, def any) any {
	if e == nil || e.Resolver == nil {
		return def
	}
	return e.Resolver.ResolveWith(root, path, def, e.Defaults)
}

// GetWith resolves path with explicit options.
func (e *Engine) GetWith(root any, path string, def any, opts resolver.Options) any {
	if e == nil || e.Resolver == nil {
		return def
	}
	return e.Resolver.ResolveWith(root, path, def, opts)
}

// Evaluate runs the expression evaluator against the provided root node.
func (e *Engine) Evaluate(expression string, root any) (any, error) {
	if e == nil || e.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is not configured")
	}
	return e.Evaluator.Evaluate(expression, root)
}

// Stringify renders a value into a compact display string.
func (e *Engine) Stringify(v any) string {
	if e == nil || e.Formatter == nil {
		return ""
	}
	return e.Formatter.Stringify(v)
}

type defaultResolver struct{}

func (defaultResolver) ResolveWith(root any, path string, def any, opts resolver.Options) any {
	return resolver.ResolveWith(root, path, def, opts)
}

type defaultFormatter struct{}

func (defaultFormatter) Stringify(v any) string {
	return formatter.Stringify(v)
}

func (defaultFormatter) FormatYAML(v any) (string, error) {
	return formatter.FormatYAML(v, formatter.YAMLOptions{})
}

func (defaultFormatter) FormatJSON(v any, pretty bool) (string, error) {
	return formatter.FormatJSON(v, pretty)
}
