package resolver

import (
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// captureLogger collects formatted log lines for assertions.
func captureLogger(lines *[]string) logr.Logger {
	return funcr.New(func(prefix, args string) {
		*lines = append(*lines, args)
	}, funcr.Options{})
}

func TestTraceRootNotTraversable(t *testing.T) {
	var lines []string
	lgr := captureLogger(&lines)
	got := ResolveWith("just a string", "a.b", "def", Options{DebugTrace: true, Logger: &lgr})
	if got != "def" {
		t.Fatalf("expected 'def', got %v", got)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 trace line, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "just a string") {
		t.Fatalf("trace should include the offending root, got %q", lines[0])
	}
}

func TestTraceNamesStoppingKey(t *testing.T) {
	var lines []string
	lgr := captureLogger(&lines)
	root := map[string]any{"user": map[string]any{"name": "alice"}}
	got := ResolveWith(root, "user.age", "def", Options{DebugTrace: true, Logger: &lgr})
	if got != "def" {
		t.Fatalf("expected 'def', got %v", got)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], `"age"`) {
		t.Fatalf("trace should name the missing key, got %v", lines)
	}
}

func TestTraceScalarIntermediate(t *testing.T) {
	var lines []string
	lgr := captureLogger(&lines)
	root := map[string]any{"count": 5}
	got := ResolveWith(root, "count.value", "def", Options{DebugTrace: true, Logger: &lgr})
	if got != "def" {
		t.Fatalf("expected 'def', got %v", got)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], `"value"`) || !strings.Contains(lines[0], "5") {
		t.Fatalf("trace should name the key and the scalar it hit, got %v", lines)
	}
}

func TestNoTraceByDefault(t *testing.T) {
	var lines []string
	lgr := captureLogger(&lines)
	_ = ResolveWith(nil, "a", "def", Options{Logger: &lgr})
	if len(lines) != 0 {
		t.Fatalf("expected no trace output without DebugTrace, got %v", lines)
	}
}

func TestTraceDoesNotChangeResult(t *testing.T) {
	var lines []string
	lgr := captureLogger(&lines)
	root := sampleRoot()
	quiet := Resolve(root, "user.tags[0]", "def")
	traced := ResolveWith(root, "user.tags[0]", "def", Options{DebugTrace: true, Logger: &lgr})
	if quiet != traced {
		t.Fatalf("trace changed the result: %v vs %v", quiet, traced)
	}
}
