package resolver

import (
	"reflect"
	"testing"
)

func sampleRoot() map[string]any {
	return map[string]any{
		"user": map[string]any{
			"id": 1,
			"profile": map[string]any{
				"name": "Alice",
				"settings": map[string]any{
					"theme": "dark",
				},
			},
			"tags": []any{"admin", "editor"},
		},
		"meta": nil,
	}
}

func TestResolveNestedValue(t *testing.T) {
	got := Resolve(sampleRoot(), "user.profile.settings.theme", nil)
	if got != "dark" {
		t.Fatalf("expected 'dark', got %v", got)
	}
}

func TestResolveMissingPathReturnsDefault(t *testing.T) {
	got := Resolve(sampleRoot(), "user.address.city", "Unknown")
	if got != "Unknown" {
		t.Fatalf("expected 'Unknown', got %v", got)
	}
}

func TestResolveBracketIndex(t *testing.T) {
	got := Resolve(sampleRoot(), "user.tags[1]", nil)
	if got != "editor" {
		t.Fatalf("expected 'editor', got %v", got)
	}
}

func TestResolveThroughNilIntermediate(t *testing.T) {
	got := Resolve(sampleRoot(), "meta.foo", "fallback")
	if got != "fallback" {
		t.Fatalf("expected 'fallback', got %v", got)
	}
}

func TestResolveNonTraversableRoots(t *testing.T) {
	roots := []any{nil, "scalar", 42, 3.14, true}
	for _, root := range roots {
		if got := Resolve(root, "a.b", "def"); got != "def" {
			t.Fatalf("root %v (%T): expected 'def', got %v", root, root, got)
		}
	}
}

func TestResolveDotAndBracketEquivalence(t *testing.T) {
	root := map[string]any{"tags": []any{"a", "b", "c"}}
	dotted := Resolve(root, "tags.1", nil)
	bracketed := Resolve(root, "tags[1]", nil)
	quoted := Resolve(root, "tags['1']", nil)
	if dotted != "b" || bracketed != "b" || quoted != "b" {
		t.Fatalf("expected 'b' for all notations, got %v / %v / %v", dotted, bracketed, quoted)
	}
}

func TestResolveOutOfRangeIndex(t *testing.T) {
	root := map[string]any{"tags": []any{"a", "b"}}
	if got := Resolve(root, "tags.2", "def"); got != "def" {
		t.Fatalf("expected 'def', got %v", got)
	}
}

func TestResolveNegativeAndSignedIndexTokens(t *testing.T) {
	root := map[string]any{"tags": []any{"a", "b"}}
	for _, path := range []string{"tags.-1", "tags.+1", "tags[1e0]", "tags.1.5"} {
		if got := Resolve(root, path, "def"); got != "def" {
			t.Fatalf("path %q: expected 'def', got %v", path, got)
		}
	}
}

func TestResolveLeadingZeroIndex(t *testing.T) {
	root := map[string]any{"tags": []any{"a", "b"}}
	if got := Resolve(root, "tags.01", nil); got != "b" {
		t.Fatalf("expected 'b' for digits-only token, got %v", got)
	}
}

func TestResolveNilValueDefaultOff(t *testing.T) {
	root := map[string]any{"user": map[string]any{"bio": nil}}
	if got := Resolve(root, "user.bio", "default"); got != nil {
		t.Fatalf("expected nil without NilAsMissing, got %v", got)
	}
}

func TestResolveNilAsMissing(t *testing.T) {
	root := map[string]any{"user": map[string]any{"bio": nil}}
	got := ResolveWith(root, "user.bio", "default", Options{NilAsMissing: true})
	if got != "default" {
		t.Fatalf("expected 'default', got %v", got)
	}
}

func TestResolveTypedNilAsMissing(t *testing.T) {
	type owner struct {
		Contact *string `json:"contact"`
	}
	root := map[string]any{"owner": owner{}}
	got := ResolveWith(root, "owner.contact", "nobody", Options{NilAsMissing: true})
	if got != "nobody" {
		t.Fatalf("expected typed nil pointer to count as missing, got %v", got)
	}
	if got := Resolve(root, "owner.contact", "nobody"); got == "nobody" {
		t.Fatalf("typed nil pointer should pass through without NilAsMissing")
	}
}

func TestResolveEmptyStringDefaultOff(t *testing.T) {
	root := map[string]any{"user": map[string]any{"bio": ""}}
	if got := Resolve(root, "user.bio", "default"); got != "" {
		t.Fatalf("expected empty string without EmptyStringAsMissing, got %v", got)
	}
}

func TestResolveEmptyStringAsMissing(t *testing.T) {
	root := map[string]any{"user": map[string]any{"bio": ""}}
	got := ResolveWith(root, "user.bio", "default", Options{EmptyStringAsMissing: true})
	if got != "default" {
		t.Fatalf("expected 'default', got %v", got)
	}
}

func TestResolveUndefinedSentinel(t *testing.T) {
	root := map[string]any{"user": map[string]any{"bio": Undefined}}
	if got := Resolve(root, "user.bio", "default"); got != "default" {
		t.Fatalf("expected 'default' for undefined value, got %v", got)
	}
	// Flags do not resurrect an undefined value.
	got := ResolveWith(root, "user.bio", "default", Options{NilAsMissing: true, EmptyStringAsMissing: true})
	if got != "default" {
		t.Fatalf("expected 'default' with flags set, got %v", got)
	}
}

func TestResolveBlockedKeys(t *testing.T) {
	root := map[string]any{
		"__proto__":   map[string]any{"polluted": true},
		"constructor": "ctor",
		"prototype":   "proto",
		"safe":        "ok",
	}
	for _, key := range []string{"__proto__", "constructor", "prototype"} {
		if got := Resolve(root, key, "def"); got != "def" {
			t.Fatalf("blocked key %q resolved to %v", key, got)
		}
	}
	if got := Resolve(root, "__proto__.polluted", "def"); got != "def" {
		t.Fatalf("expected 'def' through blocked key, got %v", got)
	}
	if got := Resolve(root, "safe", "def"); got != "ok" {
		t.Fatalf("expected 'ok', got %v", got)
	}
}

func TestResolveEmptyPathReturnsRoot(t *testing.T) {
	root := map[string]any{"key": "value"}
	got := Resolve(root, "", nil)
	m, ok := got.(map[string]any)
	if !ok || m["key"] != "value" {
		t.Fatalf("expected root map back, got %v (%T)", got, got)
	}
}

func TestResolveMalformedPaths(t *testing.T) {
	root := sampleRoot()
	// Stray separators collapse; garbage keys just miss.
	if got := Resolve(root, "user..profile...name", nil); got != "Alice" {
		t.Fatalf("expected 'Alice', got %v", got)
	}
	if got := Resolve(root, "user.[", "def"); got == "def" {
		t.Fatalf("expected user map for dangling bracket, got default")
	}
	if got := Resolve(root, "][.!!", "def"); got != "def" {
		t.Fatalf("expected 'def', got %v", got)
	}
}

func TestResolvePurity(t *testing.T) {
	root := sampleRoot()
	first := Resolve(root, "user.profile.name", "def")
	second := Resolve(root, "user.profile.name", "def")
	if first != second {
		t.Fatalf("expected identical results, got %v then %v", first, second)
	}
	if !reflect.DeepEqual(root, sampleRoot()) {
		t.Fatalf("input mutated by resolution")
	}
}

func TestResolveTypedContainers(t *testing.T) {
	root := map[string]any{
		"env":   map[string]string{"HOME": "/root"},
		"ports": []int{80, 443},
	}
	if got := Resolve(root, "env.HOME", nil); got != "/root" {
		t.Fatalf("expected '/root', got %v", got)
	}
	if got := Resolve(root, "ports[1]", nil); got != 443 {
		t.Fatalf("expected 443, got %v", got)
	}
	if got := Resolve(root, "ports[2]", "def"); got != "def" {
		t.Fatalf("expected 'def', got %v", got)
	}
}

func TestResolveStructFields(t *testing.T) {
	type profile struct {
		Name   string `json:"name"`
		Role   string
		hidden string
	}
	root := map[string]any{"profile": &profile{Name: "alice", Role: "admin", hidden: "x"}}
	if got := Resolve(root, "profile.name", nil); got != "alice" {
		t.Fatalf("expected 'alice' via json tag, got %v", got)
	}
	if got := Resolve(root, "profile.Role", nil); got != "admin" {
		t.Fatalf("expected 'admin' via field name, got %v", got)
	}
	if got := Resolve(root, "profile.hidden", "def"); got != "def" {
		t.Fatalf("unexported field resolved to %v", got)
	}
}

func TestResolveArrayRoot(t *testing.T) {
	root := []any{
		[]any{1, 2, 3},
		[]any{4, 5, 6},
	}
	if got := Resolve(root, "1.2", nil); got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
	if got := Resolve(root, "[0][0]", nil); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestResolveNeverPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("resolve panicked: %v", r)
		}
	}()
	roots := []any{
		nil,
		"s",
		map[string]any{"a": func() {}},
		map[int]string{1: "x"},
		[]any{nil},
		struct{ C chan int }{},
	}
	paths := []string{"", ".", "a.b.c", "[0]", "a[999999999999999999999]", "__proto__.x", "C.0"}
	for _, root := range roots {
		for _, path := range paths {
			_ = Resolve(root, path, "def")
		}
	}
}
