package resolver

import (
	"strings"
	"sync"
)

// pathCache memoizes parsed key sequences per literal path string. Entries
// are immutable once stored and parsing is idempotent, so a concurrent
// duplicate parse of the same path is harmless.
var pathCache sync.Map

// pathNormalizer rewrites bracket groups into dot segments: "a['b'][0].c"
// normalizes to "a.b.0.c" before splitting.
var pathNormalizer = strings.NewReplacer("[", ".", "]", "", "'", "", `"`, "")

// splitPath parses a dotted/bracketed path into its ordered access keys.
// Empty segments (leading dots, "a..b", trailing brackets) are dropped, so
// "a.b[0].c", "a.b.0.c", and "a['b'][0].c" all yield the same keys. The
// cache key is the literal path string; textually different spellings of the
// same path are cached separately.
func splitPath(path string) []string {
	if v, ok := pathCache.Load(path); ok {
		return v.([]string)
	}

	segments := strings.Split(pathNormalizer.Replace(path), ".")
	keys := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			keys = append(keys, s)
		}
	}
	pathCache.Store(path, keys)
	return keys
}

// blockedKeys are prototype-accessor names that commonly appear in crafted
// paths aimed at dynamic object models. They are always treated as absent,
// even when the data actually contains them.
var blockedKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

func isBlockedKey(key string) bool {
	_, ok := blockedKeys[key]
	return ok
}

// isIndexToken reports whether key is a valid sequence index: one or more
// decimal digits. Signs, whitespace, and exponents are rejected; leading
// zeros are accepted and parse as base 10.
func isIndexToken(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}
