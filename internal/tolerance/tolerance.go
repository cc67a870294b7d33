// Package tolerance implements the ToleranceClassifier (§4.C): a pure,
// stateless predicate layer deciding whether a (path, key, value) triple
// should be exempted from the structural differ's breaking-change tally.
//
// Grounded directly on internal/rules/engine.go's condition matching
// (matchRule/cond/allOf/anyOf/noneOf, matchRegex backed by the
// package-level compiled-regex cache in internal/rules/regex_cache.go,
// and the glob helper) — the ignore-field engine reuses that exact
// glob+regex+prefix matching shape, generalized from intercept rules to
// diff-path predicates. Sensitive-field handling is grounded on
// internal/obs/mask.go's MaskHeaders/MaskValue.
package tolerance

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"replayverify/pkg/model"
)

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-?[0-9a-f]{4}-?[0-9a-f]{4}-?[0-9a-f]{4}-?[0-9a-f]{12}$`)

var isoTimestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)

const (
	plausibleMillisFloor = 946684800000 // 2000-01-01T00:00:00Z in ms
	secondsCutoff         = 4102444800  // 2100-01-01T00:00:00Z in seconds
)

// Classifier evaluates tolerance decisions for a single comparison pass,
// caching compiled regexes the way internal/rules/regex_cache.go does.
type Classifier struct {
	cfg        model.ToleranceConfig
	regexCache sync.Map // pattern -> *regexp.Regexp
}

// New builds a Classifier bound to cfg. cfg is never mutated.
func New(cfg model.ToleranceConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// IsTimestamp reports whether (key, value) looks like a timestamp, per
// §4.C: a timestampFields name-fragment match, an ISO-8601 string match,
// or a plausible epoch value (seconds or milliseconds).
func (c *Classifier) IsTimestamp(key string, value any) bool {
	if c.keyMatchesFragment(key, c.cfg.TimestampFields) {
		return true
	}
	switch v := value.(type) {
	case string:
		return isoTimestampPattern.MatchString(v)
	case float64:
		return isPlausibleEpoch(v)
	}
	return false
}

// IsUUID reports whether (key, value) looks like a UUID, per §4.C: key
// must match a uuidFields fragment AND value must match the canonical
// UUID shape.
func (c *Classifier) IsUUID(key string, value any) bool {
	if !c.keyMatchesFragment(key, c.cfg.UUIDFields) {
		return false
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	return uuidPattern.MatchString(s)
}

// TimestampsEquivalent reports whether two values already established as
// timestamps are within the configured drift, after both are converted
// to epoch milliseconds.
func (c *Classifier) TimestampsEquivalent(a, b any) bool {
	ma, ok1 := toEpochMillis(a)
	mb, ok2 := toEpochMillis(b)
	if !ok1 || !ok2 {
		return false
	}
	diff := ma - mb
	if diff < 0 {
		diff = -diff
	}
	allowed := c.cfg.TimestampDriftSeconds * 1000
	return float64(diff) <= allowed
}

// UUIDsEquivalent reports whether two values already established as
// UUIDs are equivalent under tolerance: when ignoreUUIDs is on, any two
// UUIDs are equivalent regardless of content.
func (c *Classifier) UUIDsEquivalent(a, b any) bool {
	if !c.cfg.IgnoreUUIDs {
		return false
	}
	_, aok := a.(string)
	_, bok := b.(string)
	return aok && bok
}

// ShouldSortArray decides whether the array at path should be sorted
// before comparison, per §4.C's arrayFields/sortArrays rule.
func (c *Classifier) ShouldSortArray(path string) bool {
	if len(c.cfg.ArrayFields) == 0 {
		return c.cfg.SortArrays
	}
	for _, f := range c.cfg.ArrayFields {
		if path == f || pathHasPrefix(path, f) {
			return true
		}
	}
	return false
}

// IsIgnored reports whether path should be skipped by the differ
// entirely, per §4.C: exact match, prefix-dot match, or regex match
// against an ignoreFields entry.
func (c *Classifier) IsIgnored(path string) bool {
	for _, pattern := range c.cfg.IgnoreFields {
		if path == pattern {
			return true
		}
		if pathHasPrefix(path, pattern) {
			return true
		}
		if looksLikeRegex(pattern) && c.matchRegex(path, pattern) {
			return true
		}
	}
	return false
}

// IsIgnoredHeader reports whether header name should be skipped
// entirely (case-insensitive), independent of IsIgnored's path rules.
func (c *Classifier) IsIgnoredHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range c.cfg.IgnoreHeaders {
		if strings.ToLower(h) == lower {
			return true
		}
	}
	return false
}

func (c *Classifier) keyMatchesFragment(key string, fragments []string) bool {
	lower := strings.ToLower(key)
	for _, f := range fragments {
		if f == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func (c *Classifier) matchRegex(s, pattern string) bool {
	cached, ok := c.regexCache.Load(pattern)
	if !ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		c.regexCache.Store(pattern, re)
		cached = re
	}
	return cached.(*regexp.Regexp).MatchString(s)
}

// pathHasPrefix matches §4.C's "prefix-dot-matched": prefix must align
// on a '.' or '[' boundary, not an arbitrary substring.
func pathHasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	next := path[len(prefix)]
	return next == '.' || next == '['
}

// looksLikeRegex is a light heuristic distinguishing plain dotted paths
// from regex entries in ignoreFields, mirroring the ConditionModeRegex-
// vs-plain distinction of internal/rules/engine.go's condition matcher,
// without a separate mode field.
func looksLikeRegex(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '^', '$', '*', '+', '?', '(', ')', '|', '\\':
			return true
		}
	}
	return false
}

func isPlausibleEpoch(v float64) bool {
	ms := v
	if v < secondsCutoff {
		ms = v * 1000
	}
	return ms >= plausibleMillisFloor && ms <= float64(time.Now().UnixMilli())
}

func toEpochMillis(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if x < secondsCutoff {
			return int64(x * 1000), true
		}
		return int64(x), true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.UnixMilli(), true
		}
		if t, err := time.Parse("2006-01-02T15:04:05", x); err == nil {
			return t.UnixMilli(), true
		}
		if n, err := strconv.ParseFloat(x, 64); err == nil {
			return toEpochMillis(n)
		}
	}
	return 0, false
}
