package model

import "time"

// ComparisonResult is the per-interaction verdict (§3, §4.E).
type ComparisonResult struct {
	StatusMatch              bool         `json:"statusMatch"`
	HeaderDiffs              DiffStat     `json:"headerDiffs"`
	BodyDiffs                DiffStat     `json:"bodyDiffs"`
	IsCompatible              bool        `json:"isCompatible"`
	IsEffectivelyCompatible   bool        `json:"isEffectivelyCompatible"`
	Diffs                     []DiffRecord `json:"diffs,omitempty"`
}

// InteractionResult wraps the outcome of replaying a single interaction,
// including the replay failure case (§4.I, §7).
type InteractionResult struct {
	Index       int               `json:"index"`
	Timestamp   time.Time         `json:"timestamp"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Tags        []string          `json:"tags,omitempty"`
	Comparison  *ComparisonResult `json:"comparison,omitempty"`
	Error       string            `json:"error,omitempty"`
	ReplayError bool              `json:"replayError,omitempty"`
	DurationMS  int64             `json:"durationMS,omitempty"`
}

// Summary is the session-level aggregate (§3).
type Summary struct {
	Total                         int     `json:"total"`
	Compatible                    int     `json:"compatible"`
	Incompatible                  int     `json:"incompatible"`
	Errors                        int     `json:"errors"`
	TotalChanges                  int     `json:"totalChanges"`
	ToleratedChanges              int     `json:"toleratedChanges"`
	EffectiveChanges              int     `json:"effectiveChanges"`
	CompatibilityScore            float64 `json:"compatibilityScore"`
	EffectiveCompatibilityScore   float64 `json:"effectiveCompatibilityScore"`
}

// FilterSpec describes the (optional) filter applied before replay
// (§4.I).
type FilterSpec struct {
	Methods      []string `json:"methods,omitempty"`
	Routes       []string `json:"routes,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	SessionTags  []string `json:"sessionTags,omitempty"`
}

// FilteredStats records how many interactions survived a filter.
type FilteredStats struct {
	OriginalCount int `json:"originalCount"`
	FilteredCount int `json:"filteredCount"`
}

// PerformanceStats carries optional RouteResolver/TemplateCompiler
// metrics for the `--performance` report block (§4.G, §6.4). Only the
// cache counters and TemplateCompilations are filled in; renders are not
// counted or timed, so TemplateRenders, TotalRenderTimeMS and
// AverageRenderTimeMS are always zero.
type PerformanceStats struct {
	CacheHits             int64   `json:"cacheHits"`
	CacheMisses           int64   `json:"cacheMisses"`
	TemplateCompilations  int64   `json:"templateCompilations"`
	TemplateRenders       int64   `json:"templateRenders"`
	TotalRenderTimeMS     float64 `json:"totalRenderTimeMS"`
	AverageRenderTimeMS   float64 `json:"averageRenderTimeMS"`
}

// SessionResult is the aggregate result of replaying a session (§3, §6.4).
type SessionResult struct {
	SessionID          string              `json:"sessionId"`
	ContractFile        string             `json:"contractFile,omitempty"`
	Timestamp           time.Time          `json:"timestamp"`
	ComparisonMode       ComparisonMode     `json:"comparisonMode"`
	Summary              Summary           `json:"summary"`
	InteractionResults   []InteractionResult `json:"interactionResults"`
	Filter               *FilterSpec        `json:"filter,omitempty"`
	FilteredStats        *FilteredStats     `json:"filteredStats,omitempty"`
	Performance           *PerformanceStats `json:"performance,omitempty"`
}
