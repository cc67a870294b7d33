// Package judge implements the CompatibilityJudge (§4.E): aggregates a
// StructuralDiffer's DiffRecords into a per-interaction verdict and a
// per-session compatibility score.
//
// Grounded on internal/storage/models.go's InterceptEventRecord.Type
// field — a small closed vocabulary of per-event outcomes
// (matched/rewritten/failed/rejected) — generalized here into the
// isCompatible/isEffectivelyCompatible verdict pair.
package judge

import "replayverify/pkg/model"

// Options controls judging behavior beyond §4.E's fixed defaults.
type Options struct {
	// UnifyAdditionPolicy, when true, treats added headers the same
	// as added body fields (non-breaking), instead of the observed
	// asymmetry where added headers count against compatibility.
	// Default false preserves the asymmetry.
	UnifyAdditionPolicy bool
}

// DefaultOptions preserves the observed asymmetry: added headers are
// breaking, added body fields are not.
func DefaultOptions() Options { return Options{UnifyAdditionPolicy: false} }

// Judge turns diffs for one interaction into a ComparisonResult.
type Judge struct {
	opts Options
}

// New builds a Judge with the given Options.
func New(opts Options) *Judge {
	return &Judge{opts: opts}
}

// JudgeInteraction evaluates a single interaction's comparison, per §4.E.
func (j *Judge) JudgeInteraction(statusMatch bool, headerDiffs, bodyDiffs []model.DiffRecord) model.ComparisonResult {
	headerStat := statOf(headerDiffs)
	bodyStat := statOf(bodyDiffs)

	headerBreakingAdd := headerStat.Added > 0
	if j.opts.UnifyAdditionPolicy {
		headerBreakingAdd = false
	}

	isCompatible := statusMatch &&
		!headerBreakingAdd &&
		headerStat.Removed == 0 &&
		bodyStat.Removed == 0 &&
		bodyStat.TypeChanged == 0

	totalChanges := headerStat.Total + bodyStat.Total
	toleratedChanges := headerStat.Tolerated + bodyStat.Tolerated
	effectiveChanges := totalChanges - toleratedChanges

	isEffectivelyCompatible := isCompatible || effectiveChanges == 0

	all := make([]model.DiffRecord, 0, len(headerDiffs)+len(bodyDiffs))
	all = append(all, headerDiffs...)
	all = append(all, bodyDiffs...)

	return model.ComparisonResult{
		StatusMatch:             statusMatch,
		HeaderDiffs:             headerStat,
		BodyDiffs:               bodyStat,
		IsCompatible:            isCompatible,
		IsEffectivelyCompatible: isEffectivelyCompatible,
		Diffs:                   all,
	}
}

// statOf tallies a slice of DiffRecords into a DiffStat.
func statOf(records []model.DiffRecord) model.DiffStat {
	var s model.DiffStat
	for _, r := range records {
		if r.Tolerated {
			s.Tolerated++
			s.Total++
			continue
		}
		switch r.Kind {
		case model.DiffAdded:
			s.Added++
		case model.DiffRemoved:
			s.Removed++
		case model.DiffModified:
			s.Modified++
		case model.DiffTypeChanged:
			s.TypeChanged++
		}
		s.Total++
	}
	return s
}

// SummarizeSession aggregates per-interaction results into a Summary,
// per §4.E's per-session scoring.
func SummarizeSession(results []model.InteractionResult) model.Summary {
	var s model.Summary
	s.Total = len(results)

	effectiveCompatible := 0
	for _, r := range results {
		if r.Error != "" {
			s.Errors++
			continue
		}
		if r.Comparison == nil {
			continue
		}
		c := r.Comparison
		if c.IsCompatible {
			s.Compatible++
		} else {
			s.Incompatible++
		}
		if c.IsCompatible || (c.HeaderDiffs.Total-c.HeaderDiffs.Tolerated)+(c.BodyDiffs.Total-c.BodyDiffs.Tolerated) == 0 {
			effectiveCompatible++
		}
		s.TotalChanges += c.HeaderDiffs.Total + c.BodyDiffs.Total
		s.ToleratedChanges += c.HeaderDiffs.Tolerated + c.BodyDiffs.Tolerated
	}
	s.EffectiveChanges = s.TotalChanges - s.ToleratedChanges

	if s.Total > 0 {
		s.CompatibilityScore = 100 * float64(s.Compatible) / float64(s.Total)
		s.EffectiveCompatibilityScore = 100 * float64(effectiveCompatible) / float64(s.Total)
	}
	return s
}
