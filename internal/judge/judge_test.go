package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"replayverify/pkg/model"
)

func TestJudgeInteractionCompatibleWhenNoBreakingDiffs(t *testing.T) {
	j := New(DefaultOptions())
	result := j.JudgeInteraction(true, nil, []model.DiffRecord{
		{Kind: model.DiffAdded, Path: "newField"},
	})
	assert.True(t, result.IsCompatible)
	assert.True(t, result.IsEffectivelyCompatible)
}

func TestJudgeInteractionIncompatibleOnStatusMismatch(t *testing.T) {
	j := New(DefaultOptions())
	result := j.JudgeInteraction(false, nil, nil)
	assert.False(t, result.IsCompatible)
}

func TestJudgeInteractionIncompatibleOnBodyRemoval(t *testing.T) {
	j := New(DefaultOptions())
	result := j.JudgeInteraction(true, nil, []model.DiffRecord{
		{Kind: model.DiffRemoved, Path: "x", Breaking: true},
	})
	assert.False(t, result.IsCompatible)
}

func TestJudgeInteractionAddedHeaderIsBreakingByDefault(t *testing.T) {
	j := New(DefaultOptions())
	result := j.JudgeInteraction(true, []model.DiffRecord{
		{Kind: model.DiffAdded, Path: "X-New-Header"},
	}, nil)
	assert.False(t, result.IsCompatible)
}

func TestJudgeInteractionAddedHeaderNotBreakingWhenUnified(t *testing.T) {
	j := New(Options{UnifyAdditionPolicy: true})
	result := j.JudgeInteraction(true, []model.DiffRecord{
		{Kind: model.DiffAdded, Path: "X-New-Header"},
	}, nil)
	assert.True(t, result.IsCompatible)
}

func TestJudgeInteractionEffectivelyCompatibleWhenOnlyTolerated(t *testing.T) {
	j := New(DefaultOptions())
	result := j.JudgeInteraction(true, nil, []model.DiffRecord{
		{Kind: model.DiffModified, Path: "updated_at", Tolerated: true},
	})
	assert.True(t, result.IsEffectivelyCompatible)
}

func TestSummarizeSessionScoring(t *testing.T) {
	results := []model.InteractionResult{
		{Comparison: &model.ComparisonResult{IsCompatible: true}},
		{Comparison: &model.ComparisonResult{
			IsCompatible: false,
			BodyDiffs:    model.DiffStat{Removed: 1, Total: 1},
		}},
		{Error: "replay failed", ReplayError: true},
	}
	summary := SummarizeSession(results)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Compatible)
	assert.Equal(t, 1, summary.Incompatible)
	assert.Equal(t, 1, summary.Errors)
	assert.InDelta(t, 33.33, summary.CompatibilityScore, 0.01)
}

func TestSummarizeSessionEffectiveScoreCountsToleratedOnly(t *testing.T) {
	results := []model.InteractionResult{
		{Comparison: &model.ComparisonResult{
			IsCompatible: false,
			BodyDiffs:    model.DiffStat{Modified: 0, Tolerated: 1, Total: 1},
		}},
	}
	summary := SummarizeSession(results)

	assert.Equal(t, 0.0, summary.CompatibilityScore)
	assert.Equal(t, 100.0, summary.EffectiveCompatibilityScore)
}
