package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replayverify/internal/tolerance"
	"replayverify/pkg/model"
)

func newDiffer(cfg model.ToleranceConfig) *Differ {
	return New(tolerance.New(cfg))
}

func TestCompareEmptyOnIdenticalTrees(t *testing.T) {
	d := newDiffer(model.DefaultToleranceConfig())
	records := d.Compare(model.SectionBody, map[string]any{"a": float64(1)}, map[string]any{"a": float64(1)})
	assert.Empty(t, records)
}

func TestCompareDetectsAdded(t *testing.T) {
	d := newDiffer(model.DefaultToleranceConfig())
	records := d.Compare(model.SectionBody, map[string]any{}, map[string]any{"b": "new"})
	require.Len(t, records, 1)
	assert.Equal(t, model.DiffAdded, records[0].Kind)
	assert.Equal(t, "b", records[0].Path)
	assert.False(t, records[0].Breaking)
}

func TestCompareDetectsRemovedAsBreaking(t *testing.T) {
	d := newDiffer(model.DefaultToleranceConfig())
	records := d.Compare(model.SectionBody, map[string]any{"a": float64(1)}, map[string]any{})
	require.Len(t, records, 1)
	assert.Equal(t, model.DiffRemoved, records[0].Kind)
	assert.True(t, records[0].Breaking)
	assert.Equal(t, "Field was removed", records[0].Reason)
}

func TestCompareDetectsTypeChangeAsBreaking(t *testing.T) {
	d := newDiffer(model.DefaultToleranceConfig())
	records := d.Compare(model.SectionBody, map[string]any{"a": float64(1)}, map[string]any{"a": "one"})
	require.Len(t, records, 1)
	assert.Equal(t, model.DiffTypeChanged, records[0].Kind)
	assert.True(t, records[0].Breaking)
	assert.Contains(t, records[0].Reason, "Type changed from number to string")
}

func TestCompareDetectsModified(t *testing.T) {
	d := newDiffer(model.DefaultToleranceConfig())
	records := d.Compare(model.SectionBody, map[string]any{"a": float64(1)}, map[string]any{"a": float64(2)})
	require.Len(t, records, 1)
	assert.Equal(t, model.DiffModified, records[0].Kind)
	assert.False(t, records[0].Tolerated)
}

func TestCompareToleratesTimestampDrift(t *testing.T) {
	cfg := model.ToleranceConfig{TimestampDriftSeconds: 5, TimestampFields: []string{"_at"}}
	d := newDiffer(cfg)
	records := d.Compare(model.SectionBody,
		map[string]any{"created_at": float64(1700000000000)},
		map[string]any{"created_at": float64(1700000002000)},
	)
	require.Len(t, records, 1)
	assert.True(t, records[0].Tolerated)
	assert.False(t, records[0].Breaking)
}

func TestCompareToleratesUUIDNormalization(t *testing.T) {
	cfg := model.ToleranceConfig{IgnoreUUIDs: true, UUIDFields: []string{"id"}}
	d := newDiffer(cfg)
	records := d.Compare(model.SectionBody,
		map[string]any{"user_id": "550e8400-e29b-41d4-a716-446655440000"},
		map[string]any{"user_id": "11111111-2222-3333-4444-555555555555"},
	)
	require.Len(t, records, 1)
	assert.True(t, records[0].Tolerated)
}

func TestCompareIgnoredFieldProducesNoDiff(t *testing.T) {
	cfg := model.ToleranceConfig{IgnoreFields: []string{"meta.requestId"}}
	d := newDiffer(cfg)
	records := d.Compare(model.SectionBody,
		map[string]any{"meta": map[string]any{"requestId": "a"}},
		map[string]any{"meta": map[string]any{"requestId": "b"}},
	)
	assert.Empty(t, records)
}

func TestCompareRemovedFieldUnderIgnoreIsSuppressed(t *testing.T) {
	cfg := model.ToleranceConfig{IgnoreFields: []string{"meta.requestId"}}
	d := newDiffer(cfg)
	records := d.Compare(model.SectionBody,
		map[string]any{"meta": map[string]any{"requestId": "a"}},
		map[string]any{"meta": map[string]any{}},
	)
	assert.Empty(t, records)
}

func TestCompareArrayElementRemovalIsBreaking(t *testing.T) {
	d := newDiffer(model.DefaultToleranceConfig())
	records := d.Compare(model.SectionBody,
		map[string]any{"items": []any{"a", "b"}},
		map[string]any{"items": []any{"a"}},
	)
	require.Len(t, records, 1)
	assert.Equal(t, "items[1]", records[0].Path)
	assert.Equal(t, model.DiffRemoved, records[0].Kind)
	assert.True(t, records[0].Breaking)
}

func TestCompareArraySortSuppressesReorderDiff(t *testing.T) {
	cfg := model.ToleranceConfig{SortArrays: true}
	d := newDiffer(cfg)
	records := d.Compare(model.SectionBody,
		map[string]any{"items": []any{"a", "b"}},
		map[string]any{"items": []any{"b", "a"}},
	)
	assert.Empty(t, records)
}

func TestCompareDeterministicOrdering(t *testing.T) {
	d := newDiffer(model.DefaultToleranceConfig())
	recorded := map[string]any{"z": float64(1), "a": float64(2)}
	replayed := map[string]any{"z": float64(9), "a": float64(8)}

	first := d.Compare(model.SectionBody, recorded, replayed)
	second := d.Compare(model.SectionBody, recorded, replayed)
	require.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Path)
	assert.Equal(t, "z", first[1].Path)
}
