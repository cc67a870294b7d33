package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replayverify/pkg/model"
)

func sampleResult() *model.SessionResult {
	return &model.SessionResult{
		SessionID: "sess-1",
		Timestamp: time.Now(),
		Summary: model.Summary{
			Total: 2, Compatible: 1, Incompatible: 1,
			CompatibilityScore: 50, EffectiveCompatibilityScore: 50,
		},
		InteractionResults: []model.InteractionResult{
			{
				Method: "GET", Path: "/orders/1",
				Comparison: &model.ComparisonResult{
					StatusMatch:  true,
					IsCompatible: true,
					HeaderDiffs:  model.DiffStat{Total: 0},
					BodyDiffs:    model.DiffStat{Total: 1, Tolerated: 1},
					Diffs: []model.DiffRecord{
						{Kind: model.DiffModified, Section: model.SectionBody, Path: "updatedAt", Tolerated: true, ToleranceReason: "timestamp drift within tolerance"},
					},
				},
			},
			{
				Method: "GET", Path: "/orders/2",
				Comparison: &model.ComparisonResult{
					StatusMatch:  true,
					IsCompatible: false,
					BodyDiffs:    model.DiffStat{Total: 1, Removed: 1},
					Diffs: []model.DiffRecord{
						{Kind: model.DiffRemoved, Section: model.SectionBody, Path: "total", Reason: "Field was removed", Breaking: true},
					},
				},
			},
		},
	}
}

func TestBuildCollectsIncompatibilitiesAndToleratedChanges(t *testing.T) {
	doc := Build(sampleResult())
	require.Len(t, doc.ToleratedChanges, 1)
	assert.Equal(t, "updatedAt", doc.ToleratedChanges[0].Path)

	require.Len(t, doc.Incompatibilities, 1)
	assert.Equal(t, "total", doc.Incompatibilities[0].Path)
	assert.Equal(t, "GET /orders/2", doc.Incompatibilities[0].Endpoint)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	doc := Build(sampleResult())
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "sess-1", decoded["sessionId"])
	assert.Contains(t, decoded, "incompatibilities")
	assert.Contains(t, decoded, "toleratedChanges")
}

func TestWriteTextProducesTableAndLists(t *testing.T) {
	doc := Build(sampleResult())
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, doc))

	out := buf.String()
	assert.Contains(t, out, "/orders/1")
	assert.Contains(t, out, "/orders/2")
	assert.Contains(t, out, "Incompatibilities")
	assert.Contains(t, out, "Tolerated changes")
}

func TestWriteTextHandlesNilComparison(t *testing.T) {
	result := &model.SessionResult{
		InteractionResults: []model.InteractionResult{
			{Method: "GET", Path: "/broken", Error: "connection refused"},
		},
	}
	doc := Build(result)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, doc))
	assert.Contains(t, buf.String(), "/broken")
}
