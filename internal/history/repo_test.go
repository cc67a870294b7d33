package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replayverify/pkg/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := OpenAt(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndFlushPersistsRun(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	defer repo.Stop()

	result := &model.SessionResult{
		SessionID: "sess-1",
		Timestamp: time.Now(),
		Summary:   model.Summary{Total: 3, Compatible: 2, CompatibilityScore: 66.67},
	}
	require.NoError(t, repo.Record(result))
	repo.Flush()

	records, err := repo.ListBySession("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Total)
	assert.InDelta(t, 66.67, records[0].CompatibilityScore, 0.01)
}

func TestListReturnsAcrossSessionsMostRecentFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	defer repo.Stop()

	older := &model.SessionResult{SessionID: "a", Timestamp: time.Now().Add(-time.Hour)}
	newer := &model.SessionResult{SessionID: "b", Timestamp: time.Now()}
	require.NoError(t, repo.Record(older))
	require.NoError(t, repo.Record(newer))
	repo.Flush()

	records, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].SessionID)
}
