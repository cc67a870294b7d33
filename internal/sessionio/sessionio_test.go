package sessionio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replayverify/pkg/errx"
	"replayverify/pkg/model"
)

func TestLoadRoundTripsThroughSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	file := model.SessionFile{
		SessionID: "sess-1",
		Metadata:  model.SessionMetadata{Tags: []string{"smoke"}},
		Interactions: []model.Interaction{
			{Request: model.Request{Method: "GET", Path: "/x"}, Response: model.Response{StatusCode: 200}},
		},
	}
	require.NoError(t, Save(path, file))

	session, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	assert.Equal(t, []string{"smoke"}, session.Tags())
	require.Len(t, session.Interactions, 1)
	assert.Equal(t, "/x", session.Interactions[0].Request.Path)
}

func TestLoadMissingFileReturnsIOError(t *testing.T) {
	_, err := Load("/nonexistent/path/session.json")
	require.Error(t, err)
	assert.True(t, errx.Is(err, errx.CodeIO))
}

func TestLoadMissingSessionIDReturnsInputError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, Save(path, model.SessionFile{}))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errx.Is(err, errx.CodeInput))
}

func TestToFileRoundTrip(t *testing.T) {
	session := model.NewSession(model.SessionFile{SessionID: "s", Interactions: []model.Interaction{{}}})
	file := ToFile(session)
	assert.Equal(t, "s", file.SessionID)
	assert.Len(t, file.Interactions, 1)
}
