package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replayverify/pkg/model"
)

func writeSession(t *testing.T, dir string, file model.SessionFile) string {
	t.Helper()
	path := filepath.Join(dir, "session.json")
	data, err := json.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunReplayAgainstLiveTargetWritesJSONReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	sessionPath := writeSession(t, dir, model.SessionFile{
		SessionID: "s1",
		Interactions: []model.Interaction{
			{
				Request:  model.Request{Method: "GET", Path: "/x"},
				Response: model.Response{StatusCode: 200, Body: map[string]any{"ok": true}},
			},
		},
	})
	outPath := filepath.Join(dir, "report.json")

	code := run([]string{"replay", "--target", srv.URL, "--format", "json", "--output", outPath, sessionPath})
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "s1", doc["sessionId"])
}

func TestRunReplayMissingSessionFails(t *testing.T) {
	code := run([]string{"replay", "/nonexistent/session.json"})
	assert.Equal(t, 1, code)
}

func TestRunTagAddsTagToEveryInteraction(t *testing.T) {
	dir := t.TempDir()
	sessionPath := writeSession(t, dir, model.SessionFile{
		SessionID:    "s1",
		Interactions: []model.Interaction{{Request: model.Request{Method: "GET", Path: "/x"}}},
	})

	code := run([]string{"tag", "--tag", "smoke", sessionPath})
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(sessionPath)
	require.NoError(t, err)
	var file model.SessionFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.Len(t, file.Interactions, 1)
	assert.Contains(t, file.Interactions[0].Tags, "smoke")
}

func TestRunUnknownCommandFails(t *testing.T) {
	assert.Equal(t, 1, run([]string{"bogus"}))
}

func TestRunNoArgsFails(t *testing.T) {
	assert.Equal(t, 1, run(nil))
}
