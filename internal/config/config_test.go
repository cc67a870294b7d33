package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replayverify/internal/contract"
)

func TestNewReturnsBaselineDefaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, float64(100), cfg.Threshold)
	assert.Equal(t, 30_000, cfg.HTTPTimeoutMS)
	assert.Equal(t, contract.FirstSuccess, cfg.DuplicateStatusPolicy())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
targetBaseUrl: https://api.example.com
threshold: 95
tolerance:
  timestampDriftSeconds: 5
  ignoreUUIDs: true
contract:
  duplicateStatusPolicy: prefer-status
  preferredStatus: 201
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.TargetBaseURL)
	assert.Equal(t, float64(95), cfg.Threshold)
	assert.True(t, cfg.Tolerance.IgnoreUUIDs)
	assert.Equal(t, contract.PreferStatus, cfg.DuplicateStatusPolicy())
	assert.Equal(t, 201, cfg.Contract.PreferredStatus)
	// Fields absent from the file keep New's defaults.
	assert.Equal(t, 30_000, cfg.HTTPTimeoutMS)
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"targetBaseUrl":"https://api.example.com","threshold":80}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.TargetBaseURL)
	assert.Equal(t, float64(80), cfg.Threshold)
}

func TestLoadUnsupportedExtensionErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/cfg.yaml")
	require.Error(t, err)
}
