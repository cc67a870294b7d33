// Package sessionio loads session files from disk into the in-memory
// model.Session form (§6.1).
//
// Grounded on internal/storage/db.go's platform-aware path resolution
// style, narrowed here to flat-file loading: session files are
// user-supplied paths rather than a managed application database file.
package sessionio

import (
	"encoding/json"
	"os"

	"replayverify/pkg/errx"
	"replayverify/pkg/model"
)

// Load reads and decodes a session file at path into a model.Session.
func Load(path string) (*model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errx.Wrap(errx.CodeIO, err, "reading session file")
	}

	var file model.SessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errx.Wrap(errx.CodeInput, err, "parsing session file")
	}
	if file.SessionID == "" {
		return nil, errx.New(errx.CodeInput, "session file missing sessionId")
	}

	return model.NewSession(file), nil
}

// Save writes a SessionFile to path as indented JSON (used by `tag`).
func Save(path string, file model.SessionFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return errx.Wrap(errx.CodeInput, err, "encoding session file")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errx.Wrap(errx.CodeIO, err, "writing session file")
	}
	return nil
}

// ToFile converts an in-memory Session back to its on-disk envelope,
// e.g. after the `tag` command adds interaction tags.
func ToFile(s *model.Session) model.SessionFile {
	return model.SessionFile{
		SessionID:    s.ID,
		Timestamp:    s.Timestamp,
		Metadata:     s.Metadata,
		Interactions: s.Interactions,
	}
}
