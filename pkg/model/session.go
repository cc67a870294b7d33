package model

import (
	"encoding/json"
	"time"
)

// SessionMetadata carries session-level metadata (§3, §6.1). Fields not
// recognized by name are preserved in Extra so a session file round-trips
// without losing arbitrary caller-supplied metadata.
type SessionMetadata struct {
	Tags        []string       `json:"tags,omitempty"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
	Environment string         `json:"environment,omitempty"`
	Creator     string         `json:"creator,omitempty"`
	Extra       map[string]any `json:"-"`
}

var metadataKnownKeys = map[string]bool{
	"tags": true, "description": true, "createdAt": true,
	"environment": true, "creator": true,
}

// UnmarshalJSON decodes the known metadata fields and stashes everything
// else in Extra.
func (m *SessionMetadata) UnmarshalJSON(data []byte) error {
	type alias SessionMetadata
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = SessionMetadata(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra := make(map[string]any, len(raw))
	for k, v := range raw {
		if metadataKnownKeys[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			continue
		}
		extra[k] = val
	}
	if len(extra) > 0 {
		m.Extra = extra
	}
	return nil
}

// MarshalJSON emits the known fields plus Extra flattened alongside them.
func (m SessionMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Tags != nil {
		out["tags"] = m.Tags
	}
	if m.Description != "" {
		out["description"] = m.Description
	}
	if !m.CreatedAt.IsZero() {
		out["createdAt"] = m.CreatedAt
	}
	if m.Environment != "" {
		out["environment"] = m.Environment
	}
	if m.Creator != "" {
		out["creator"] = m.Creator
	}
	return json.Marshal(out)
}

// Interaction is one recorded request/response pair within a session
// (§3). DurationMS is optional, recorded in milliseconds.
type Interaction struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestHash string    `json:"requestHash"`
	Tags        []string  `json:"tags,omitempty"`
	Request     Request   `json:"request"`
	Response    Response  `json:"response"`
	DurationMS  *int64    `json:"duration,omitempty"`
}

// SessionFile is the on-disk session envelope (§6.1).
type SessionFile struct {
	SessionID    string          `json:"sessionId"`
	Timestamp    time.Time       `json:"timestamp"`
	Metadata     SessionMetadata `json:"metadata"`
	Interactions []Interaction   `json:"interactions"`
}

// Session is the immutable, in-memory form of a loaded session file.
type Session struct {
	ID           string
	Timestamp    time.Time
	Metadata     SessionMetadata
	Interactions []Interaction
}

// NewSession builds an immutable Session from a decoded SessionFile.
func NewSession(f SessionFile) *Session {
	interactions := make([]Interaction, len(f.Interactions))
	copy(interactions, f.Interactions)
	return &Session{
		ID:           f.SessionID,
		Timestamp:    f.Timestamp,
		Metadata:     f.Metadata,
		Interactions: interactions,
	}
}

// Tags returns the session-level tag set.
func (s *Session) Tags() []string {
	return s.Metadata.Tags
}
