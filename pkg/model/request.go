// Package model defines the data types shared across the verification
// engine: requests, responses, sessions, templates, routes, tolerance
// configuration, and comparison results.
package model

import (
	"bytes"
	"encoding/json"
)

// QueryValue holds a query-parameter value that may be a single string or
// a list of strings in the session file (§3).
type QueryValue []string

// UnmarshalJSON accepts either a JSON string or a JSON array of strings.
func (q *QueryValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []string
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*q = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*q = QueryValue{s}
	return nil
}

// MarshalJSON emits a bare string for single-valued query parameters and
// an array otherwise.
func (q QueryValue) MarshalJSON() ([]byte, error) {
	if len(q) == 1 {
		return json.Marshal(q[0])
	}
	return json.Marshal([]string(q))
}

// First returns the first value, or the empty string if q is empty.
func (q QueryValue) First() string {
	if len(q) == 0 {
		return ""
	}
	return q[0]
}

// Request is the recorded or replayed HTTP request side of an
// interaction (§3).
type Request struct {
	Method  string                `json:"method"`
	Path    string                `json:"path"`
	Query   map[string]QueryValue `json:"query,omitempty"`
	Headers map[string]string     `json:"headers,omitempty"`
	Body    any                   `json:"body"`
}

// Response is the recorded or replayed HTTP response side of an
// interaction (§3).
type Response struct {
	StatusCode    int               `json:"statusCode"`
	StatusMessage string            `json:"statusMessage,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Body          any               `json:"body"`
}
