// Package obs masks sensitive values before they reach a report or log
// line (error messages, header values) so that a captured session
// never leaks a credential through its compatibility report.
//
// Grounded on internal/obs/mask.go's MaskValue/MaskHeaders, reused
// as-is for their masking shape and repurposed from GUI event display
// to the reporter's error/header rendering.
package obs

import "strings"

// MaskValue masks a sensitive string, keeping a short prefix/suffix for
// recognizability while hiding the bulk of the value.
func MaskValue(v string) string {
	if len(v) <= 8 {
		return "***"
	}
	return v[:4] + "***" + v[len(v)-4:]
}

// MaskHeaders returns a copy of h with sensitive header values masked.
func MaskHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		lk := strings.ToLower(k)
		if lk == "authorization" || lk == "cookie" || strings.HasPrefix(lk, "x-api-key") {
			out[k] = MaskValue(v)
		} else {
			out[k] = v
		}
	}
	return out
}
