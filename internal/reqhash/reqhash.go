// Package reqhash implements the RequestHasher (§4.B): a stable,
// content-addressed fingerprint of a request used for recorded-response
// lookup and for verifying that a reloaded session reproduces identical
// hashes.
//
// Grounded on pkg/rulespec.GenerateConfigID's use of crypto/rand plus
// deterministic formatting for stable identifiers; the hasher itself
// uses crypto/sha256 over the canon package's deterministic encoding,
// since no pack dependency offers a canonical-hash primitive.
package reqhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"replayverify/internal/canon"
	"replayverify/pkg/model"
)

// Hash computes the §4.B digest: sha256 over a canonical encoding of
// { method, path, query, body }. Headers, timing, and cookies never
// participate.
func Hash(req model.Request) string {
	canonQuery := canonicalizeQuery(req.Query)
	body, err := canon.FromAny(req.Body)
	if err != nil {
		body = nil
	}

	payload := map[string]any{
		"method": strings.ToUpper(req.Method),
		"path":   req.Path,
		"query":  canonQuery,
		"body":   body,
	}
	encoded := canon.Encode(canon.Canonicalize(payload))

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// canonicalizeQuery turns a model.Request's query map into a canonical
// `any` tree: single-valued parameters become a Canonicalize-able string,
// multi-valued parameters become a string slice (as []any for the
// canonicalizer), sorted by key via canon's own key sort at encode time.
func canonicalizeQuery(q map[string]model.QueryValue) any {
	if len(q) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(q))
	for k, v := range q {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		arr := make([]any, len(v))
		for i, s := range v {
			arr[i] = s
		}
		out[k] = arr
	}
	return out
}
