// Package contract implements the ContractImporter (§4.J): walks a
// subset of an OpenAPI-3 document and extracts response examples into
// route templates keyed by (path, method, status).
//
// Grounded on pkg/rulespec's Config/Rule/ID-generation registration
// pattern (a document is walked once at load time to populate a rule
// table) and original_source/contract/contract_loader.py's
// example-extraction precedence (examples → content.application/json.example
// → content.application/json.examples).
package contract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"replayverify/pkg/errx"
	"replayverify/pkg/model"
)

// DuplicateStatusPolicy resolves which 2xx response to use when a
// method has more than one, per the expanded §4.J behavior.
type DuplicateStatusPolicy string

const (
	// FirstSuccess keeps the first 2xx response encountered in
	// ascending status-code order.
	FirstSuccess DuplicateStatusPolicy = "first-success"
	// PreferStatus keeps only the response matching a caller-supplied
	// preferred status code, when present, e.g. 200 over 201.
	PreferStatus DuplicateStatusPolicy = "prefer-status"
)

// Document is the decoded shape of the OpenAPI subset consulted by
// §6.2: paths.<pattern>.<method>.responses.<status>.
type Document struct {
	Paths map[string]map[string]Operation `json:"paths"`
}

// Operation is `paths.<pattern>.<method>`.
type Operation struct {
	Responses map[string]Response `json:"responses"`
}

// Response is `responses.<status>`.
type Response struct {
	Examples map[string]any     `json:"examples,omitempty"`
	Content  map[string]Content `json:"content,omitempty"`
}

// Content is `content.<mediaType>`.
type Content struct {
	Example  any            `json:"example,omitempty"`
	Examples map[string]any `json:"examples,omitempty"`
}

// Importer walks a Document and registers routes with a RouteRegistrar.
type Importer struct {
	policy         DuplicateStatusPolicy
	preferredCode  int
}

// RouteRegistrar is the subset of router.Resolver the importer needs;
// kept as an interface so this package never imports internal/router
// directly, avoiding a dependency cycle with packages that wire both.
type RouteRegistrar interface {
	Register(spec model.RouteSpec)
}

// New builds an Importer using policy to resolve duplicate 2xx statuses
// for a single method. preferredCode is only consulted when policy is
// PreferStatus.
func New(policy DuplicateStatusPolicy, preferredCode int) *Importer {
	return &Importer{policy: policy, preferredCode: preferredCode}
}

// Import parses raw JSON contract bytes and registers one route per
// selected (path, method) pair into registrar, per §4.J.
func (imp *Importer) Import(raw []byte, registrar RouteRegistrar) error {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errx.Wrap(errx.CodeInput, err, "parsing contract document")
	}
	return imp.ImportDocument(doc, registrar)
}

// ImportDocument registers routes from an already-decoded Document.
func (imp *Importer) ImportDocument(doc Document, registrar RouteRegistrar) error {
	paths := sortedKeys(doc.Paths)
	for _, pathPattern := range paths {
		methods := doc.Paths[pathPattern]
		methodNames := sortedKeys(methods)
		for _, method := range methodNames {
			op := methods[method]
			statuses := successStatuses(op.Responses)
			if len(statuses) == 0 {
				continue
			}
			chosen := imp.chooseStatus(statuses)
			resp := op.Responses[chosen]
			example, ok := extractExample(resp)
			if !ok {
				continue
			}
			code, err := strconv.Atoi(chosen)
			if err != nil {
				return errx.Wrap(errx.CodeInput, err, fmt.Sprintf("parsing status code %q", chosen))
			}
			registrar.Register(model.RouteSpec{
				Pattern:    pathPattern,
				Method:     strings.ToUpper(method),
				StatusCode: code,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Template:   example,
			})
		}
	}
	return nil
}

// chooseStatus resolves which of several 2xx statuses to keep, per
// DuplicateStatusPolicy.
func (imp *Importer) chooseStatus(statuses []string) string {
	if imp.policy == PreferStatus {
		want := strconv.Itoa(imp.preferredCode)
		for _, s := range statuses {
			if s == want {
				return s
			}
		}
	}
	return statuses[0]
}

// successStatuses returns the 2xx status keys of responses, sorted
// ascending.
func successStatuses(responses map[string]Response) []string {
	var out []string
	for status := range responses {
		if len(status) == 3 && status[0] == '2' {
			out = append(out, status)
		}
	}
	sort.Strings(out)
	return out
}

// extractExample implements §4.J's three-step precedence.
func extractExample(resp Response) (any, bool) {
	if len(resp.Examples) > 0 {
		for _, k := range sortedKeys(resp.Examples) {
			v := resp.Examples[k]
			if s, ok := v.(string); ok {
				var parsed any
				if err := json.Unmarshal([]byte(s), &parsed); err == nil {
					return parsed, true
				}
				return map[string]any{"value": s}, true
			}
			return v, true
		}
	}

	if content, ok := resp.Content["application/json"]; ok {
		if content.Example != nil {
			return content.Example, true
		}
		if len(content.Examples) > 0 {
			for _, k := range sortedKeys(content.Examples) {
				v := content.Examples[k]
				if m, ok := v.(map[string]any); ok {
					if val, ok := m["value"]; ok {
						return val, true
					}
				}
				return v, true
			}
		}
	}

	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
