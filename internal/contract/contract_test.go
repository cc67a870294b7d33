package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replayverify/pkg/model"
)

type fakeRegistrar struct {
	routes []model.RouteSpec
}

func (f *fakeRegistrar) Register(spec model.RouteSpec) {
	f.routes = append(f.routes, spec)
}

func TestImportExtractsExampleFromExamplesField(t *testing.T) {
	doc := Document{
		Paths: map[string]map[string]Operation{
			"/orders/:id": {
				"get": {
					Responses: map[string]Response{
						"200": {Examples: map[string]any{"default": map[string]any{"id": "1"}}},
					},
				},
			},
		},
	}
	reg := &fakeRegistrar{}
	imp := New(FirstSuccess, 0)
	require.NoError(t, imp.ImportDocument(doc, reg))

	require.Len(t, reg.routes, 1)
	assert.Equal(t, "/orders/:id", reg.routes[0].Pattern)
	assert.Equal(t, "GET", reg.routes[0].Method)
	assert.Equal(t, 200, reg.routes[0].StatusCode)
	assert.Equal(t, "application/json", reg.routes[0].Headers["Content-Type"])
	assert.Equal(t, map[string]any{"id": "1"}, reg.routes[0].Template)
}

func TestImportExtractsExampleFromContentExample(t *testing.T) {
	doc := Document{
		Paths: map[string]map[string]Operation{
			"/health": {
				"get": {
					Responses: map[string]Response{
						"200": {Content: map[string]Content{
							"application/json": {Example: map[string]any{"status": "ok"}},
						}},
					},
				},
			},
		},
	}
	reg := &fakeRegistrar{}
	imp := New(FirstSuccess, 0)
	require.NoError(t, imp.ImportDocument(doc, reg))

	require.Len(t, reg.routes, 1)
	assert.Equal(t, map[string]any{"status": "ok"}, reg.routes[0].Template)
}

func TestImportExtractsExampleFromContentExamplesUnwrappingValue(t *testing.T) {
	doc := Document{
		Paths: map[string]map[string]Operation{
			"/health": {
				"get": {
					Responses: map[string]Response{
						"200": {Content: map[string]Content{
							"application/json": {Examples: map[string]any{
								"a": map[string]any{"value": map[string]any{"status": "ok"}},
							}},
						}},
					},
				},
			},
		},
	}
	reg := &fakeRegistrar{}
	imp := New(FirstSuccess, 0)
	require.NoError(t, imp.ImportDocument(doc, reg))

	require.Len(t, reg.routes, 1)
	assert.Equal(t, map[string]any{"status": "ok"}, reg.routes[0].Template)
}

func TestImportSkipsNonSuccessStatuses(t *testing.T) {
	doc := Document{
		Paths: map[string]map[string]Operation{
			"/orders": {
				"post": {
					Responses: map[string]Response{
						"400": {Content: map[string]Content{"application/json": {Example: map[string]any{"error": "bad"}}}},
					},
				},
			},
		},
	}
	reg := &fakeRegistrar{}
	imp := New(FirstSuccess, 0)
	require.NoError(t, imp.ImportDocument(doc, reg))
	assert.Empty(t, reg.routes)
}

func TestImportFirstSuccessPolicyPicksLowestStatus(t *testing.T) {
	doc := Document{
		Paths: map[string]map[string]Operation{
			"/orders": {
				"get": {
					Responses: map[string]Response{
						"201": {Content: map[string]Content{"application/json": {Example: "created"}}},
						"200": {Content: map[string]Content{"application/json": {Example: "ok"}}},
					},
				},
			},
		},
	}
	reg := &fakeRegistrar{}
	imp := New(FirstSuccess, 0)
	require.NoError(t, imp.ImportDocument(doc, reg))
	require.Len(t, reg.routes, 1)
	assert.Equal(t, 200, reg.routes[0].StatusCode)
}

func TestImportPreferStatusPolicyPicksPreferredCode(t *testing.T) {
	doc := Document{
		Paths: map[string]map[string]Operation{
			"/orders": {
				"get": {
					Responses: map[string]Response{
						"201": {Content: map[string]Content{"application/json": {Example: "created"}}},
						"200": {Content: map[string]Content{"application/json": {Example: "ok"}}},
					},
				},
			},
		},
	}
	reg := &fakeRegistrar{}
	imp := New(PreferStatus, 201)
	require.NoError(t, imp.ImportDocument(doc, reg))
	require.Len(t, reg.routes, 1)
	assert.Equal(t, 201, reg.routes[0].StatusCode)
}

func TestImportStringExampleWrapsOrParsesAsJSON(t *testing.T) {
	doc := Document{
		Paths: map[string]map[string]Operation{
			"/a": {"get": {Responses: map[string]Response{
				"200": {Examples: map[string]any{"x": `{"k":"v"}`}},
			}}},
			"/b": {"get": {Responses: map[string]Response{
				"200": {Examples: map[string]any{"x": "plain text"}},
			}}},
		},
	}
	reg := &fakeRegistrar{}
	imp := New(FirstSuccess, 0)
	require.NoError(t, imp.ImportDocument(doc, reg))
	require.Len(t, reg.routes, 2)

	byPattern := map[string]model.RouteSpec{}
	for _, r := range reg.routes {
		byPattern[r.Pattern] = r
	}
	assert.Equal(t, map[string]any{"k": "v"}, byPattern["/a"].Template)
	assert.Equal(t, map[string]any{"value": "plain text"}, byPattern["/b"].Template)
}
