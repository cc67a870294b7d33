// Package router implements the RouteResolver (§4.G): matches a request
// to a registered route pattern with `:name` path parameters, caching
// both hits and misses, first-match-wins over insertion order.
//
// Grounded directly on internal/rules/engine.go's route/condition
// matching loop (insertion-ordered, first-match-wins — its priority
// tie-break is dropped since routes here carry no priority field) and
// its regex cache in internal/rules/regex_cache.go, generalized to a
// path-segment cache. `:name` segment parameters have no analogue in
// that header/query/body-condition matching loop — grounded instead on
// original_source/router/trie_matcher.py's match_result.params shape.
package router

import (
	"strings"
	"sync"

	"replayverify/pkg/model"
)

// compiledRoute pairs a RouteSpec with its pre-split pattern segments.
type compiledRoute struct {
	spec     model.RouteSpec
	segments []string
}

// Match is the outcome of resolving a request to a route: the matched
// spec plus any `:name` path parameters extracted from the request path.
type Match struct {
	Route  model.RouteSpec
	Params map[string]string
}

// Metrics tracks the resolver's cache effectiveness, per §4.G.
type Metrics struct {
	CacheHits   int64
	CacheMisses int64
}

// Resolver holds an insertion-ordered route table plus a positive and
// negative match cache keyed by "METHOD-path".
type Resolver struct {
	mu      sync.RWMutex
	routes  []compiledRoute
	cache   map[string]*Match
	metrics Metrics
}

// New returns an empty Resolver.
func New() *Resolver {
	return &Resolver{cache: make(map[string]*Match)}
}

// Register appends a route to the table and clears the cache, since a
// newly registered route can change the outcome of a previously-cached
// lookup that matched nothing.
func (r *Resolver) Register(spec model.RouteSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, compiledRoute{spec: spec, segments: splitPath(spec.Pattern)})
	r.clearCachesLocked()
}

// ClearCaches invalidates every cached match result.
func (r *Resolver) ClearCaches() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearCachesLocked()
}

func (r *Resolver) clearCachesLocked() {
	r.cache = make(map[string]*Match)
}

// Resolve finds the first route matching method and path, per §4.G's
// insertion-ordered first-match-wins rule. A nil Match means no route
// matched; that outcome is itself cached.
func (r *Resolver) Resolve(method, path string) *Match {
	key := strings.ToUpper(method) + "-" + path

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		r.mu.Lock()
		r.metrics.CacheHits++
		r.mu.Unlock()
		return cached
	}

	r.mu.Lock()
	r.metrics.CacheMisses++
	routes := r.routes
	r.mu.Unlock()

	requestSegments := splitPath(path)
	var match *Match
	for _, rt := range routes {
		if !methodMatches(rt.spec.Method, method) {
			continue
		}
		if params, ok := matchSegments(rt.segments, requestSegments); ok {
			match = &Match{Route: rt.spec, Params: params}
			break
		}
	}

	r.mu.Lock()
	r.cache[key] = match
	r.mu.Unlock()
	return match
}

// Metrics returns a snapshot of the resolver's cache counters.
func (r *Resolver) Metrics() Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics
}

// Routes returns the registered route specs in insertion order, used by
// --preload-templates to compile every route's template up front.
func (r *Resolver) Routes() []model.RouteSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]model.RouteSpec, len(r.routes))
	for i, rt := range r.routes {
		specs[i] = rt.spec
	}
	return specs
}

func methodMatches(routeMethod, requestMethod string) bool {
	if routeMethod == "" || routeMethod == "*" {
		return true
	}
	return strings.EqualFold(routeMethod, requestMethod)
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// matchSegments compares a pattern's segments against a request path's
// segments, extracting `:name` parameters. Both must have equal length.
func matchSegments(pattern, request []string) (map[string]string, bool) {
	if len(pattern) != len(request) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = request[i]
			continue
		}
		if seg != request[i] {
			return nil, false
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}
