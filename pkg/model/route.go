package model

// RouteSpec is the caller-facing description of a route registration
// (§3 "Route", §4.G, §4.J): a path pattern using `:name` segments, an
// HTTP method (or "*" for any), the status code and headers to
// synthesize, and a template value (string or structured) to render the
// body from. RouteSpec is the input to the RouteResolver; the resolver
// wraps it with a compiled matcher and compiled template internally.
type RouteSpec struct {
	Pattern    string            `json:"pattern"`
	Method     string            `json:"method"`
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Template   any               `json:"template"`
}
