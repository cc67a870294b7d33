// Package rendercontext implements the ContextBuilder (§4.H): assembles
// the render context a TemplateCompiler evaluates against, starting
// from request fields and clock/random-derived values, then merging in
// any registered builders in registration order.
//
// Grounded on
// original_source/core/safe_template_engine.py's _build_request_data
// (method/path/headers/query/body/params dict), extended with
// timestamp/random per spec.md.
package rendercontext

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"replayverify/internal/router"
	"replayverify/internal/template"
	"replayverify/pkg/model"
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// Builder contributes additional fields to a render context. Errors are
// logged by the caller and the builder's contribution is skipped,
// per §4.H.
type Builder func(req model.Request, match *router.Match) (map[string]any, error)

// Logger is the minimal logging surface Assemble needs to report a
// swallowed builder error, satisfied by internal/log.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// ContextBuilder assembles render contexts from the default builder
// plus any registered builders, merged in registration order.
type ContextBuilder struct {
	builders []Builder
	log      Logger
}

// New returns a ContextBuilder with no registered builders. log may be
// nil, in which case builder errors are silently swallowed.
func New(log Logger) *ContextBuilder {
	return &ContextBuilder{log: log}
}

// Register appends a builder to run after the default context is built.
func (c *ContextBuilder) Register(b Builder) {
	c.builders = append(c.builders, b)
}

// Assemble produces a template.Context for req, given its matched route
// (params; may be nil if nothing matched).
func (c *ContextBuilder) Assemble(req model.Request, match *router.Match) template.Context {
	ctx := defaultContext(req, match)

	for _, b := range c.builders {
		contribution, err := b(req, match)
		if err != nil {
			if c.log != nil {
				c.log.Warn("context builder failed, skipping contribution", "error", err)
			}
			continue
		}
		mergeShallow(ctx, contribution)
	}
	return ctx
}

func defaultContext(req model.Request, match *router.Match) template.Context {
	query := make(map[string]any, len(req.Query))
	for k, v := range req.Query {
		if len(v) == 1 {
			query[k] = v[0]
		} else {
			vs := make([]any, len(v))
			for i, s := range v {
				vs[i] = s
			}
			query[k] = vs
		}
	}

	params := map[string]any{}
	if match != nil {
		for k, v := range match.Params {
			params[k] = v
		}
	}

	return template.Context{
		"request": map[string]any{
			"method": req.Method,
			"path":   req.Path,
			"query":  query,
			"params": params,
			"body":   req.Body,
		},
		"timestamp": nowMillis(),
		"random": map[string]any{
			"uuid":   uuid.NewString(),
			"number": rand.Intn(1000),
		},
	}
}

func mergeShallow(dst template.Context, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
