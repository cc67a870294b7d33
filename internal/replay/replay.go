// Package replay implements the ReplayEngine (§4.I): orchestrates
// sequential iteration over a session's interactions, choosing between
// template-synthesized and live-HTTP replay, and accumulates results
// into a SessionResult.
//
// Grounded on internal/service/service.go's per-session state map and
// internal/cdp/worker_pool.go's submit/stats bookkeeping, adapted from a
// bounded concurrent worker pool into a strictly sequential,
// order-preserving loop per spec.md §5's single-threaded model — the
// same "counters as plain fields" style survives the adaptation, only
// the concurrency is dropped.
package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"replayverify/internal/canon"
	"replayverify/internal/diff"
	"replayverify/internal/judge"
	"replayverify/internal/log"
	"replayverify/internal/rendercontext"
	"replayverify/internal/router"
	"replayverify/internal/template"
	"replayverify/internal/tolerance"
	"replayverify/pkg/errx"
	"replayverify/pkg/model"
)

// Options configures a single replay run.
type Options struct {
	UseDynamicResponses bool
	TargetBaseURL       string
	Mode                model.ComparisonMode
	Tolerance           model.ToleranceConfig
	Filter              *model.FilterSpec
	JudgeOptions        judge.Options
}

// Engine orchestrates one replay run against one session.
type Engine struct {
	router     *router.Resolver
	compiler   *template.Compiler
	ctxBuilder *rendercontext.ContextBuilder
	httpClient *http.Client
	log        log.Logger
}

// New builds an Engine from its component dependencies. Any of router,
// compiler, ctxBuilder may be nil when the caller never uses dynamic
// responses for this run.
func New(resolver *router.Resolver, compiler *template.Compiler, ctxBuilder *rendercontext.ContextBuilder, httpClient *http.Client, logger log.Logger) *Engine {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Engine{router: resolver, compiler: compiler, ctxBuilder: ctxBuilder, httpClient: httpClient, log: logger}
}

// Replay runs opts over session, producing a SessionResult.
func (e *Engine) Replay(ctx context.Context, session *model.Session, opts Options) (*model.SessionResult, error) {
	tol := model.ResolveToleranceConfig(opts.Mode, opts.Tolerance)
	toleranceClassifier := tolerance.New(tol)
	differ := diff.New(toleranceClassifier)
	compat := judge.New(opts.JudgeOptions)

	sessionTags := session.Tags()
	original := session.Interactions
	filtered := filterInteractions(original, sessionTags, opts.Filter)

	results := make([]model.InteractionResult, 0, len(filtered))
	for i, interaction := range filtered {
		results = append(results, e.safeReplayOne(ctx, i, interaction, opts, toleranceClassifier, differ, compat))
	}

	summary := judge.SummarizeSession(results)

	sessionResult := &model.SessionResult{
		SessionID:          session.ID,
		Timestamp:          time.Now(),
		ComparisonMode:      opts.Mode,
		Summary:             summary,
		InteractionResults:  results,
	}
	if opts.Filter != nil {
		sessionResult.Filter = opts.Filter
		sessionResult.FilteredStats = &model.FilteredStats{
			OriginalCount: len(original),
			FilteredCount: len(filtered),
		}
	}
	if e.router != nil {
		metrics := e.router.Metrics()
		perf := &model.PerformanceStats{
			CacheHits:   metrics.CacheHits,
			CacheMisses: metrics.CacheMisses,
		}
		if e.compiler != nil {
			perf.TemplateCompilations = e.compiler.Stats().Compilations
		}
		sessionResult.Performance = perf
	}

	return sessionResult, nil
}

// safeReplayOne wraps replayOne in a recover boundary (§7): a panic
// while processing one interaction becomes an InvariantViolation on
// that interaction's result rather than aborting the whole session.
func (e *Engine) safeReplayOne(ctx context.Context, index int, interaction model.Interaction, opts Options, tol *tolerance.Classifier, differ *diff.Differ, compat *judge.Judge) (result model.InteractionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = model.InteractionResult{
				Index:     index,
				Timestamp: interaction.Timestamp,
				Method:    interaction.Request.Method,
				Path:      interaction.Request.Path,
				Tags:      interaction.Tags,
			}
			err := errx.Newf(errx.CodeInvariant, "panic during replay: %v", r)
			e.log.Error("replay invariant violation", "index", index, "error", err.Error())
			result.Error = err.Error()
			result.ReplayError = true
		}
	}()
	return e.replayOne(ctx, index, interaction, opts, tol, differ, compat)
}

func (e *Engine) replayOne(ctx context.Context, index int, interaction model.Interaction, opts Options, tol *tolerance.Classifier, differ *diff.Differ, compat *judge.Judge) model.InteractionResult {
	result := model.InteractionResult{
		Index:     index,
		Timestamp: interaction.Timestamp,
		Method:    interaction.Request.Method,
		Path:      interaction.Request.Path,
		Tags:      interaction.Tags,
	}

	start := time.Now()
	replayed, err := e.obtainResponse(ctx, interaction.Request, opts)
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		result.ReplayError = true
		return result
	}

	recordedBody, err := canon.FromAny(interaction.Response.Body)
	if err != nil {
		result.Error = err.Error()
		result.ReplayError = true
		return result
	}
	replayedBody, err := canon.FromAny(replayed.Body)
	if err != nil {
		result.Error = err.Error()
		result.ReplayError = true
		return result
	}

	recordedHeaders := headersToAny(interaction.Response.Headers, tol)
	replayedHeaders := headersToAny(replayed.Headers, tol)

	headerDiffs := differ.Compare(model.SectionHeader, recordedHeaders, replayedHeaders)
	bodyDiffs := differ.Compare(model.SectionBody, recordedBody, replayedBody)

	statusMatch := interaction.Response.StatusCode == replayed.StatusCode
	comparison := compat.JudgeInteraction(statusMatch, headerDiffs, bodyDiffs)
	result.Comparison = &comparison
	return result
}

// headersToAny converts a header map into the `any` shape the differ
// walks, dropping any header the ToleranceClassifier marks ignored
// outright (so a redacted/noisy header never contributes a diff record).
func headersToAny(headers map[string]string, tol *tolerance.Classifier) any {
	out := make(map[string]any, len(headers))
	for k, v := range headers {
		if tol.IsIgnoredHeader(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// obtainResponse implements §4.I step 1/2: synthesize from a matched
// template route when dynamic responses are enabled, otherwise issue a
// live HTTP call.
func (e *Engine) obtainResponse(ctx context.Context, req model.Request, opts Options) (model.Response, error) {
	if opts.UseDynamicResponses && e.router != nil {
		if match := e.router.Resolve(req.Method, req.Path); match != nil {
			return e.synthesize(req, match)
		}
	}
	return e.callLive(ctx, req, opts.TargetBaseURL)
}

func (e *Engine) synthesize(req model.Request, match *router.Match) (model.Response, error) {
	compiled, err := e.compiler.Compile(match.Route.Template)
	if err != nil {
		return model.Response{}, err
	}
	renderCtx := e.ctxBuilder.Assemble(req, match)
	body, err := compiled.Render(renderCtx)
	if err != nil {
		return model.Response{}, err
	}
	return model.Response{
		StatusCode: match.Route.StatusCode,
		Headers:    match.Route.Headers,
		Body:       body,
	}, nil
}

// callLive issues a live HTTP request against targetBaseURL + req.Path,
// accepting any status code. Transport errors surface as replayError
// (handled by the caller treating a non-nil error as such).
func (e *Engine) callLive(ctx context.Context, req model.Request, targetBaseURL string) (model.Response, error) {
	u, err := url.Parse(strings.TrimRight(targetBaseURL, "/") + req.Path)
	if err != nil {
		return model.Response{}, err
	}
	q := u.Query()
	for k, v := range req.Query {
		for _, val := range v {
			q.Add(k, val)
		}
	}
	u.RawQuery = q.Encode()

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return model.Response{}, err
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return model.Response{}, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return model.Response{
			StatusCode:    500,
			StatusMessage: "replay transport error",
			Body:          err.Error(),
		}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Response{StatusCode: 500, Body: err.Error()}, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	var body any
	if len(data) > 0 {
		body = string(data)
	}

	return model.Response{
		StatusCode:    resp.StatusCode,
		StatusMessage: resp.Status,
		Headers:       headers,
		Body:          body,
	}, nil
}

// filterInteractions applies opts's FilterSpec, ANDing criteria across
// methods, route patterns, interaction tags, and session tags; matching
// within a single criterion's list is an OR, per §4.I.
func filterInteractions(interactions []model.Interaction, sessionTags []string, filter *model.FilterSpec) []model.Interaction {
	if filter == nil {
		return interactions
	}
	var out []model.Interaction
	for _, ia := range interactions {
		if matchesFilter(ia, sessionTags, filter) {
			out = append(out, ia)
		}
	}
	return out
}

func matchesFilter(ia model.Interaction, sessionTags []string, filter *model.FilterSpec) bool {
	if len(filter.Methods) > 0 && !containsFold(filter.Methods, ia.Request.Method) {
		return false
	}
	if len(filter.Routes) > 0 && !anyRouteMatches(filter.Routes, ia.Request.Path) {
		return false
	}
	if len(filter.Tags) > 0 && !hasAnyTag(filter.Tags, ia.Tags) {
		return false
	}
	if len(filter.SessionTags) > 0 && !hasAnyTag(filter.SessionTags, sessionTags) {
		return false
	}
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func hasAnyTag(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

// anyRouteMatches applies glob-like (leading/trailing '*') or substring
// matching of path against each pattern, per §4.I.
func anyRouteMatches(patterns []string, path string) bool {
	for _, p := range patterns {
		if routeGlob(path, p) {
			return true
		}
	}
	return false
}

func routeGlob(path, pattern string) bool {
	if pattern == "*" {
		return true
	}
	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(path, strings.Trim(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(path, strings.TrimPrefix(pattern, "*"))
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	default:
		return strings.Contains(path, pattern)
	}
}
