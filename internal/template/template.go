// Package template implements the TemplateCompiler (§4.F): compiles a
// string or structured template containing `{{…}}` placeholders into a
// render function over a typed context, with a built-in helper registry
// and a fingerprint-keyed compiled-template cache.
//
// Grounded on original_source/core/safe_template_engine.py and
// original_source/core/response_resolver.py's ConditionEvaluator /
// CompiledCondition: tokenize once, compile to a closed AST
// (Literal | Lookup | Helper | Block), cache the compiled form, evaluate
// against a typed context. The cache is a plain map keyed by template
// fingerprint, unguarded by a mutex: §5's single-threaded replay loop
// never calls Compile concurrently, so there is nothing to race.
package template

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"replayverify/pkg/errx"
)

// Context is the render-time environment a compiled template evaluates
// against (§4.H builds one of these).
type Context map[string]any

// HelperFunc implements a named helper. args are the already rendered
// string arguments. Block constructs such as if_eq are handled by the
// parser and are not HelperFuncs.
type HelperFunc func(ctx Context, args []string) (string, error)

// Registry holds the built-in and user-registered helpers available to
// compiled templates.
type Registry struct {
	helpers map[string]HelperFunc
}

// NewRegistry returns a Registry pre-populated with the §4.F built-ins:
// uuid, now, timestamp, random, concat. The if_eq block is parsed
// directly by the compiler and is not a registry entry.
func NewRegistry() *Registry {
	r := &Registry{helpers: make(map[string]HelperFunc)}
	for name, fn := range builtins {
		r.helpers[name] = fn
	}
	return r
}

// Register adds or overrides a named helper.
func (r *Registry) Register(name string, fn HelperFunc) {
	r.helpers[name] = fn
}

func (r *Registry) lookup(name string) (HelperFunc, bool) {
	fn, ok := r.helpers[name]
	return fn, ok
}

// Compiled is a compiled template ready to render against a Context.
// Its internal node tree mirrors the original template's shape: a
// string template compiles to a single literal node (no placeholders)
// or a single concatenation node, an object
// template to a tree of object/array/literal/lookup/helper nodes.
type Compiled struct {
	fingerprint string
	node        node
}

// Fingerprint returns the deterministic hash of the template's source
// form, used as the cache key (§4.F "Cache").
func (c *Compiled) Fingerprint() string { return c.fingerprint }

// Render evaluates the compiled template against ctx, producing the
// same shape as the original template value: a string for a string
// template, or a structured value (map/slice/primitive) for an object
// template.
func (c *Compiled) Render(ctx Context) (any, error) {
	v, err := c.node.render(ctx)
	if err != nil {
		return nil, errx.Wrap(errx.CodeRender, err, "rendering template")
	}
	return v, nil
}

// Compiler compiles templates and memoizes them by fingerprint.
type Compiler struct {
	registry     *Registry
	cache        map[string]*Compiled
	compilations int64
}

// New builds a Compiler using registry for helper lookups.
func New(registry *Registry) *Compiler {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Compiler{registry: registry, cache: make(map[string]*Compiled)}
}

// Compile compiles tmpl (a string, or a structured value whose leaf
// strings may contain placeholders), memoizing the result by the
// template's fingerprint.
func (c *Compiler) Compile(tmpl any) (*Compiled, error) {
	fp, err := Fingerprint(tmpl)
	if err != nil {
		return nil, errx.Wrap(errx.CodeRender, err, "computing template fingerprint")
	}
	if cached, ok := c.cache[fp]; ok {
		return cached, nil
	}

	n, err := c.compileValue(tmpl)
	if err != nil {
		return nil, errx.Wrap(errx.CodeRender, err, "compiling template")
	}
	compiled := &Compiled{fingerprint: fp, node: n}
	c.cache[fp] = compiled
	c.compilations++
	return compiled, nil
}

// Stats reports how many templates have actually been compiled (cache
// misses), for the §4.G/§6.4 performance block.
func (c *Compiler) Stats() CompilerStats {
	return CompilerStats{Compilations: c.compilations}
}

// CompilerStats is a snapshot of a Compiler's lifetime counters.
type CompilerStats struct {
	Compilations int64
}

func (c *Compiler) compileValue(v any) (node, error) {
	switch x := v.(type) {
	case string:
		if !strings.Contains(x, "{{") {
			return literalNode{value: x}, nil
		}
		return c.compileString(x)
	case map[string]any:
		fields := make(map[string]node, len(x))
		for k, val := range x {
			n, err := c.compileValue(val)
			if err != nil {
				return nil, err
			}
			fields[k] = n
		}
		return objectNode{fields: fields}, nil
	case []any:
		elems := make([]node, len(x))
		for i, val := range x {
			n, err := c.compileValue(val)
			if err != nil {
				return nil, err
			}
			elems[i] = n
		}
		return arrayNode{elems: elems}, nil
	default:
		return literalNode{value: x}, nil
	}
}

// compileString tokenizes and compiles a string template into a
// concatenation of literal, lookup, helper, and block nodes.
func (c *Compiler) compileString(src string) (node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	parsed, rest, err := parseSequence(toks, c.registry, "")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("unexpected trailing tokens near %q", rest[0].raw)
	}
	return stringNode{parts: parsed}, nil
}

// Fingerprint computes a deterministic hash of a template's source
// form, independent of Go map key order.
func Fingerprint(tmpl any) (string, error) {
	data, err := json.Marshal(normalizeForFingerprint(tmpl))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeForFingerprint(v any) any {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		out := make(map[string]any, len(x))
		for _, k := range keys {
			out[k] = normalizeForFingerprint(x[k])
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeForFingerprint(e)
		}
		return out
	default:
		return x
	}
}

// --- AST ---

type node interface {
	render(ctx Context) (any, error)
}

type literalNode struct{ value any }

func (n literalNode) render(Context) (any, error) { return n.value, nil }

type stringNode struct{ parts []node }

func (n stringNode) render(ctx Context) (any, error) {
	var sb strings.Builder
	for _, p := range n.parts {
		v, err := p.render(ctx)
		if err != nil {
			return nil, err
		}
		sb.WriteString(stringify(v))
	}
	return sb.String(), nil
}

type lookupNode struct{ path string }

func (n lookupNode) render(ctx Context) (any, error) {
	v, ok := resolvePath(ctx, n.path)
	if !ok {
		return nil, fmt.Errorf("unresolved placeholder %q", n.path)
	}
	return v, nil
}

type helperNode struct {
	registry *Registry
	name     string
	args     []node
}

func (n helperNode) render(ctx Context) (any, error) {
	fn, ok := n.registry.lookup(n.name)
	if !ok {
		return nil, fmt.Errorf("unknown helper %q", n.name)
	}
	args := make([]string, len(n.args))
	for i, a := range n.args {
		v, err := a.render(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = stringify(v)
	}
	return fn(ctx, args)
}

// blockNode implements {{#if_eq a b}}then{{else}}else{{/if_eq}}.
type blockNode struct {
	a, b       node
	thenBranch node
	elseBranch node
}

func (n blockNode) render(ctx Context) (any, error) {
	av, err := n.a.render(ctx)
	if err != nil {
		return nil, err
	}
	bv, err := n.b.render(ctx)
	if err != nil {
		return nil, err
	}
	if stringify(av) == stringify(bv) {
		return n.thenBranch.render(ctx)
	}
	if n.elseBranch != nil {
		return n.elseBranch.render(ctx)
	}
	return "", nil
}

type objectNode struct{ fields map[string]node }

func (n objectNode) render(ctx Context) (any, error) {
	out := make(map[string]any, len(n.fields))
	for k, field := range n.fields {
		v, err := field.render(ctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

type arrayNode struct{ elems []node }

func (n arrayNode) render(ctx Context) (any, error) {
	out := make([]any, len(n.elems))
	for i, e := range n.elems {
		v, err := e.render(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// resolvePath resolves a dotted path like "request.params.id" against
// ctx, descending through nested maps.
func resolvePath(ctx Context, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = map[string]any(ctx)
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			if asCtx, ok2 := cur.(Context); ok2 {
				m = map[string]any(asCtx)
			} else {
				return nil, false
			}
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(data)
	}
}
