package template

import (
	"fmt"
	"strconv"
	"strings"
)

type tokKind int

const (
	tText tokKind = iota
	tExpr
)

type tok struct {
	kind tokKind
	raw  string
}

// tokenize splits src into alternating literal-text and {{…}} expression
// tokens. Expressions are not nested.
func tokenize(src string) ([]tok, error) {
	var toks []tok
	i := 0
	for i < len(src) {
		rel := strings.Index(src[i:], "{{")
		if rel == -1 {
			toks = append(toks, tok{kind: tText, raw: src[i:]})
			break
		}
		start := i + rel
		if start > i {
			toks = append(toks, tok{kind: tText, raw: src[i:start]})
		}
		relEnd := strings.Index(src[start:], "}}")
		if relEnd == -1 {
			return nil, fmt.Errorf("unterminated {{ in template")
		}
		end := start + relEnd
		toks = append(toks, tok{kind: tExpr, raw: src[start+2 : end]})
		i = end + 2
	}
	return toks, nil
}

// parseSequence consumes toks into a node list, returning unconsumed
// tokens when it encounters an "else" or "/name" close tag belonging to
// an enclosing block (or running out of input at the top level).
func parseSequence(toks []tok, registry *Registry, enclosing string) ([]node, []tok, error) {
	var nodes []node
	for len(toks) > 0 {
		t := toks[0]
		if t.kind == tText {
			nodes = append(nodes, literalNode{value: t.raw})
			toks = toks[1:]
			continue
		}

		raw := strings.TrimSpace(t.raw)
		if raw == "else" || strings.HasPrefix(raw, "/") {
			return nodes, toks, nil
		}

		if strings.HasPrefix(raw, "#") {
			blockNode, rest, err := parseBlock(raw[1:], toks[1:], registry)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, blockNode)
			toks = rest
			continue
		}

		fields := strings.Fields(raw)
		if len(fields) == 0 {
			toks = toks[1:]
			continue
		}
		name := fields[0]
		argStrs := fields[1:]
		if _, ok := registry.lookup(name); ok {
			args := make([]node, len(argStrs))
			for i, a := range argStrs {
				args[i] = argNode{raw: a}
			}
			nodes = append(nodes, helperNode{registry: registry, name: name, args: args})
		} else {
			nodes = append(nodes, lookupNode{path: name})
		}
		toks = toks[1:]
	}
	return nodes, toks, nil
}

// parseBlock parses the body of a "{{#name args}}…{{else}}…{{/name}}"
// construct. Only if_eq is supported, per §4.F.
func parseBlock(openRaw string, toks []tok, registry *Registry) (node, []tok, error) {
	fields := strings.Fields(openRaw)
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("empty block tag")
	}
	name := fields[0]
	argStrs := fields[1:]

	thenNodes, rest, err := parseSequence(toks, registry, name)
	if err != nil {
		return nil, nil, err
	}

	var elseBranch node
	if len(rest) > 0 && strings.TrimSpace(rest[0].raw) == "else" {
		elseNodes, rest2, err := parseSequence(rest[1:], registry, name)
		if err != nil {
			return nil, nil, err
		}
		elseBranch = stringNode{parts: elseNodes}
		rest = rest2
	}

	if len(rest) == 0 || !strings.HasPrefix(strings.TrimSpace(rest[0].raw), "/") {
		return nil, nil, fmt.Errorf("unterminated block %q", name)
	}
	rest = rest[1:]

	if name != "if_eq" {
		return nil, nil, fmt.Errorf("unknown block helper %q", name)
	}
	if len(argStrs) != 2 {
		return nil, nil, fmt.Errorf("if_eq requires exactly 2 arguments, got %d", len(argStrs))
	}

	return blockNode{
		a:          argNode{raw: argStrs[0]},
		b:          argNode{raw: argStrs[1]},
		thenBranch: stringNode{parts: thenNodes},
		elseBranch: elseBranch,
	}, rest, nil
}

// argNode resolves a helper/block argument: a number literal if it
// parses as one, otherwise a context path lookup, falling back to the
// raw token text when the path does not resolve.
type argNode struct{ raw string }

func (n argNode) render(ctx Context) (any, error) {
	if f, err := strconv.ParseFloat(n.raw, 64); err == nil {
		return f, nil
	}
	if v, ok := resolvePath(ctx, n.raw); ok {
		return v, nil
	}
	return n.raw, nil
}
