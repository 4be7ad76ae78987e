package penman

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/fairgraph/api/schemas"
)

// maxDepth bounds node nesting so hostile input cannot exhaust the stack.
const maxDepth = 2048

// Codec implements schemas.GraphCodec for PENMAN notation.
type Codec struct{}

// Ensures Codec correctly implements the GraphCodec interface at compile time.
var _ schemas.GraphCodec = (*Codec)(nil)

// NewCodec returns a PENMAN codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Decode parses one block into triples and a top node. Triples are emitted in
// document order: a node's instance triple first, then each role edge followed
// by the triples of any node nested under it.
func (c *Codec) Decode(block string) (*schemas.Graph, error) {
	toks, err := lex(block)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, &DecodeError{Pos: 0, Msg: "empty block"}
	}

	top, err := p.node(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &DecodeError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s after graph", t.kind)}
	}

	return &schemas.Graph{Top: top, Triples: p.triples}, nil
}

type parser struct {
	toks    []token
	i       int
	triples []schemas.Triple
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) node(depth int) (string, error) {
	open := p.next()
	if open.kind != tokLParen {
		return "", &DecodeError{Pos: open.pos, Msg: fmt.Sprintf("expected '(' but found %s", open.kind)}
	}
	if depth > maxDepth {
		return "", &DecodeError{Pos: open.pos, Msg: "graph nested too deeply"}
	}

	v := p.next()
	if v.kind != tokSymbol {
		return "", &DecodeError{Pos: v.pos, Msg: fmt.Sprintf("expected variable but found %s", v.kind)}
	}

	concept := ""
	if p.peek().kind == tokSlash {
		p.next()
		ct := p.next()
		if ct.kind != tokSymbol && ct.kind != tokString {
			return "", &DecodeError{Pos: ct.pos, Msg: fmt.Sprintf("expected concept after '/' but found %s", ct.kind)}
		}
		concept = ct.text
	}
	p.triples = append(p.triples, schemas.Triple{Source: v.text, Role: schemas.RoleInstance, Target: concept})

	for {
		t := p.next()
		switch t.kind {
		case tokRParen:
			return v.text, nil
		case tokRole:
			target := p.peek()
			switch target.kind {
			case tokLParen:
				// The edge precedes the nested node's own triples.
				at := len(p.triples)
				p.triples = append(p.triples, schemas.Triple{Source: v.text, Role: t.text})
				child, err := p.node(depth + 1)
				if err != nil {
					return "", err
				}
				p.triples[at].Target = child
			case tokSymbol, tokString:
				p.next()
				p.triples = append(p.triples, schemas.Triple{Source: v.text, Role: t.text, Target: target.text})
			default:
				return "", &DecodeError{Pos: target.pos, Msg: fmt.Sprintf("role %s has no target", t.text)}
			}
		case tokEOF:
			return "", &DecodeError{Pos: t.pos, Msg: fmt.Sprintf("unexpected end of input: node %q is not closed", v.text)}
		default:
			return "", &DecodeError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s in node %q", t.kind, v.text)}
		}
	}
}

// Encode serializes g starting at its top node. Every node is written in full
// at its first occurrence in depth-first order and as a bare reference
// afterwards, so re-entrant structure is preserved without duplication.
// Triples whose source cannot be reached from the top yield a *LayoutError.
func (c *Codec) Encode(g *schemas.Graph) (string, error) {
	if g == nil || g.Top == "" {
		return "", &LayoutError{Msg: "graph has no top node"}
	}
	if len(g.Triples) == 0 {
		return "", &LayoutError{Top: g.Top, Msg: "graph has no triples"}
	}

	e := &encoder{
		concepts: make(map[string]string),
		edges:    make(map[string][]schemas.Triple),
		counts:   make(map[string]int),
		placed:   make(map[string]bool),
	}
	for _, t := range g.Triples {
		e.counts[t.Source]++
		if t.Role == schemas.RoleInstance {
			if _, seen := e.concepts[t.Source]; !seen {
				e.concepts[t.Source] = t.Target
				continue
			}
		}
		if t.Target == "" {
			return "", &LayoutError{Top: g.Top, Msg: fmt.Sprintf("role %s of %q has an empty target", t.Role, t.Source)}
		}
		e.edges[t.Source] = append(e.edges[t.Source], t)
	}

	e.write(g.Top, 0)
	if e.written != len(g.Triples) {
		return "", &LayoutError{
			Top: g.Top,
			Msg: fmt.Sprintf("%d of %d triples are unreachable", len(g.Triples)-e.written, len(g.Triples)),
		}
	}
	return e.b.String(), nil
}

type encoder struct {
	b        strings.Builder
	concepts map[string]string
	edges    map[string][]schemas.Triple
	counts   map[string]int
	placed   map[string]bool
	written  int
}

func (e *encoder) isNode(id string) bool {
	return e.counts[id] > 0
}

func (e *encoder) write(node string, column int) {
	e.placed[node] = true
	e.written += e.counts[node]

	e.b.WriteString("(")
	e.b.WriteString(node)
	if concept := e.concepts[node]; concept != "" {
		e.b.WriteString(" / ")
		e.b.WriteString(concept)
	}

	indent := column + len(node) + 2
	for _, t := range e.edges[node] {
		e.b.WriteString("\n")
		e.b.WriteString(strings.Repeat(" ", indent))
		e.b.WriteString(t.Role)
		e.b.WriteString(" ")
		if e.isNode(t.Target) && !e.placed[t.Target] {
			e.write(t.Target, indent+len(t.Role)+1)
			continue
		}
		e.b.WriteString(t.Target)
	}
	e.b.WriteString(")")
}

var defaultCodec = NewCodec()

// Decode parses a block with the default codec.
func Decode(block string) (*schemas.Graph, error) {
	return defaultCodec.Decode(block)
}

// Encode serializes a graph with the default codec.
func Encode(g *schemas.Graph) (string, error) {
	return defaultCodec.Encode(g)
}
