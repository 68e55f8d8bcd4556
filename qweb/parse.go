// Parse is adapted from this module's teacher's chtml/parse.go: tokens come
// from the same golang.org/x/net/html tokenizer, t-* attributes are pulled
// off the plain attribute list the way the teacher pulls off c:if/c:for, and
// source spans are tracked the same way (byte offset -> line/column via
// calculateAttrPosition's approach). Trimmed relative to the teacher: the
// teacher runs a full HTML5 insertion-mode state machine (foster parenting,
// table/select quirks, implied end tags); this parser is a plain
// stack-of-open-elements tree builder, since spec.md's explicit non-goal is
// "full XML/HTML compliance" and QWeb templates are always well-formed,
// hand-authored markup rather than tag-soup.

package qweb

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements never have a matching end tag or children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type parser struct {
	name string
	data []byte
	z    *html.Tokenizer

	root   *Node
	stack  nodeStack
	offset int
}

// Parse parses a single template fragment (exactly one root element) from r.
func Parse(r io.Reader) (*Node, error) {
	return ParseWithSource("", r)
}

// ParseWithSource parses like Parse, attaching name to every Source so
// later errors can report a file path.
func ParseWithSource(name string, r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{
		name: name,
		data: data,
		z:    html.NewTokenizer(newOffsetReader(data)),
	}
	return p.parse()
}

func (p *parser) parse() (*Node, error) {
	doc := &Node{Type: DocumentNode}
	p.stack.push(doc)

	for {
		tt := p.z.Next()
		raw := p.z.Raw()
		start := p.offset
		p.offset += len(raw)

		switch tt {
		case html.ErrorToken:
			if err := p.z.Err(); err != io.EOF {
				return nil, newParseError(nil, err)
			}
			return p.finish(doc)

		case html.DoctypeToken:
			n := parseDoctype(string(p.z.Text()))
			n.Source = p.source(start, len(raw))
			p.stack.top().AppendChild(n)

		case html.CommentToken:
			n := &Node{Type: CommentNode, Data: NewExprRaw(string(p.z.Text()))}
			n.Source = p.source(start, len(raw))
			p.stack.top().AppendChild(n)

		case html.TextToken:
			text := string(p.z.Text())
			n := &Node{Type: TextNode, Data: NewExprRaw(text)}
			n.Source = p.source(start, len(raw))
			p.stack.top().AppendChild(n)

		case html.StartTagToken, html.SelfClosingTagToken:
			n, err := p.buildElement(raw, start)
			if err != nil {
				return nil, err
			}
			parent := p.stack.top()
			p.linkConditional(parent, n)
			parent.AppendChild(n)
			if parent.Type == DocumentNode {
				if p.root != nil {
					return nil, newParseError(n, fmt.Errorf("template has more than one root element"))
				}
				p.root = n
			}
			if tt == html.StartTagToken && !voidElements[n.Data.RawString()] {
				p.stack.push(n)
			}

		case html.EndTagToken:
			name, _ := p.z.TagName()
			if voidElements[string(name)] {
				continue
			}
			if len(p.stack) > 1 {
				p.stack.pop()
			}
		}
	}
}

func (p *parser) finish(doc *Node) (*Node, error) {
	if p.root == nil {
		return nil, newParseError(nil, fmt.Errorf("template has no root element"))
	}
	p.root.Parent = nil
	p.root.PrevSibling = nil
	p.root.NextSibling = nil
	_ = doc
	return p.root, nil
}

func (p *parser) source(offset, length int) Source {
	line, col := calcLineCol(p.data, offset)
	return Source{File: p.name, Span: Span{Offset: offset, Line: line, Column: col, Length: length}}
}

// buildElement turns one start/self-closing tag token into a Node, splitting
// t-* attributes into Cond/Loop/Directives and leaving the rest in Attr.
func (p *parser) buildElement(raw []byte, start int) (*Node, error) {
	name, hasAttr := p.z.TagName()
	n := &Node{
		Type:     ElementNode,
		DataAtom: atom.Lookup(name),
		Data:     NewExprRaw(string(name)),
		Source:   p.source(start, len(raw)),
	}

	var keys []string
	type rawAttr struct {
		key, val string
	}
	var raws []rawAttr
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = p.z.TagAttr()
		keys = append(keys, string(k))
		raws = append(raws, rawAttr{key: string(k), val: string(v)})
	}
	spans := scanAttributeSpans(raw, start, keys)

	var (
		loopExprRaw string
		asName      string
		keyExprRaw  string
		setName     string
		setSource   Source
		valueRaw    string
	)

	for _, a := range raws {
		attrSource := Source{File: p.name}
		if sp, ok := spans[a.key]; ok {
			line, col := calcLineCol(p.data, sp.Offset)
			sp.Line, sp.Column = line, col
			attrSource.Span = sp
		}

		switch {
		case a.key == "t-if":
			x, err := NewExpr(a.val)
			if err != nil {
				return nil, newParseError(n, fmt.Errorf("t-if: %w", err))
			}
			n.Cond = x
			n.chainKind = chainIf
		case a.key == "t-elif":
			x, err := NewExpr(a.val)
			if err != nil {
				return nil, newParseError(n, fmt.Errorf("t-elif: %w", err))
			}
			n.Cond = x
			n.chainKind = chainElif
		case a.key == "t-else":
			// Cond left empty: presence in the chain is enough.
			n.chainKind = chainElse
		case a.key == "t-foreach":
			loopExprRaw = a.val
		case a.key == "t-as":
			asName = a.val
		case a.key == "t-key":
			keyExprRaw = a.val
		case a.key == "t-set":
			setName, setSource = a.val, attrSource
		case a.key == "t-value":
			valueRaw = a.val

		default:
			kind, dname, mods, ok := parseDirectiveName(a.key)
			if !ok {
				x, err := NewExprInterpol(a.val)
				if err != nil {
					return nil, newParseError(n, fmt.Errorf("attribute %s: %w", a.key, err))
				}
				n.Attr = append(n.Attr, Attribute{Key: a.key, Val: x, Source: attrSource})
				continue
			}
			var x Expr
			var err error
			switch kind {
			case DirAttf:
				x, err = NewExprInterpol(a.val)
			default:
				x, err = NewExpr(a.val)
			}
			if err != nil {
				return nil, newParseError(n, fmt.Errorf("%s: %w", a.key, err))
			}
			n.Directives = append(n.Directives, Directive{
				Kind: kind, Name: dname, Modifiers: mods, Expr: x, Source: attrSource,
			})
		}
	}

	if setName != "" {
		x, err := NewExpr(valueRaw)
		if err != nil {
			return nil, newParseError(n, fmt.Errorf("t-value: %w", err))
		}
		n.Directives = append(n.Directives, Directive{Kind: DirSet, Name: setName, Expr: x, Source: setSource})
	}

	if loopExprRaw != "" {
		v, idx, iterExprRaw, err := parseLoopExpr(loopExprRaw)
		if err != nil {
			// Canonical form: t-foreach="expr" t-as="n" — the foreach value
			// is a bare iterable expression with no "x in y" syntax, and
			// t-as supplies the loop variable name.
			if asName == "" {
				return nil, newParseError(n, err)
			}
			v, idx, iterExprRaw = asName, "", strings.TrimSpace(loopExprRaw)
		} else if asName != "" {
			v = asName
		}
		iterExpr, err := NewExpr(iterExprRaw)
		if err != nil {
			return nil, newParseError(n, fmt.Errorf("t-foreach: %w", err))
		}
		n.Loop = iterExpr
		n.LoopVar = v
		if idx != "" {
			n.LoopKey = NewExprRaw(idx)
		}
		if keyExprRaw != "" {
			keyExpr, err := NewExpr(keyExprRaw)
			if err != nil {
				return nil, newParseError(n, fmt.Errorf("t-key: %w", err))
			}
			n.LoopKey = keyExpr
		}
	}

	return n, nil
}

// linkConditional wires n into its parent's t-if/t-elif/t-else chain: a
// t-elif/t-else node links back to the immediately preceding sibling,
// provided that sibling is itself part of an unterminated chain (t-if or a
// prior t-elif — never a bare element or a t-else, which closes a chain).
func (p *parser) linkConditional(parent, n *Node) {
	if n.chainKind == chainNone || n.chainKind == chainIf {
		return
	}
	prev := parent.LastChild
	if prev == nil || (prev.chainKind != chainIf && prev.chainKind != chainElif) {
		return
	}
	prev.NextCond = n
	n.PrevCond = prev
}

// calcLineCol walks data up to offset counting newlines. Templates are small
// enough that this linear scan per error is cheap relative to the parse
// itself; it is only ever called when building a Source, not per token.
func calcLineCol(data []byte, offset int) (line, col int) {
	if offset > len(data) {
		offset = len(data)
	}
	line = 1
	lastNL := -1
	for i := 0; i < offset; i++ {
		if data[i] == '\n' {
			line++
			lastNL = i
		}
	}
	col = offset - lastNL
	return line, col
}

// offsetReader is a plain io.Reader over an in-memory byte slice; Parse
// reads the whole template up front so Source spans can be computed from
// absolute byte offsets without re-reading from the tokenizer's internal
// buffer.
type offsetReader struct {
	data []byte
	pos  int
}

func newOffsetReader(data []byte) *offsetReader { return &offsetReader{data: data} }

func (r *offsetReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

