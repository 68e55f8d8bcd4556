// Interpolation lexer adapted from this module's teacher's chtml/expr.go
// exprLexer (itself built on the Pike-style lexer from
// https://go.dev/talks/2011/lex.slide), retargeted from chtml's "${...}"
// delimiter to t-attf-*'s "{{...}}" delimiter and from the Shape-checked
// `combine` expr-lang function to a plain fmt.Sprint-based concatenation,
// since this dialect's expressions are dynamically typed (DESIGN.md §1).

package qweb

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/compiler"
	"github.com/expr-lang/expr/conf"
	expr_parser "github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

const (
	eof        rune = -1
	leftDelim       = "{{"
	rightDelim      = "}}"
)

// NewExprInterpol compiles a t-attf-* value such as
// "item-{{ id }}-row" into a single Expr whose evaluation concatenates the
// literal segments with the evaluated {{...}} expressions. A value with no
// "{{" is returned as a plain literal Expr (no compilation needed).
func NewExprInterpol(s string) (Expr, error) {
	if s == "" {
		return Expr{}, nil
	}
	if !strings.Contains(s, leftDelim) {
		return NewExprRaw(s), nil
	}

	prog, err := interpol(s)
	if err != nil {
		return Expr{}, err
	}
	return Expr{raw: s, prog: prog}, nil
}

func interpol(s string) (*vm.Program, error) {
	l := &interpolLexer{input: s}
	for state := lexInterpolText; state != nil; {
		state = state(l)
	}
	if len(l.items) > 0 && l.items[0].typ == itemError {
		return nil, fmt.Errorf("%s", l.items[0].val)
	}

	args := make([]ast.Node, 0, len(l.items))
	for _, it := range l.items {
		switch it.typ {
		case itemError:
			return nil, fmt.Errorf("%s", it.val)
		case itemEOF:
		case itemText:
			args = append(args, &ast.StringNode{Value: it.val})
		case itemExpr:
			tree, err := expr_parser.Parse(translateWordOperators(it.val))
			if err != nil {
				return nil, err
			}
			args = append(args, tree.Node)
		}
	}

	tree := &expr_parser.Tree{
		Node: &ast.CallNode{
			Callee:    &ast.IdentifierNode{Value: "concat"},
			Arguments: args,
		},
	}

	c := conf.CreateNew()
	opts := append(exprOptions(), expr.Function("concat", func(args ...any) (any, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(fmt.Sprint(a))
		}
		return b.String(), nil
	}))
	for _, opt := range opts {
		opt(c)
	}
	return compiler.Compile(tree, c)
}

// interpolLexer scans a string with {{...}} placeholders into text/expr items.
type interpolLexer struct {
	input       string
	start, pos  int
	width       int
	bracesDepth int
	items       []interpolItem
}

func (l *interpolLexer) emit(t interpolItemType) stateFn {
	l.items = append(l.items, interpolItem{typ: t, val: l.input[l.start:l.pos]})
	l.start = l.pos
	return nil
}

func (l *interpolLexer) errorf(format string, args ...interface{}) stateFn {
	l.items = append(l.items, interpolItem{typ: itemError, val: fmt.Sprintf(format, args...)})
	return nil
}

func (l *interpolLexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	l.width = w
	return r
}

func (l *interpolLexer) backup() { l.pos -= l.width }

func (l *interpolLexer) ignore() { l.start = l.pos }

func (l *interpolLexer) atRightDelim() bool {
	return l.bracesDepth == 0 && strings.HasPrefix(l.input[l.pos:], rightDelim)
}

func (l *interpolLexer) scanString(quote rune) {
	for ch := l.next(); ch != quote; ch = l.next() {
		if ch == '\n' || ch == eof {
			l.errorf("unterminated string")
			return
		}
		if ch == '\\' {
			l.next()
		}
	}
}

type stateFn func(*interpolLexer) stateFn

func lexInterpolText(l *interpolLexer) stateFn {
	if x := strings.Index(l.input[l.pos:], leftDelim); x >= 0 {
		if x > 0 {
			l.pos += x
			l.emit(itemText)
		}
		return lexInterpolLeftDelim
	}
	l.pos = len(l.input)
	if l.pos > l.start {
		l.emit(itemText)
	}
	return l.emit(itemEOF)
}

func lexInterpolLeftDelim(l *interpolLexer) stateFn {
	l.pos += len(leftDelim)
	l.ignore()
	return lexInterpolExpr
}

func lexInterpolRightDelim(l *interpolLexer) stateFn {
	l.pos += len(rightDelim)
	l.ignore()
	return lexInterpolText
}

func lexInterpolExpr(l *interpolLexer) stateFn {
	if l.atRightDelim() {
		l.emit(itemExpr)
		return lexInterpolRightDelim
	}
	switch r := l.next(); r {
	case eof:
		return l.errorf("unclosed {{ }} in attribute value")
	case '\'', '"':
		l.scanString(r)
	case '{':
		l.bracesDepth++
	case '}':
		l.bracesDepth--
	}
	return lexInterpolExpr
}

type interpolItemType int

const (
	itemError interpolItemType = iota
	itemEOF
	itemText
	itemExpr
)

type interpolItem struct {
	typ interpolItemType
	val string
}

// parseLoopExpr parses the teacher-style "item in items" or
// "item, idx in items" shorthand, returning the bound variable(s) and the
// iterable expression text. The spec's canonical "t-foreach=\"expr\"
// t-as=\"n\"" form (a bare iterable with no "in") is handled by the caller
// in parse.go, which falls back to treating the whole value as iterExpr and
// t-as as the loop variable when this parse fails.
func parseLoopExpr(s string) (v, idx, iterExpr string, err error) {
	s = strings.TrimSpace(s)
	inIdx := findWord(s, "in")
	if inIdx == -1 {
		return "", "", "", fmt.Errorf("t-foreach: missing %q in %q", "in", s)
	}
	head := strings.TrimSpace(s[:inIdx])
	iterExpr = strings.TrimSpace(s[inIdx+2:])
	if iterExpr == "" {
		return "", "", "", fmt.Errorf("t-foreach: missing iterable expression")
	}

	parts := strings.Split(head, ",")
	switch len(parts) {
	case 1:
		v = strings.TrimSpace(parts[0])
	case 2:
		v = strings.TrimSpace(parts[0])
		idx = strings.TrimSpace(parts[1])
	default:
		return "", "", "", fmt.Errorf("t-foreach: too many loop variables in %q", head)
	}
	if v == "" {
		return "", "", "", fmt.Errorf("t-foreach: missing loop variable")
	}
	return v, idx, iterExpr, nil
}

// findWord finds a standalone occurrence of word in s (surrounded by
// whitespace or string boundaries), ignoring occurrences inside identifiers.
func findWord(s, word string) int {
	for i := 0; i+len(word) <= len(s); i++ {
		if s[i:i+len(word)] != word {
			continue
		}
		beforeOK := i == 0 || isSpace(rune(s[i-1]))
		afterOK := i+len(word) == len(s) || isSpace(rune(s[i+len(word)]))
		if beforeOK && afterOK {
			return i
		}
	}
	return -1
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
