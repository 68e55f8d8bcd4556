// Expr is adapted from this module's teacher's chtml/expr.go: same
// raw-string-plus-compiled-vm.Program shape, with the Shape/type-checking
// pass removed (see DESIGN.md §1 — that subsystem solves a problem this
// template dialect's dynamically-typed expressions don't have) and a
// keyword translation pass added ahead of parsing, since this dialect's
// directive expressions accept the "and"/"or"/"not"/"gt"/"gte"/"lt"/"lte"
// word-operators spec.md's expression translator calls for, on top of
// ordinary Go-like expr-lang syntax.

package qweb

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/compiler"
	"github.com/expr-lang/expr/conf"
	expr_parser "github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Expr holds a directive's raw expression text and its compiled program.
// A zero Expr (IsEmpty true) represents "no expression was given".
type Expr struct {
	raw  string
	prog *vm.Program
}

// wordOps rewrites QWeb's word-style operators to expr-lang's native ones.
// Word boundaries are enforced so identifiers like "android" or "lottery"
// are left untouched.
var wordOps = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`\bnot\s+in\b`), "not in"}, // already native; only normalizes the whitespace between the words
	{regexp.MustCompile(`\band\b`), "&&"},
	{regexp.MustCompile(`\bor\b`), "||"},
	{regexp.MustCompile(`\bgte\b`), ">="},
	{regexp.MustCompile(`\blte\b`), "<="},
	{regexp.MustCompile(`\bgt\b`), ">"},
	{regexp.MustCompile(`\blt\b`), "<"},
}

// translateWordOperators rewrites and/or/gt/gte/lt/lte into their
// expr-lang-native spellings. It is intentionally a textual rewrite rather
// than an AST transform: these operators never appear inside string
// literals in practice for this dialect's directive expressions, and a
// textual pass keeps the translator trivially testable in isolation.
func translateWordOperators(s string) string {
	for _, op := range wordOps {
		s = op.pattern.ReplaceAllString(s, op.repl)
	}
	return s
}

func exprOptions() []expr.Option {
	return []expr.Option{
		expr.AllowUndefinedVariables(),
	}
}

// NewExpr compiles s (a directive's expression text) against no particular
// scope — type checking happens dynamically at Eval time, matching spec.md's
// "Non-goal: a general-purpose, statically-typed expression language".
func NewExpr(s string) (Expr, error) {
	if s == "" {
		return Expr{}, nil
	}
	translated := translateWordOperators(s)

	tree, err := expr_parser.Parse(translated)
	if err != nil {
		return Expr{}, err
	}
	c := conf.CreateNew()
	for _, opt := range exprOptions() {
		opt(c)
	}
	prog, err := compiler.Compile(tree, c)
	if err != nil {
		return Expr{}, err
	}
	return Expr{raw: s, prog: prog}, nil
}

// NewExprRaw builds an Expr that always evaluates to the literal string s,
// with no compilation — used for plain (non-directive) text nodes and
// attribute values.
func NewExprRaw(s string) Expr {
	return Expr{raw: s}
}

// NewExprConst builds an Expr that always evaluates to v.
func NewExprConst(v any) Expr {
	return Expr{
		raw: fmt.Sprint(v),
		prog: &vm.Program{
			Constants: []any{v},
			Bytecode:  []vm.Opcode{vm.OpPush},
			Arguments: []int{0},
		},
	}
}

// Eval runs the expression against env (typically Scope.Vars()). A zero Expr
// evaluates to its raw string (or "" if it was never set).
func (e Expr) Eval(vm_ *vm.VM, env map[string]any) (any, error) {
	if e.prog != nil {
		return vm_.Run(e.prog, env)
	}
	return e.raw, nil
}

// RawString returns the expression's original source text.
func (e Expr) RawString() string { return e.raw }

// IsEmpty reports whether the expression carries no value at all (neither
// compiled program nor literal text) — the zero Expr.
func (e Expr) IsEmpty() bool { return e.prog == nil && e.raw == "" }
