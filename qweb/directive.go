// Directives are modeled as data (a DirectiveKind tag plus an expression),
// not as a polymorphic Directive interface with a Compile method per kind —
// the spec's own design notes call this out directly ("records not
// polymorphism"): a fixed vocabulary of directive kinds compiled by a
// single priority-ordered switch is both easier to order (structural
// directives must run before content directives) and easier to test in
// isolation than a plugin-style interface would be.

package qweb

import "strings"

// DirectiveKind identifies one t-* attribute family.
type DirectiveKind int

const (
	DirNone DirectiveKind = iota
	DirSet             // t-set / t-value
	DirEsc             // t-esc
	DirRaw             // t-raw
	DirAtt             // t-att="expr" (whole-map attribute binding)
	DirAttName         // t-att-NAME="expr"
	DirAttf            // t-attf-NAME="literal {{expr}} literal"
	DirOn              // t-on-EVENT="handler" (Name carries EVENT, Modifiers the .stop/.prevent/... suffixes)
	DirRef             // t-ref="name"
	DirWidget          // t-widget="ctor"
	DirTransition      // t-transition="name"
	DirDebug           // t-debug
	DirLog             // t-log="expr"
	DirCall            // t-call="template-name" (the node's own children are its pre-block body)
	DirForeachAs       // t-as (Parse reads it into Node.LoopVar before directive parsing, so Parse never produces this kind)
	DirKey             // t-key (likewise; Parse reads it into Node.LoopKey on a t-foreach node and ignores it elsewhere)
)

// Directive is one parsed t-* attribute.
type Directive struct {
	Kind      DirectiveKind
	Name      string   // the EVENT/NAME portion for DirOn/DirAttName/DirAttf
	Modifiers []string // e.g. ["stop", "prevent"] for t-on-click.stop.prevent
	Expr      Expr
	Source    Source
}

// directivePriority is the sort key compileElementBody applies to a node's
// Directives before bucketing them by kind: t-set, t-call, t-widget, the
// attribute directives, t-on, t-ref, t-transition, t-esc/t-raw, then
// t-debug/t-log. The render closure then applies each bucket in its own
// fixed order, so the sort does not change the order in which directives
// take effect. Node.Cond/Node.Loop are handled directly by the compiler and
// never appear in the Directives slice.
func directivePriority(k DirectiveKind) int {
	switch k {
	case DirSet:
		return 0
	case DirCall:
		return 10
	case DirWidget:
		return 20
	case DirAtt, DirAttName, DirAttf:
		return 30
	case DirOn:
		return 40
	case DirRef:
		return 50
	case DirTransition:
		return 60
	case DirEsc, DirRaw:
		return 70
	case DirDebug, DirLog:
		return 100
	default:
		return 90
	}
}

// parseDirectiveName recognizes a t-* attribute key and splits it into a
// kind, an optional dashed suffix (NAME/EVENT), and dot-separated
// modifiers, e.g. "t-on-click.stop" -> (DirOn, "click", ["stop"]).
func parseDirectiveName(key string) (kind DirectiveKind, name string, modifiers []string, ok bool) {
	if !strings.HasPrefix(key, "t-") {
		return DirNone, "", nil, false
	}
	rest := key[2:]

	// split off .modifiers first
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		modifiers = strings.Split(rest[i+1:], ".")
		rest = rest[:i]
	}

	switch {
	case rest == "esc":
		return DirEsc, "", modifiers, true
	case rest == "raw":
		return DirRaw, "", modifiers, true
	case rest == "set" || rest == "value":
		return DirSet, "", modifiers, true
	case rest == "att":
		return DirAtt, "", modifiers, true
	case strings.HasPrefix(rest, "att-"):
		return DirAttName, rest[len("att-"):], modifiers, true
	case strings.HasPrefix(rest, "attf-"):
		return DirAttf, rest[len("attf-"):], modifiers, true
	case strings.HasPrefix(rest, "on-"):
		return DirOn, rest[len("on-"):], modifiers, true
	case rest == "ref":
		return DirRef, "", modifiers, true
	case rest == "widget":
		return DirWidget, "", modifiers, true
	case rest == "transition":
		return DirTransition, "", modifiers, true
	case rest == "debug":
		return DirDebug, "", modifiers, true
	case rest == "log":
		return DirLog, "", modifiers, true
	case rest == "call":
		return DirCall, "", modifiers, true
	case rest == "as":
		return DirForeachAs, "", modifiers, true
	case rest == "key":
		return DirKey, "", modifiers, true
	}
	return DirNone, "", nil, false
}
