// The compiler below is grounded on this module's teacher's
// chtml/render.go: the same tree-walk shape (render/renderElement/
// evalIf/evalFor/renderAttrs/isTruthy), retargeted from "build an
// *html.Node suitable for an http.ResponseWriter" to "build a closure that,
// given a Scope, produces a []*vdom.VNode" — the Go-native reading of
// spec.md's Design Notes §9 suggestion to "compile to a typed IR ... or a
// staged code generator": compiling once into a tree of Go closures over
// the parsed Node tree is that staging, without resorting to actual code
// generation or an eval loop over the raw tree on every render.

package qweb

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/vm"
	"github.com/fatih/camelcase"

	"github.com/dpotapov/goqweb/vdom"
)

// renderCtx carries everything a compiled render closure needs beyond the
// current Scope: the registry (for t-call/template lookup and the debug
// hook) and a reusable expr-lang VM (not goroutine-safe, scoped to one
// Render call).
type renderCtx struct {
	qweb *QWeb
	vm   *vm.VM
}

func (rc *renderCtx) eval(x Expr, scope Scope) (any, error) {
	return x.Eval(rc.vm, scope.Vars())
}

// renderFn is the compiled form of one Node: given a scope, it produces
// zero or more sibling VNodes (zero for a false t-if branch or an empty
// t-foreach, more than one for t-foreach/t-call/a fragment result).
type renderFn func(rc *renderCtx, scope Scope) ([]*vdom.VNode, error)

// compileNode compiles n's structural directives (t-foreach wraps
// everything else; t-if/t-elif/t-else is handled one level up, by
// compileChildren, since it spans siblings) plus its content.
func compileNode(n *Node) (renderFn, error) {
	switch n.Type {
	case TextNode:
		return compileText(n)
	case CommentNode, DoctypeNode:
		return compileVerbatim(n), nil
	case ElementNode:
		return compileElement(n)
	default:
		return func(*renderCtx, Scope) ([]*vdom.VNode, error) { return nil, nil }, nil
	}
}

func compileText(n *Node) (renderFn, error) {
	raw := n.Data.RawString()
	return func(rc *renderCtx, scope Scope) ([]*vdom.VNode, error) {
		return []*vdom.VNode{vdom.Text(raw)}, nil
	}, nil
}

func compileVerbatim(n *Node) renderFn {
	text := n.Data.RawString()
	kind := n.Type
	return func(rc *renderCtx, scope Scope) ([]*vdom.VNode, error) {
		if kind == CommentNode {
			return []*vdom.VNode{vdom.Comment(text)}, nil
		}
		return nil, nil
	}
}

// compileElement compiles one element node, handling t-foreach (wraps the
// rest) ahead of everything else, and then the remaining directives and
// plain children in the fixed order compileElementBody's closure applies.
func compileElement(n *Node) (renderFn, error) {
	if !n.Loop.IsEmpty() {
		return compileForeach(n)
	}
	return compileElementBody(n)
}

func compileForeach(n *Node) (renderFn, error) {
	loop := n.Loop
	varName := n.LoopVar
	keyExpr := n.LoopKey

	bodyOnly := *n
	bodyOnly.Loop = Expr{}
	body, err := compileElementBody(&bodyOnly)
	if err != nil {
		return nil, err
	}

	return func(rc *renderCtx, scope Scope) ([]*vdom.VNode, error) {
		iterable, err := rc.eval(loop, scope)
		if err != nil {
			return nil, newRenderError(n, fmt.Errorf("t-foreach: %w", err))
		}
		items, err := iterate(iterable)
		if err != nil {
			return nil, newRenderError(n, err)
		}

		var out []*vdom.VNode
		for i, it := range items {
			parity := "even"
			if i%2 != 0 {
				parity = "odd"
			}
			childScope := scope.Spawn(map[string]any{
				varName:             it.val,
				varName + "_index":  i,
				varName + "_value":  it.val,
				varName + "_first":  i == 0,
				varName + "_last":   i == len(items)-1,
				varName + "_parity": parity,
			})
			if !keyExpr.IsEmpty() {
				if kv, err := rc.eval(keyExpr, childScope); err == nil {
					childScope = childScope.Spawn(map[string]any{"__key": kv})
				}
			}
			vs, err := body(rc, childScope)
			if err != nil {
				return nil, err
			}
			key := it.key
			if !keyExpr.IsEmpty() {
				if kv, err := rc.eval(keyExpr, childScope); err == nil {
					key = kv
				}
			}
			for _, v := range vs {
				if v.Key == nil {
					v.Key = key
				}
			}
			out = append(out, vs...)
		}
		return out, nil
	}, nil
}

type iterPair struct {
	key any
	val any
}

// errInvalidLoopExpr is the spec's required RenderError message (§4.4) for a
// t-foreach expression that is neither an array, an object, nor a
// non-negative integer.
var errInvalidLoopExpr = errors.New("Invalid loop expression")

// iterate walks a slice, array, map, or non-negative integer value for
// t-foreach (an integer N iterates 0..N-1, each entry keyed and valued by
// its own index). Map iteration order is sorted by formatted key so renders
// are deterministic.
func iterate(v any) ([]iterPair, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]iterPair, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = iterPair{key: i, val: rv.Index(i).Interface()}
		}
		return out, nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		out := make([]iterPair, len(keys))
		for i, k := range keys {
			out[i] = iterPair{key: k.Interface(), val: rv.MapIndex(k).Interface()}
		}
		return out, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 {
			return nil, errInvalidLoopExpr
		}
		out := make([]iterPair, n)
		for i := int64(0); i < n; i++ {
			out[i] = iterPair{key: int(i), val: int(i)}
		}
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		out := make([]iterPair, n)
		for i := uint64(0); i < n; i++ {
			out[i] = iterPair{key: int(i), val: int(i)}
		}
		return out, nil
	default:
		return nil, errInvalidLoopExpr
	}
}

// compileElementBody compiles everything about n except t-foreach: t-call,
// t-widget, t-set, attributes (t-att/t-att-*/t-attf-*, plain), t-on-*,
// t-ref, t-esc/t-raw content, t-debug/t-log, and plain children.
func compileElementBody(n *Node) (renderFn, error) {
	dirs := make([]Directive, len(n.Directives))
	copy(dirs, n.Directives)
	sort.SliceStable(dirs, func(i, j int) bool {
		return directivePriority(dirs[i].Kind) < directivePriority(dirs[j].Kind)
	})

	var (
		setDirs     []Directive
		callName    Expr
		hasCall     bool
		widgetDir   *Directive
		escDir      *Directive
		rawDir      *Directive
		attDir      *Directive
		attNameDirs []Directive
		attfDirs    []Directive
		onDirs      []Directive
		refDir      *Directive
		transDir    *Directive
		debugDir    *Directive
		logDirs     []Directive
	)

	for i := range dirs {
		d := &dirs[i]
		switch d.Kind {
		case DirSet:
			setDirs = append(setDirs, *d)
		case DirCall:
			callName = d.Expr
			hasCall = true
		case DirWidget:
			widgetDir = d
		case DirEsc:
			escDir = d
		case DirRaw:
			rawDir = d
		case DirAtt:
			attDir = d
		case DirAttName:
			attNameDirs = append(attNameDirs, *d)
		case DirAttf:
			attfDirs = append(attfDirs, *d)
		case DirOn:
			onDirs = append(onDirs, *d)
		case DirRef:
			refDir = d
		case DirTransition:
			transDir = d
		case DirDebug:
			debugDir = d
		case DirLog:
			logDirs = append(logDirs, *d)
		}
	}

	childrenFn, err := compileChildren(n.Children())
	if err != nil {
		return nil, err
	}

	tag := n.Data.RawString()
	plainAttrs := n.Attr

	return func(rc *renderCtx, scope Scope) ([]*vdom.VNode, error) {
		for _, d := range setDirs {
			v, err := rc.eval(d.Expr, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, &d, err)
			}
			scope.Vars()[valueOrName(d)] = v
		}

		if debugDir != nil {
			rc.qweb.debug(tag)
		}
		for _, d := range logDirs {
			v, err := rc.eval(d.Expr, scope)
			if err == nil {
				rc.qweb.log(tag, v)
			}
		}

		if hasCall {
			return renderCall(rc, n, scope, callName, childrenFn)
		}

		vn := &vdom.VNode{Kind: vdom.KindElement, Sel: tag, Attrs: map[string]string{}, Props: map[string]bool{}}

		for _, a := range plainAttrs {
			v, err := rc.eval(a.Val, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, nil, err)
			}
			applyAttrValue(vn, a.Key, v)
		}
		if attDir != nil {
			v, err := rc.eval(attDir.Expr, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, attDir, err)
			}
			if m, ok := v.(map[string]any); ok {
				for k, vv := range m {
					applyAttrValue(vn, k, vv)
				}
			}
		}
		for _, d := range attNameDirs {
			v, err := rc.eval(d.Expr, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, &d, err)
			}
			applyAttrValue(vn, attrNameFromDirective(d.Name), v)
		}
		for _, d := range attfDirs {
			v, err := rc.eval(d.Expr, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, &d, err)
			}
			applyAttrValue(vn, attrNameFromDirective(d.Name), v)
		}

		for _, d := range onDirs {
			handler, err := makeEventHandler(rc, n, d, scope)
			if err != nil {
				return nil, err
			}
			if vn.On == nil {
				vn.On = map[string]vdom.EventHandler{}
			}
			vn.On[d.Name] = handler
		}

		if widgetDir != nil {
			v, err := rc.eval(widgetDir.Expr, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, widgetDir, err)
			}
			vn.Widget = v
		}

		if transDir != nil {
			name, err := rc.eval(transDir.Expr, scope)
			if err == nil {
				if s, ok := name.(string); ok {
					vn.Attrs["data-transition"] = s
				}
			}
		}

		if refDir != nil {
			name, err := rc.eval(refDir.Expr, scope)
			if err == nil {
				if s, ok := name.(string); ok {
					vn.Ref = s
				} else {
					vn.Ref = refDir.Expr.RawString()
				}
			} else {
				vn.Ref = refDir.Expr.RawString()
			}
		}

		switch {
		case escDir != nil:
			v, err := rc.eval(escDir.Expr, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, escDir, err)
			}
			if isTruthy(v) {
				vn.Children = []*vdom.VNode{vdom.Text(stringify(v))}
			} else {
				children, err := childrenFn(rc, scope)
				if err != nil {
					return nil, err
				}
				vn.Children = children
			}
		case rawDir != nil:
			v, err := rc.eval(rawDir.Expr, scope)
			if err != nil {
				return nil, newCompileErrorAttr(n, rawDir, err)
			}
			raw := vdom.Text(stringify(v))
			raw.Props = map[string]bool{"__raw": true}
			vn.Children = []*vdom.VNode{raw}
		default:
			children, err := childrenFn(rc, scope)
			if err != nil {
				return nil, err
			}
			vn.Children = children
		}

		return []*vdom.VNode{vn}, nil
	}, nil
}

func valueOrName(d Directive) string {
	if d.Name != "" {
		return d.Name
	}
	return d.Expr.RawString()
}

// attrNameFromDirective normalizes a t-att-NAME/t-attf-NAME suffix (which
// parse.go hands through verbatim from the kebab-case attribute key) into
// the attribute's actual name. camelcase.Split is reused here exactly as
// this module's teacher's render.go used it for toSnakeCase, just inverted:
// splitting "aria-label"-style dashed segments back into a single
// dash-joined attribute name is a no-op for already-dashed names and a
// normalization step for ones authored in camelCase (t-att-ariaLabel).
func attrNameFromDirective(name string) string {
	var parts []string
	for _, p := range camelcase.Split(name) {
		if strings.Trim(p, "-") == "" {
			continue
		}
		parts = append(parts, strings.ToLower(p))
	}
	return strings.Join(parts, "-")
}

// mergedAttrSep separates class/style (merged with whatever static value is
// already on the vnode) from ordinary attributes (plain overwrite).
var mergedAttrSep = map[string]string{"class": " ", "style": "; "}

func applyAttrValue(vn *vdom.VNode, key string, v any) {
	if boolAttr[key] {
		vn.Props[key] = isTruthy(v)
		return
	}
	if v == nil {
		return
	}
	val := stringify(v)
	if sep, ok := mergedAttrSep[key]; ok {
		if existing, ok := vn.Attrs[key]; ok && existing != "" && val != "" {
			vn.Attrs[key] = existing + sep + val
			return
		}
	}
	vn.Attrs[key] = val
}

var boolAttr = map[string]bool{
	"checked": true, "selected": true, "disabled": true, "readonly": true,
	"multiple": true, "required": true, "autofocus": true,
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func makeEventHandler(rc *renderCtx, n *Node, d Directive, scope Scope) (vdom.EventHandler, error) {
	expr := d.Expr
	return vdom.EventHandler{
		Modifiers: d.Modifiers,
		Fn: func(env map[string]any, event any) error {
			vars := scope.Vars()
			merged := make(map[string]any, len(vars)+1)
			for k, v := range vars {
				merged[k] = v
			}
			merged["event"] = event
			handler, err := expr.Eval(rc.vm, merged)
			if err != nil {
				return newRenderError(n, err)
			}
			if fn, ok := handler.(func(any)); ok {
				fn(event)
			}
			return nil
		},
	}, nil
}

// compileChildren compiles a sibling list, threading t-if/t-elif/t-else
// chains (which span siblings) into a single branch-selecting renderFn and
// compiling every other child independently.
func compileChildren(children []*Node) (renderFn, error) {
	var fns []renderFn
	consumed := make(map[*Node]bool)

	for _, c := range children {
		if consumed[c] {
			continue
		}
		if c.chainKind == chainIf {
			fn, members, err := compileCondChain(c)
			if err != nil {
				return nil, err
			}
			for _, m := range members {
				consumed[m] = true
			}
			fns = append(fns, fn)
			continue
		}
		fn, err := compileNode(c)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}

	return func(rc *renderCtx, scope Scope) ([]*vdom.VNode, error) {
		var out []*vdom.VNode
		for _, fn := range fns {
			vs, err := fn(rc, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	}, nil
}

type condBranch struct {
	cond Expr // empty for the trailing t-else branch
	body renderFn
	node *Node
}

// compileCondChain compiles a t-if/t-elif/.../t-else chain starting at
// head, returning the combined renderFn and every Node consumed by the
// chain (so compileChildren can skip them on its own pass).
func compileCondChain(head *Node) (renderFn, []*Node, error) {
	var branches []condBranch
	var members []*Node

	for n := head; n != nil; n = n.NextCond {
		members = append(members, n)
		bodyOnly := *n
		bodyOnly.Loop = Expr{}
		body, err := compileElementBody(&bodyOnly)
		if err != nil {
			return nil, nil, err
		}
		branches = append(branches, condBranch{cond: n.Cond, body: body, node: n})
	}

	return func(rc *renderCtx, scope Scope) ([]*vdom.VNode, error) {
		for _, b := range branches {
			if b.cond.IsEmpty() {
				return b.body(rc, scope)
			}
			v, err := rc.eval(b.cond, scope)
			if err != nil {
				return nil, newRenderError(b.node, err)
			}
			if isTruthy(v) {
				return b.body(rc, scope)
			}
		}
		return nil, nil
	}, members, nil
}

// renderCall implements t-call by compiling the node's own body as a
// pre-block: it is rendered first, against a scope spawned off the caller's
// (so its t-set's land in a scope private to this call but still visible to
// the callee), and the resulting fragment is handed to the callee as context
// variable "0" — the body never appears in the caller's own output.
func renderCall(rc *renderCtx, n *Node, scope Scope, nameExpr Expr, body renderFn) ([]*vdom.VNode, error) {
	name, err := rc.eval(nameExpr, scope)
	if err != nil {
		return nil, newRenderError(n, err)
	}
	tname, ok := name.(string)
	if !ok {
		tname = nameExpr.RawString()
	}

	callScope := scope.Spawn(nil)
	bodyNodes, err := body(rc, callScope)
	if err != nil {
		return nil, err
	}

	var fragment *vdom.VNode
	switch len(bodyNodes) {
	case 0:
		fragment = vdom.Fragment()
	case 1:
		fragment = bodyNodes[0]
	default:
		fragment = vdom.Fragment(bodyNodes...)
	}

	vs, err := rc.qweb.renderTemplate(rc, tname, callScope.Spawn(map[string]any{"0": fragment}))
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return nil, newRenderError(n, fmt.Errorf("Template '%s' does not exist", tname))
		}
		return nil, newRenderError(n, fmt.Errorf("t-call %q: %w", tname, err))
	}
	return vs, nil
}
