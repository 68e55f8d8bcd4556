package widget

import (
	"fmt"
	"sync"

	"github.com/dpotapov/goqweb/domtree"
	"github.com/dpotapov/goqweb/qweb"
	"github.com/dpotapov/goqweb/vdom"
)

// A *Spec is what a t-widget directive expression must evaluate to: enough to
// construct and re-construct a child Widget across renders of its parent.
// Exactly one of Template or Render should be set; Vars seeds the widget's
// scope (Template) or is passed straight through as the scope's vars
// (Render). qweb/render.go stores whatever a t-widget expression evaluates
// to on VNode.Widget as a bare `any`, to keep qweb free of an import on
// this package; Spec is the widget package's half of that contract.
type Spec struct {
	Template string
	Render   func(w *Widget) (*vdom.VNode, error)
	Vars     map[string]any

	WillStart   func(w *Widget) error
	Mounted     func(w *Widget)
	WillPatch   func(w *Widget)
	Patched     func(w *Widget)
	WillUnmount func(w *Widget)

	// Recover, if set, is tried before bubbling a render error to the
	// parent widget's own Recover hook.
	Recover func(w *Widget, err error) *vdom.VNode
}

// Widget is one mounted component instance: a scope, a compiled render
// step, and a position in both the widget tree and the live DOM.
type Widget struct {
	env    *Env
	parent *Widget
	spec   Spec

	mu    sync.Mutex
	state State
	scope qweb.Scope

	vnode     *vdom.VNode
	elmParent domtree.Node

	refs     map[string]domtree.Node
	children map[*vdom.VNode]*Widget
}

// New constructs a widget from spec against env, spawning its scope as a
// child of parent's (or a fresh root scope if parent is nil).
func New(env *Env, parent *Widget, spec Spec) *Widget {
	var parentScope qweb.Scope
	if parent != nil {
		parentScope = parent.scope
	}
	root := qweb.NewScopeMap(parentScope)
	root.SetVars(mergeVars(root.Vars(), spec.Vars))

	return &Widget{
		env:      env,
		parent:   parent,
		spec:     spec,
		state:    Constructing,
		scope:    root,
		refs:     make(map[string]domtree.Node),
		children: make(map[*vdom.VNode]*Widget),
	}
}

func mergeVars(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// State returns the widget's current lifecycle state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Scope exposes the widget's variable scope, e.g. for a parent to Spawn
// children from it directly.
func (w *Widget) Scope() qweb.Scope { return w.scope }

// Ref returns the DOM node bound to a t-ref of the given name within this
// widget's own rendered tree (not a descendant widget's).
func (w *Widget) Ref(name string) domtree.Node {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refs[name]
}

func (w *Widget) setState(to State) error {
	if !validTransition(w.state, to) {
		return fmt.Errorf("widget: invalid transition %s -> %s", w.state, to)
	}
	w.state = to
	return nil
}

// Mount runs the widget through its initial Constructing -> Mounted pass
// and attaches the resulting DOM under parentElm.
func (w *Widget) Mount(parentElm domtree.Node) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.elmParent = parentElm

	if err := w.setState(Starting); err != nil {
		return err
	}
	if w.spec.WillStart != nil {
		if err := w.spec.WillStart(w); err != nil {
			return w.fail(err)
		}
	}

	if err := w.setState(Rendering); err != nil {
		return err
	}
	vn, err := w.render()
	if err != nil {
		return w.fail(err)
	}

	if err := w.setState(Mounting); err != nil {
		return err
	}
	w.vnode = vdom.Patch(w.env.Doc, parentElm, nil, vn, w.hooks())
	w.collectRefs(w.vnode)

	if err := w.setState(Mounted); err != nil {
		return err
	}
	if w.spec.Mounted != nil {
		w.spec.Mounted(w)
	}
	return nil
}

// UpdateState merges vars into the widget's scope and marks it dirty; the
// actual re-render happens whenever the owning Scheduler next flushes.
func (w *Widget) UpdateState(vars map[string]any) {
	w.mu.Lock()
	w.scope = w.scope.Spawn(vars)
	w.mu.Unlock()
	w.scope.Touch()
	w.env.Scheduler.MarkDirty(w)
}

// Rerender re-renders the widget and patches the result into the DOM in
// place. Called by whatever drains Scheduler.Dirty().
func (w *Widget) Rerender() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == Destroyed || w.state == Destroying {
		return nil
	}
	if err := w.setState(Updating); err != nil {
		return err
	}
	if w.spec.WillPatch != nil {
		w.spec.WillPatch(w)
	}

	vn, err := w.render()
	if err != nil {
		return w.fail(err)
	}

	old := w.vnode
	w.vnode = vdom.Patch(w.env.Doc, w.elmParent, old, vn, w.hooks())
	w.collectRefs(w.vnode)

	if err := w.setState(Mounted); err != nil {
		return err
	}
	if w.spec.Patched != nil {
		w.spec.Patched(w)
	}
	return nil
}

// Destroy tears the widget and every mounted descendant widget down, then
// removes its DOM from the tree.
func (w *Widget) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == Destroyed {
		return
	}
	_ = w.setState(Destroying)
	if w.spec.WillUnmount != nil {
		w.spec.WillUnmount(w)
	}
	for _, c := range w.children {
		c.Destroy()
	}
	if w.vnode != nil && w.elmParent != nil {
		if elm, ok := w.vnode.Elm().(domtree.Node); ok && elm != nil {
			w.elmParent.RemoveChild(elm)
		}
	}
	w.state = Destroyed
}

func (w *Widget) render() (*vdom.VNode, error) {
	if w.spec.Render != nil {
		return w.spec.Render(w)
	}
	return w.env.Qweb.Render(w.spec.Template, w.scope.Vars())
}

// fail runs the widget's error boundary: try its own Recover hook, falling
// back to bubbling to its parent, and finally to a built-in error vnode.
// Mirrors this module's teacher's errhandler.go catch/fallback shape,
// generalized from "render a named fallback component" to "call a Recover
// hook or fall back to a minimal built-in vnode" (DESIGN.md §6).
func (w *Widget) fail(err error) error {
	w.state = Destroyed
	fallback := w.recover(err)
	if w.elmParent != nil {
		vdom.Patch(w.env.Doc, w.elmParent, w.vnode, fallback, w.hooks())
		w.vnode = fallback
		w.state = Mounted
	}
	return err
}

func (w *Widget) recover(err error) *vdom.VNode {
	if w.spec.Recover != nil {
		if vn := w.spec.Recover(w, err); vn != nil {
			return vn
		}
	}
	if w.parent != nil {
		if vn := w.parent.recover(err); vn != nil {
			return vn
		}
	}
	return builtinErrorVNode(err)
}

func builtinErrorVNode(err error) *vdom.VNode {
	return vdom.Element("div",
		vdom.Text(fmt.Sprintf("widget error: %v", err)),
	)
}

// hooks wires vdom.Patch's module hooks to the child-widget lifecycle: for
// any VNode carrying a non-nil Widget (a *Spec, by this package's
// convention), vdom.Patch still creates the plain element with its static
// children, and a nested Widget is mounted inside that element on insert
// and destroyed with it.
func (w *Widget) hooks() vdom.Hooks {
	return vdom.Hooks{
		Create: func(vn *vdom.VNode) {
			spec, ok := vn.Widget.(*Spec)
			if !ok || spec == nil {
				return
			}
			child := New(w.env, w, *spec)
			w.children[vn] = child
		},
		Insert: func(vn *vdom.VNode) {
			child, ok := w.children[vn]
			if !ok {
				return
			}
			elm, _ := vn.Elm().(domtree.Node)
			if elm != nil {
				_ = child.Mount(elm)
			}
		},
		Destroy: func(vn *vdom.VNode) {
			if child, ok := w.children[vn]; ok {
				child.Destroy()
				delete(w.children, vn)
			}
		},
	}
}

// collectRefs walks the freshly patched tree snapshotting t-ref bindings.
// Children are snapshotted via vn.Children (already a flattened, concrete
// slice by the time a render pass returns it, see qweb/node.go's
// Node.Children doc comment on late-mounted-child ordering) rather than
// re-read live, so a ref added by a concurrent re-render of a different
// widget never leaks into this snapshot.
func (w *Widget) collectRefs(vn *vdom.VNode) {
	if vn == nil {
		return
	}
	if vn.Ref != "" {
		if elm, ok := vn.Elm().(domtree.Node); ok {
			w.refs[vn.Ref] = elm
		}
	}
	for _, c := range vn.Children {
		w.collectRefs(c)
	}
}
