// Package vdom implements the virtual-DOM model and patch algorithm: a
// lightweight VNode tree plus a reconciler that diffs two trees and issues
// the minimal set of create/insert/remove/update calls against a
// domtree.Node to bring the real tree in line.
//
// This package has no equivalent in this module's teacher, which renders
// straight to *html.Node server-side and never reconciles against a live
// DOM. It is grounded on the teacher's chtml/render.go tree-walk shape
// (render/renderElement/renderAttrs, generalized from "build an html.Node"
// to "build a VNode") and chtml/env.go's cloneHtmlNode/appendChild family
// for the create/append vocabulary; nodes moved during a keyed diff are
// re-parented in place with InsertBefore, not cloned.
package vdom

// Kind distinguishes the four shapes a VNode can take.
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindFragment
)

// EventHandler is one t-on-EVENT binding: Modifiers carries suffixes like
// "stop"/"prevent"/"once" parsed from "t-on-click.stop.prevent".
type EventHandler struct {
	Fn        func(env map[string]any, event any) error
	Modifiers []string
}

// VNode is one node of a virtual DOM tree produced by compiling a qweb
// template against a scope.
type VNode struct {
	Kind Kind

	// Sel is the tag name for KindElement; ignored otherwise.
	Sel string

	// Key identifies a node across re-renders of the same parent for the
	// keyed diff (t-key, or the t-foreach iteration key — index or map
	// key — when no t-key is given).
	// A nil Key opts the node out of keyed matching.
	Key any

	// Attrs holds plain string-valued HTML attributes (t-att/t-att-*,
	// t-attf-*, and static attributes).
	Attrs map[string]string

	// Props holds boolean/typed DOM properties that must be set via the
	// property (not the attribute) API to behave correctly —
	// checked/selected/disabled/readonly and the like.
	Props map[string]bool

	// On holds t-on-* event bindings, keyed by event name.
	On map[string]EventHandler

	// Ref, if non-empty, is the t-ref name this node should be exposed
	// under on its owning widget.
	Ref string

	// Text is the content of a KindText or KindComment node.
	Text string

	Children []*VNode

	// Widget is set when this node was produced by t-widget. Patch does
	// not read it: the node is created and patched as a plain element, and
	// the Create/Insert/Destroy hooks supplied by the widget runtime mount
	// and destroy a child widget inside that element. Declared as `any` to
	// avoid an import cycle
	// with package widget (which imports vdom, not the reverse).
	Widget any

	// elm is the live domtree node this VNode was last patched onto.
	elm any

	// removers holds the unsubscribe functions returned by
	// domtree.Node.AddEventListener for each currently-bound event name.
	removers map[string]func()
}

// Elm returns the domtree node this VNode is currently mounted against, or
// nil if it has not been patched yet.
func (n *VNode) Elm() any { return n.elm }

// SetElm is called by patch after creating or reusing a node's backing
// domtree element.
func (n *VNode) SetElm(e any) { n.elm = e }

// Text creates a text VNode.
func Text(s string) *VNode { return &VNode{Kind: KindText, Text: s} }

// Comment creates a comment VNode.
func Comment(s string) *VNode { return &VNode{Kind: KindComment, Text: s} }

// Element creates an element VNode with the given tag and children.
func Element(sel string, children ...*VNode) *VNode {
	return &VNode{Kind: KindElement, Sel: sel, Children: children}
}

// Fragment creates a fragment VNode: a list of children with no wrapping
// element of its own, used for t-foreach/t-call output and multi-root
// directive results.
func Fragment(children ...*VNode) *VNode {
	return &VNode{Kind: KindFragment, Children: children}
}

// sameNode reports whether a and b should be patched in place (same
// position, same kind/selector/key) rather than replaced.
func sameNode(a, b *VNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Key != nil || b.Key != nil {
		return a.Key == b.Key && a.Sel == b.Sel
	}
	return a.Sel == b.Sel
}
