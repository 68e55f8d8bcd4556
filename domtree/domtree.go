// Package domtree is the abstract DOM collaborator the vdom patcher drives.
// It stands in for spec.md's "the DOM itself, treated as an abstract tree
// API": vdom.Patch never imports a browser binding or a concrete DOM
// package, only this interface, so the same patch algorithm runs against
// the in-memory implementation here (used by every test in this module)
// and, unchanged, against a real browser DOM from a WASM build wiring these
// methods to js.Value calls (left as an exercise — no WASM glue is part of
// this module's public contract).
//
// This package has no equivalent in this module's teacher, which never
// talks to a live DOM (it renders a complete html.Node tree server-side per
// request). It is grounded on chtml/env.go's appendChild/cloneHtmlNode
// family for the create/insert vocabulary and on chtml/node.go's linked
// sibling-list shape for the in-memory implementation's tree structure.
package domtree

// EventHandler is invoked when a bound DOM event fires; event is an
// implementation-defined payload (a synthetic event struct for the
// in-memory implementation, a js.Value for a WASM binding).
type EventHandler func(event any)

// Node is one element, text node, or comment in a concrete DOM tree.
type Node interface {
	// Kind identifies what this node is: "element", "text", or "comment".
	Kind() string

	// Tag returns the element's tag name; empty for text/comment nodes.
	Tag() string

	Parent() Node

	AppendChild(child Node)
	InsertBefore(child, before Node)
	RemoveChild(child Node)
	Children() []Node

	SetAttribute(key, value string)
	RemoveAttribute(key string)
	Attribute(key string) (string, bool)

	// SetProp sets a boolean DOM property (checked/selected/disabled/
	// readonly) directly, bypassing the attribute API — the same
	// distinction the spec's patch algorithm draws between HTML attributes
	// and IDL properties.
	SetProp(key string, value bool)
	Prop(key string) bool

	// SetText replaces this node's text content. Per DESIGN.md §8, this is
	// the documented escaping boundary: implementations must set content
	// through a property that does not interpret markup.
	SetText(text string)
	Text() string

	// AddEventListener registers fn for event name and returns a function
	// that removes it.
	AddEventListener(name string, fn EventHandler) (remove func())
}

// Document creates detached nodes to be attached to a tree by the caller.
type Document interface {
	CreateElement(tag string) Node
	CreateText(data string) Node
	CreateComment(data string) Node
}
