package domtree

import "strings"

// MemoryDocument is an in-memory Document used by tests and by
// cmd/qwebpreview, which serializes its tree to HTML text for transport
// over a WebSocket rather than driving a real browser DOM.
type MemoryDocument struct{}

var _ Document = MemoryDocument{}

func (MemoryDocument) CreateElement(tag string) Node {
	return &memNode{kind: "element", tag: tag, attrs: map[string]string{}, props: map[string]bool{}, listeners: map[string][]EventHandler{}}
}

func (MemoryDocument) CreateText(data string) Node {
	return &memNode{kind: "text", text: data}
}

func (MemoryDocument) CreateComment(data string) Node {
	return &memNode{kind: "comment", text: data}
}

type memNode struct {
	kind   string
	tag    string
	text   string
	attrs  map[string]string
	props  map[string]bool
	parent *memNode

	children  []Node
	listeners map[string][]EventHandler
}

var _ Node = (*memNode)(nil)

func (n *memNode) Kind() string { return n.kind }
func (n *memNode) Tag() string  { return n.tag }

func (n *memNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *memNode) AppendChild(child Node) {
	c := child.(*memNode)
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
}

func (n *memNode) InsertBefore(child, before Node) {
	if before == nil {
		n.AppendChild(child)
		return
	}
	c := child.(*memNode)
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = n
	idx := n.indexOf(before)
	if idx < 0 {
		n.children = append(n.children, c)
		return
	}
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = c
}

func (n *memNode) RemoveChild(child Node) {
	idx := n.indexOf(child)
	if idx < 0 {
		return
	}
	child.(*memNode).parent = nil
	n.children = append(n.children[:idx], n.children[idx+1:]...)
}

func (n *memNode) Children() []Node {
	out := make([]Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *memNode) indexOf(target Node) int {
	for i, c := range n.children {
		if c == target {
			return i
		}
	}
	return -1
}

func (n *memNode) SetAttribute(key, value string) {
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}
	n.attrs[key] = value
}

func (n *memNode) RemoveAttribute(key string) { delete(n.attrs, key) }

func (n *memNode) Attribute(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

func (n *memNode) SetProp(key string, value bool) {
	if n.props == nil {
		n.props = map[string]bool{}
	}
	n.props[key] = value
}

func (n *memNode) Prop(key string) bool { return n.props[key] }

func (n *memNode) SetText(text string) { n.text = text }
func (n *memNode) Text() string        { return n.text }

func (n *memNode) AddEventListener(name string, fn EventHandler) func() {
	n.listeners[name] = append(n.listeners[name], fn)
	idx := len(n.listeners[name]) - 1
	return func() {
		l := n.listeners[name]
		if idx < len(l) {
			n.listeners[name] = append(l[:idx], l[idx+1:]...)
		}
	}
}

// Dispatch synchronously invokes every listener registered for name on n —
// used by tests and cmd/qwebpreview to simulate a DOM event.
func (n *memNode) Dispatch(name string, event any) {
	for _, fn := range n.listeners[name] {
		fn(event)
	}
}

// HTML serializes the subtree rooted at n back to an HTML string — used by
// cmd/qwebpreview to ship a render over the wire, never by the runtime
// itself (DESIGN.md §7: a dev convenience, not an SSR mode).
func (n *memNode) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *memNode) writeHTML(b *strings.Builder) {
	switch n.kind {
	case "text":
		b.WriteString(n.text)
	case "comment":
		b.WriteString("<!--")
		b.WriteString(n.text)
		b.WriteString("-->")
	default:
		b.WriteByte('<')
		b.WriteString(n.tag)
		for k, v := range n.attrs {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteString(`="`)
			b.WriteString(v)
			b.WriteByte('"')
		}
		b.WriteByte('>')
		for _, c := range n.children {
			c.(*memNode).writeHTML(b)
		}
		b.WriteString("</")
		b.WriteString(n.tag)
		b.WriteByte('>')
	}
}
