package vdom_test

import (
	"testing"

	"github.com/dpotapov/goqweb/domtree"
	"github.com/dpotapov/goqweb/vdom"
)

func html(t *testing.T, n domtree.Node) string {
	t.Helper()
	h, ok := n.(interface{ HTML() string })
	if !ok {
		t.Fatalf("node does not expose HTML()")
	}
	return h.HTML()
}

func TestPatchInitialMount(t *testing.T) {
	doc := domtree.MemoryDocument{}
	parent := doc.CreateElement("div")

	vn := vdom.Element("p", vdom.Text("hello"))
	vdom.Patch(doc, parent, nil, vn, vdom.Hooks{})

	if got, want := html(t, parent), "<div><p>hello</p></div>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPatchUpdatesText(t *testing.T) {
	doc := domtree.MemoryDocument{}
	parent := doc.CreateElement("div")

	old := vdom.Element("p", vdom.Text("hello"))
	vdom.Patch(doc, parent, nil, old, vdom.Hooks{})

	next := vdom.Element("p", vdom.Text("world"))
	vdom.Patch(doc, parent, old, next, vdom.Hooks{})

	if got, want := html(t, parent), "<div><p>world</p></div>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPatchKeyedReorder(t *testing.T) {
	doc := domtree.MemoryDocument{}
	parent := doc.CreateElement("div")

	mk := func(keys ...string) *vdom.VNode {
		children := make([]*vdom.VNode, len(keys))
		for i, k := range keys {
			c := vdom.Element("li", vdom.Text(k))
			c.Key = k
			children[i] = c
		}
		return vdom.Element("ul", children...)
	}

	old := mk("a", "b", "c")
	vdom.Patch(doc, parent, nil, old, vdom.Hooks{})
	if got, want := html(t, parent), "<div><ul><li>a</li><li>b</li><li>c</li></ul></div>"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	next := mk("c", "a", "b")
	vdom.Patch(doc, parent, old, next, vdom.Hooks{})
	if got, want := html(t, parent), "<div><ul><li>c</li><li>a</li><li>b</li></ul></div>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPatchReplacesOnSelectorMismatch(t *testing.T) {
	doc := domtree.MemoryDocument{}
	parent := doc.CreateElement("div")

	old := vdom.Element("p", vdom.Text("x"))
	vdom.Patch(doc, parent, nil, old, vdom.Hooks{})

	next := vdom.Element("span", vdom.Text("x"))
	vdom.Patch(doc, parent, old, next, vdom.Hooks{})

	if got, want := html(t, parent), "<div><span>x</span></div>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPatchFlattensFragments(t *testing.T) {
	doc := domtree.MemoryDocument{}
	parent := doc.CreateElement("div")

	vn := vdom.Element("ul",
		vdom.Fragment(
			vdom.Element("li", vdom.Text("a")),
			vdom.Element("li", vdom.Text("b")),
		),
	)
	vdom.Patch(doc, parent, nil, vn, vdom.Hooks{})

	if got, want := html(t, parent), "<div><ul><li>a</li><li>b</li></ul></div>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPatchRemovesTrailingChildren(t *testing.T) {
	doc := domtree.MemoryDocument{}
	parent := doc.CreateElement("div")

	old := vdom.Element("ul", vdom.Element("li", vdom.Text("a")), vdom.Element("li", vdom.Text("b")))
	vdom.Patch(doc, parent, nil, old, vdom.Hooks{})

	next := vdom.Element("ul", vdom.Element("li", vdom.Text("a")))
	vdom.Patch(doc, parent, old, next, vdom.Hooks{})

	if got, want := html(t, parent), "<div><ul><li>a</li></ul></div>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
