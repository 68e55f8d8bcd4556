// The patch algorithm below is new code (the teacher never reconciles a
// tree — it renders once per request) grounded on the general shape
// described in spec.md's patch-algorithm module: match by selector+key,
// run a keyed two-pointer diff with a key map when every sibling carries a
// key, fall back to an index-aligned diff otherwise, and drive attribute/
// property/listener updates plus module hooks around the structural work.
// chtml/render.go's renderAttrs (iterate a node's attribute list, split
// boolean HTML properties from plain string attributes) grounds the
// updateAttrs/updateProps split here.

package vdom

import "github.com/dpotapov/goqweb/domtree"

// boolProps lists the HTML attributes that must be set as DOM properties,
// not string attributes, to behave correctly once the element exists —
// checked/selected/disabled/readonly mirror this module's teacher's
// render.go attribute-vs-property split.
var boolProps = map[string]bool{
	"checked": true, "selected": true, "disabled": true, "readonly": true,
	"multiple": true, "required": true, "autofocus": true,
}

// Hooks are invoked around structural patch operations, matching spec.md's
// module-hook vocabulary. Any hook left nil is skipped.
type Hooks struct {
	Create    func(vnode *VNode)
	Insert    func(vnode *VNode)
	Prepatch  func(oldVnode, newVnode *VNode)
	Update    func(oldVnode, newVnode *VNode)
	PostPatch func(oldVnode, newVnode *VNode)
	Remove    func(vnode *VNode, rm func())
	Destroy   func(vnode *VNode)
}

func (h Hooks) create(n *VNode) {
	if h.Create != nil {
		h.Create(n)
	}
}
func (h Hooks) insert(n *VNode) {
	if h.Insert != nil {
		h.Insert(n)
	}
}
func (h Hooks) prepatch(o, n *VNode) {
	if h.Prepatch != nil {
		h.Prepatch(o, n)
	}
}
func (h Hooks) update(o, n *VNode) {
	if h.Update != nil {
		h.Update(o, n)
	}
}
func (h Hooks) postpatch(o, n *VNode) {
	if h.PostPatch != nil {
		h.PostPatch(o, n)
	}
}
func (h Hooks) destroy(n *VNode) {
	if h.Destroy != nil {
		h.Destroy(n)
	}
	for _, c := range n.Children {
		h.destroy(c)
	}
}
func (h Hooks) remove(n *VNode, parent domtree.Node) {
	rm := func() {
		if parent != nil && n.elm != nil {
			parent.RemoveChild(n.elm.(domtree.Node))
		}
	}
	if h.Remove != nil {
		h.Remove(n, rm)
	} else {
		rm()
	}
}

// Patch reconciles newVnode against oldVnode (which must already be mounted,
// i.e. have a non-nil Elm, unless oldVnode is nil for an initial mount into
// parent) and returns newVnode with Elm populated.
func Patch(doc domtree.Document, parent domtree.Node, oldVnode, newVnode *VNode, hooks Hooks) *VNode {
	if oldVnode == nil {
		elm := createElm(doc, newVnode, hooks)
		if parent != nil {
			parent.AppendChild(elm)
			hooks.insert(newVnode)
		}
		return newVnode
	}
	if oldVnode == newVnode {
		return newVnode
	}
	if !sameNode(oldVnode, newVnode) {
		oldElm, _ := oldVnode.elm.(domtree.Node)
		elm := createElm(doc, newVnode, hooks)
		if parent != nil {
			parent.InsertBefore(elm, oldElm)
			hooks.insert(newVnode)
			hooks.remove(oldVnode, parent)
		}
		hooks.destroy(oldVnode)
		return newVnode
	}
	patchVnode(doc, oldVnode, newVnode, hooks)
	return newVnode
}

func createElm(doc domtree.Document, n *VNode, hooks Hooks) domtree.Node {
	switch n.Kind {
	case KindText:
		e := doc.CreateText(n.Text)
		n.elm = e
		return e
	case KindComment:
		e := doc.CreateComment(n.Text)
		n.elm = e
		return e
	case KindFragment:
		// A fragment has no element of its own; its children are created
		// and returned to the caller to splice in directly. Callers that
		// need a single domtree.Node (createElm's own recursive callers)
		// should have already flattened fragments out of the children
		// list via flatten(), so this branch only fires for a bare
		// top-level fragment handed to Patch — treat it as its first
		// child for Elm-tracking purposes.
		var first domtree.Node
		for _, c := range flatten(n.Children) {
			e := createElm(doc, c, hooks)
			if first == nil {
				first = e
			}
		}
		n.elm = first
		return first
	}

	e := doc.CreateElement(n.Sel)
	n.elm = e
	applyAttrs(e, nil, n)
	applyProps(e, nil, n)
	applyListeners(e, nil, n)
	hooks.create(n)

	for _, c := range flatten(n.Children) {
		ce := createElm(doc, c, hooks)
		e.AppendChild(ce)
		hooks.insert(c)
	}
	return e
}

func patchVnode(doc domtree.Document, oldVnode, newVnode *VNode, hooks Hooks) {
	elm := oldVnode.elm
	newVnode.elm = elm
	hooks.prepatch(oldVnode, newVnode)

	switch newVnode.Kind {
	case KindText, KindComment:
		if oldVnode.Text != newVnode.Text {
			elm.(domtree.Node).SetText(newVnode.Text)
		}
	default:
		e := elm.(domtree.Node)
		applyAttrs(e, oldVnode, newVnode)
		applyProps(e, oldVnode, newVnode)
		applyListeners(e, oldVnode, newVnode)
		updateChildren(doc, e, flatten(oldVnode.Children), flatten(newVnode.Children), hooks)
	}

	hooks.update(oldVnode, newVnode)
	hooks.postpatch(oldVnode, newVnode)
}

// flatten expands KindFragment nodes in place so structural diffing always
// operates on a flat list of element/text/comment nodes — a fragment never
// has a backing domtree.Node of its own.
func flatten(nodes []*VNode) []*VNode {
	hasFragment := false
	for _, n := range nodes {
		if n.Kind == KindFragment {
			hasFragment = true
			break
		}
	}
	if !hasFragment {
		return nodes
	}
	out := make([]*VNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == KindFragment {
			out = append(out, flatten(n.Children)...)
		} else {
			out = append(out, n)
		}
	}
	return out
}

func applyAttrs(e domtree.Node, old, n *VNode) {
	for k, v := range n.Attrs {
		if old == nil || old.Attrs[k] != v {
			e.SetAttribute(k, v)
		}
	}
	if old != nil {
		for k := range old.Attrs {
			if _, ok := n.Attrs[k]; !ok {
				e.RemoveAttribute(k)
			}
		}
	}
}

func applyProps(e domtree.Node, old, n *VNode) {
	for k, v := range n.Props {
		if old == nil || old.Props[k] != v {
			e.SetProp(k, v)
		}
	}
	if old != nil {
		for k := range old.Props {
			if _, ok := n.Props[k]; !ok {
				e.SetProp(k, false)
			}
		}
	}
}

func applyListeners(e domtree.Node, old, n *VNode) {
	if old != nil {
		for name := range old.On {
			if _, ok := n.On[name]; !ok {
				if rm, ok := old.removers[name]; ok {
					rm()
				}
			}
		}
	}
	if len(n.On) == 0 {
		return
	}
	n.removers = make(map[string]func(), len(n.On))
	for name, h := range n.On {
		handler := h
		if old != nil {
			// The old registration calls the previous render's handler,
			// whose closure carries that render's scope, so it is always
			// replaced by one that calls this render's handler.
			if rm, ok := old.removers[name]; ok {
				rm()
			}
		}
		n.removers[name] = e.AddEventListener(name, func(ev any) {
			_ = handler.Fn(nil, ev)
		})
	}
}

func modifiersEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// updateChildren reconciles oldCh against newCh under parent e. When every
// node on both sides carries a non-nil Key, it runs a keyed two-pointer
// diff backed by a key->index map (O(n) typical case, no unnecessary
// moves); otherwise it falls back to a plain index-aligned diff, since
// without keys there is no reliable identity to track across a reorder.
func updateChildren(doc domtree.Document, e domtree.Node, oldCh, newCh []*VNode, hooks Hooks) {
	if allKeyed(oldCh) && allKeyed(newCh) {
		updateChildrenKeyed(doc, e, oldCh, newCh, hooks)
		return
	}
	updateChildrenIndexed(doc, e, oldCh, newCh, hooks)
}

func allKeyed(nodes []*VNode) bool {
	if len(nodes) == 0 {
		return true
	}
	for _, n := range nodes {
		if n.Key == nil {
			return false
		}
	}
	return true
}

func updateChildrenIndexed(doc domtree.Document, e domtree.Node, oldCh, newCh []*VNode, hooks Hooks) {
	n := len(oldCh)
	if len(newCh) < n {
		n = len(newCh)
	}
	for i := 0; i < n; i++ {
		Patch(doc, e, oldCh[i], newCh[i], hooks)
	}
	for i := n; i < len(newCh); i++ {
		ce := createElm(doc, newCh[i], hooks)
		e.AppendChild(ce)
		hooks.insert(newCh[i])
	}
	for i := len(newCh); i < len(oldCh); i++ {
		hooks.remove(oldCh[i], e)
		hooks.destroy(oldCh[i])
	}
}

func updateChildrenKeyed(doc domtree.Document, e domtree.Node, oldCh, newCh []*VNode, hooks Hooks) {
	oldStart, oldEnd := 0, len(oldCh)-1
	newStart, newEnd := 0, len(newCh)-1

	var oldKeyMap map[any]int

	nextSiblingElm := func(n *VNode) domtree.Node {
		if n == nil || n.elm == nil {
			return nil
		}
		return n.elm.(domtree.Node)
	}

	for oldStart <= oldEnd && newStart <= newEnd {
		if oldCh[oldStart] == nil {
			oldStart++
		} else if oldCh[oldEnd] == nil {
			oldEnd--
		} else if sameNode(oldCh[oldStart], newCh[newStart]) {
			Patch(doc, e, oldCh[oldStart], newCh[newStart], hooks)
			oldStart++
			newStart++
		} else if sameNode(oldCh[oldEnd], newCh[newEnd]) {
			Patch(doc, e, oldCh[oldEnd], newCh[newEnd], hooks)
			oldEnd--
			newEnd--
		} else if sameNode(oldCh[oldStart], newCh[newEnd]) {
			Patch(doc, e, oldCh[oldStart], newCh[newEnd], hooks)
			e.InsertBefore(oldCh[oldStart].elm.(domtree.Node), nextSiblingAfter(e, oldCh[oldEnd]))
			oldStart++
			newEnd--
		} else if sameNode(oldCh[oldEnd], newCh[newStart]) {
			Patch(doc, e, oldCh[oldEnd], newCh[newStart], hooks)
			e.InsertBefore(oldCh[oldEnd].elm.(domtree.Node), nextSiblingElm(oldCh[oldStart]))
			oldEnd--
			newStart++
		} else {
			if oldKeyMap == nil {
				oldKeyMap = make(map[any]int, oldEnd-oldStart+1)
				for i := oldStart; i <= oldEnd; i++ {
					if oldCh[i] != nil && oldCh[i].Key != nil {
						oldKeyMap[oldCh[i].Key] = i
					}
				}
			}
			idx, found := oldKeyMap[newCh[newStart].Key]
			if !found {
				ce := createElm(doc, newCh[newStart], hooks)
				e.InsertBefore(ce, nextSiblingElm(oldCh[oldStart]))
				hooks.insert(newCh[newStart])
			} else {
				moved := oldCh[idx]
				if moved.Sel != newCh[newStart].Sel {
					ce := createElm(doc, newCh[newStart], hooks)
					e.InsertBefore(ce, nextSiblingElm(oldCh[oldStart]))
					hooks.insert(newCh[newStart])
				} else {
					Patch(doc, e, moved, newCh[newStart], hooks)
					oldCh[idx] = nil
					e.InsertBefore(moved.elm.(domtree.Node), nextSiblingElm(oldCh[oldStart]))
				}
			}
			newStart++
		}
	}

	if oldStart > oldEnd {
		var before domtree.Node
		if newEnd+1 < len(newCh) {
			before = nextSiblingElm(newCh[newEnd+1])
		}
		for i := newStart; i <= newEnd; i++ {
			ce := createElm(doc, newCh[i], hooks)
			e.InsertBefore(ce, before)
			hooks.insert(newCh[i])
		}
	} else if newStart > newEnd {
		for i := oldStart; i <= oldEnd; i++ {
			if oldCh[i] != nil {
				hooks.remove(oldCh[i], e)
				hooks.destroy(oldCh[i])
			}
		}
	}
}

// nextSiblingAfter returns the domtree node immediately after ref among e's
// current children, or nil if ref is the last child / not present.
func nextSiblingAfter(e domtree.Node, ref *VNode) domtree.Node {
	if ref == nil || ref.elm == nil {
		return nil
	}
	children := e.Children()
	for i, c := range children {
		if c == ref.elm.(domtree.Node) {
			if i+1 < len(children) {
				return children[i+1]
			}
			return nil
		}
	}
	return nil
}
