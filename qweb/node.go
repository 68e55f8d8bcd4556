// Node is adapted from golang.org/x/net/html.Node (BSD-licensed, Go
// Authors) and from this module's teacher's chtml/node.go: same linked-list
// tree shape, generalized from the teacher's c:if/c:for special-cased
// fields to a directive-record list carrying the full t-* vocabulary.

package qweb

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeType mirrors golang.org/x/net/html.NodeType so the parser can hand
// tokens straight through without a translation layer.
type NodeType = html.NodeType

const (
	ErrorNode    = html.ErrorNode
	TextNode     = html.TextNode
	DocumentNode = html.DocumentNode
	ElementNode  = html.ElementNode
	CommentNode  = html.CommentNode
	DoctypeNode  = html.DoctypeNode
)

// Node is one element, text run, or comment of a parsed template.
type Node struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node

	Type      NodeType
	DataAtom  atom.Atom
	Data      Expr // for TextNode: the literal text; for ElementNode: the tag name
	Namespace string

	Attr []Attribute // plain HTML attributes, t-* directives stripped out during parsing

	// Directives holds the t-* attributes found on this element, in
	// source order, except t-if/t-elif/t-else/t-foreach/t-as/t-key (read
	// into the fields below) and t-set/t-value (merged into one DirSet
	// entry appended last). Compile sorts a copy by directivePriority
	// before building the render closure.
	Directives []Directive

	// Cond is t-if/t-elif's expression; empty (IsEmpty) for t-else.
	// PrevCond/NextCond link a node to its neighbors in the same
	// if/elif/elif/else chain; chain membership is a parse-time decision,
	// not re-derived from sibling order at render time.
	Cond               Expr
	PrevCond, NextCond *Node

	// Loop is t-foreach's iterable expression. LoopVar and LoopKey are the
	// t-as and t-key identifiers (LoopKey empty means "use the iteration
	// key": the index for slices, arrays and integers, the map key for
	// maps).
	Loop    Expr
	LoopVar string
	LoopKey Expr

	// chainKind records which of t-if/t-elif/t-else (if any) this node
	// carried in the source, so the parser can link PrevCond/NextCond
	// without re-inspecting attributes that have already been consumed.
	chainKind condChainKind

	Source Source
}

type condChainKind int

const (
	chainNone condChainKind = iota
	chainIf
	chainElif
	chainElse
)

type Attribute struct {
	Namespace string
	Key       string
	Val       Expr
	Source    Source
}

// IsWhitespace reports whether a text node is pure whitespace, i.e. a
// candidate for collapsing outside of <pre>.
func (n *Node) IsWhitespace() bool {
	return strings.TrimSpace(n.Data.RawString()) == ""
}

// InsertBefore inserts newChild as a child of n, immediately before oldChild.
// oldChild may be nil, in which case newChild is appended.
func (n *Node) InsertBefore(newChild, oldChild *Node) {
	if newChild.Parent != nil || newChild.PrevSibling != nil || newChild.NextSibling != nil {
		panic("qweb: InsertBefore called for an attached child Node")
	}
	var prev, next *Node
	if oldChild != nil {
		prev, next = oldChild.PrevSibling, oldChild
	} else {
		prev = n.LastChild
	}
	if prev != nil {
		prev.NextSibling = newChild
	} else {
		n.FirstChild = newChild
	}
	if next != nil {
		next.PrevSibling = newChild
	} else {
		n.LastChild = newChild
	}
	newChild.Parent = n
	newChild.PrevSibling = prev
	newChild.NextSibling = next
}

// AppendChild adds c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil || c.PrevSibling != nil || c.NextSibling != nil {
		panic("qweb: AppendChild called for an attached child Node")
	}
	last := n.LastChild
	if last != nil {
		last.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
	c.Parent = n
	c.PrevSibling = last
}

// RemoveChild detaches c from n.
func (n *Node) RemoveChild(c *Node) {
	if c.Parent != n {
		panic("qweb: RemoveChild called for a non-child Node")
	}
	if n.FirstChild == c {
		n.FirstChild = c.NextSibling
	}
	if c.NextSibling != nil {
		c.NextSibling.PrevSibling = c.PrevSibling
	}
	if n.LastChild == c {
		n.LastChild = c.PrevSibling
	}
	if c.PrevSibling != nil {
		c.PrevSibling.NextSibling = c.NextSibling
	}
	c.Parent = nil
	c.PrevSibling = nil
	c.NextSibling = nil
}

// Children returns a snapshot slice of n's children. Render and mount walks
// that need to survive in-place tree mutation (e.g. a t-foreach body
// mounting widgets that touch their own scope) should snapshot through this
// rather than walking FirstChild/NextSibling live.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// nodeStack is a stack of nodes used by the parser to track open elements.
type nodeStack []*Node

func (s *nodeStack) push(n *Node) { *s = append(*s, n) }

func (s *nodeStack) pop() *Node {
	i := len(*s)
	n := (*s)[i-1]
	*s = (*s)[:i-1]
	return n
}

func (s *nodeStack) top() *Node {
	if i := len(*s); i > 0 {
		return (*s)[i-1]
	}
	return nil
}
