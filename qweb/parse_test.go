package qweb

import (
	"strings"
	"testing"
)

func TestParseSingleRoot(t *testing.T) {
	root, err := Parse(strings.NewReader(`<div class="box"><span>hi</span></div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if root.Type != ElementNode || root.DataAtom.String() != "div" {
		t.Fatalf("got root %v/%v, want element div", root.Type, root.DataAtom)
	}
	if len(root.Attr) != 1 || root.Attr[0].Key != "class" {
		t.Fatalf("got attrs %v, want class", root.Attr)
	}
	children := root.Children()
	if len(children) != 1 || children[0].DataAtom.String() != "span" {
		t.Fatalf("got children %v, want one span", children)
	}
}

func TestParseRejectsMultipleRoots(t *testing.T) {
	_, err := Parse(strings.NewReader(`<div>a</div><div>b</div>`))
	if err == nil {
		t.Fatal("expected an error for multiple root elements")
	}
}

func TestParseExtractsConditionalChain(t *testing.T) {
	root, err := Parse(strings.NewReader(
		`<div><p t-if="a">1</p><p t-elif="b">2</p><p t-else="">3</p></div>`,
	))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	children := root.Children()
	if len(children) != 3 {
		t.Fatalf("got %d children, want 3", len(children))
	}
	ifNode, elifNode, elseNode := children[0], children[1], children[2]

	if ifNode.chainKind != chainIf || ifNode.Cond.IsEmpty() {
		t.Errorf("if node not recognized as chain head with a condition")
	}
	if elifNode.chainKind != chainElif || elifNode.Cond.IsEmpty() {
		t.Errorf("elif node not recognized with a condition")
	}
	if elseNode.chainKind != chainElse || !elseNode.Cond.IsEmpty() {
		t.Errorf("else node should have chainElse and no condition")
	}

	if ifNode.NextCond != elifNode || elifNode.PrevCond != ifNode {
		t.Errorf("if/elif not linked: if.NextCond=%v elif.PrevCond=%v", ifNode.NextCond, elifNode.PrevCond)
	}
	if elifNode.NextCond != elseNode || elseNode.PrevCond != elifNode {
		t.Errorf("elif/else not linked: elif.NextCond=%v else.PrevCond=%v", elifNode.NextCond, elseNode.PrevCond)
	}
}

func TestParseForeachAndKey(t *testing.T) {
	root, err := Parse(strings.NewReader(
		`<ul><li t-foreach="x in xs" t-key="x.id" t-esc="x.name"/></ul>`,
	))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	li := root.Children()[0]
	if li.LoopVar != "x" {
		t.Errorf("got LoopVar %q, want x", li.LoopVar)
	}
	if li.Loop.IsEmpty() {
		t.Error("expected a non-empty Loop expression")
	}
	if li.LoopKey.IsEmpty() {
		t.Error("expected t-key to set LoopKey")
	}
}

func TestParseVoidElementHasNoChildren(t *testing.T) {
	root, err := Parse(strings.NewReader(`<div><input type="text"/></div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	children := root.Children()
	if len(children) != 1 {
		t.Fatalf("got %d children, want 1", len(children))
	}
	if len(children[0].Children()) != 0 {
		t.Errorf("void element should have no children")
	}
}
