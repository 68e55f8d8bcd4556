package qweb

import (
	"errors"
	"strings"
	"testing"
)

func TestParseErrorIncludesPath(t *testing.T) {
	root := &Node{Type: ElementNode, Data: NewExprRaw("div")}
	child := &Node{Type: ElementNode, Data: NewExprRaw("p"), Parent: root}

	err := newParseError(child, errors.New("boom"))
	if got := err.Error(); !strings.Contains(got, "div/p") || !strings.Contains(got, "boom") {
		t.Errorf("got %q, want it to mention path div/p and the wrapped error", got)
	}
	if !errors.Is(err, err) {
		t.Error("ParseError should compare equal to itself")
	}
	if errors.Unwrap(err).Error() != "boom" {
		t.Errorf("Unwrap() = %v, want boom", errors.Unwrap(err))
	}
}

func TestCompileErrorWithoutPath(t *testing.T) {
	err := newCompileError(nil, errors.New("bad expr"))
	if got, want := err.Error(), "compile: bad expr"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConflictErrorMessage(t *testing.T) {
	err := &ConflictError{A: "t-if", B: "t-foreach"}
	if got, want := err.Error(), "conflicting directives t-if and t-foreach on the same element"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLifecycleErrorVariants(t *testing.T) {
	transition := &LifecycleError{State: "mounted", err: errors.New("bad transition")}
	if !strings.Contains(transition.Error(), "invalid transition from mounted") {
		t.Errorf("got %q", transition.Error())
	}

	hook := &LifecycleError{State: "mounting", Hook: "willStart", err: errors.New("boom")}
	if !strings.Contains(hook.Error(), "willStart") || !strings.Contains(hook.Error(), "mounting") {
		t.Errorf("got %q", hook.Error())
	}
}

func TestBuildErrorPathWalksToRoot(t *testing.T) {
	root := &Node{Type: ElementNode, Data: NewExprRaw("div")}
	mid := &Node{Type: ElementNode, Data: NewExprRaw("ul"), Parent: root}
	leaf := &Node{Type: ElementNode, Data: NewExprRaw("li"), Parent: mid}

	if got, want := buildErrorPath(leaf), "div/ul/li"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
