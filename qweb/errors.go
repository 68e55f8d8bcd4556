package qweb

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
)

// ErrTemplateNotFound is returned by QWeb.Render when the named template has
// not been registered. A t-call to an unregistered template returns a
// RenderError ("Template '...' does not exist") that does not wrap it.
var ErrTemplateNotFound = errors.New("template not found")

// captureStack captures a trimmed stack trace, skipping the caller frames
// that are implementation detail of the error constructors themselves.
func captureStack(skip int) []byte {
	buf := make([]byte, 64*1024)
	n := runtime.Stack(buf, false)
	if n == 0 {
		return []byte("stack trace unavailable")
	}

	lines := strings.Split(string(buf[:n]), "\n")
	framesToSkip := 1 + skip
	linesToSkip := framesToSkip * 2
	if len(lines) <= linesToSkip+1 {
		return []byte(strings.Join(lines, "\n"))
	}

	filtered := append([]string{lines[0]}, lines[linesToSkip+1:]...)
	return []byte(strings.Join(filtered, "\n"))
}

// location carries the bits shared by every source-aware error kind.
type location struct {
	path   string // dotted tag path from the template root
	stack  []byte
	File   string
	Line   int
	Column int
	Length int
}

func newLocation(n *Node, skip int) location {
	loc := location{
		path:  buildErrorPath(n),
		stack: captureStack(skip + 1),
	}
	if n != nil && !n.Source.Span.IsZero() {
		loc.File = n.Source.File
		loc.Line = n.Source.Span.Line
		loc.Column = n.Source.Span.Column
		loc.Length = n.Source.Span.Length
	}
	return loc
}

func newLocationAttr(n *Node, a *Directive, skip int) location {
	loc := newLocation(n, skip+1)
	if a != nil && !a.Source.Span.IsZero() {
		loc.File = a.Source.File
		loc.Line = a.Source.Span.Line
		loc.Column = a.Source.Span.Column
		loc.Length = a.Source.Span.Length
	}
	return loc
}

// Path returns the dotted tag path (from the template root) to the node
// that raised the error, e.g. "t/div/ul/li".
func (l location) Path() string { return l.path }

// StackTrace returns the Go stack trace captured when the error was built.
func (l location) StackTrace() string { return string(l.stack) }

func (l location) HasSourceLocation() bool { return l.Line > 0 && l.Column > 0 }

// SourceContext holds a window of source lines around an error location,
// suitable for rendering in an error page or a terminal.
type SourceContext struct {
	Lines       []SourceLine
	ErrorLine   int
	ErrorColumn int
	ErrorLength int
}

type SourceLine struct {
	Number  int
	Text    string
	IsError bool
}

// SourceCodeContext reads contextLines before/after the error location out
// of fsys. Returns nil if no file is known.
func (l location) SourceCodeContext(fsys fs.FS, contextLines int) *SourceContext {
	if !l.HasSourceLocation() || l.File == "" || fsys == nil {
		return nil
	}
	content, err := fs.ReadFile(fsys, l.File)
	if err != nil {
		return &SourceContext{
			Lines:       []SourceLine{{Number: 1, Text: fmt.Sprintf("failed to read %s: %v", l.File, err)}},
			ErrorLine:   l.Line,
			ErrorColumn: l.Column,
			ErrorLength: l.Length,
		}
	}
	lines := strings.Split(string(content), "\n")
	start := max(1, l.Line-contextLines)
	end := min(len(lines), l.Line+contextLines)

	var out []SourceLine
	for i := start; i <= end; i++ {
		text := ""
		if i-1 < len(lines) {
			text = lines[i-1]
		}
		out = append(out, SourceLine{Number: i, Text: text, IsError: i == l.Line})
	}
	return &SourceContext{Lines: out, ErrorLine: l.Line, ErrorColumn: l.Column, ErrorLength: l.Length}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func buildErrorPath(n *Node) string {
	var path []string
	for n != nil {
		if n.Type == ElementNode {
			path = append(path, n.Data.RawString())
		}
		n = n.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return strings.Join(path, "/")
}

// ParseError is raised while tokenizing or tree-building a template: malformed
// bundle XML, an unterminated directive attribute, a template with more than
// one root element (or none), and similar structural problems.
type ParseError struct {
	location
	err error
}

func newParseError(n *Node, err error) *ParseError {
	return &ParseError{location: newLocation(n, 1), err: err}
}

func (e *ParseError) Error() string {
	if e.path == "" {
		return "parse: " + e.err.Error()
	}
	return "parse: " + e.path + ": " + e.err.Error()
}

func (e *ParseError) Unwrap() error { return e.err }

// CompileError is returned by a compiled template at render time when
// evaluating a t-set, attribute (plain, t-att, t-att-*, t-attf-*), t-widget,
// t-esc or t-raw expression fails. Expressions that fail to parse are
// reported by Parse as a ParseError; a t-else without a preceding t-if is
// not an error (the element renders unconditionally).
type CompileError struct {
	location
	err error
}

func newCompileError(n *Node, err error) *CompileError {
	return &CompileError{location: newLocation(n, 1), err: err}
}

func newCompileErrorAttr(n *Node, d *Directive, err error) *CompileError {
	return &CompileError{location: newLocationAttr(n, d, 1), err: err}
}

func (e *CompileError) Error() string {
	if e.path == "" {
		return "compile: " + e.err.Error()
	}
	return "compile: " + e.path + ": " + e.err.Error()
}

func (e *CompileError) Unwrap() error { return e.err }

// ConflictError describes two directives on the same element that cannot be
// combined. Nothing in this package returns it: Parse does not check
// directive combinations, and when t-if, t-elif and t-else share a node the
// last one in source order decides the node's place in its chain.
type ConflictError struct {
	A, B string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting directives %s and %s on the same element", e.A, e.B)
}

// RenderError wraps an error raised while evaluating a compiled template
// against a scope: a failed t-if/t-elif, t-foreach or t-call expression
// evaluation, a t-foreach over a non-iterable value, a t-call to a missing
// template or to one whose render returned an error.
type RenderError struct {
	location
	err error
}

func newRenderError(n *Node, err error) *RenderError {
	return &RenderError{location: newLocation(n, 1), err: err}
}

func (e *RenderError) Error() string {
	if e.path == "" {
		return "render: " + e.err.Error()
	}
	return "render: " + e.path + ": " + e.err.Error()
}

func (e *RenderError) Unwrap() error { return e.err }

// LifecycleError describes an error raised by a widget lifecycle hook
// (willStart, mounted, willPatch, patched, willUnmount) or by an invalid
// state-machine transition. Its wrapped error can only be set from inside
// this package; package widget does not build LifecycleErrors and returns
// hook and transition errors as they are.
type LifecycleError struct {
	State string // the lifecycle state in effect when the error occurred
	Hook  string // the hook that raised it, empty if a state-transition error
	err   error
}

func (e *LifecycleError) Error() string {
	if e.Hook == "" {
		return fmt.Sprintf("lifecycle: invalid transition from %s: %s", e.State, e.err)
	}
	return fmt.Sprintf("lifecycle: %s (state %s): %s", e.Hook, e.State, e.err)
}

func (e *LifecycleError) Unwrap() error { return e.err }
