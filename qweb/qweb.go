// QWeb is the template registry and compiler entry point, playing the role
// this module's teacher's standalone chtml.Parse/ParseWithSource functions
// plus its (now-deleted, see DESIGN.md §0) component.go registry played
// together: parse once, compile once, render many times against different
// scopes.

package qweb

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr/vm"

	"github.com/dpotapov/goqweb/vdom"
)

// QWeb holds every compiled template known to one runtime instance.
type QWeb struct {
	mu        sync.RWMutex
	templates map[string]renderFn

	// Logger receives structured diagnostics (t-log output, and t-debug
	// events when no DebugHook is set). Defaults to a discard logger,
	// matching this module's teacher's Handler.Logger convention.
	Logger *slog.Logger

	// DebugHook is invoked by t-debug with the enclosing tag name. When
	// nil, t-debug logs through Logger instead — there is no browser
	// debugger to pause for a server-side compiler, so this is the closest
	// available stand-in (see SPEC_FULL.md §D.1).
	DebugHook func(tag string)
}

// New creates an empty registry.
func New() *QWeb {
	return &QWeb{
		templates: make(map[string]renderFn),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// AddTemplate compiles root and registers it under name, replacing any
// previous template of the same name.
func (q *QWeb) AddTemplate(name string, root *Node) error {
	fn, err := compileNode(root)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.templates[name] = fn
	return nil
}

// LoadTemplates parses a "<templates>...</templates>" bundle and registers
// every named template it contains.
func (q *QWeb) LoadTemplates(r io.Reader) error {
	return q.LoadTemplatesWithSource("", r)
}

// LoadTemplatesWithSource parses like LoadTemplates, attaching name to every
// Source within the bundle for error reporting.
func (q *QWeb) LoadTemplatesWithSource(name string, r io.Reader) error {
	nodes, err := LoadTemplatesWithSource(name, r)
	if err != nil {
		return err
	}
	for tname, root := range nodes {
		if err := q.AddTemplate(tname, root); err != nil {
			return err
		}
	}
	return nil
}

// Templates returns the names of every registered template.
func (q *QWeb) Templates() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]string, 0, len(q.templates))
	for name := range q.templates {
		out = append(out, name)
	}
	return out
}

// Render compiles vars into a scope and renders the named template. A
// template must produce exactly one root VNode (spec.md §3/§4.3): an empty
// result renders as an empty fragment, but a template whose root-level
// directives (e.g. a root-level t-foreach) expand into more than one node
// is a RenderError, not a silent fragment wrap.
func (q *QWeb) Render(name string, vars map[string]any) (*vdom.VNode, error) {
	scope := NewScopeMap(nil)
	scope.SetVars(vars)
	rc := &renderCtx{qweb: q, vm: &vm.VM{}}
	vs, err := q.renderTemplate(rc, name, scope)
	if err != nil {
		return nil, err
	}
	switch len(vs) {
	case 0:
		return vdom.Fragment(), nil
	case 1:
		return vs[0], nil
	default:
		return nil, newRenderError(nil, errors.New("A template should not have more than one root node"))
	}
}

func (q *QWeb) renderTemplate(rc *renderCtx, name string, scope Scope) ([]*vdom.VNode, error) {
	q.mu.RLock()
	fn, ok := q.templates[name]
	q.mu.RUnlock()
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return fn(rc, scope)
}

func (q *QWeb) debug(tag string) {
	if q.DebugHook != nil {
		q.DebugHook(tag)
		return
	}
	q.Logger.Debug("t-debug", "tag", tag)
}

func (q *QWeb) log(tag string, v any) {
	q.Logger.Info("t-log", "tag", tag, "value", v)
}
