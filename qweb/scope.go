// Scope is adapted from this module's teacher's chtml/scope.go: the shape
// is unchanged (Spawn/Vars/Closed/Touch), since the widget runtime reuses it
// verbatim as each widget's variable scope (see widget.Widget).

package qweb

// Scope manages the variables visible at one point in a compiled template:
// the root scope holds the arguments a template was rendered with, and a
// new child scope is spawned for every t-foreach iteration and t-call.
type Scope interface {
	// Spawn creates a child scope with extra variables layered on top.
	Spawn(vars map[string]any) Scope

	// Vars returns every variable visible in this scope, including those
	// inherited from its ancestors.
	Vars() map[string]any

	// Closed returns a channel closed once this scope is no longer part of
	// the rendered tree (e.g. its t-foreach iteration was dropped by a
	// re-render). Widgets mounted against a closed scope should stop.
	Closed() <-chan struct{}

	// Touch marks the scope as changed, propagating the notification up to
	// whatever is scheduling re-renders (see widget.Scheduler).
	Touch()
}

// ScopeMap is the default Scope: a flat map[string]any copied down from the
// parent scope on Spawn, suitable for use directly as an expr-lang env.
// Its Closed channel is nil (never closed) and its Touch does nothing.
type ScopeMap struct {
	vars map[string]any
}

var _ Scope = (*ScopeMap)(nil)

// NewScopeMap creates a root scope, optionally copying parent's variables.
func NewScopeMap(parent Scope) *ScopeMap {
	vars := make(map[string]any)
	if parent != nil {
		for k, v := range parent.Vars() {
			vars[k] = v
		}
	}
	return &ScopeMap{vars: vars}
}

func (s *ScopeMap) Spawn(vars map[string]any) Scope {
	sm := NewScopeMap(s)
	for k, v := range vars {
		sm.vars[k] = v
	}
	return sm
}

func (s *ScopeMap) Vars() map[string]any { return s.vars }

func (s *ScopeMap) Closed() <-chan struct{} { return nil }

func (s *ScopeMap) Touch() {}

// SetVars replaces the scope's variables wholesale.
func (s *ScopeMap) SetVars(vars map[string]any) {
	if vars == nil {
		vars = make(map[string]any)
	}
	s.vars = vars
}
