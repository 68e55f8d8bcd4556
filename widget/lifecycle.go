// Package widget implements the component runtime: a tree of Widgets, each
// wrapping a qweb.Scope and a render callback, patched against vdom/domtree
// and walked through the lifecycle state machine.
//
// Grounded on this module's teacher per DESIGN.md §6: the scheduler is
// root scope.go's Touch()/onChangeCB coalescing pattern generalized from
// "HTTP-request-scoped scope" to "mounted widget instance"; the error
// boundary is errhandler.go's catch/fallback-render shape generalized from
// "import a named fallback component" to "call a Recover hook, falling
// back to a built-in error vnode".
package widget

import "fmt"

// State is one point in a Widget's lifecycle.
type State int

const (
	Constructing State = iota
	Starting
	Rendering
	Mounting
	Mounted
	Updating
	Destroying
	Destroyed
)

func (s State) String() string {
	switch s {
	case Constructing:
		return "constructing"
	case Starting:
		return "starting"
	case Rendering:
		return "rendering"
	case Mounting:
		return "mounting"
	case Mounted:
		return "mounted"
	case Updating:
		return "updating"
	case Destroying:
		return "destroying"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// validTransition reports whether the state machine allows moving from
// from to to. Mounted -> Updating -> Mounted is the steady-state update
// loop; every state can fall through to Destroying/Destroyed.
func validTransition(from, to State) bool {
	if to == Destroying || to == Destroyed {
		return from != Destroyed
	}
	switch from {
	case Constructing:
		return to == Starting
	case Starting:
		return to == Rendering
	case Rendering:
		return to == Mounting
	case Mounting:
		return to == Mounted
	case Mounted:
		return to == Updating
	case Updating:
		return to == Mounted
	default:
		return false
	}
}
