package widget

import (
	"sync/atomic"

	"github.com/dpotapov/goqweb/domtree"
	"github.com/dpotapov/goqweb/qweb"
)

// Env is shared by every widget in one mounted tree: the compiled template
// registry, the concrete DOM factory, the scheduler coalescing re-renders,
// and an id allocator for refs/keys that need a stable-but-unique value.
type Env struct {
	Qweb      *qweb.QWeb
	Doc       domtree.Document
	Scheduler *Scheduler

	idCounter uint64
}

// NewEnv creates an Env wired to qw and doc. A scheduler is created
// automatically; pass flush to control how/when batched dirty widgets are
// actually re-rendered (e.g. a dev-preview server flushes on an event-loop
// tick before pushing a WebSocket frame).
func NewEnv(qw *qweb.QWeb, doc domtree.Document, flush func()) *Env {
	e := &Env{Qweb: qw, Doc: doc}
	e.Scheduler = NewScheduler(flush)
	return e
}

// GetID returns an integer unique within this Env, used by widgets that need a
// stable identifier independent of render order (e.g. a generated DOM id).
func (e *Env) GetID() int {
	return int(atomic.AddUint64(&e.idCounter, 1))
}
