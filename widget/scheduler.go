// Scheduler is adapted from root scope.go's Touch()/onChangeCB/Closed()
// coalescing pattern (DESIGN.md §6): the same "mark dirty, let a single
// callback decide when to actually flush" shape, generalized from one
// HTTP-request scope to every mounted widget sharing a runtime. Multiple
// UpdateState calls within the same tick collapse into a single re-render,
// the same way the teacher's scope.go lets multiple template mutations
// collapse into one WebSocket push.

package widget

import "sync"

// Scheduler coalesces UpdateState calls across a widget tree into batched
// flushes, so ten Touch()es inside one event handler produce one render
// pass instead of ten.
type Scheduler struct {
	mu      sync.Mutex
	dirty   map[*Widget]struct{}
	flushCB func()
	pending bool
}

// NewScheduler creates a scheduler. flush is called (at most once per
// batch) whenever one or more widgets have been marked dirty; it is
// responsible for walking Scheduler.Dirty() and re-rendering each.
func NewScheduler(flush func()) *Scheduler {
	return &Scheduler{dirty: make(map[*Widget]struct{}), flushCB: flush}
}

// MarkDirty schedules w for re-render. Safe to call from any goroutine
// (e.g. an event handler running on its own goroutine); the actual flush
// is left to whatever drives the scheduler (see Dirty).
func (s *Scheduler) MarkDirty(w *Widget) {
	s.mu.Lock()
	s.dirty[w] = struct{}{}
	shouldNotify := !s.pending
	s.pending = true
	s.mu.Unlock()

	if shouldNotify && s.flushCB != nil {
		s.flushCB()
	}
}

// Dirty drains and returns the set of widgets marked dirty since the last
// call, clearing the pending flag.
func (s *Scheduler) Dirty() []*Widget {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Widget, 0, len(s.dirty))
	for w := range s.dirty {
		out = append(out, w)
	}
	s.dirty = make(map[*Widget]struct{})
	s.pending = false
	return out
}
