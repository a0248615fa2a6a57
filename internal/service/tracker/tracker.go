// Package tracker provides lightweight session counters.
package tracker

import "sync/atomic"

// Tracker counts session lifecycle transitions using atomics.
type Tracker struct {
	accepted  atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	aborted   atomic.Int64
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Accepted  int64 `json:"accepted"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Aborted   int64 `json:"aborted"`
}

// Start records an accepted session that is now running.
func (t *Tracker) Start() {
	t.accepted.Add(1)
	t.running.Add(1)
}

// Finish records a session reaching a terminal state.
func (t *Tracker) Finish(completed bool) {
	if completed {
		t.completed.Add(1)
	} else {
		t.aborted.Add(1)
	}
	t.running.Add(-1)
}

// Running returns the number of sessions in flight.
func (t *Tracker) Running() int64 { return t.running.Load() }

// Stats returns a copy of all counters.
func (t *Tracker) Stats() Stats {
	return Stats{
		Accepted:  t.accepted.Load(),
		Running:   t.running.Load(),
		Completed: t.completed.Load(),
		Aborted:   t.aborted.Load(),
	}
}
