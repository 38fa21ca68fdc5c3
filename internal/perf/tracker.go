// Package perf provides a scoped nested timing tracker for the hot path.
// A Tracker belongs to whoever owns the loop being measured and is passed
// explicitly; there is no process-wide instance.
package perf

import (
	"log"
	"sort"
	"strings"
	"time"
)

// Tracker accumulates wall time per named scope and logs a summary at a
// fixed cadence. Scopes nest: Start inside an open scope records under
// the dotted path ("tick.los"). A nil *Tracker is valid and records
// nothing, so callers never branch on whether timing is enabled.
//
// Not safe for concurrent use; it is meant to live on one loop.
type Tracker struct {
	flushEvery time.Duration
	lastFlush  time.Time

	stack  []frame
	totals map[string]*bucket
}

type frame struct {
	path  string
	start time.Time
}

type bucket struct {
	total time.Duration
	count int
}

// New returns a tracker that logs accumulated timings every flushEvery.
func New(flushEvery time.Duration) *Tracker {
	return &Tracker{
		flushEvery: flushEvery,
		lastFlush:  time.Now(),
		totals:     make(map[string]*bucket),
	}
}

// Start opens a scope nested under the currently open one.
func (t *Tracker) Start(name string) {
	if t == nil {
		return
	}
	path := name
	if n := len(t.stack); n > 0 {
		path = t.stack[n-1].path + "." + name
	}
	t.stack = append(t.stack, frame{path: path, start: time.Now()})
}

// Stop closes the innermost open scope and accrues its elapsed time.
func (t *Tracker) Stop() {
	if t == nil || len(t.stack) == 0 {
		return
	}
	f := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]

	b := t.totals[f.path]
	if b == nil {
		b = &bucket{}
		t.totals[f.path] = b
	}
	b.total += time.Since(f.start)
	b.count++
}

// MaybeFlush logs and resets the accumulated timings once the flush
// interval has elapsed. Call it once per loop iteration.
func (t *Tracker) MaybeFlush() {
	if t == nil || len(t.totals) == 0 {
		return
	}
	now := time.Now()
	if now.Sub(t.lastFlush) < t.flushEvery {
		return
	}
	t.lastFlush = now

	paths := make([]string, 0, len(t.totals))
	for p := range t.totals {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		b := t.totals[p]
		avg := b.total / time.Duration(b.count)
		sb.WriteString(" ")
		sb.WriteString(p)
		sb.WriteString("=")
		sb.WriteString(avg.Round(time.Microsecond).String())
	}
	log.Printf("perf:%s", sb.String())

	for p := range t.totals {
		delete(t.totals, p)
	}
}
