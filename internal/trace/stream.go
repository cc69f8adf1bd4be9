package trace

import (
	"io"
	"sync"
	"time"
)

// StreamTracer writes each event as soon as it is emitted and remembers
// which spans are still open, so heartbeats can name the command a slow
// build is stuck in.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	start  time.Time
	open   map[uint64]openSpan
	beat   *Heartbeat
}

type openSpan struct {
	name  string
	scope Scope
	since time.Time
}

// NewStreamTracer returns a tracer writing to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{
		w:      w,
		level:  level,
		format: format,
		start:  time.Now(),
		open:   make(map[uint64]openSpan),
	}
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Kind, ev.Scope) {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, t.format, t.start)

	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Kind {
	case KindSpanBegin:
		t.open[ev.SpanID] = openSpan{name: ev.Name, scope: ev.Scope, since: ev.Time}
	case KindSpanEnd:
		delete(t.open, ev.SpanID)
	}
	_, _ = t.w.Write(data) //nolint:errcheck // a broken trace sink must not fail a build
}

// Innermost returns the finest-scoped open span, preferring the most
// recently started one, and how long it has been running.
func (t *StreamTracer) Innermost(now time.Time) (name string, running time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var best openSpan
	for _, s := range t.open {
		if !ok || s.scope > best.scope || (s.scope == best.scope && s.since.After(best.since)) {
			best, ok = s, true
		}
	}
	if !ok {
		return "", 0, false
	}
	return best.name, now.Sub(best.since), true
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close stops the heartbeat, flushes, and closes the writer when it is an
// io.Closer.
func (t *StreamTracer) Close() error {
	t.beat.Stop()
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
