package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns the next event sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a fresh span ID. IDs start at 1; 0 means "no span".
func NextSpanID() uint64 { return spanCounter.Add(1) }

// Span is one traced operation: a pipeline step or an external command.
// The zero value and inert spans are safe to use.
type Span struct {
	tracer  Tracer
	head    Event
	started time.Time
}

func (s *Span) live() bool {
	return s != nil && s.tracer != nil && s.head.SpanID != 0
}

// Begin emits a begin event and returns the open span. Spans the tracer
// would drop come back inert so callers never branch on the level.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	now := time.Now()
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(KindSpanBegin, scope) {
		return &Span{started: now}
	}
	s := &Span{
		tracer:  t,
		started: now,
		head: Event{
			Scope:    scope,
			SpanID:   NextSpanID(),
			ParentID: parent,
			Name:     name,
		},
	}
	begin := s.head
	begin.Time, begin.Kind = now, KindSpanBegin
	t.Emit(&begin)
	return s
}

// End emits the end event and returns how long the span was open.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.started)
	if !s.live() {
		return dur
	}
	end := s.head
	end.Time, end.Kind, end.Detail = time.Now(), KindSpanEnd, detail
	s.tracer.Emit(&end)
	return dur
}

// EndErr ends the span with "error: <err>" as detail when err is non-nil.
func (s *Span) EndErr(err error) time.Duration {
	if err == nil {
		return s.End("")
	}
	return s.End("error: " + err.Error())
}

// WithExtra attaches a key to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.head.Extra == nil {
		s.head.Extra = make(map[string]string, 4)
	}
	s.head.Extra[key] = value
	return s
}

// ID is 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.head.SpanID
}

// Point emits an instant event, such as a skipped step.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(KindPoint, scope) {
		return
	}
	t.Emit(&Event{Time: time.Now(), Kind: KindPoint, Scope: scope, ParentID: parent, Name: name, Detail: detail})
}
