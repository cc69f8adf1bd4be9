package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a liveness event every interval while a build runs. The
// detail names the innermost open span, e.g. "#3 make 2m10s".
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat starts heartbeats on t. It returns nil for a disabled
// tracer or a non-positive interval; Stop is nil-safe.
func StartHeartbeat(t *StreamTracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.loop(t, interval)
	return h
}

func (h *Heartbeat) loop(t *StreamTracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			t.Emit(&Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeRun,
				Name:   "heartbeat",
				Detail: beatDetail(t, n, now),
			})
		}
	}
}

func beatDetail(t *StreamTracer, n int, now time.Time) string {
	name, running, ok := t.Innermost(now)
	if !ok {
		return fmt.Sprintf("#%d idle", n)
	}
	return fmt.Sprintf("#%d %s %s", n, name, running.Round(time.Second))
}

// Stop ends the heartbeat and waits for its goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
