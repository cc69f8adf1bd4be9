package buildpipeline

import (
	"context"
	"time"

	"funstart/internal/trace"
)

// ChannelSink forwards events into a channel; the TUI reads the other end.
// Sends block, so the reader must drain the channel until it is closed.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch != nil {
		s.Ch <- evt
	}
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

func report(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// stepper runs pipeline stages. Each stage gets a progress row update, a
// trace span named "stage" or "stage:profile", and an entry in timings.
type stepper struct {
	sink    ProgressSink
	timings *Timings
}

// run executes fn as one stage. The string fn returns is shown next to the
// finished row.
func (s stepper) run(ctx context.Context, stage Stage, target string, fn func(context.Context) (string, error)) error {
	name := string(stage)
	if target != "" {
		name += ":" + target
	}
	ctx, span := trace.Start(ctx, trace.ScopeStep, name)
	report(s.sink, Event{Stage: stage, Target: target, Status: StatusWorking})

	start := time.Now()
	detail, err := fn(ctx)
	evt := Event{Stage: stage, Target: target, Status: StatusDone, Detail: detail, Elapsed: time.Since(start)}
	span.EndErr(err)
	s.timings.Add(stage, evt.Elapsed)
	if err != nil {
		evt.Status, evt.Detail, evt.Err = StatusError, "", err
	}
	report(s.sink, evt)
	return err
}

// skip reports a stage that had nothing to do.
func (s stepper) skip(ctx context.Context, stage Stage, target, detail string) {
	trace.Point(trace.FromContext(ctx), trace.ScopeStep, string(stage), "skipped: "+detail, trace.ParentFrom(ctx))
	report(s.sink, Event{Stage: stage, Target: target, Status: StatusSkipped, Detail: detail})
}
