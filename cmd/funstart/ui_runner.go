package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"funstart/internal/buildpipeline"
	"funstart/internal/ui"
)

// prepareFunc runs the pipeline, reporting to sink.
type prepareFunc func(ctx context.Context, sink buildpipeline.ProgressSink) (buildpipeline.Session, error)

// runWithUI runs prepare next to the progress TUI. Quitting the TUI cancels
// the pipeline and makes the run fail, so nothing is launched afterwards.
func runWithUI(ctx context.Context, out io.Writer, title string, rows []string, prepare prepareFunc, opts ...tea.ProgramOption) (buildpipeline.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan buildpipeline.Event, 256)
	var sess buildpipeline.Session

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		var err error
		sess, err = prepare(gctx, buildpipeline.ChannelSink{Ch: events})
		return err
	})

	model := ui.NewProgressModel(title, rows, events)
	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	final, uiErr := tea.NewProgram(model, opts...).Run()
	interrupted := ui.Interrupted(final)
	if uiErr != nil || interrupted {
		cancel()
	}
	// Keep the producer from blocking on a full channel once the UI is gone.
	go func() {
		for range events {
		}
	}()
	err := settleUI(g.Wait(), uiErr, interrupted)
	return sess, err
}

// errInterrupted is returned when the user quits the progress view, even if
// the step running at the time finished anyway.
var errInterrupted = fmt.Errorf("interrupted: %w", context.Canceled)

// settleUI picks the error of a UI run: the pipeline's, then an interrupt,
// then the UI's own.
func settleUI(pipelineErr, uiErr error, interrupted bool) error {
	switch {
	case pipelineErr != nil:
		return pipelineErr
	case interrupted:
		return errInterrupted
	default:
		return uiErr
	}
}
