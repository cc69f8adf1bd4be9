package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"funstart/internal/trace"
)

type traceOptions struct {
	output    string
	level     trace.Level
	format    trace.Format
	heartbeat time.Duration
}

func readTraceOptions(cmd *cobra.Command) (traceOptions, error) {
	var opts traceOptions
	flags := cmd.Root().PersistentFlags()
	output, err := flags.GetString("trace")
	if err != nil {
		return opts, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return opts, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return opts, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	if opts.heartbeat, err = flags.GetDuration("trace-heartbeat"); err != nil {
		return opts, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	if opts.level, err = trace.ParseLevel(levelStr); err != nil {
		return opts, err
	}
	if opts.format, err = trace.ParseFormat(formatStr); err != nil {
		return opts, err
	}
	opts.output = output
	// --trace alone traces the pipeline steps.
	if opts.level == trace.LevelOff && output != "" {
		opts.level = trace.LevelStep
	}
	return opts, nil
}

// setupTracing attaches a tracer to the command context and returns the
// function that flushes and closes it.
func setupTracing(cmd *cobra.Command) (func(), error) {
	opts, err := readTraceOptions(cmd)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(trace.Config{
		Level:      opts.level,
		Format:     opts.format,
		OutputPath: opts.output,
		Heartbeat:  opts.heartbeat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	return func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
		}
	}, nil
}
