package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"funstart/internal/buildpipeline"
)

// printStageTimings prints one line per recorded stage with its share of the
// run, then the total. Configure and compile cover both profiles.
func printStageTimings(out io.Writer, timings buildpipeline.Timings) error {
	total := timings.Sum()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		d := timings.Duration(stage)
		fmt.Fprintf(tw, "%s\t%.1f ms\t%.0f%%\t\n", stage, millis(d), share(d, total))
	}
	fmt.Fprintf(tw, "total\t%.1f ms\t\t\n", millis(total))
	return tw.Flush()
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func share(d, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(d) / float64(total)
}
