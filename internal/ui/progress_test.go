package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"funstart/internal/buildpipeline"
	"funstart/internal/config"
)

func rowKeys() []string {
	var keys []string
	for _, row := range buildpipeline.Rows(config.Optimized) {
		keys = append(keys, row.Key())
	}
	return keys
}

func TestApplyEventUpdatesRow(t *testing.T) {
	m := NewProgressModel("32-bit opt mc", rowKeys(), nil).(*progressModel)

	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageCompile, Target: "opt", Status: buildpipeline.StatusWorking})
	item := m.items[m.index["compile opt"]]
	require.Equal(t, buildpipeline.StatusWorking, item.status)

	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageCompile, Target: "opt", Status: buildpipeline.StatusDone, Detail: "js-opt-32-mc-linux"})
	item = m.items[m.index["compile opt"]]
	require.Equal(t, buildpipeline.StatusDone, item.status)
	require.Equal(t, "js-opt-32-mc-linux", item.detail)
	require.InDelta(t, 1.0/float64(len(m.items)), m.percent(), 1e-9)

	// Unknown rows are ignored.
	m.applyEvent(buildpipeline.Event{Stage: "bogus", Status: buildpipeline.StatusDone})
}

func TestApplyEventError(t *testing.T) {
	m := NewProgressModel("run", rowKeys(), nil).(*progressModel)
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageTag, Status: buildpipeline.StatusError, Err: errors.New("hg: not found\nmore")})
	require.True(t, m.failed)
	require.Equal(t, "hg: not found", m.items[m.index["tag"]].detail)

	m.done = true
	require.True(t, strings.HasPrefix(stripANSI(m.View()), "failed: run"))
}

func TestViewListsEveryRow(t *testing.T) {
	m := NewProgressModel("run", rowKeys(), nil).(*progressModel)
	view := m.View()
	for _, key := range rowKeys() {
		require.Contains(t, view, key)
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab...", truncate("abcdefgh", 5))
	require.Equal(t, "ab", truncate("abcdefgh", 2))
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestWorkingRowShowsRunningTime(t *testing.T) {
	m := NewProgressModel("run", rowKeys(), nil).(*progressModel)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageCompile, Target: "dbg", Status: buildpipeline.StatusWorking})
	clock = clock.Add(90 * time.Second)

	view := stripANSI(m.View())
	require.Contains(t, view, "compile dbg")
	require.Contains(t, view, "1m30s")
	require.InDelta(t, 0.5/float64(len(m.items)), m.percent(), 1e-9)
}
