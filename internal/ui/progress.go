// Package ui draws the start pipeline as a live checklist: one row per step,
// with the build rows split by profile, and a bar under it.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"funstart/internal/buildpipeline"
)

const (
	keyWidth     = 16
	elapsedWidth = 9
	minDetail    = 10
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	glyphs     = map[buildpipeline.Status]string{
		buildpipeline.StatusQueued:  "·",
		buildpipeline.StatusDone:    "✓",
		buildpipeline.StatusSkipped: "-",
		buildpipeline.StatusError:   "✗",
	}
	statusColors = map[buildpipeline.Status]lipgloss.Color{
		buildpipeline.StatusDone:    "2",
		buildpipeline.StatusError:   "1",
		buildpipeline.StatusWorking: "6",
		buildpipeline.StatusSkipped: "3",
	}
)

type row struct {
	key     string
	status  buildpipeline.Status
	detail  string
	elapsed time.Duration
	since   time.Time // set while working
}

type progressModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	bar     progress.Model
	items   []row
	index   map[string]int
	width   int
	started time.Time
	now     func() time.Time

	done        bool
	failed      bool
	interrupted bool // ctrl+c before the pipeline finished
}

type eventMsg buildpipeline.Event

type closedMsg struct{}

// NewProgressModel returns a model with one row per key, in order. Keys are
// buildpipeline.Event.Key values; events for other keys are ignored.
func NewProgressModel(title string, keys []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = lipgloss.NewStyle().Foreground(statusColors[buildpipeline.StatusWorking])

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		items:   make([]row, len(keys)),
		index:   make(map[string]int, len(keys)),
		width:   80,
		started: time.Now(),
		now:     time.Now,
	}
	for i, key := range keys {
		m.items[i] = row{key: key, status: buildpipeline.StatusQueued}
		m.index[key] = i
	}
	return m
}

// Interrupted reports whether the user quit before the pipeline finished.
func Interrupted(model tea.Model) bool {
	m, ok := model.(*progressModel)
	return ok && m.interrupted
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(buildpipeline.Event(msg)), m.next())
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type != tea.KeyCtrlC {
			return m, nil
		}
		m.interrupted = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	now := m.now()
	var b strings.Builder
	b.WriteString(m.header(now))
	b.WriteString("\n\n")

	detailWidth := max(m.width-keyWidth-elapsedWidth-8, minDetail)
	for _, item := range m.items {
		b.WriteString("  ")
		b.WriteString(m.glyph(item.status))
		fmt.Fprintf(&b, " %-*s", keyWidth, item.key)
		if d := item.shownElapsed(now); d > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("%*s", elapsedWidth, d.Round(100*time.Millisecond))))
		} else {
			b.WriteString(strings.Repeat(" ", elapsedWidth))
		}
		if item.detail != "" {
			b.WriteString(" ")
			b.WriteString(truncate(item.detail, detailWidth))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done && !m.failed {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) header(now time.Time) string {
	total := dimStyle.Render(" " + now.Sub(m.started).Round(time.Second).String())
	switch {
	case m.done && m.failed:
		return titleStyle.Render("failed: "+m.title) + total
	case m.done:
		return titleStyle.Render("done: "+m.title) + total
	default:
		return m.spinner.View() + " " + titleStyle.Render(m.title) + total
	}
}

func (m *progressModel) glyph(status buildpipeline.Status) string {
	g, ok := glyphs[status]
	if status == buildpipeline.StatusWorking {
		return m.spinner.View()
	}
	if !ok {
		g = "?"
	}
	return lipgloss.NewStyle().Foreground(statusColors[status]).Render(g)
}

// shownElapsed is the final duration of a finished row, or the running time
// of a working one.
func (r row) shownElapsed(now time.Time) time.Duration {
	if r.status == buildpipeline.StatusWorking && !r.since.IsZero() {
		return now.Sub(r.since)
	}
	return r.elapsed
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	idx, ok := m.index[ev.Key()]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	if ev.Status == buildpipeline.StatusWorking && item.status != buildpipeline.StatusWorking {
		item.since = m.now()
	}
	item.status = ev.Status
	item.elapsed = ev.Elapsed
	if ev.Err != nil {
		item.detail = firstLine(ev.Err.Error())
		m.failed = true
	} else if ev.Detail != "" {
		item.detail = ev.Detail
	}
	return m.bar.SetPercent(m.percent())
}

// percent counts finished rows fully and running rows as half done.
func (m *progressModel) percent() float64 {
	var total float64
	for _, item := range m.items {
		switch item.status {
		case buildpipeline.StatusQueued:
		case buildpipeline.StatusWorking:
			total += 0.5
		default:
			total++
		}
	}
	return total / float64(max(len(m.items), 1))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width-3, "...")
	}
}
