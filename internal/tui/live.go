// Package tui renders a live terminal view of a running simulation: one bar
// per size class plus the particulate and dissolved totals.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ecotools/fragsim/internal/kinet"
)

const barWidth = 40

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	sumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Frame is one snapshot of the running state.
type Frame struct {
	T         float64
	Conc      []float64
	Dissolved float64
}

// StreamObserver forwards every nth simulation step into a frame channel.
// Sends never block; if the view lags, frames are dropped rather than
// stalling the integration.
type StreamObserver struct {
	classes int
	every   int
	n       int
	ch      chan Frame
}

func NewStream(classes, every int) *StreamObserver {
	if every < 1 {
		every = 1
	}
	return &StreamObserver{
		classes: classes,
		every:   every,
		ch:      make(chan Frame, 64),
	}
}

func (s *StreamObserver) OnStep(x kinet.State, t float64) {
	s.n++
	if s.n%s.every != 0 {
		return
	}

	conc := make([]float64, s.classes)
	copy(conc, x[:s.classes])
	dissolved := 0.0
	if len(x) > s.classes {
		dissolved = x[s.classes]
	}

	select {
	case s.ch <- Frame{T: t, Conc: conc, Dissolved: dissolved}:
	default:
	}
}

func (s *StreamObserver) Frames() <-chan Frame { return s.ch }

// Close signals the view that the run is over.
func (s *StreamObserver) Close() { close(s.ch) }

type frameMsg struct {
	frame Frame
	ok    bool
}

// Model is the bubbletea model for the live view.
type Model struct {
	diameters []float64
	frames    <-chan Frame
	latest    Frame
	started   bool
	finished  bool
	scale     float64
}

func NewModel(diameters []float64, frames <-chan Frame) Model {
	return Model{diameters: diameters, frames: frames}
}

func (m Model) Init() tea.Cmd {
	return m.waitForFrame()
}

func (m Model) waitForFrame() tea.Cmd {
	return func() tea.Msg {
		f, ok := <-m.frames
		return frameMsg{frame: f, ok: ok}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case frameMsg:
		if !msg.ok {
			m.finished = true
			return m, tea.Quit
		}
		m.latest = msg.frame
		if !m.started {
			// First frame fixes the bar scale for the whole run.
			m.scale = maxOf(msg.frame.Conc)
			total := sum(msg.frame.Conc) + msg.frame.Dissolved
			if total > m.scale {
				m.scale = total
			}
			m.started = true
		}
		return m, m.waitForFrame()
	}
	return m, nil
}

func (m Model) View() string {
	if !m.started {
		return titleStyle.Render("fragsim") + "\n\nwaiting for first step...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("fragsim"))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  t = %.2f", m.latest.T)))
	b.WriteString("\n\n")

	for k, c := range m.latest.Conc {
		label := fmt.Sprintf("%9.3g m", m.diameters[k])
		b.WriteString(labelStyle.Render(label))
		b.WriteString("  ")
		b.WriteString(barStyle.Render(bar(c, m.scale)))
		b.WriteString(fmt.Sprintf(" %.4g\n", c))
	}

	b.WriteString("\n")
	b.WriteString(sumStyle.Render(fmt.Sprintf("particulate %.6g   dissolved %.6g", sum(m.latest.Conc), m.latest.Dissolved)))
	b.WriteString(labelStyle.Render("\n\nq to quit\n"))
	return b.String()
}

func bar(v, scale float64) string {
	if scale <= 0 {
		return ""
	}
	n := int(v / scale * barWidth)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n)
}

func sum(vs []float64) float64 {
	s := 0.0
	for _, v := range vs {
		s += v
	}
	return s
}

func maxOf(vs []float64) float64 {
	m := 0.0
	for _, v := range vs {
		if v > m {
			m = v
		}
	}
	return m
}
