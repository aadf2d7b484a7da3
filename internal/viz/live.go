package viz

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mdsim/internal/sim"
)

const historyCapacity = 600

// SampleMsg delivers one thermo sample to the live view.
type SampleMsg sim.Sample

// DoneMsg signals the simulation finished (or failed).
type DoneMsg struct{ Err error }

// LiveModel is a bubbletea model showing a running simulation's thermo
// state: latest values plus total-energy and temperature traces.
type LiveModel struct {
	samples <-chan sim.Sample
	errc    <-chan error

	latest  sim.Sample
	etotal  []float64
	temp    []float64
	done    bool
	err     error
	seen    bool
}

// NewLive builds a live view fed by the given channels. The samples
// channel closing, or an error arriving, ends the run display.
func NewLive(samples <-chan sim.Sample, errc <-chan error) LiveModel {
	return LiveModel{samples: samples, errc: errc}
}

func (m LiveModel) Init() tea.Cmd {
	return m.waitForSample()
}

func (m LiveModel) waitForSample() tea.Cmd {
	return func() tea.Msg {
		select {
		case s, ok := <-m.samples:
			if !ok {
				return DoneMsg{}
			}
			return SampleMsg(s)
		case err := <-m.errc:
			return DoneMsg{Err: err}
		}
	}
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case SampleMsg:
		m.latest = sim.Sample(msg)
		m.seen = true
		m.etotal = appendCapped(m.etotal, m.latest.Etotal())
		m.temp = appendCapped(m.temp, m.latest.Temp)
		return m, m.waitForSample()
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}
	return m, nil
}

func (m LiveModel) View() string {
	var b []string

	b = append(b, Header("mdsim live"))

	if m.seen {
		s := m.latest
		stats := lipgloss.JoinVertical(lipgloss.Left,
			StatLine("step", "%d", s.Step),
			StatLine("time", "%.3f", s.Time),
			StatLine("temp", "%.4f", s.Temp),
			StatLine("E_vdwl", "%.4f", s.Evdwl),
			StatLine("E_coul", "%.4f", s.Ecoul),
			StatLine("E_total", "%.4f", s.Etotal()),
			StatLine("press", "%.4f", s.Press),
		)
		b = append(b, stats)

		if len(m.etotal) > 1 {
			b = append(b, graphStyle.Render(asciigraph.Plot(m.etotal,
				asciigraph.Height(8), asciigraph.Width(70),
				asciigraph.Caption("total energy"))))
			b = append(b, graphStyle.Render(asciigraph.Plot(m.temp,
				asciigraph.Height(8), asciigraph.Width(70),
				asciigraph.Caption("temperature"))))
		}
	} else {
		b = append(b, valueStyle.Render("waiting for first sample..."))
	}

	switch {
	case m.err != nil:
		b = append(b, helpStyle.Render(fmt.Sprintf("run failed: %v  (q to exit)", m.err)))
	case m.done:
		b = append(b, helpStyle.Render("run complete  (q to exit)"))
	default:
		b = append(b, helpStyle.Render("q: quit"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, b...)
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[len(s)-historyCapacity:]
	}
	return s
}
