package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zsiec/timecode/pkg/timecode"
)

type tickMsg time.Time

// clockModel runs a timecode forward in real time from a start position.
type clockModel struct {
	start   timecode.Timecode
	current timecode.Timecode
	fps     float64

	began   time.Time
	elapsed time.Duration // accumulated while paused
	paused  bool
	err     error
	now     func() time.Time
}

func newClockModel(start timecode.Timecode, fps float64) clockModel {
	m := clockModel{
		start:   start,
		current: start,
		fps:     fps,
		now:     time.Now,
	}
	m.began = m.now()
	return m
}

func (m clockModel) interval() time.Duration {
	return time.Duration(float64(time.Second) / m.fps)
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m clockModel) Init() tea.Cmd {
	return tickEvery(m.interval())
}

func (m clockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			if m.paused {
				m.began = m.now()
			} else {
				m.elapsed += m.now().Sub(m.began)
			}
			m.paused = !m.paused
		case "r":
			m.elapsed = 0
			m.began = m.now()
			m.current = m.start
		}
		return m, nil

	case tickMsg:
		if !m.paused {
			m.advance()
		}
		if m.err != nil {
			return m, tea.Quit
		}
		return m, tickEvery(m.interval())
	}
	return m, nil
}

// advance sets current to start plus the whole frames elapsed so far.
func (m *clockModel) advance() {
	run := m.elapsed + m.now().Sub(m.began)
	frames := int64(math.Floor(run.Seconds() * m.fps))
	tc, err := m.start.AddFrames(frames)
	if err != nil {
		m.err = err
		return
	}
	m.current = tc
}

func (m clockModel) View() string {
	var b strings.Builder

	status := onAirStyle.Render("● RUNNING")
	if m.paused {
		status = warnStyle.Render("❚❚ PAUSED")
	}
	b.WriteString(titleStyle.Render("tcctl clock") + "  " + status + "\n")
	b.WriteString(clockStyle.Render(m.current.String()) + "\n")

	mode := "NDF"
	if m.current.DropFrame() {
		mode = "DF"
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%.3f fps %s  frame %d", m.fps, mode, m.current.FrameNumber())) + "\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString(okStyle.Render("space") + mutedStyle.Render(" pause  ") +
		okStyle.Render("r") + mutedStyle.Render(" reset  ") +
		okStyle.Render("q") + mutedStyle.Render(" quit") + "\n")
	return b.String()
}
