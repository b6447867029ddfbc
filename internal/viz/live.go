package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dynvec/internal/scenario"
)

const (
	maxSlots     = 32
	playInterval = 400 * time.Millisecond
)

type TickMsg time.Time

// Model replays a run's steps one at a time.
type Model struct {
	title    string
	steps    []scenario.Step
	pos      int
	playing  bool
	showHelp bool
	theme    Theme
	styles   Styles
	width    int
}

func NewModel(title string, steps []scenario.Step, theme Theme) Model {
	return Model{
		title:  title,
		steps:  steps,
		theme:  theme,
		styles: NewStyles(theme),
		width:  80,
	}
}

// Pos is the index of the step on screen.
func (m Model) Pos() int { return m.pos }

func (m Model) Playing() bool { return m.playing }

func (m Model) Theme() Theme { return m.theme }

func (m Model) Init() tea.Cmd { return nil }

func tick() tea.Cmd {
	return tea.Tick(playInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and advances playback.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "right", "n", "l":
			m.seek(m.pos + 1)
		case "left", "p", "h":
			m.seek(m.pos - 1)
		case "home", "g":
			m.seek(0)
		case "end", "G":
			m.seek(len(m.steps) - 1)
		case " ":
			m.playing = !m.playing
			if m.playing {
				if m.pos == len(m.steps)-1 {
					m.seek(0)
				}
				return m, tick()
			}
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case TickMsg:
		if !m.playing {
			return m, nil
		}
		if m.pos >= len(m.steps)-1 {
			m.playing = false
			return m, nil
		}
		m.pos++
		return m, tick()
	}
	return m, nil
}

func (m *Model) seek(pos int) {
	m.pos = max(0, min(pos, len(m.steps)-1))
}

// View renders the TUI interface.
func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Header.Render(strings.ToUpper(m.title)) + "\n")
	if len(m.steps) == 0 {
		b.WriteString(s.Muted.Render("no steps recorded") + "\n")
		return b.String()
	}

	st := m.steps[m.pos]
	status := "PAUSED"
	if m.playing {
		status = "PLAYING"
	}
	fmt.Fprintf(&b, "%s  step %d/%d\n\n", s.Title.Render(status), m.pos+1, len(m.steps))

	b.WriteString(s.Label.Render("Op") + s.Value.Render(st.Op) + "\n")
	b.WriteString(s.Label.Render("Len/Cap") + s.Value.Render(fmt.Sprintf("%d/%d", st.Len, st.Cap)) + "  " + s.FillBar(st.Len, st.Cap, 20) + "\n")
	if st.Reallocated {
		b.WriteString(s.Label.Render("Storage") + s.Warn.Render("reallocated") + "\n")
	}
	if st.Err != "" {
		intact := s.OK.Render("intact")
		if !st.Intact {
			intact = s.Fail.Render("modified")
		}
		b.WriteString(s.Label.Render("Error") + s.Fail.Render(st.Err) + "  " + intact + "\n")
	}
	for _, p := range st.Problems {
		b.WriteString(s.Label.Render("Problem") + s.Fail.Render(p) + "\n")
	}
	b.WriteString("\n" + s.RenderSlots(st.Len, st.Cap, st.Values, maxSlots) + "\n")

	if m.pos > 0 {
		caps := make([]float64, m.pos+1)
		for i := range caps {
			caps[i] = float64(m.steps[i].Cap)
		}
		chart := asciigraph.Plot(caps,
			asciigraph.Height(6),
			asciigraph.Width(min(m.width-10, 60)),
			asciigraph.Caption("Capacity"),
		)
		b.WriteString("\n" + chart + "\n")
	}

	if m.showHelp {
		b.WriteString("\n" + s.Panel.Render("→/n next  ←/p prev  home/end jump\nspace play/pause  t theme  q quit") + "\n")
	} else {
		b.WriteString("\n" + s.Muted.Render("? help") + "\n")
	}
	return b.String()
}
