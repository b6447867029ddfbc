package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	OK     lipgloss.Style
	Warn   lipgloss.Style
	Fail   lipgloss.Style
	Live   lipgloss.Style
	Spare  lipgloss.Style
	Panel  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Text).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(t.Muted),
		Label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Muted:  lipgloss.NewStyle().Foreground(t.Muted),
		OK:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Warn:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Fail:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Live:   lipgloss.NewStyle().Foreground(t.Accent),
		Spare:  lipgloss.NewStyle().Foreground(t.Muted),
		Panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(0, 1),
	}
}

// DefaultStyles is used by one-shot reports.
var DefaultStyles = NewStyles(ThemeCyberpunk)

// Status renders a PASS or FAIL badge.
func (s Styles) Status(ok bool) string {
	if ok {
		return s.OK.Render("PASS")
	}
	return s.Fail.Render("FAIL")
}

// RenderSlots draws length live slots holding values followed by the spare
// slots up to capacity. At most maxSlots are drawn.
func (s Styles) RenderSlots(length, capacity int, values []int, maxSlots int) string {
	if capacity == 0 {
		return s.Muted.Render("(no storage)")
	}

	var sb strings.Builder
	shown := min(capacity, maxSlots)
	for i := 0; i < shown; i++ {
		if i < length && i < len(values) {
			sb.WriteString(s.Live.Render("[" + strconv.Itoa(values[i]) + "]"))
		} else {
			sb.WriteString(s.Spare.Render("[ ]"))
		}
	}
	if capacity > shown {
		sb.WriteString(s.Muted.Render(fmt.Sprintf(" …+%d", capacity-shown)))
	}
	return sb.String()
}

// FillBar renders used/total as a bar of width cells.
func (s Styles) FillBar(used, total, width int) string {
	filled := 0
	if total > 0 {
		filled = used * width / total
	}
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case total > 0 && used == total:
		return s.Warn.Render(bar)
	case filled > 0:
		return s.OK.Render(bar)
	}
	return s.Muted.Render(bar)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as block characters, sampled down to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(sparkChars)-1))
		sb.WriteRune(sparkChars[max(0, min(idx, len(sparkChars)-1))])
	}
	return sb.String()
}
