package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dynvec/internal/scenario"
)

const (
	CapColor  = "#00d7ff"
	LenColor  = "#00ff00"
	FailColor = "#ff5f5f"
)

// TraceToSVG plots capacity and length over a run's steps as two stepped
// lines sharing one scale. Steps whose op failed get a marker.
func TraceToSVG(steps []scenario.Step, width, height int) string {
	if len(steps) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	maxY := 1
	for _, st := range steps {
		maxY = max(maxY, st.Cap, st.Len)
	}

	// One column per step plus the starting point at zero.
	colW := float64(width) / float64(len(steps))
	y := func(v int) float64 {
		return float64(height) - float64(v)/float64(maxY)*float64(height)*0.9
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	line := func(color string, value func(scenario.Step) int) {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M0.0,%.1f`, color, y(0))
		for i, st := range steps {
			x0, x1 := float64(i)*colW, float64(i+1)*colW
			fmt.Fprintf(&sb, " L%.1f,%.1f L%.1f,%.1f", x0, y(value(st)), x1, y(value(st)))
		}
		sb.WriteString("\"/>\n")
	}
	line(CapColor, func(st scenario.Step) int { return st.Cap })
	line(LenColor, func(st scenario.Step) int { return st.Len })

	for i, st := range steps {
		if st.Err == "" {
			continue
		}
		cx := (float64(i) + 0.5) * colW
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3.0" fill="%s"/>
`, cx, y(st.Len), FailColor)
	}

	sb.WriteString("</svg>")
	return sb.String()
}
