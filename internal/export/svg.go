// Package export writes SVG snapshots of trace signals and scene frames.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/phystrace/internal/viz"
)

const background = "#0a0a0a"

// CanvasSVG converts a Braille canvas to SVG, one circle per lit dot.
func CanvasSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.Lit(col*2+dx, row*4+dy) {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SignalSVG plots ys against ts as a polyline. Events are marked as
// vertical lines at their times.
func SignalSVG(ts, ys []float64, marks []float64, width, height int, stroke string) string {
	n := min(len(ts), len(ys))
	if n < 2 {
		return ""
	}
	minX, maxX := ts[0], ts[n-1]
	minY, maxY := ys[0], ys[0]
	for _, y := range ys[:n] {
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2
	px := func(x float64) float64 { return (x - minX) / rangeX * float64(width) }
	py := func(y float64) float64 { return float64(height) - (y-minY)/rangeY*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
	for _, t := range marks {
		if t < minX || t > maxX {
			continue
		}
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"0\" x2=\"%.1f\" y2=\"%d\" stroke=\"#444466\" stroke-dasharray=\"4 4\"/>\n",
			px(t), px(t), height)
	}
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", px(ts[i]), py(ys[i]))
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
