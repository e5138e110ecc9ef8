package viz

import (
	"math"
	"strings"

	"github.com/san-kum/phystrace/internal/geom"
)

// Braille patterns hold 2x4 dots per cell:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). The canvas is Width*2 by
// Height*4 dots; y grows downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle outlines a circle of radius r dots around (cx, cy).
func (c *Canvas) DrawCircle(cx, cy int, r float64) {
	n := max(12, int(2*math.Pi*r))
	px, py := cx+int(math.Round(r)), cy
	for k := 1; k <= n; k++ {
		a := 2 * math.Pi * float64(k) / float64(n)
		x := cx + int(math.Round(r*math.Cos(a)))
		y := cy - int(math.Round(r*math.Sin(a)))
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps world coordinates (y up) onto canvas dots.
type Viewport struct {
	Min, Max geom.Vec
	W, H     int // in dots
}

// Fit returns a viewport showing lo..hi with a margin, keeping the aspect
// ratio square on a canvas of w by h cells.
func Fit(lo, hi geom.Vec, w, h int) Viewport {
	v := Viewport{W: 2 * w, H: 4 * h}
	span := hi.Sub(lo)
	cx, cy := (lo[0]+hi[0])/2, (lo[1]+hi[1])/2
	scale := math.Max(span[0]/float64(v.W), span[1]/float64(v.H)) * 1.1
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1.0 / float64(v.H)
	}
	hw, hh := scale*float64(v.W)/2, scale*float64(v.H)/2
	v.Min = geom.V(cx-hw, cy-hh)
	v.Max = geom.V(cx+hw, cy+hh)
	return v
}

func (v Viewport) scale() float64 { return (v.Max[0] - v.Min[0]) / float64(v.W) }

func (v Viewport) Dot(p geom.Vec) (int, int) {
	s := v.scale()
	return int(math.Round((p[0] - v.Min[0]) / s)), int(math.Round((v.Max[1] - p[1]) / s))
}

// Len converts a world length to dots.
func (v Viewport) Len(l float64) float64 { return l / v.scale() }

func (c *Canvas) Segment(v Viewport, a, b geom.Vec) {
	x0, y0 := v.Dot(a)
	x1, y1 := v.Dot(b)
	c.DrawLine(x0, y0, x1, y1)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}
