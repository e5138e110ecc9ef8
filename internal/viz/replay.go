package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/trace"
)

const (
	fps          = 30
	recentEvents = 5
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Replay plays a recorded trace back in trace time.
type Replay struct {
	tr     *trace.Trace
	scene  *Scene
	canvas *Canvas
	styles Styles
	name   string

	clock  float64
	frame  int
	speed  float64
	paused bool
	energy []float64
}

// NewReplay builds a replay of tr drawn with the geometry of c, which must
// be the validated contract the trace came from.
func NewReplay(c *contract.Contract, tr *trace.Trace, theme Theme, w, h int) Replay {
	energy := make([]float64, len(tr.Frames))
	for i := range tr.Frames {
		energy[i] = tr.Frames[i].Energy
	}
	return Replay{
		tr:     tr,
		scene:  NewScene(c, tr, w, h),
		canvas: NewCanvas(w, h),
		styles: NewStyles(theme),
		name:   c.Name,
		speed:  1,
		energy: energy,
	}
}

func (m Replay) Init() tea.Cmd { return tick() }

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "right", "l":
			m.seekFrame(m.frame + 1)
		case "left", "h":
			m.seekFrame(m.frame - 1)
		case "+", "=":
			m.speed = min(m.speed*2, 16)
		case "-":
			m.speed = max(m.speed/2, 1.0/16)
		case "r":
			m.seekFrame(0)
		}
		return m, nil
	case TickMsg:
		if !m.paused {
			m.advance(m.speed / fps)
		}
		return m, tick()
	}
	return m, nil
}

// advance moves the clock by dt of trace time and picks the last frame at
// or before it.
func (m *Replay) advance(dt float64) {
	frames := m.tr.Frames
	if len(frames) == 0 {
		return
	}
	m.clock += dt
	for m.frame+1 < len(frames) && frames[m.frame+1].Time <= m.clock {
		m.frame++
	}
	if m.frame == len(frames)-1 {
		m.paused = true
	}
}

func (m *Replay) seekFrame(i int) {
	if len(m.tr.Frames) == 0 {
		return
	}
	m.frame = min(max(i, 0), len(m.tr.Frames)-1)
	m.clock = m.tr.Frames[m.frame].Time
}

func (m Replay) View() string {
	if len(m.tr.Frames) == 0 {
		return m.styles.Muted.Render("empty trace") + "\n"
	}
	f := &m.tr.Frames[m.frame]
	m.scene.Draw(m.canvas, f)

	var b strings.Builder
	state := m.styles.Pass.Render("▶ playing")
	if m.paused {
		state = m.styles.Warn.Render("❚❚ paused")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n", m.styles.Title.Render(m.name), state,
		m.styles.Label.Render(fmt.Sprintf("x%g", m.speed)))
	b.WriteString(m.styles.Panel.Render(strings.TrimRight(m.canvas.String(), "\n")))
	b.WriteString("\n")

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s  ", m.styles.Label.Render(label), m.styles.Value.Render(value))
	}
	field("t", fmt.Sprintf("%.4f/%.4f", f.Time, m.tr.Duration()))
	if f.Phase != "" {
		field("phase", f.Phase)
	}
	field("E", fmt.Sprintf("%.5g", f.Energy))
	field("ledger", fmt.Sprintf("%.5g", f.Ledger()))
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("energy ") + Sparkline(m.energy, m.canvas.Width/2) + "\n")

	for _, c := range f.Contacts {
		fmt.Fprintf(&b, "%s %s/%s %s N=%.4g\n", m.styles.Label.Render("contact"),
			c.Body, c.Surface, c.Regime, c.Normal)
	}
	for _, e := range m.recent(f.Time) {
		fmt.Fprintf(&b, "%s %.4f %s %s\n", m.styles.Muted.Render(fmt.Sprintf("#%d", e.Seq)),
			e.Time, e.Kind, strings.Join(e.Participants, ","))
	}
	b.WriteString(m.styles.Muted.Render("space pause  ←/→ step  +/- speed  r restart  q quit"))
	return b.String()
}

func (m Replay) recent(t float64) []trace.Event {
	var out []trace.Event
	for _, e := range m.tr.Events {
		if e.Time > t {
			break
		}
		out = append(out, e)
	}
	if len(out) > recentEvents {
		out = out[len(out)-recentEvents:]
	}
	return out
}
