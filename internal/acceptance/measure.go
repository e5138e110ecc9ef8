package acceptance

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/trace"
)

// window returns the frames whose time lies in w, or every frame when w is
// empty.
func window(tr *trace.Trace, w []float64) []trace.Frame {
	if len(w) != 2 {
		return tr.Frames
	}
	lo := sort.Search(len(tr.Frames), func(k int) bool { return tr.Frames[k].Time >= w[0] })
	hi := sort.Search(len(tr.Frames), func(k int) bool { return tr.Frames[k].Time > w[1] })
	return tr.Frames[lo:hi]
}

func sample(tr *trace.Trace, frames []trace.Frame, body, quantity string) (xs, ys []float64, err error) {
	xs = make([]float64, len(frames))
	ys = make([]float64, len(frames))
	for k := range frames {
		xs[k] = frames[k].Time
		if ys[k], err = tr.Value(&frames[k], body, quantity); err != nil {
			return nil, nil, err
		}
	}
	return xs, ys, nil
}

// eventFrame picks the frame recorded on one side of a named event. The
// engine records a frame just before and just after resolving an event at
// the same time.
func eventFrame(tr *trace.Trace, name, side string) (trace.Frame, error) {
	ev, ok := tr.Named(name)
	if !ok {
		return trace.Frame{}, fmt.Errorf("event %q never occurred", name)
	}
	switch side {
	case "before":
		k := sort.Search(len(tr.Frames), func(k int) bool { return tr.Frames[k].Time >= ev.Time })
		if k == len(tr.Frames) {
			return trace.Frame{}, fmt.Errorf("no frame at event %q", name)
		}
		return tr.Frames[k], nil
	case "after":
		k := tr.Index(ev.Time)
		if k < 0 {
			return trace.Frame{}, fmt.Errorf("no frame at event %q", name)
		}
		return tr.Frames[k], nil
	}
	f, _ := tr.At(ev.Time)
	return f, nil
}

// measure reduces m to one number.
func measure(tr *trace.Trace, m contract.Measure, w []float64) (float64, error) {
	if len(tr.Frames) == 0 {
		return 0, fmt.Errorf("empty trace")
	}
	switch {
	case m.Event != "":
		f, err := eventFrame(tr, m.Event, m.Side)
		if err != nil {
			return 0, err
		}
		return tr.Value(&f, m.Body, m.Quantity)
	case m.Time != nil:
		f, _ := tr.At(*m.Time)
		return tr.Value(&f, m.Body, m.Quantity)
	}

	frames := window(tr, w)
	if len(frames) == 0 {
		return 0, fmt.Errorf("no frames in window %v", w)
	}
	_, ys, err := sample(tr, frames, m.Body, m.Quantity)
	if err != nil {
		return 0, err
	}
	switch m.Reduce {
	case "", "initial":
		return ys[0], nil
	case "final":
		return ys[len(ys)-1], nil
	case "max":
		v := ys[0]
		for _, y := range ys[1:] {
			v = math.Max(v, y)
		}
		return v, nil
	case "min":
		v := ys[0]
		for _, y := range ys[1:] {
			v = math.Min(v, y)
		}
		return v, nil
	case "mean":
		// Trapezoidal time average; duplicate event frames add no weight.
		if len(ys) == 1 || frames[len(frames)-1].Time == frames[0].Time {
			return ys[0], nil
		}
		var area float64
		for k := 1; k < len(ys); k++ {
			area += 0.5 * (ys[k] + ys[k-1]) * (frames[k].Time - frames[k-1].Time)
		}
		return area / (frames[len(frames)-1].Time - frames[0].Time), nil
	}
	return 0, fmt.Errorf("unknown reduction %q", m.Reduce)
}
