package trace

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

type hasher struct {
	h   *xxh3.Hasher
	buf [8]byte
}

func (w *hasher) float(v float64) {
	binary.LittleEndian.PutUint64(w.buf[:], math.Float64bits(v))
	w.h.Write(w.buf[:])
}

func (w *hasher) floats(vs []float64) {
	w.int(len(vs))
	for _, v := range vs {
		w.float(v)
	}
}

func (w *hasher) int(n int) {
	binary.LittleEndian.PutUint64(w.buf[:], uint64(n))
	w.h.Write(w.buf[:])
}

func (w *hasher) str(s string) {
	w.int(len(s))
	w.h.WriteString(s)
}

// Fingerprint hashes the IEEE bits of every sampled value and event field.
// Two runs of the same contract on the same build produce the same value.
func (tr *Trace) Fingerprint() uint64 {
	w := hasher{h: xxh3.New()}
	w.str(string(tr.Status))
	for _, id := range tr.BodyIDs {
		w.str(id)
	}
	w.int(len(tr.Frames))
	for k := range tr.Frames {
		f := &tr.Frames[k]
		w.float(f.Time)
		w.floats(f.Q)
		w.floats(f.V)
		w.str(f.Phase)
		w.float(f.Energy)
		w.float(f.Dissipated)
		w.float(f.ImpactLoss)
		w.int(len(f.Contacts))
	}
	w.int(len(tr.Events))
	for k := range tr.Events {
		e := &tr.Events[k]
		w.int(e.Seq)
		w.float(e.Time)
		w.str(string(e.Kind))
		for _, p := range e.Participants {
			w.str(p)
		}
		w.float(e.Impulse[0])
		w.float(e.Impulse[1])
		w.float(e.PostV)
		w.str(e.Phase)
	}
	return w.h.Sum64()
}
