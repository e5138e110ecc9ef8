package sim_test

import (
	"context"
	"math"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/phystrace/internal/acceptance"
	"github.com/san-kum/phystrace/internal/config"
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/sim"
	"github.com/san-kum/phystrace/internal/trace"
)

func run(c *contract.Contract, opts ...sim.Option) *trace.Trace {
	GinkgoHelper()
	tr, err := sim.New(opts...).Run(context.Background(), c)
	Expect(err).NotTo(HaveOccurred())
	Expect(tr).NotTo(BeNil())
	return tr
}

func final(tr *trace.Trace, body, quantity string) float64 {
	GinkgoHelper()
	v, err := tr.Value(&tr.Frames[len(tr.Frames)-1], body, quantity)
	Expect(err).NotTo(HaveOccurred())
	return v
}

var _ = Describe("Engine", func() {
	Describe("bouncing ball", func() {
		var tr *trace.Trace
		tImpact := math.Sqrt(2 * 5 / 9.8)
		vImpact := 9.8 * tImpact

		BeforeEach(func() {
			tr = run(preset("bouncing_ball"))
		})

		It("completes", func() {
			Expect(tr.Status).To(Equal(trace.StatusOK))
			Expect(tr.Duration()).To(BeNumerically("~", 3, 1e-12))
		})

		It("locates the first impact", func() {
			ev, ok := tr.Named("first_bounce")
			Expect(ok).To(BeTrue())
			Expect(ev.Kind).To(Equal(trace.EventContact))
			Expect(ev.Participants).To(ConsistOf("ball", "ground"))
			Expect(ev.Time).To(BeNumerically("~", tImpact, 1e-3))
		})

		It("applies the restitution coefficient", func() {
			ev, _ := tr.Named("first_bounce")
			Expect(math.Abs(ev.PreV)).To(BeNumerically("~", vImpact, 1e-3))
			Expect(ev.PostV).To(BeNumerically("~", 0.8*vImpact, 1e-3))
			Expect(ev.Loss() / ev.EnergyBefore).To(BeNumerically("~", 1-0.8*0.8, 1e-6))
		})

		It("records the apex of the rebound", func() {
			ev, ok := tr.Named("apex")
			Expect(ok).To(BeTrue())
			Expect(ev.Kind).To(Equal(trace.EventVelocityZero))
			Expect(ev.Time).To(BeNumerically("~", tImpact+0.8*vImpact/9.8, 1e-3))
		})

		It("brackets each impact with frames at the impact time", func() {
			ev, _ := tr.Named("first_bounce")
			var at []trace.Frame
			for _, f := range tr.Frames {
				if f.Time == ev.Time {
					at = append(at, f)
				}
			}
			Expect(len(at)).To(BeNumerically(">=", 2))
			Expect(at[0].V[1]).To(BeNumerically("<", 0))
			Expect(at[len(at)-1].V[1]).To(BeNumerically(">", 0))
		})

		It("keeps the energy ledger balanced", func() {
			ref := tr.Frames[0].Ledger()
			for _, f := range tr.Frames {
				Expect(f.Ledger()).To(BeNumerically("~", ref, 1e-4*ref))
			}
			Expect(tr.Frames[len(tr.Frames)-1].ImpactLoss).To(BeNumerically(">", 0))
		})

		It("never penetrates beyond the slop", func() {
			Expect(tr.Diagnostics.MaxPenetration).To(BeNumerically("<=", 1e-3))
			for _, f := range tr.Frames {
				Expect(f.Q[1] - 0.05).To(BeNumerically(">=", -1e-3))
			}
		})

		It("records the run metrics", func() {
			Expect(tr.Metrics).To(HaveKey("energy_drift"))
			Expect(tr.Metrics).To(HaveKey("ledger_drift"))
			Expect(tr.Metrics["steps"]).To(BeNumerically(">", 0))
			Expect(tr.Metrics["ledger_drift"]).To(BeNumerically("<", 1e-4))
		})
	})

	Describe("determinism", func() {
		It("produces bit-identical traces for the same contract", func() {
			c := preset("bouncing_ball")
			a, b := run(c), run(c)
			Expect(cmp.Diff(a, b)).To(BeEmpty())
			Expect(a.Fingerprint()).To(Equal(b.Fingerprint()))
		})

		It("does not mutate the contract", func() {
			c := preset("double_collision")
			before := c.Clone()
			run(c)
			Expect(c.Bodies).To(Equal(before.Bodies))
			Expect(c.Surfaces).To(Equal(before.Surfaces))
		})
	})

	Describe("elastic bounce", func() {
		It("conserves mechanical energy through impacts", func() {
			tr := run(preset("elastic_bounce"))
			e0 := tr.Frames[0].Energy
			for _, f := range tr.Frames {
				Expect(f.Energy).To(BeNumerically("~", e0, 1e-3*e0))
			}
			for _, ev := range tr.EventsOf(trace.EventContact) {
				Expect(ev.PostV).To(BeNumerically("~", -ev.PreV, 1e-6))
			}
		})
	})

	Describe("incline", func() {
		It("holds the box under static friction", func() {
			tr := run(preset("incline_static"))
			Expect(tr.Status).To(Equal(trace.StatusOK))
			first, last := tr.Frames[0], tr.Frames[len(tr.Frames)-1]
			Expect(last.Q[0]).To(BeNumerically("~", first.Q[0], 1e-6))
			Expect(last.Q[1]).To(BeNumerically("~", first.Q[1], 1e-6))
			Expect(last.Contacts).To(HaveLen(1))
			Expect(last.Contacts[0].Regime).To(Equal("static"))
			Expect(tr.EventsOf(trace.EventSlip)).To(BeEmpty())
		})

		It("slides with the kinetic friction acceleration", func() {
			tr := run(preset("incline_sliding"))
			th := 20 * math.Pi / 180
			a := 9.8 * (math.Sin(th) - 0.15*math.Cos(th))
			Expect(final(tr, "box", "speed")).To(BeNumerically("~", 2*a, 1e-6))
			Expect(final(tr, "box", "speed")).To(BeNumerically("~", 3.941, 1e-3))
			Expect(tr.Duration()).To(Equal(2.0))
			last := tr.Frames[len(tr.Frames)-1]
			Expect(last.Contacts).To(HaveLen(1))
			Expect(last.Contacts[0].Regime).To(Equal("kinetic"))
			Expect(last.Dissipated).To(BeNumerically(">", 0))
			Expect(last.Ledger()).To(BeNumerically("~", tr.Frames[0].Ledger(), 1e-3))
		})
	})

	Describe("double collision", func() {
		It("orders the impacts and exchanges momentum", func() {
			tr := run(preset("double_collision"))
			contacts := tr.EventsOf(trace.EventContact)
			Expect(len(contacts)).To(BeNumerically(">=", 2))
			Expect(contacts[0].Participants).To(ConsistOf("a", "b"))
			Expect(contacts[0].Time).To(BeNumerically("~", 0.4, 1e-3))
			Expect(contacts[1].Participants).To(ConsistOf("b", "wall"))
			Expect(contacts[1].Time).To(BeNumerically("~", 0.85, 1e-3))

			mid, ok := tr.At(0.6)
			Expect(ok).To(BeTrue())
			Expect(mid.V[0]).To(BeNumerically("~", 0, 1e-6))
			Expect(mid.V[3]).To(BeNumerically("~", 2, 1e-6))
			Expect(mid.Momentum[0]).To(BeNumerically("~", 2, 1e-6))
		})
	})

	Describe("simultaneous impacts", func() {
		It("resolves equal-time contacts in body order", func() {
			ball := func(id string, x float64) contract.Body {
				return contract.Body{
					ID:       id,
					Shape:    contract.Shape{Kind: contract.ShapeCircle, Radius: 0.05},
					Mass:     1,
					Initial:  contract.InitialState{Position: contract.Vec2{x, 1.05}},
					Material: &contract.Material{Restitution: 0.5},
					Contacts: []string{"ground"},
				}
			}
			c := normalized(&contract.Contract{
				Name:       "pair_drop",
				World:      contract.World{Gravity: contract.Vec2{0, -9.8}},
				Simulation: contract.Simulation{TEnd: 0.6, HMax: 0.01},
				// The second body sits further left so that spatial order
				// and declaration order disagree.
				Bodies:   []contract.Body{ball("a", 1), ball("b", -1)},
				Surfaces: []contract.Surface{{ID: "ground", Normal: contract.Vec2{0, 1}}},
			})
			tr := run(c)
			Expect(tr.Status).To(Equal(trace.StatusOK))

			contacts := tr.EventsOf(trace.EventContact)
			Expect(len(contacts)).To(BeNumerically(">=", 2))
			Expect(contacts[0].Participants).To(Equal([]string{"a", "ground"}))
			Expect(contacts[1].Participants).To(Equal([]string{"b", "ground"}))
			Expect(contacts[1].Time).To(Equal(contacts[0].Time))
			Expect(contacts[0].Time).To(BeNumerically("~", math.Sqrt(2/9.8), 1e-3))
			Expect(contacts[0].Pair).To(BeNumerically("<", contacts[1].Pair))
			Expect(contacts[0].Seq).To(BeNumerically("<", contacts[1].Seq))
		})
	})

	Describe("y-down contract", func() {
		It("runs in the mirrored y-up frame", func() {
			c := normalized(&contract.Contract{
				Name:       "drop_down",
				World:      contract.World{Gravity: contract.Vec2{0, 9.8}, Coordinates: contract.CoordinatesYDown},
				Simulation: contract.Simulation{TEnd: 1.5, HMax: 0.01},
				Bodies: []contract.Body{{
					ID:       "ball",
					Shape:    contract.Shape{Kind: contract.ShapeCircle, Radius: 0.05},
					Mass:     1,
					Initial:  contract.InitialState{Position: contract.Vec2{0, -5.05}},
					Material: &contract.Material{Restitution: 0.8},
					Contacts: []string{"ground"},
				}},
				Surfaces: []contract.Surface{{ID: "ground", Normal: contract.Vec2{0, -1}}},
				ExpectedEvents: []contract.ExpectedEvent{
					{Name: "first_bounce", Type: contract.EventContact, Participants: []string{"ball", "ground"},
						Order: 1, Occurrence: 1},
				},
			})
			Expect(c.World.Coordinates).To(Equal(contract.CoordinatesYUp))

			tr := run(c)
			Expect(tr.Status).To(Equal(trace.StatusOK))
			ev, ok := tr.Named("first_bounce")
			Expect(ok).To(BeTrue())
			Expect(ev.Time).To(BeNumerically("~", math.Sqrt(2*5/9.8), 1e-3))
			Expect(ev.PreV).To(BeNumerically("<", 0))
			Expect(ev.PostV).To(BeNumerically("~", 0.8*math.Abs(ev.PreV), 1e-3))
			Expect(tr.Frames[0].Q[1]).To(BeNumerically("~", 5.05, 1e-12))
			for _, f := range tr.Frames {
				Expect(f.Q[1] - 0.05).To(BeNumerically(">=", -1e-3))
			}
		})
	})

	Describe("phases", func() {
		It("switches on drag after the first turn", func() {
			tr := run(preset("spring_oscillator"))
			turn, ok := tr.Named("turn")
			Expect(ok).To(BeTrue())
			Expect(turn.Time).To(BeNumerically("~", math.Pi/math.Sqrt(40), 1e-3))

			entered := tr.EventsOf(trace.EventPhaseEnter)
			Expect(entered).To(HaveLen(2))
			Expect(entered[0].Participants).To(Equal([]string{"free"}))
			Expect(entered[1].Participants).To(Equal([]string{"damped"}))
			Expect(entered[1].Time).To(Equal(turn.Time))

			last := tr.Frames[len(tr.Frames)-1]
			Expect(last.Phase).To(Equal("damped"))
			Expect(last.Dissipated).To(BeNumerically(">", 0))
			Expect(last.Ledger()).To(BeNumerically("~", tr.Frames[0].Ledger(), 1e-4))
		})
	})

	Describe("guarded transitions", func() {
		It("arms only the transitions of the current phase", func() {
			c := config.GetPreset("bouncing_ball")
			c.ExpectedEvents, c.AcceptanceTests = nil, nil
			level := func(dir string) *contract.GuardSpec {
				return &contract.GuardSpec{Kind: contract.GuardPosition, Body: "ball", Axis: "y", Value: 3, Direction: dir}
			}
			c.Phases = []contract.Phase{
				{ID: "high", Initial: true, Transitions: []contract.Transition{{To: "low", Guard: level(contract.DirectionFalling)}}},
				{ID: "low", Transitions: []contract.Transition{{To: "high", Guard: level(contract.DirectionRising)}}},
			}
			tr := run(normalized(c))

			entered := tr.EventsOf(trace.EventPhaseEnter)
			Expect(entered).To(HaveLen(4))
			var order []string
			for _, ev := range entered {
				order = append(order, ev.Participants[0])
			}
			Expect(order).To(Equal([]string{"high", "low", "high", "low"}))
			// Falling from 5.05 to 3, then the e=0.8 rebound peaks at 3.25.
			Expect(entered[1].Time).To(BeNumerically("~", math.Sqrt(2*2.05/9.8), 1e-3))
			Expect(entered[2].Time).To(BeNumerically("~", 1.593, 2e-3))
			Expect(entered[3].Time).To(BeNumerically("~", 2.044, 2e-3))
		})
	})

	Describe("integrator choice", func() {
		It("honours the integrator override", func() {
			tr := run(preset("bouncing_ball"), sim.WithIntegrator(contract.IntegratorRK4))
			ev, ok := tr.Named("first_bounce")
			Expect(ok).To(BeTrue())
			Expect(ev.Time).To(BeNumerically("~", math.Sqrt(2*5/9.8), 1e-3))
			Expect(tr.Diagnostics.Rejected).To(BeZero())
		})

		It("bounds the root finder by the bisection cap", func() {
			exact := math.Sqrt(2 * 5 / 9.8)
			coarse := run(preset("bouncing_ball"), sim.WithBisection(1))
			ev, ok := coarse.Named("first_bounce")
			Expect(ok).To(BeTrue())
			// One halving leaves the root on the post-crossing side of a
			// bracket at most half a step wide.
			Expect(ev.Time).To(BeNumerically(">=", exact-1e-4))
			Expect(ev.Time).To(BeNumerically("<=", exact+0.005+1e-4))

			fine, _ := run(preset("bouncing_ball")).Named("first_bounce")
			Expect(math.Abs(fine.Time - exact)).To(BeNumerically("<=", math.Abs(ev.Time-exact)+1e-4))
		})
	})

	Describe("abort paths", func() {
		It("rejects an unvalidated contract", func() {
			tr, err := sim.New().Run(context.Background(), config.GetPreset("bouncing_ball"))
			Expect(err).To(MatchError(sim.ErrNotValidated))
			Expect(tr).To(BeNil())
		})

		It("stops at the step cap with a partial trace", func() {
			tr := run(preset("bouncing_ball"), sim.WithMaxSteps(10))
			Expect(tr.Status).To(Equal(trace.StatusStepLimit))
			Expect(tr.Failure).NotTo(BeEmpty())
			Expect(tr.Frames).NotTo(BeEmpty())
			Expect(tr.Duration()).To(BeNumerically("<", 3))
			Expect(tr.Metrics["steps"]).To(BeNumerically("==", 10))
		})

		It("fails on a spring too stiff for the minimum step", func() {
			c := normalized(&contract.Contract{
				Name:       "stiff",
				Simulation: contract.Simulation{TEnd: 1, HMin: 1e-3, HMax: 1e-2},
				Bodies: []contract.Body{{
					ID:            "mass",
					Shape:         contract.Shape{Kind: contract.ShapeCircle, Radius: 0.05},
					Mass:          1,
					FixedRotation: true,
					Initial:       contract.InitialState{Position: contract.Vec2{1.5, 0}},
				}},
				Constraints: contract.Constraints{Springs: []contract.Spring{
					{ID: "spring", A: "mass", Stiffness: 1e9, RestLength: 1},
				}},
			})
			tr := run(c)
			Expect(tr.Status).To(Equal(trace.StatusFailed))
			Expect(tr.Failure).NotTo(BeEmpty())
			Expect(len(tr.Frames)).To(BeNumerically(">", 1))
			Expect(tr.Duration()).To(BeNumerically("<", 1))

			rep := acceptance.Evaluate(c, tr)
			Expect(rep.OK).To(BeFalse())
			Expect(rep.Errors).NotTo(BeEmpty())
		})

		It("stops when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			tr, err := sim.New().Run(ctx, preset("bouncing_ball"))
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Status).To(Equal(trace.StatusCanceled))
			Expect(tr.Frames).To(HaveLen(1))
		})
	})
})
