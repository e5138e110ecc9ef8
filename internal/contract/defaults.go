package contract

// DefaultTolerances are applied to any zero-valued tolerance field.
func DefaultTolerances() Tolerances {
	return Tolerances{
		EventTime:        1e-3,
		EnergyDriftRel:   1e-3,
		MomentumDriftRel: 1e-3,
		Slop:             1e-3,
		VelocityEpsilon:  1e-4,
		RestingVelocity:  0.05,
		IntegratorTol:    1e-8,
		RootTimeTol:      1e-9,
		R2Min:            0.95,
		RatioRel:         0.02,
	}
}

func DefaultScoring() Scoring {
	return Scoring{Validity: 0.5, Consistency: 0.25, Stability: 0.25}
}

func DefaultSimulation() Simulation {
	return Simulation{
		Integrator: IntegratorRK45,
		Dt:         1e-3,
		HMin:       1e-9,
		HMax:       1e-2,
		MaxSteps:   500000,
	}
}

// FillDefaults replaces zero-valued tolerances, scoring weights and
// simulation settings with their defaults. It reports the fields it filled.
func (c *Contract) FillDefaults() []string {
	var filled []string
	fill := func(name string, dst *float64, def float64) {
		if *dst == 0 {
			*dst = def
			filled = append(filled, name)
		}
	}

	dt := DefaultTolerances()
	fill("tolerances.event_time", &c.Tolerances.EventTime, dt.EventTime)
	fill("tolerances.energy_drift_rel", &c.Tolerances.EnergyDriftRel, dt.EnergyDriftRel)
	fill("tolerances.momentum_drift_rel", &c.Tolerances.MomentumDriftRel, dt.MomentumDriftRel)
	fill("tolerances.slop", &c.Tolerances.Slop, dt.Slop)
	fill("tolerances.velocity_epsilon", &c.Tolerances.VelocityEpsilon, dt.VelocityEpsilon)
	fill("tolerances.resting_velocity", &c.Tolerances.RestingVelocity, dt.RestingVelocity)
	fill("tolerances.integrator_tol", &c.Tolerances.IntegratorTol, dt.IntegratorTol)
	fill("tolerances.root_time_tol", &c.Tolerances.RootTimeTol, dt.RootTimeTol)
	fill("tolerances.r2_min", &c.Tolerances.R2Min, dt.R2Min)
	fill("tolerances.ratio_rel", &c.Tolerances.RatioRel, dt.RatioRel)

	if c.Scoring == (Scoring{}) {
		c.Scoring = DefaultScoring()
		filled = append(filled, "scoring")
	}

	ds := DefaultSimulation()
	if c.Simulation.Integrator == "" {
		c.Simulation.Integrator = ds.Integrator
		filled = append(filled, "simulation.integrator")
	}
	fill("simulation.dt", &c.Simulation.Dt, ds.Dt)
	fill("simulation.h_min", &c.Simulation.HMin, ds.HMin)
	fill("simulation.h_max", &c.Simulation.HMax, ds.HMax)
	if c.Simulation.MaxSteps == 0 {
		c.Simulation.MaxSteps = ds.MaxSteps
		filled = append(filled, "simulation.max_steps")
	}
	if c.World.Coordinates == "" {
		c.World.Coordinates = CoordinatesYUp
	}
	return filled
}
