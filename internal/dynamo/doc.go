// Package dynamo provides the numeric primitives shared by the integrators
// and the simulation engine.
//
//   - [State]: flat vector holding every body's generalized coordinates,
//     velocities and the dissipation accumulator
//   - [System]: first-order ODE interface (dX/dt = f(X, t))
//   - [Integrator] and [AdaptiveIntegrator]: numerical steppers
//   - [IntegrationFailure]: fatal integration error with step context
//
// # Determinism
//
// Nothing in this package or its implementations may depend on wall-clock
// time, randomness or goroutine scheduling. Identical inputs must produce
// bit-identical outputs.
package dynamo
