// Package kinet provides core primitives for particle-kinetics simulation.
//
// The package defines the fundamental interfaces and types shared by the
// engine packages:
//
//   - [State]: vector of per-class concentrations (plus the dissolved-mass
//     component when a system tracks one)
//   - [System]: interface for ODE systems (dC/dt = f(C, t))
//   - [Integrator]: numerical stepper interface
//   - [RunConfig]: per-run integration settings
//
// Error values follow two families: [ConfigError] for invalid static
// configuration, detected before any integration starts, and
// [IntegrationError] for numerical failures during a run.
package kinet
