package propagation

import "fmt"

// DecayedError is returned when the propagated radius drops below one Earth
// radius: the satellite has re-entered and the model output is meaningless
// from that instant on.
type DecayedError struct {
	TsinceMinutes float64 // minutes from epoch when decay was detected
	RadiusKm      float64 // offending orbital radius
}

func (e *DecayedError) Error() string {
	return fmt.Sprintf("orbit decayed at %.2f min from epoch (radius %.1f km below Earth surface)",
		e.TsinceMinutes, e.RadiusKm)
}

// ConvergenceError is returned when the Kepler-equation solve fails to reach
// the required tolerance within the iteration bound.
type ConvergenceError struct {
	TsinceMinutes float64
	Residual      float64 // radians
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("kepler solve did not converge at %.2f min from epoch (residual %.3e rad)",
		e.TsinceMinutes, e.Residual)
}

// ModelLimitsError is returned when perturbations push the mean elements
// outside the range the analytic model is defined for, typically extreme
// drag or eccentricity.
type ModelLimitsError struct {
	TsinceMinutes float64
	Reason        string
	Value         float64
}

func (e *ModelLimitsError) Error() string {
	return fmt.Sprintf("model limits exceeded at %.2f min from epoch: %s (value %.6e)",
		e.TsinceMinutes, e.Reason, e.Value)
}
