// Package trajectory drives the propagator and frame transforms across a time
// window at a fixed step, producing an ordered ground-track trajectory.
package trajectory

import (
	"errors"
	"fmt"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/propagation"
	"github.com/ReddishWater101/orbitalprop/internal/transform"
)

// Point is one trajectory sample: the inertial state and its Earth-fixed and
// geodetic projections at the same instant.
type Point struct {
	Time     time.Time
	ECI      transform.PositionECI
	ECEF     transform.PositionECEF
	Geodetic transform.GeodeticPoint
}

// Trajectory is an ordered, strictly time-increasing sample sequence with a
// uniform step. Truncated marks a trajectory cut short by a propagation
// failure mid-window; the points up to the failure remain valid.
type Trajectory struct {
	Satellite string
	Points    []Point
	Truncated bool
	// TruncatedBy holds the propagation error that stopped sampling, nil
	// when the full window was sampled.
	TruncatedBy error
}

// Window is a sampling request: [Start, End] at intervals of Step.
type Window struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// InvalidWindowError reports a window that violates the sampling
// preconditions (end after start, positive step).
type InvalidWindowError struct {
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid time window: %s", e.Reason)
}

// Validate checks the window preconditions.
func (w Window) Validate() error {
	if w.Step <= 0 {
		return &InvalidWindowError{Reason: fmt.Sprintf("step must be positive, got %v", w.Step)}
	}
	if !w.End.After(w.Start) {
		return &InvalidWindowError{Reason: fmt.Sprintf("end %s not after start %s",
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))}
	}
	return nil
}

// PointCount returns the number of samples a full (untruncated) pass over the
// window produces: floor((end-start)/step) + 1. The final sample never
// exceeds End.
func (w Window) PointCount() int {
	return int(w.End.Sub(w.Start)/w.Step) + 1
}

// Sample propagates across the window and projects every state into the
// Earth-fixed and geodetic frames.
//
// A decay (or any other propagation failure) mid-window does not fail the
// request: sampling stops at the last valid point and the partial trajectory
// is returned with Truncated set. Only an invalid window is an error.
func Sample(p *propagation.Propagator, satName string, w Window) (*Trajectory, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	n := w.PointCount()
	tr := &Trajectory{
		Satellite: satName,
		Points:    make([]Point, 0, n),
	}

	for i := 0; i < n; i++ {
		at := w.Start.Add(time.Duration(i) * w.Step)
		st, err := p.StateAt(at)
		if err != nil {
			var decayed *propagation.DecayedError
			var converge *propagation.ConvergenceError
			var limits *propagation.ModelLimitsError
			if errors.As(err, &decayed) || errors.As(err, &converge) || errors.As(err, &limits) {
				tr.Truncated = true
				tr.TruncatedBy = err
				break
			}
			return nil, fmt.Errorf("propagating %s at %s: %w", satName, at.Format(time.RFC3339), err)
		}

		ecef := transform.ECIToECEF(st.ECI, at)
		geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)
		tr.Points = append(tr.Points, Point{
			Time:     at,
			ECI:      st.ECI,
			ECEF:     ecef,
			Geodetic: geo,
		})
	}

	return tr, nil
}
