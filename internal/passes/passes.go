// Package passes turns a sampled trajectory and a set of areas of interest
// into discrete visibility intervals with duration and peak-altitude metrics.
package passes

import (
	"log/slog"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/geometry"
	"github.com/ReddishWater101/orbitalprop/internal/trajectory"
)

// Pass is one contiguous interval during which the ground track stayed inside
// an area of interest. Immutable once emitted.
//
// PeakAltitudeKm is the maximum geodetic altitude observed among the inside
// samples. The request inputs carry no observer position, so altitude stands
// in for a look-angle metric.
type Pass struct {
	Start           time.Time
	End             time.Time
	DurationSeconds float64
	PeakAltitudeKm  float64
}

// AOIResult aggregates the passes over one area of interest.
type AOIResult struct {
	AOIName              string
	TotalPasses          int
	TotalCoverageSeconds float64
	Passes               []Pass
}

// Detect runs the containment state machine over the trajectory for one
// compiled region.
//
// Pass boundaries land on sample instants, without sub-step interpolation: a
// pass opens at the first inside sample and closes at the first outside
// sample after it (or at the final sample when the trajectory ends inside).
// Trajectories with fewer than two samples produce no passes.
func Detect(tr *trajectory.Trajectory, poly *geometry.Polygon) []Pass {
	if len(tr.Points) < 2 {
		return nil
	}

	var out []Pass
	inside := false
	var start time.Time
	var peak float64

	for _, pt := range tr.Points {
		in := poly.Contains(pt.Geodetic.LonDeg, pt.Geodetic.LatDeg)
		switch {
		case in && !inside:
			inside = true
			start = pt.Time
			peak = pt.Geodetic.AltKm
		case in && inside:
			if pt.Geodetic.AltKm > peak {
				peak = pt.Geodetic.AltKm
			}
		case !in && inside:
			inside = false
			out = append(out, closePass(start, pt.Time, peak))
		}
	}
	if inside {
		// Close at the final sample. A pass opened on that same sample
		// would have zero length and is dropped.
		last := tr.Points[len(tr.Points)-1]
		if last.Time.After(start) {
			out = append(out, closePass(start, last.Time, peak))
		}
	}
	return out
}

func closePass(start, end time.Time, peak float64) Pass {
	return Pass{
		Start:           start,
		End:             end,
		DurationSeconds: end.Sub(start).Seconds(),
		PeakAltitudeKm:  peak,
	}
}

// Analyze compiles every AOI and detects passes against each. An AOI whose
// geometry cannot be compiled is skipped with a warning and reported in the
// second return value; it never fails the request.
func Analyze(logger *slog.Logger, tr *trajectory.Trajectory, aois []geometry.AOI) ([]AOIResult, []string) {
	results := make([]AOIResult, 0, len(aois))
	var skipped []string

	for _, aoi := range aois {
		poly, err := geometry.Compile(aoi)
		if err != nil {
			logger.Warn("skipping AOI with invalid geometry",
				"aoi", aoi.Name,
				"satellite", tr.Satellite,
				"error", err)
			skipped = append(skipped, aoi.Name)
			continue
		}

		list := Detect(tr, poly)
		res := AOIResult{
			AOIName:     aoi.Name,
			TotalPasses: len(list),
			Passes:      list,
		}
		for _, p := range list {
			res.TotalCoverageSeconds += p.DurationSeconds
		}
		results = append(results, res)
	}
	return results, skipped
}
