package passes

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/geometry"
	"github.com/ReddishWater101/orbitalprop/internal/trajectory"
	"github.com/ReddishWater101/orbitalprop/internal/transform"
)

var t0 = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

// track builds a one-minute-step trajectory from (lon, lat, altKm) triples.
func track(samples ...[3]float64) *trajectory.Trajectory {
	tr := &trajectory.Trajectory{Satellite: "TESTSAT"}
	for i, s := range samples {
		tr.Points = append(tr.Points, trajectory.Point{
			Time:     t0.Add(time.Duration(i) * time.Minute),
			Geodetic: transform.GeodeticPoint{LonDeg: s[0], LatDeg: s[1], AltKm: s[2]},
		})
	}
	return tr
}

func compileBox(t *testing.T) *geometry.Polygon {
	t.Helper()
	p, err := geometry.Compile(geometry.AOI{
		Name:  "box",
		Outer: geometry.Ring{{Lon: -10, Lat: -10}, {Lon: 10, Lat: -10}, {Lon: 10, Lat: 10}, {Lon: -10, Lat: 10}},
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return p
}

func TestDetectSinglePass(t *testing.T) {
	poly := compileBox(t)
	tr := track(
		[3]float64{-30, 0, 410},
		[3]float64{-20, 0, 412},
		[3]float64{-5, 0, 415}, // enter
		[3]float64{0, 0, 420},
		[3]float64{5, 0, 418},
		[3]float64{20, 0, 411}, // exit
		[3]float64{30, 0, 409},
	)

	list := Detect(tr, poly)
	if len(list) != 1 {
		t.Fatalf("len(passes) = %d, want 1", len(list))
	}
	p := list[0]
	if !p.Start.Equal(t0.Add(2 * time.Minute)) {
		t.Errorf("Start = %s, want first inside sample at +2m", p.Start)
	}
	if !p.End.Equal(t0.Add(5 * time.Minute)) {
		t.Errorf("End = %s, want first outside sample at +5m", p.End)
	}
	if p.DurationSeconds != 180 {
		t.Errorf("DurationSeconds = %v, want 180", p.DurationSeconds)
	}
	if p.PeakAltitudeKm != 420 {
		t.Errorf("PeakAltitudeKm = %v, want 420 (max of inside samples)", p.PeakAltitudeKm)
	}
}

func TestDetectMultiplePasses(t *testing.T) {
	poly := compileBox(t)
	tr := track(
		[3]float64{-5, 0, 400}, // inside from the first sample
		[3]float64{5, 0, 405},
		[3]float64{15, 0, 410}, // exit
		[3]float64{25, 0, 415},
		[3]float64{5, 5, 430}, // re-enter
		[3]float64{-5, 5, 425},
		[3]float64{-15, 5, 420}, // exit
	)

	list := Detect(tr, poly)
	if len(list) != 2 {
		t.Fatalf("len(passes) = %d, want 2", len(list))
	}
	if !list[0].Start.Equal(t0) || !list[0].End.Equal(t0.Add(2*time.Minute)) {
		t.Errorf("first pass = [%s, %s], want [+0m, +2m]", list[0].Start, list[0].End)
	}
	if !list[1].Start.Equal(t0.Add(4*time.Minute)) || !list[1].End.Equal(t0.Add(6*time.Minute)) {
		t.Errorf("second pass = [%s, %s], want [+4m, +6m]", list[1].Start, list[1].End)
	}
	if list[1].PeakAltitudeKm != 430 {
		t.Errorf("second pass peak = %v, want 430", list[1].PeakAltitudeKm)
	}
}

func TestDetectEndsInside(t *testing.T) {
	poly := compileBox(t)
	tr := track(
		[3]float64{-30, 0, 400},
		[3]float64{-5, 0, 405},
		[3]float64{0, 0, 410},
		[3]float64{5, 0, 415},
	)

	list := Detect(tr, poly)
	if len(list) != 1 {
		t.Fatalf("len(passes) = %d, want 1", len(list))
	}
	if !list[0].End.Equal(t0.Add(3 * time.Minute)) {
		t.Errorf("End = %s, want closed at the final sample", list[0].End)
	}
	if list[0].DurationSeconds != 120 {
		t.Errorf("DurationSeconds = %v, want 120", list[0].DurationSeconds)
	}
}

func TestDetectDegenerate(t *testing.T) {
	poly := compileBox(t)

	if got := Detect(track(), poly); got != nil {
		t.Errorf("Detect(empty) = %v, want nil", got)
	}
	if got := Detect(track([3]float64{0, 0, 400}), poly); got != nil {
		t.Errorf("Detect(single sample) = %v, want nil", got)
	}
	// Outside the region the whole time.
	if got := Detect(track([3]float64{50, 0, 400}, [3]float64{60, 0, 400}), poly); len(got) != 0 {
		t.Errorf("Detect(never inside) = %v, want none", got)
	}
}

func TestAnalyzeAggregates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := track(
		[3]float64{-30, 0, 400},
		[3]float64{-5, 0, 405},
		[3]float64{5, 0, 415},
		[3]float64{30, 0, 410},
		[3]float64{0, 5, 425},
		[3]float64{40, 5, 420},
	)
	aois := []geometry.AOI{
		{Name: "box", Outer: geometry.Ring{{Lon: -10, Lat: -10}, {Lon: 10, Lat: -10}, {Lon: 10, Lat: 10}, {Lon: -10, Lat: 10}}},
		{Name: "elsewhere", Outer: geometry.Ring{{Lon: 100, Lat: 40}, {Lon: 110, Lat: 40}, {Lon: 110, Lat: 50}, {Lon: 100, Lat: 50}}},
	}

	results, skipped := Analyze(logger, tr, aois)
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	box := results[0]
	if box.AOIName != "box" || box.TotalPasses != 2 {
		t.Errorf("box result = %+v, want 2 passes", box)
	}
	var sum float64
	for _, p := range box.Passes {
		sum += p.DurationSeconds
	}
	if math.Abs(box.TotalCoverageSeconds-sum) != 0 {
		t.Errorf("TotalCoverageSeconds = %v, want exact sum of durations %v", box.TotalCoverageSeconds, sum)
	}

	if results[1].TotalPasses != 0 || results[1].TotalCoverageSeconds != 0 {
		t.Errorf("elsewhere result = %+v, want no coverage", results[1])
	}
}

func TestAnalyzeSkipsInvalidAOI(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := track(
		[3]float64{-5, 0, 400},
		[3]float64{5, 0, 405},
		[3]float64{30, 0, 410},
	)
	aois := []geometry.AOI{
		{Name: "degenerate", Outer: geometry.Ring{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}}},
		{Name: "box", Outer: geometry.Ring{{Lon: -10, Lat: -10}, {Lon: 10, Lat: -10}, {Lon: 10, Lat: 10}, {Lon: -10, Lat: 10}}},
	}

	results, skipped := Analyze(logger, tr, aois)
	if len(skipped) != 1 || skipped[0] != "degenerate" {
		t.Fatalf("skipped = %v, want [degenerate]", skipped)
	}
	if len(results) != 1 || results[0].AOIName != "box" {
		t.Fatalf("results = %+v, want just the valid box", results)
	}
	if results[0].TotalPasses != 1 {
		t.Errorf("TotalPasses = %d, want 1", results[0].TotalPasses)
	}
}
