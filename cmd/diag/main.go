// Command diag reads an element-set file, samples a ground track, and runs
// pass analysis against a rectangular area of interest. Useful for eyeballing
// propagation output without standing up the HTTP server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/elements"
	"github.com/ReddishWater101/orbitalprop/internal/geometry"
	"github.com/ReddishWater101/orbitalprop/internal/passes"
	"github.com/ReddishWater101/orbitalprop/internal/propagation"
	"github.com/ReddishWater101/orbitalprop/internal/trajectory"
)

func main() {
	var (
		file     = flag.String("file", "", "path to an element-set file (name line optional)")
		hours    = flag.Float64("hours", 24, "window length in hours from the element-set epoch")
		stepMin  = flag.Float64("step", 1, "sampling step in minutes")
		lonMin   = flag.Float64("lonmin", -11, "AOI west edge, degrees")
		latMin   = flag.Float64("latmin", 35, "AOI south edge, degrees")
		lonMax   = flag.Float64("lonmax", 30, "AOI east edge, degrees")
		latMax   = flag.Float64("latmax", 60, "AOI north edge, degrees")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -file elements.txt [-hours 24] [-step 1] [-lonmin ... -latmax ...]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Println("ERROR reading element-set file:", err)
		os.Exit(1)
	}

	set, err := elements.Parse(string(data))
	if err != nil {
		fmt.Println("ERROR parsing element set:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s (catalog %d), epoch %v, period %.1f min\n",
		set.Name, set.SatelliteNumber, set.Epoch.Format(time.RFC3339), set.PeriodMinutes())

	prop, err := propagation.New(set)
	if err != nil {
		fmt.Println("ERROR initializing propagator:", err)
		os.Exit(1)
	}
	if prop.DeepSpace() {
		fmt.Println("Deep-space orbit: resonance-compensated propagation path")
	}

	w := trajectory.Window{
		Start: set.Epoch,
		End:   set.Epoch.Add(time.Duration(*hours * float64(time.Hour))),
		Step:  time.Duration(*stepMin * float64(time.Minute)),
	}
	tr, err := trajectory.Sample(prop, set.Name, w)
	if err != nil {
		fmt.Println("ERROR sampling trajectory:", err)
		os.Exit(1)
	}
	fmt.Printf("Sampled %d points", len(tr.Points))
	if tr.Truncated {
		fmt.Printf(" (truncated: %v)", tr.TruncatedBy)
	}
	fmt.Println()

	aoi := geometry.AOI{
		Name: "diag-box",
		Outer: geometry.Ring{
			{Lon: *lonMin, Lat: *latMin},
			{Lon: *lonMax, Lat: *latMin},
			{Lon: *lonMax, Lat: *latMax},
			{Lon: *lonMin, Lat: *latMax},
		},
	}

	results, skipped := passes.Analyze(logger, tr, []geometry.AOI{aoi})
	if len(skipped) > 0 {
		fmt.Println("AOI skipped as invalid:", skipped)
		os.Exit(1)
	}

	for _, res := range results {
		fmt.Printf("AOI %s: %d passes, %.0fs total coverage\n",
			res.AOIName, res.TotalPasses, res.TotalCoverageSeconds)
		for j, p := range res.Passes {
			fmt.Printf("  pass %d: start=%v dur=%.0fs peakAlt=%.1fkm\n",
				j, p.Start.Format(time.RFC3339), p.DurationSeconds, p.PeakAltitudeKm)
		}
	}
}
