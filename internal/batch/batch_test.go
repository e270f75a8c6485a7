package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/elements"
	"github.com/ReddishWater101/orbitalprop/internal/trajectory"
)

const issTLE = `ISS (ZARYA)
1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9996
2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495057`

const decayTLE = `DECAYING OBJECT
1 99999U 25001A   25045.00000000  .00050000  00000+0  10000-2 0  9996
2 99999  51.6000 120.0000 0500000  90.0000 180.0000 16.80000000  1236`

var windowStart = time.Date(2025, 2, 14, 5, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunPreservesOrder(t *testing.T) {
	o := New(3, testLogger())
	sats := []Satellite{
		{ID: "sat-0", ElementsText: issTLE},
		{ID: "sat-1", ElementsText: issTLE},
		{ID: "sat-2", ElementsText: issTLE},
		{ID: "sat-3", ElementsText: issTLE},
		{ID: "sat-4", ElementsText: issTLE},
		{ID: "sat-5", ElementsText: issTLE},
	}
	w := trajectory.Window{Start: windowStart, End: windowStart.Add(30 * time.Minute), Step: time.Minute}

	results, err := o.Run(context.Background(), sats, w)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != len(sats) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(sats))
	}
	for i, r := range results {
		if r.ID != sats[i].ID {
			t.Errorf("results[%d].ID = %q, want %q", i, r.ID, sats[i].ID)
		}
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v, want success", i, r.Err)
			continue
		}
		if got := len(r.Trajectory.Points); got != 31 {
			t.Errorf("results[%d] has %d points, want 31", i, got)
		}
	}
}

// One bad element set and one decaying satellite must not affect siblings.
func TestRunIsolatesFailures(t *testing.T) {
	o := New(2, testLogger())
	sats := []Satellite{
		{ID: "good-a", ElementsText: issTLE},
		{ID: "garbage", ElementsText: "not a TLE at all"},
		{ID: "decaying", ElementsText: decayTLE},
		{ID: "good-b", ElementsText: issTLE},
	}
	w := trajectory.Window{Start: windowStart, End: windowStart.Add(time.Hour), Step: time.Minute}

	results, err := o.Run(context.Background(), sats, w)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if results[0].Err != nil || results[3].Err != nil {
		t.Fatalf("healthy satellites failed: %v, %v", results[0].Err, results[3].Err)
	}

	var malformed *elements.MalformedLineError
	if !errors.As(results[1].Err, &malformed) {
		t.Errorf("results[1].Err = %v, want MalformedLineError", results[1].Err)
	}

	// Decay truncates, it does not fail the unit.
	if results[2].Err != nil {
		t.Fatalf("results[2].Err = %v, want truncated success", results[2].Err)
	}
	if !results[2].Trajectory.Truncated {
		t.Error("results[2].Trajectory.Truncated = false, want true")
	}
	if len(results[2].Trajectory.Points) >= len(results[0].Trajectory.Points) {
		t.Errorf("truncated trajectory has %d points, want fewer than the healthy %d",
			len(results[2].Trajectory.Points), len(results[0].Trajectory.Points))
	}
}

func TestRunRejectsInvalidWindow(t *testing.T) {
	o := New(2, testLogger())
	sats := []Satellite{{ID: "sat", ElementsText: issTLE}}
	w := trajectory.Window{Start: windowStart, End: windowStart, Step: time.Minute}

	_, err := o.Run(context.Background(), sats, w)
	var invalid *trajectory.InvalidWindowError
	if !errors.As(err, &invalid) {
		t.Fatalf("Run() error = %v, want InvalidWindowError", err)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	o := New(4, testLogger())
	w := trajectory.Window{Start: windowStart, End: windowStart.Add(time.Hour), Step: time.Minute}
	results, err := o.Run(context.Background(), nil, w)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestRunCancellation(t *testing.T) {
	o := New(1, testLogger())
	sats := make([]Satellite, 64)
	for i := range sats {
		sats[i] = Satellite{ID: "sat", ElementsText: issTLE}
	}
	w := trajectory.Window{Start: windowStart, End: windowStart.Add(24 * time.Hour), Step: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := o.Run(ctx, sats, w)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	canceled := 0
	for i, r := range results {
		if r.Trajectory == nil && r.Err == nil {
			t.Errorf("results[%d] left unpopulated", i)
		}
		if errors.Is(r.Err, context.Canceled) {
			canceled++
		}
	}
	if canceled == 0 {
		t.Error("no satellite carries the cancellation error")
	}
}
