// Package elements parses two-line element sets into validated orbital elements.
package elements

import "time"

// Set is a parsed, validated element set. Immutable once returned by Parse.
type Set struct {
	Name string

	// Line 1 fields.
	SatelliteNumber int
	Classification  rune
	International   string // international designator
	Epoch           time.Time
	MeanMotionDot   float64 // rev/day², already halved per TLE convention
	MeanMotionDot2  float64 // rev/day³, already divided by six
	Bstar           float64 // drag term, 1/earth radii
	ElementNumber   int

	// Line 2 fields.
	Inclination      float64 // degrees
	RightAscension   float64 // degrees
	Eccentricity     float64
	ArgOfPerigee     float64 // degrees
	MeanAnomaly      float64 // degrees
	MeanMotion       float64 // rev/day
	RevolutionNumber int

	// Raw lines, kept for fingerprinting and diagnostics.
	Line1 string
	Line2 string
}

// Fingerprint identifies the element data independent of the optional name line.
func (s *Set) Fingerprint() string {
	return s.Line1 + "\n" + s.Line2
}

// PeriodMinutes returns the orbital period derived from the mean motion.
func (s *Set) PeriodMinutes() float64 {
	return minutesPerDay / s.MeanMotion
}

const minutesPerDay = 1440.0
