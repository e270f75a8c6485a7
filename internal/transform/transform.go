// Package transform provides coordinate frame conversions for satellite state
// vectors: inertial (TEME-class ECI, the frame the propagator works in) to
// Earth-fixed (ECEF), and Earth-fixed Cartesian to geodetic coordinates on the
// WGS-84 ellipsoid.
//
// The ECI→ECEF rotation uses GMST only (no polar motion, no equation of the
// equinoxes), which stays within ~50 m of the full transform. All positions
// are kilometres, velocities km/s.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

// PositionECI is a satellite position and velocity in the inertial frame.
type PositionECI struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// PositionECEF is a satellite position and velocity in the Earth-fixed frame.
type PositionECEF struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// GeodeticPoint is a position relative to the WGS-84 ellipsoid.
type GeodeticPoint struct {
	LatDeg float64 // [-90, 90]
	LonDeg float64 // [-180, 180)
	AltKm  float64 // above the ellipsoid
}
