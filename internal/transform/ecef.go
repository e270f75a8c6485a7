package transform

import (
	"math"
	"time"
)

// ECIToECEF rotates an inertial position/velocity into the Earth-fixed frame
// at the given UTC time.
func ECIToECEF(eci PositionECI, t time.Time) PositionECEF {
	return ECIToECEFWithGMST(eci, GMST(t))
}

// ECIToECEFWithGMST rotates ECI to ECEF using a precomputed GMST angle in
// radians. Useful when transforming many satellites at the same instant.
//
// Position: r_ECEF = R3(θ) * r_ECI
// Velocity: v_ECEF = R3(θ) * v_ECI - ω × r_ECEF
//
// where R3(θ) is a rotation about the Z-axis by GMST and ω = [0, 0, ω_earth].
func ECIToECEFWithGMST(eci PositionECI, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := eci.X*cosG + eci.Y*sinG
	y := -eci.X*sinG + eci.Y*cosG
	z := eci.Z

	vx := eci.VX*cosG + eci.VY*sinG
	vy := -eci.VX*sinG + eci.VY*cosG
	vz := eci.VZ

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	return PositionECEF{
		X: x, Y: y, Z: z,
		VX: vx + OmegaEarth*y,
		VY: vy - OmegaEarth*x,
		VZ: vz,
	}
}
