package propagation

import (
	"math"

	"github.com/ReddishWater101/orbitalprop/internal/transform"
)

// Kepler solve bounds. The solve must land within keplerTol radians inside
// keplerMaxIter iterations or the propagation fails.
const (
	keplerMaxIter = 10
	keplerTol     = 1e-8
)

// stateAtMinutes computes the inertial state at tsince minutes from epoch.
func (p *Propagator) stateAtMinutes(tsince float64) (transform.PositionECI, error) {
	c := &p.c

	// Secular gravity and drag.
	xmdf := c.m + c.xmdot*tsince
	omgadf := c.omega + c.omgdot*tsince
	xnoddf := c.raan + c.xnodot*tsince

	omega := omgadf
	xmp := xmdf

	tsq := tsince * tsince
	xnode := xnoddf + c.xnodcf*tsq
	tempa := 1.0 - c.c1*tsince
	tempe := c.bstar * c.c4 * tsince
	templ := c.t2cof * tsq

	if !c.isSimple {
		delomg := c.omgcof * tsince
		delm := 0.0
		if c.eta != 0.0 {
			delm = c.xmcof * (math.Pow(1.0+c.eta*math.Cos(xmdf), 3.0) - c.delmo)
		}
		temp := delomg + delm
		xmp += temp
		omega -= temp

		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa = tempa - c.d2*tsq - c.d3*tcube - c.d4*tfour
		tempe += c.bstar * c.c5 * (math.Sin(xmp) - c.sinmo)
		templ += c.t3cof*tcube + tfour*(c.t4cof+tsince*c.t5cof)
	}

	nm := c.n
	em := c.ecc
	inclm := c.incl
	if p.deep != nil {
		// Lunisolar secular rates plus resonance-compensated mean motion.
		sec := p.deep.secular(tsince, xmp, omega, xnode)
		nm = sec.nm
		em = sec.em
		xmp = sec.mm
		omega = sec.argpm
		xnode = sec.nodem
		inclm = sec.inclm
	}
	return p.finish(tsince, nm, em, xmp, omega, xnode, tempa, tempe, templ, inclm)
}

// finish applies drag corrections, solves Kepler's equation and adds the
// short-period periodics, producing the final position and velocity.
func (p *Propagator) finish(tsince, nm, em, xmp, omega, xnode, tempa, tempe, templ, inclm float64) (transform.PositionECI, error) {
	c := &p.c

	a := math.Pow(xke/nm, 2.0/3.0) * tempa * tempa
	e := em - tempe
	xl := xmp + omega + xnode + nm*templ

	if e <= -0.001 {
		return transform.PositionECI{}, &ModelLimitsError{TsinceMinutes: tsince, Reason: "eccentricity below model floor", Value: e}
	}
	// Clamp rather than divide by a vanishing eccentricity: the periodics
	// below are formulated in the eccentricity vector (axn, ayn), which is
	// stable through e = 0.
	if e < 1.0e-6 {
		e = 1.0e-6
	} else if e > 1.0-1.0e-6 {
		e = 1.0 - 1.0e-6
	}

	beta2 := 1.0 - e*e
	xn := xke / math.Pow(a, 1.5)

	// Orientation constants. For deep-space orbits the inclination drifts, so
	// they are recomputed at the current inclination.
	sinio, cosio := c.sinio, c.cosio
	x3thm1, x1mth2, x7thm1 := c.x3thm1, c.x1mth2, c.x7thm1
	xlcof, aycof := c.xlcof, c.aycof
	if inclm != c.incl {
		sinio = math.Sin(inclm)
		cosio = math.Cos(inclm)
		theta2 := cosio * cosio
		x3thm1 = 3.0*theta2 - 1.0
		x1mth2 = 1.0 - theta2
		x7thm1 = 7.0*theta2 - 1.0
		if math.Abs(cosio+1.0) > 1.5e-12 {
			xlcof = 0.125 * a3ovk2 * sinio * (3.0 + 5.0*cosio) / (1.0 + cosio)
		} else {
			xlcof = 0.125 * a3ovk2 * sinio * (3.0 + 5.0*cosio) / 1.5e-12
		}
		aycof = 0.25 * a3ovk2 * sinio
	}

	// Long-period periodics on the eccentricity vector.
	axn := e * math.Cos(omega)
	tll := 1.0 / (a * beta2)
	xll := tll * xlcof * axn
	aynl := tll * aycof
	xlt := xl + xll
	ayn := e*math.Sin(omega) + aynl

	elsq := axn*axn + ayn*ayn
	if elsq >= 1.0 {
		return transform.PositionECI{}, &ModelLimitsError{TsinceMinutes: tsince, Reason: "perturbed eccentricity squared at or above 1", Value: elsq}
	}

	// Kepler's equation for the eccentric longitude.
	capu := math.Mod(xlt-xnode, twoPi)
	epw := capu

	var sinepw, cosepw, ecose, esine float64
	maxStep := 1.25 * math.Sqrt(elsq)
	residual := math.Inf(1)
	for i := 0; i < keplerMaxIter; i++ {
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		ecose = axn*cosepw + ayn*sinepw
		esine = axn*sinepw - ayn*cosepw
		f := capu - epw + esine
		residual = math.Abs(f)
		if residual < 1.0e-12 {
			break
		}
		delta := f / (1.0 - ecose)
		if i == 0 {
			// First step is clamped; near-parabolic guesses can overshoot.
			if delta > maxStep {
				delta = maxStep
			} else if delta < -maxStep {
				delta = -maxStep
			}
		}
		epw += delta
	}
	if residual > keplerTol {
		return transform.PositionECI{}, &ConvergenceError{TsinceMinutes: tsince, Residual: residual}
	}

	// Short-period preliminary quantities.
	betalsq := 1.0 - elsq
	if betalsq < 0 {
		betalsq = 0
	}
	pl := a * betalsq
	if pl < 0.0 {
		return transform.PositionECI{}, &ModelLimitsError{TsinceMinutes: tsince, Reason: "negative semi-latus rectum", Value: pl}
	}

	r := a * (1.0 - ecose)
	if r == 0.0 {
		r = 1e-9
	}
	invR := 1.0 / r
	rdot := xke * math.Sqrt(a) * esine * invR
	rfdot := xke * math.Sqrt(pl) * invR

	aor := a * invR
	betal := math.Sqrt(betalsq)
	t33 := 0.0
	if 1.0+betal != 0.0 {
		t33 = 1.0 / (1.0 + betal)
	}

	cosu := aor * (cosepw - axn + ayn*esine*t33)
	sinu := aor * (sinepw - ayn - axn*esine*t33)
	u := math.Atan2(sinu, cosu)

	sin2u := 2.0 * sinu * cosu
	cos2u := 2.0*cosu*cosu - 1.0

	// Short-period periodics.
	invPl := 1.0e12
	if pl != 0.0 {
		invPl = 1.0 / pl
	}
	t42 := ck2 * invPl
	t43 := t42 * invPl

	rk := r*(1.0-1.5*t43*betal*x3thm1) + 0.5*t42*x1mth2*cos2u
	if rk < 1.0 {
		return transform.PositionECI{}, &DecayedError{
			TsinceMinutes: tsince,
			RadiusKm:      rk * xkmper,
		}
	}

	uk := u - 0.25*t43*x7thm1*sin2u
	xnodek := xnode + 1.5*t43*cosio*sin2u
	xinck := inclm + 1.5*t43*cosio*sinio*cos2u
	rdotk := rdot - xn*t42*x1mth2*sin2u
	rfdotk := rfdot + xn*t42*(x1mth2*cos2u+1.5*x3thm1)

	// Orientation vectors.
	sinuk := math.Sin(uk)
	cosuk := math.Cos(uk)
	sinik := math.Sin(xinck)
	cosik := math.Cos(xinck)
	sinnok := math.Sin(xnodek)
	cosnok := math.Cos(xnodek)

	xmx := -sinnok * cosik
	xmy := cosnok * cosik

	ux := xmx*sinuk + cosnok*cosuk
	uy := xmy*sinuk + sinnok*cosuk
	uz := sinik * sinuk
	vx := xmx*cosuk - cosnok*sinuk
	vy := xmy*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	// ER and ER/min to km and km/s.
	vf := xkmper / 60.0
	return transform.PositionECI{
		X:  rk * ux * xkmper,
		Y:  rk * uy * xkmper,
		Z:  rk * uz * xkmper,
		VX: (rdotk*ux + rfdotk*vx) * vf,
		VY: (rdotk*uy + rfdotk*vy) * vf,
		VZ: (rdotk*uz + rfdotk*vz) * vf,
	}, nil
}
