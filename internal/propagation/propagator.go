// Package propagation implements the analytic orbit propagator: secular drag
// and J2-class gravitational perturbations, long- and short-period periodics,
// and a deep-space extension with lunisolar secular rates and geopotential
// resonance compensation for orbits with periods of 225 minutes and above.
//
// A Propagator is immutable after New and may be used from any number of
// goroutines concurrently; every StateAt call is a pure function of the
// element set and the target instant.
package propagation

import (
	"math"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/elements"
	"github.com/ReddishWater101/orbitalprop/internal/transform"
)

// StateVector is the propagator output at a single instant: inertial position
// (km) and velocity (km/s).
type StateVector struct {
	Time time.Time
	ECI  transform.PositionECI
}

// coeffs holds the mean elements at epoch together with every derived
// constant the per-call update needs. Computed once in New.
type coeffs struct {
	// Mean elements at epoch (radians, rad/min, Earth radii).
	ecc   float64
	incl  float64
	omega float64 // argument of perigee
	raan  float64
	m     float64 // mean anomaly
	n     float64 // recovered (un-Kozai) mean motion, rad/min
	a     float64 // recovered semi-major axis, ER
	bstar float64

	cosio, sinio           float64
	x3thm1, x1mth2, x7thm1 float64
	xlcof, aycof           float64
	eta                    float64

	c1, c4, c5             float64
	xmdot, omgdot, xnodot  float64
	xnodcf, t2cof          float64
	omgcof, xmcof          float64
	delmo, sinmo           float64
	d2, d3, d4             float64
	t3cof, t4cof, t5cof    float64

	// isSimple drops the higher-order drag terms (low perigee or deep space).
	isSimple bool
}

// Propagator propagates a single element set. Immutable after New.
type Propagator struct {
	set   *elements.Set
	epoch time.Time
	c     coeffs
	deep  *deepCoeffs // nil for near-Earth orbits
}

// New precomputes the propagation constants for an element set. The
// near-Earth versus deep-space branch is decided here, from the recovered
// orbital period alone.
func New(set *elements.Set) (*Propagator, error) {
	p := &Propagator{set: set, epoch: set.Epoch}

	c := &p.c
	c.ecc = set.Eccentricity
	c.incl = set.Inclination * deg2rad
	c.omega = set.ArgOfPerigee * deg2rad
	c.raan = set.RightAscension * deg2rad
	c.m = set.MeanAnomaly * deg2rad
	c.n = set.MeanMotion * twoPi / minutesPerDay
	c.bstar = set.Bstar

	// Recover the un-Kozai mean motion and semi-major axis.
	a1 := math.Pow(xke/c.n, 2.0/3.0)
	c.cosio = math.Cos(c.incl)
	c.sinio = math.Sin(c.incl)
	theta2 := c.cosio * c.cosio
	c.x3thm1 = 3.0*theta2 - 1.0
	c.x1mth2 = 1.0 - theta2
	c.x7thm1 = 7.0*theta2 - 1.0

	eosq := c.ecc * c.ecc
	betao2 := 1.0 - eosq
	betao := math.Sqrt(betao2)

	tval := (1.5 * ck2) * c.x3thm1 / (betao * betao2)
	del1 := tval / (a1 * a1)
	a0 := a1 * (1.0 - del1*(1.0/3.0+del1*(1.0+del1*134.0/81.0)))
	del0 := tval / (a0 * a0)
	c.n = c.n / (1.0 + del0)
	c.a = a0 / (1.0 - del0)

	// Perigee height drives the drag model shape.
	perigeeKm := (c.a*(1.0-c.ecc) - ae) * xkmper
	c.isSimple = perigeeKm < 220.0

	s4 := s0
	qoms24 := qoms2t
	if perigeeKm < 156.0 {
		sv := perigeeKm - 78.0
		if perigeeKm < 98.0 {
			sv = 20.0
		}
		qoms24 = math.Pow((120.0-sv)*ae/xkmper, 4.0)
		s4 = sv/xkmper + ae
	}

	pinvsq := 1.0 / (c.a * c.a * betao2 * betao2)
	tsi := 1.0 / (c.a - s4)
	c.eta = c.a * c.ecc * tsi
	etasq := c.eta * c.eta
	eeta := c.ecc * c.eta
	psisq := math.Abs(1.0 - etasq)
	if psisq == 0 {
		psisq = 1e-12
	}
	coef := qoms24 * math.Pow(tsi, 4.0)
	coef1 := coef / math.Pow(psisq, 3.5)

	c2 := coef1 * c.n * (c.a*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.75*ck2*tsi/psisq*c.x3thm1*(8.0+3.0*etasq*(8.0+etasq)))
	c.c1 = c.bstar * c2

	c.c4 = 2.0 * c.n * coef1 * c.a * betao2 *
		(c.eta*(2.0+0.5*etasq) + c.ecc*(0.5+2.0*etasq) -
			2.0*ck2*tsi/(c.a*psisq)*
				(-3.0*c.x3thm1*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
					0.75*c.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*c.omega)))

	theta4 := theta2 * theta2
	temp1 := 3.0 * ck2 * pinvsq * c.n
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * c.n

	c.xmdot = c.n + 0.5*temp1*betao*c.x3thm1 +
		0.0625*temp2*betao*(13.0-78.0*theta2+137.0*theta4)

	x1m5th := 1.0 - 5.0*theta2
	c.omgdot = -0.5*temp1*x1m5th +
		0.0625*temp2*(7.0-114.0*theta2+395.0*theta4) +
		temp3*(3.0-36.0*theta2+49.0*theta4)

	xhdot1 := -temp1 * c.cosio
	c.xnodot = xhdot1 + (0.5*temp2*(4.0-19.0*theta2)+
		2.0*temp3*(3.0-7.0*theta2))*c.cosio

	c.xnodcf = 3.5 * betao2 * xhdot1 * c.c1
	c.t2cof = 1.5 * c.c1

	// Long-period periodic coefficients. The guarded denominator keeps the
	// retrograde-equatorial case (inclination near 180°) finite.
	if math.Abs(c.cosio+1.0) > 1.5e-12 {
		c.xlcof = 0.125 * a3ovk2 * c.sinio * (3.0 + 5.0*c.cosio) / (1.0 + c.cosio)
	} else {
		c.xlcof = 0.125 * a3ovk2 * c.sinio * (3.0 + 5.0*c.cosio) / 1.5e-12
	}
	c.aycof = 0.25 * a3ovk2 * c.sinio

	var c3 float64
	if c.ecc > 1.0e-4 {
		c3 = coef * tsi * a3ovk2 * c.n * ae * c.sinio / c.ecc
	}
	c.c5 = 2.0 * coef1 * c.a * betao2 * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)
	c.omgcof = c.bstar * c3 * math.Cos(c.omega)

	c.xmcof = 0.0
	if c.ecc > 1.0e-4 {
		c.xmcof = -2.0 / 3.0 * coef * c.bstar * ae / eeta
	}
	c.delmo = math.Pow(1.0+c.eta*math.Cos(c.m), 3.0)
	c.sinmo = math.Sin(c.m)

	// Deep-space orbits: period threshold on the recovered mean motion.
	if twoPi/c.n >= deepSpacePeriodMinutes {
		c.isSimple = true
		p.deep = newDeepCoeffs(c, set.Epoch)
	}

	if !c.isSimple {
		c1sq := c.c1 * c.c1
		c.d2 = 4.0 * c.a * tsi * c1sq
		dtm := c.d2 * tsi * c.c1 / 3.0
		c.d3 = (17.0*c.a + s4) * dtm
		c.d4 = 0.5 * dtm * c.a * tsi * (221.0*c.a + 31.0*s4) * c.c1
		c.t3cof = c.d2 + 2.0*c1sq
		c.t4cof = 0.25 * (3.0*c.d3 + c.c1*(12.0*c.d2+10.0*c1sq))
		c.t5cof = 0.2 * (3.0*c.d4 + 12.0*c.c1*c.d3 + 6.0*c.d2*c.d2 +
			15.0*c1sq*(2.0*c.d2+c1sq))
	}

	return p, nil
}

// DeepSpace reports whether this element set takes the deep-space
// (resonance-compensated) path. Decided once at construction.
func (p *Propagator) DeepSpace() bool {
	return p.deep != nil
}

// Epoch returns the element-set epoch.
func (p *Propagator) Epoch() time.Time {
	return p.epoch
}

// StateAt propagates the element set to the given instant.
func (p *Propagator) StateAt(t time.Time) (StateVector, error) {
	tsince := t.Sub(p.epoch).Minutes()
	eci, err := p.stateAtMinutes(tsince)
	if err != nil {
		return StateVector{}, err
	}
	return StateVector{Time: t, ECI: eci}, nil
}
