package propagation

import (
	"math"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/transform"
)

// deepCoeffs carries the deep-space constants: secular rates of the mean
// elements under lunisolar attraction, and the geopotential resonance
// coefficients for one-day (geosynchronous) and half-day (Molniya-class)
// period orbits. Computed once at construction; the resonance integration in
// secular restarts from epoch on every call so the propagator stays a pure
// function of (elements, t).
type deepCoeffs struct {
	// Lunisolar secular rates, per minute.
	dedt, didt, dmdt, dnodt, domdt float64

	// Resonance terms. irez: 0 none, 1 synchronous, 2 half-day.
	irez             int
	del1, del2, del3 float64
	d2201, d2211     float64
	d3210, d3222     float64
	d4410, d4422     float64
	d5220, d5232     float64
	d5421, d5433     float64
	xfact, xlamo     float64

	gsto    float64 // Greenwich sidereal angle at epoch (rad)
	no      float64 // recovered mean motion at epoch (rad/min)
	mo      float64
	ecco    float64
	inclo   float64
	argpo   float64
	argpdot float64
}

// deepSecular is the deep-space secular contribution at one instant.
type deepSecular struct {
	nm, em, inclm, mm, argpm, nodem float64
}

// newDeepCoeffs runs the lunisolar geometry setup and the resonance
// initialization for a deep-space element set.
func newDeepCoeffs(c *coeffs, epoch time.Time) *deepCoeffs {
	d := &deepCoeffs{
		gsto:    transform.GMST(epoch),
		no:      c.n,
		mo:      c.m,
		ecco:    c.ecc,
		inclo:   c.incl,
		argpo:   c.omega,
		argpdot: c.omgdot,
	}

	sinim, cosim := c.sinio, c.cosio
	em := c.ecc
	emsq := em * em
	betasq := 1.0 - emsq
	rtemsq := math.Sqrt(betasq)
	sinomm := math.Sin(c.omega)
	cosomm := math.Cos(c.omega)
	snodm := math.Sin(c.raan)
	cnodm := math.Cos(c.raan)
	nm := c.n
	xnoi := 1.0 / nm

	// Lunar orbit geometry from the epoch, days since 1900 January 0.5.
	day := transform.JulianDate(epoch) - 2415020.0
	xnodce := math.Mod(4.5236020-9.2422029e-4*day, twoPi)
	stem := math.Sin(xnodce)
	ctem := math.Cos(xnodce)
	zcosil := 0.91375164 - 0.03568096*ctem
	zsinil := math.Sqrt(1.0 - zcosil*zcosil)
	zsinhl := 0.089683511 * stem / zsinil
	zcoshl := math.Sqrt(1.0 - zsinhl*zsinhl)
	gam := 5.8351514 + 0.0019443680*day
	zx := 0.39785416 * stem / zsinil
	zy := zcoshl*ctem + 0.91744867*zsinhl*stem
	zx = math.Atan2(zx, zy)
	zx = gam + zx - xnodce
	zcosgl := math.Cos(zx)
	zsingl := math.Sin(zx)

	// Two passes: first the sun, then the moon.
	zcosg, zsing := zcosgs, zsings
	zcosi, zsini := zcosis, zsinis
	zcosh, zsinh := cnodm, snodm
	cc := c1ss

	var ss1, ss2, ss3, ss4, ss5 float64
	var sz1, sz3, sz11, sz13, sz21, sz23, sz31, sz33 float64
	var s1, s2, s3, s4, s5 float64
	var z1, z3, z11, z13, z21, z23, z31, z33 float64

	for pass := 1; pass <= 2; pass++ {
		a1 := zcosg*zcosh + zsing*zcosi*zsinh
		a3 := -zsing*zcosh + zcosg*zcosi*zsinh
		a7 := -zcosg*zsinh + zsing*zcosi*zcosh
		a8 := zsing * zsini
		a9 := zsing*zsinh + zcosg*zcosi*zcosh
		a10 := zcosg * zsini
		a2 := cosim*a7 + sinim*a8
		a4 := cosim*a9 + sinim*a10
		a5 := -sinim*a7 + cosim*a8
		a6 := -sinim*a9 + cosim*a10

		x1 := a1*cosomm + a2*sinomm
		x2 := a3*cosomm + a4*sinomm
		x3 := -a1*sinomm + a2*cosomm
		x4 := -a3*sinomm + a4*cosomm
		x5 := a5 * sinomm
		x6 := a6 * sinomm
		x7 := a5 * cosomm
		x8 := a6 * cosomm

		zz31 := 12.0*x1*x1 - 3.0*x3*x3
		zz33 := 12.0*x2*x2 - 3.0*x4*x4
		zz1 := 3.0*(a1*a1+a2*a2) + zz31*emsq
		zz3 := 3.0*(a3*a3+a4*a4) + zz33*emsq
		zz11 := -6.0*a1*a5 + emsq*(-24.0*x1*x7-6.0*x3*x5)
		zz13 := -6.0*a3*a6 + emsq*(-24.0*x2*x8-6.0*x4*x6)
		zz21 := 6.0*a2*a5 + emsq*(24.0*x1*x5-6.0*x3*x7)
		zz23 := 6.0*a4*a6 + emsq*(24.0*x2*x6-6.0*x4*x8)
		zz1 = zz1 + zz1 + betasq*zz31
		zz3 = zz3 + zz3 + betasq*zz33

		s3v := cc * xnoi
		s2v := -0.5 * s3v / rtemsq
		s4v := s3v * rtemsq
		s1v := -15.0 * em * s4v
		s5v := x1*x3 + x2*x4

		if pass == 1 {
			ss1, ss2, ss3, ss4, ss5 = s1v, s2v, s3v, s4v, s5v
			sz1, sz3 = zz1, zz3
			sz11, sz13 = zz11, zz13
			sz21, sz23 = zz21, zz23
			sz31, sz33 = zz31, zz33

			zcosg, zsing = zcosgl, zsingl
			zcosi, zsini = zcosil, zsinil
			zcosh = cnodm*zcoshl + snodm*zsinhl
			zsinh = snodm*zcoshl - cnodm*zsinhl
			cc = c1l
		} else {
			s1, s2, s3, s4, s5 = s1v, s2v, s3v, s4v, s5v
			z1, z3 = zz1, zz3
			z11, z13 = zz11, zz13
			z21, z23 = zz21, zz23
			z31, z33 = zz31, zz33
		}
	}

	// Secular rates: solar contribution.
	ses := ss1 * zns * ss5
	sis := ss2 * zns * (sz11 + sz13)
	sls := -zns * ss3 * (sz1 + sz3 - 14.0 - 6.0*emsq)
	sghs := ss4 * zns * (sz31 + sz33 - 6.0)
	shs := -zns * ss2 * (sz21 + sz23)
	if c.incl < 5.2359877e-2 || c.incl > math.Pi-5.2359877e-2 {
		shs = 0.0
	}
	if sinim != 0.0 {
		shs = shs / sinim
	}
	sgs := sghs - cosim*shs

	// Lunar contribution.
	sel := s1 * znl * s5
	sil := s2 * znl * (z11 + z13)
	sll := -znl * s3 * (z1 + z3 - 14.0 - 6.0*emsq)
	sghl := s4 * znl * (z31 + z33 - 6.0)
	shll := -znl * s2 * (z21 + z23)
	if c.incl < 5.2359877e-2 || c.incl > math.Pi-5.2359877e-2 {
		shll = 0.0
	}
	if sinim != 0.0 {
		shll = shll / sinim
	}
	sgl := sghl - cosim*shll

	d.dedt = ses + sel
	d.didt = sis + sil
	d.dmdt = sls + sll
	d.dnodt = shs + shll
	d.domdt = sgs + sgl

	// Resonance initialization.
	aonv := math.Pow(nm/xke, 2.0/3.0)
	cosisq := cosim * cosim
	eoc := em * emsq
	xpidot := c.omgdot + c.xnodot

	switch {
	case nm > 0.0034906585 && nm < 0.0052359877:
		// Synchronous (one revolution per sidereal day).
		d.irez = 1
		g200 := 1.0 + emsq*(-2.5+0.8125*emsq)
		g310 := 1.0 + 2.0*emsq
		g300 := 1.0 + emsq*(-6.0+6.60937*emsq)
		f220 := 0.75 * (1.0 + cosim) * (1.0 + cosim)
		f311 := 0.9375*sinim*sinim*(1.0+3.0*cosim) - 0.75*(1.0+cosim)
		f330 := 1.0 + cosim
		f330 = 1.875 * f330 * f330 * f330
		d.del1 = 3.0 * nm * nm * aonv * aonv
		d.del2 = 2.0 * d.del1 * f220 * g200 * q22
		d.del3 = 3.0 * d.del1 * f330 * g300 * q33 * aonv
		d.del1 = d.del1 * f311 * g310 * q31 * aonv
		d.xlamo = math.Mod(c.m+c.raan+c.omega-d.gsto, twoPi)
		d.xfact = c.xmdot + xpidot - rptim + d.dmdt + d.domdt + d.dnodt - d.no

	case nm >= 8.26e-3 && nm <= 9.24e-3 && em >= 0.5:
		// Half-day period, high eccentricity (Molniya-class) resonance.
		d.irez = 2
		g201 := -0.306 - (em-0.64)*0.440
		var g211, g310, g322, g410, g422, g520 float64
		if em <= 0.65 {
			g211 = 3.616 - 13.2470*em + 16.2900*emsq
			g310 = -19.302 + 117.3900*em - 228.4190*emsq + 156.5910*eoc
			g322 = -18.9068 + 109.7927*em - 214.6334*emsq + 146.5816*eoc
			g410 = -41.122 + 242.6940*em - 471.0940*emsq + 313.9530*eoc
			g422 = -146.407 + 841.8800*em - 1629.014*emsq + 1083.4350*eoc
			g520 = -532.114 + 3017.977*em - 5740.032*emsq + 3708.2760*eoc
		} else {
			g211 = -72.099 + 331.819*em - 508.738*emsq + 266.724*eoc
			g310 = -346.844 + 1582.851*em - 2415.925*emsq + 1246.113*eoc
			g322 = -342.585 + 1554.908*em - 2366.899*emsq + 1215.972*eoc
			g410 = -1052.797 + 4758.686*em - 7193.992*emsq + 3651.957*eoc
			g422 = -3581.690 + 16178.110*em - 24462.770*emsq + 12422.520*eoc
			if em > 0.715 {
				g520 = -5149.66 + 29936.92*em - 54087.36*emsq + 31324.56*eoc
			} else {
				g520 = 1464.74 - 4664.75*em + 3763.64*emsq
			}
		}
		var g533, g521, g532 float64
		if em < 0.7 {
			g533 = -919.22770 + 4988.6100*em - 9064.7700*emsq + 5542.21*eoc
			g521 = -822.71072 + 4568.6173*em - 8491.4146*emsq + 4640.7466*eoc
			g532 = -853.66600 + 4690.2500*em - 8624.7700*emsq + 5341.4*eoc
		} else {
			g533 = -37995.780 + 161616.52*em - 229838.20*emsq + 109377.94*eoc
			g521 = -51752.104 + 218913.95*em - 309468.16*emsq + 146349.42*eoc
			g532 = -40023.880 + 170470.89*em - 242699.48*emsq + 115605.82*eoc
		}

		sini2 := sinim * sinim
		f220 := 0.75 * (1.0 + 2.0*cosim + cosisq)
		f221 := 1.5 * sini2
		f321 := 1.875 * sinim * (1.0 - 2.0*cosim - 3.0*cosisq)
		f322 := -1.875 * sinim * (1.0 + 2.0*cosim - 3.0*cosisq)
		f441 := 35.0 * sini2 * f220
		f442 := 39.3750 * sini2 * sini2
		f522 := 9.84375 * sinim * (sini2*(1.0-2.0*cosim-5.0*cosisq) +
			0.33333333*(-2.0+4.0*cosim+6.0*cosisq))
		f523 := sinim * (4.92187512*sini2*(-2.0-4.0*cosim+10.0*cosisq) +
			6.56250012*(1.0+2.0*cosim-3.0*cosisq))
		f542 := 29.53125 * sinim * (2.0 - 8.0*cosim + cosisq*(-12.0+8.0*cosim+10.0*cosisq))
		f543 := 29.53125 * sinim * (-2.0 - 8.0*cosim + cosisq*(12.0+8.0*cosim-10.0*cosisq))

		xno2 := nm * nm
		ainv2 := aonv * aonv
		temp1 := 3.0 * xno2 * ainv2
		temp := temp1 * root22
		d.d2201 = temp * f220 * g201
		d.d2211 = temp * f221 * g211
		temp1 = temp1 * aonv
		temp = temp1 * root32
		d.d3210 = temp * f321 * g310
		d.d3222 = temp * f322 * g322
		temp1 = temp1 * aonv
		temp = 2.0 * temp1 * root44
		d.d4410 = temp * f441 * g410
		d.d4422 = temp * f442 * g422
		temp1 = temp1 * aonv
		temp = temp1 * root52
		d.d5220 = temp * f522 * g520
		d.d5232 = temp * f523 * g532
		temp = 2.0 * temp1 * root54
		d.d5421 = temp * f542 * g521
		d.d5433 = temp * f543 * g533
		d.xlamo = math.Mod(c.m+2.0*c.raan-2.0*d.gsto, twoPi)
		d.xfact = c.xmdot + d.dmdt + 2.0*(c.xnodot+d.dnodt-rptim) - d.no
	}

	return d
}

// secular applies the deep-space secular rates to the J2-secular mean
// elements at tsince minutes from epoch and, for resonant orbits, replaces
// the mean motion and mean anomaly with the numerically integrated values.
func (d *deepCoeffs) secular(tsince, mm, argpm, nodem float64) deepSecular {
	out := deepSecular{
		nm:    d.no,
		em:    d.ecco + d.dedt*tsince,
		inclm: d.inclo + d.didt*tsince,
		mm:    mm + d.dmdt*tsince,
		argpm: argpm + d.domdt*tsince,
		nodem: nodem + d.dnodt*tsince,
	}
	if out.em < 1e-6 {
		out.em = 1e-6
	}
	if d.irez == 0 {
		return out
	}

	// Resonance integration, Euler-Maclaurin with a fixed 720-minute step,
	// restarted from epoch so the call has no carried state.
	theta := math.Mod(d.gsto+tsince*rptim, twoPi)

	atime := 0.0
	xli := d.xlamo
	xni := d.no
	delt := stepp
	if tsince < 0 {
		delt = -stepp
	}

	xndt, xldot, xnddt := d.dot(xli, xni, atime)
	for math.Abs(tsince-atime) >= stepp {
		xli += xldot*delt + xndt*step2
		xni += xndt*delt + xnddt*step2
		atime += delt
		xndt, xldot, xnddt = d.dot(xli, xni, atime)
	}

	ft := tsince - atime
	out.nm = xni + xndt*ft + xnddt*ft*ft*0.5
	xl := xli + xldot*ft + xndt*ft*ft*0.5

	if d.irez == 1 {
		out.mm = xl - out.nodem - out.argpm + theta
	} else {
		out.mm = xl - 2.0*out.nodem + 2.0*theta
	}
	return out
}

// dot evaluates the resonance disturbing rates at integrator state (xli, xni).
func (d *deepCoeffs) dot(xli, xni, atime float64) (xndt, xldot, xnddt float64) {
	if d.irez == 1 {
		xndt = d.del1*math.Sin(xli-fasx2) +
			d.del2*math.Sin(2.0*(xli-fasx4)) +
			d.del3*math.Sin(3.0*(xli-fasx6))
		xldot = xni + d.xfact
		xnddt = d.del1*math.Cos(xli-fasx2) +
			2.0*d.del2*math.Cos(2.0*(xli-fasx4)) +
			3.0*d.del3*math.Cos(3.0*(xli-fasx6))
		xnddt *= xldot
		return xndt, xldot, xnddt
	}

	xomi := d.argpo + d.argpdot*atime
	x2omi := 2.0 * xomi
	x2li := 2.0 * xli
	xndt = d.d2201*math.Sin(x2omi+xli-g22) + d.d2211*math.Sin(xli-g22) +
		d.d3210*math.Sin(xomi+xli-g32) + d.d3222*math.Sin(-xomi+xli-g32) +
		d.d4410*math.Sin(x2omi+x2li-g44) + d.d4422*math.Sin(x2li-g44) +
		d.d5220*math.Sin(xomi+xli-g52) + d.d5232*math.Sin(-xomi+xli-g52) +
		d.d5421*math.Sin(xomi+x2li-g54) + d.d5433*math.Sin(-xomi+x2li-g54)
	xldot = xni + d.xfact
	xnddt = d.d2201*math.Cos(x2omi+xli-g22) + d.d2211*math.Cos(xli-g22) +
		d.d3210*math.Cos(xomi+xli-g32) + d.d3222*math.Cos(-xomi+xli-g32) +
		d.d5220*math.Cos(xomi+xli-g52) + d.d5232*math.Cos(-xomi+xli-g52) +
		2.0*(d.d4410*math.Cos(x2omi+x2li-g44)+d.d4422*math.Cos(x2li-g44)+
			d.d5421*math.Cos(xomi+x2li-g54)+d.d5433*math.Cos(-xomi+x2li-g54))
	xnddt *= xldot
	return xndt, xldot, xnddt
}
