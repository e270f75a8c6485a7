package propagation

import "math"

// Mathematical and physical constants (WGS-72 gravity model, the conventional
// basis for element-set propagation).
const (
	twoPi         = 2 * math.Pi
	deg2rad       = math.Pi / 180.0
	xkmper        = 6378.135       // Earth equatorial radius used by the model (km)
	ae            = 1.0            // distance unit, Earth radii
	xj2           = 0.001082616    // J2 harmonic
	xj3           = -0.00000253881 // J3 harmonic
	xj4           = -0.00000165597 // J4 harmonic
	minutesPerDay = 1440.0
	// -J3 * ae^3 / CK2 = -2 * J3 / J2, the long-period J3 coupling constant.
	a3ovk2 = -2.0 * xj3 / xj2

	// Orbits with periods at or above this threshold take the deep-space path.
	deepSpacePeriodMinutes = 225.0
)

// Derived gravity values.
var (
	xke    = 60.0 / math.Sqrt(xkmper*xkmper*xkmper/398600.8) // sqrt(GM) in ER^1.5/min
	ck2    = 0.5 * xj2 * ae * ae
	ck4    = -0.375 * xj4 * ae * ae * ae * ae
	qoms2t = math.Pow((120-78)/xkmper, 4) // (q0 - s) ^ 4, ER^4
	s0     = ae * (1.0 + 78.0/xkmper)     // s parameter, ER
)

// Deep-space constants (lunisolar secular rates and geopotential resonance
// coefficients).
const (
	c1ss = 2.9864797e-6 // solar secular coefficient (rad/min)
	c1l  = 4.7968065e-7 // lunar secular coefficient (rad/min)

	zns = 1.19459e-5   // solar mean motion (rad/min)
	znl = 1.5835218e-4 // lunar mean motion (rad/min)

	zsinis = 0.39785416  // sin of the solar inclination on the ecliptic
	zcosis = 0.91744867  // cos of the solar inclination
	zsings = -0.98088458 // sin of the solar argument of perigee
	zcosgs = 0.1945905   // cos of the solar argument of perigee

	// Geopotential resonance coefficients for one-day period orbits.
	q22 = 1.7891679e-6
	q31 = 2.1460748e-6
	q33 = 2.2123015e-7

	// Root coefficients for half-day period orbits.
	root22 = 1.7891679e-6
	root32 = 3.7393792e-7
	root44 = 7.3636953e-9
	root52 = 1.1428639e-7
	root54 = 2.1765803e-9

	// Resonance integrator phase constants.
	fasx2 = 0.13130908
	fasx4 = 2.8843198
	fasx6 = 0.37448087
	g22   = 5.7686396
	g32   = 0.95240898
	g44   = 1.8014998
	g52   = 1.0508330
	g54   = 4.4108898

	rptim = 4.37526908801129966e-3 // Earth rotation rate (rad/min)
	stepp = 720.0                  // integrator step (min)
	step2 = 259200.0               // stepp² / 2
)
