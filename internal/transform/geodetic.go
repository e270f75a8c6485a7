package transform

import "math"

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378.137              // equatorial radius (km)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// latTolerance bounds the geodetic latitude iteration.
const latTolerance = 1e-9 // radians

// ECEFToGeodetic converts Earth-fixed Cartesian coordinates (km) to geodetic
// latitude/longitude/altitude using the iterative Bowring method, converging
// latitude to within latTolerance. Longitude is wrapped to [-180, 180).
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 15; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		next := math.Atan2(z+wgs84E2*n*sinLat, p)
		done := math.Abs(next-lat) < latTolerance
		lat = next
		if done {
			break
		}
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		// Polar singularity: derive altitude from the z-axis distance.
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: wrapLonDeg(lon * 180.0 / math.Pi),
		AltKm:  alt,
	}
}

// wrapLonDeg normalizes a longitude in degrees to [-180, 180).
func wrapLonDeg(lon float64) float64 {
	lon = math.Mod(lon+180.0, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon - 180.0
}
