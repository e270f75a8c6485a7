// Package geometry represents polygonal areas of interest on the globe and
// answers point-in-region containment queries. Regions are an outer ring with
// optional interior holes; rings may cross the antimeridian.
package geometry

import (
	"fmt"
	"math"
)

// Vertex is a ring corner in degrees.
type Vertex struct {
	Lon float64
	Lat float64
}

// Ring is an ordered vertex sequence. Closure is implicit: the edge from the
// last vertex back to the first is always present, and an explicit repeat of
// the first vertex at the end is accepted and dropped.
type Ring []Vertex

// AOI is a named polygonal area of interest. The first ring is the outer
// boundary; Holes are subtracted from it.
type AOI struct {
	Name  string
	Outer Ring
	Holes []Ring
}

// InvalidGeometryError reports an AOI that cannot form a polygon.
type InvalidGeometryError struct {
	Name   string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry for AOI %q: %s", e.Name, e.Reason)
}

// Polygon is a compiled AOI ready for containment queries. Compile
// canonicalizes antimeridian-crossing rings once so Contains is a plain
// even-odd test.
type Polygon struct {
	name    string
	outer   Ring
	holes   []Ring
	shifted bool // ring longitudes moved to the [0, 360) branch
}

// Compile validates an AOI and prepares it for containment queries.
//
// A ring whose longitude span exceeds 180° is taken to cross the antimeridian
// rather than wrap the long way around; its western vertices are shifted by
// +360° into a consistent branch. Query points get the same shift.
func Compile(a AOI) (*Polygon, error) {
	outer, err := normalizeRing(a.Name, "outer", a.Outer)
	if err != nil {
		return nil, err
	}
	p := &Polygon{name: a.Name, outer: outer}
	for i, h := range a.Holes {
		hole, err := normalizeRing(a.Name, fmt.Sprintf("hole %d", i), h)
		if err != nil {
			return nil, err
		}
		p.holes = append(p.holes, hole)
	}

	if lonSpan(p.outer) > 180.0 {
		p.shifted = true
		shiftRing(p.outer)
		for _, h := range p.holes {
			shiftRing(h)
		}
	}
	return p, nil
}

// Name returns the AOI name the polygon was compiled from.
func (p *Polygon) Name() string { return p.name }

// Contains reports whether the point lies inside the region: inside the
// outer ring and not strictly inside any hole. A point exactly on any ring
// edge counts as contained, so adjacent samples on a shared border cannot
// flap between states.
func (p *Polygon) Contains(lonDeg, latDeg float64) bool {
	lon := lonDeg
	if p.shifted && lon < 0 {
		lon += 360.0
	}

	if onRing(p.outer, lon, latDeg) {
		return true
	}
	if !ringContains(p.outer, lon, latDeg) {
		return false
	}
	for _, h := range p.holes {
		if onRing(h, lon, latDeg) {
			return true
		}
		if ringContains(h, lon, latDeg) {
			return false
		}
	}
	return true
}

func normalizeRing(aoi, which string, r Ring) (Ring, error) {
	out := make(Ring, len(r))
	copy(out, r)
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil, &InvalidGeometryError{Name: aoi, Reason: fmt.Sprintf("%s ring has %d distinct vertices, need at least 3", which, len(out))}
	}
	for _, v := range out {
		if math.IsNaN(v.Lon) || math.IsNaN(v.Lat) || math.IsInf(v.Lon, 0) || math.IsInf(v.Lat, 0) {
			return nil, &InvalidGeometryError{Name: aoi, Reason: fmt.Sprintf("%s ring has a non-finite vertex", which)}
		}
		if v.Lat < -90.0 || v.Lat > 90.0 {
			return nil, &InvalidGeometryError{Name: aoi, Reason: fmt.Sprintf("%s ring latitude %v outside [-90, 90]", which, v.Lat)}
		}
		if v.Lon < -180.0 || v.Lon > 180.0 {
			return nil, &InvalidGeometryError{Name: aoi, Reason: fmt.Sprintf("%s ring longitude %v outside [-180, 180]", which, v.Lon)}
		}
	}
	return out, nil
}

func lonSpan(r Ring) float64 {
	min, max := r[0].Lon, r[0].Lon
	for _, v := range r[1:] {
		if v.Lon < min {
			min = v.Lon
		}
		if v.Lon > max {
			max = v.Lon
		}
	}
	return max - min
}

func shiftRing(r Ring) {
	for i := range r {
		if r[i].Lon < 0 {
			r[i].Lon += 360.0
		}
	}
}

// ringContains is the even-odd ray cast: a horizontal ray from the point
// toward +lon, counting edge crossings.
func ringContains(r Ring, lon, lat float64) bool {
	in := false
	j := len(r) - 1
	for i := 0; i < len(r); i++ {
		vi, vj := r[i], r[j]
		if (vi.Lat > lat) != (vj.Lat > lat) {
			cross := vj.Lon + (lat-vj.Lat)/(vi.Lat-vj.Lat)*(vi.Lon-vj.Lon)
			if lon < cross {
				in = !in
			}
		}
		j = i
	}
	return in
}

const edgeEps = 1e-9

// onRing reports whether the point lies on any edge of the ring, within a
// small tolerance in degrees.
func onRing(r Ring, lon, lat float64) bool {
	j := len(r) - 1
	for i := 0; i < len(r); i++ {
		if onSegment(r[j], r[i], lon, lat) {
			return true
		}
		j = i
	}
	return false
}

func onSegment(a, b Vertex, lon, lat float64) bool {
	minLon, maxLon := math.Min(a.Lon, b.Lon), math.Max(a.Lon, b.Lon)
	minLat, maxLat := math.Min(a.Lat, b.Lat), math.Max(a.Lat, b.Lat)
	if lon < minLon-edgeEps || lon > maxLon+edgeEps ||
		lat < minLat-edgeEps || lat > maxLat+edgeEps {
		return false
	}
	cross := (b.Lon-a.Lon)*(lat-a.Lat) - (b.Lat-a.Lat)*(lon-a.Lon)
	return math.Abs(cross) <= edgeEps
}
