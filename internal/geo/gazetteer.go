// Package geo provides the coordinate→timezone base lookup used by the Time
// Resolver (SPEC_FULL §4.C step 1b/1c): a built-in gazetteer of named
// cities, indexed spatially with tidwall/rtree and ranked by great-circle
// distance via paulmach/orb, falling back to a coarse longitude-band zone.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/tidwall/rtree"
)

// City is one gazetteer entry: a named place with a known IANA zone.
type City struct {
	Name   string
	Lat    float64
	Lon    float64
	ZoneID string
}

// Gazetteer answers nearest-known-city queries over a fixed built-in set.
type Gazetteer struct {
	cities []City
	index  rtree.RTreeG[int] // indexes into cities, keyed by [lon,lat] point
	byName map[string]int
}

// NewGazetteer builds a spatial index over the built-in city list.
func NewGazetteer() *Gazetteer {
	g := &Gazetteer{cities: builtinCities(), byName: map[string]int{}}
	for i, c := range g.cities {
		pt := [2]float64{c.Lon, c.Lat}
		g.index.Insert(pt, pt, i)
		for _, v := range GenerateNameVariants(c.Name) {
			g.byName[v] = i
		}
	}
	return g
}

// FindByName looks up a city by its client-supplied display name, using the
// same normalization the gazetteer was indexed with. The time resolver does
// not call it: zone resolution uses coordinates only, and place.name is not
// consulted.
func (g *Gazetteer) FindByName(name string) (City, bool) {
	for _, v := range GenerateNameVariants(name) {
		if i, ok := g.byName[v]; ok {
			return g.cities[i], true
		}
	}
	return City{}, false
}

// degreesPerKmLat is an approximation used to size the initial bounding-box
// query; the exact distance ranking is done afterward with geo.Distance.
const degreesPerKmLat = 1.0 / 111.0

// Nearest returns the closest gazetteer city to (lat, lon) within radiusKm,
// or ok=false if none fall within range (§4.C step 1b).
func (g *Gazetteer) Nearest(lat, lon, radiusKm float64) (city City, distanceKm float64, ok bool) {
	// Latitude-degree size is constant; longitude-degree size shrinks with
	// cos(lat), so widen the box in longitude near the poles.
	dLat := radiusKm * degreesPerKmLat
	cosLat := math.Cos(lat * math.Pi / 180.0)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLon := dLat / cosLat

	min := [2]float64{lon - dLon, lat - dLat}
	max := [2]float64{lon + dLon, lat + dLat}

	here := orb.Point{lon, lat}
	bestIdx := -1
	bestDist := math.MaxFloat64

	g.index.Search(min, max, func(_, _ [2]float64, idx int) bool {
		c := g.cities[idx]
		d := geo.Distance(here, orb.Point{c.Lon, c.Lat}) / 1000.0
		if d < bestDist {
			bestDist = d
			bestIdx = idx
		}
		return true // keep scanning candidates in the box
	})

	if bestIdx < 0 || bestDist > radiusKm {
		return City{}, 0, false
	}
	return g.cities[bestIdx], bestDist, true
}

// CoarseZone maps a longitude to one of the 24 UTC-offset "Etc/GMT" zones
// (§4.C step 1c). Note the POSIX/IANA "Etc/GMT" sign convention is
// reversed from common usage: Etc/GMT-5 is 5 hours *ahead* of UTC.
func CoarseZone(lon float64) string {
	band := int(math.Round(lon / 15.0))
	if band > 12 {
		band = 12
	}
	if band < -12 {
		band = -12
	}
	if band == 0 {
		return "Etc/GMT"
	}
	if band > 0 {
		return "Etc/GMT-" + itoa(band)
	}
	return "Etc/GMT+" + itoa(-band)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
