// internal/feedback/engine.go
//
// Feedback engine: turns a (guess, target) pair into a hint set.
// Pure and deterministic; no I/O.

package feedback

import (
	"math"

	"github.com/robalobadob/countryguess/internal/countries"
)

const (
	// PopulationThreshold: absolute differences below this are SIMILAR.
	PopulationThreshold = 1_000_000
	// AreaThreshold (km²): absolute differences below this are SIMILAR.
	AreaThreshold = 50_000
	// DirectionTolerance (degrees): offsets up to this are "same" latitude/longitude.
	DirectionTolerance = 2.0
	// EarthRadiusKm is the mean radius used by Haversine.
	EarthRadiusKm = 6371.0
)

// Compute compares guess against target on every dimension.
// Identical records yield SIMILAR, SIMILAR, MATCH, SAME_*, distance 0.
func Compute(guess, target countries.Country) Feedback {
	return Feedback{
		Population: comparePopulation(guess.Population, target.Population),
		Area:       compareArea(guess.Area, target.Area),
		Continent:  compareContinent(guess.Continent, target.Continent),
		Location:   compareLocation(guess.Position, target.Position),
		Distance:   compareDistance(guess.Position, target.Position),
	}
}

func comparePopulation(guess, target int64) Magnitude {
	diff := target - guess
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < PopulationThreshold:
		return MagnitudeSimilar
	case guess < target:
		return MagnitudeGreater
	default:
		return MagnitudeLower
	}
}

func compareArea(guess, target float64) Magnitude {
	switch {
	case math.Abs(target-guess) < AreaThreshold:
		return MagnitudeSimilar
	case guess < target:
		return MagnitudeGreater
	default:
		return MagnitudeLower
	}
}

func compareContinent(guess, target string) ContinentHint {
	if guess == target {
		return ContinentMatch
	}
	return ContinentDifferent
}

func compareLocation(guess, target *countries.Point) Location {
	if guess == nil || target == nil {
		return Location{Latitude: LatitudeIndeterminate, Longitude: LongitudeIndeterminate}
	}

	var loc Location
	switch d := target.Lat - guess.Lat; {
	case math.Abs(d) <= DirectionTolerance:
		loc.Latitude = LatitudeSame
	case d > 0:
		loc.Latitude = LatitudeNorth
	default:
		loc.Latitude = LatitudeSouth
	}
	switch d := target.Lon - guess.Lon; {
	case math.Abs(d) <= DirectionTolerance:
		loc.Longitude = LongitudeSame
	case d > 0:
		loc.Longitude = LongitudeEast
	default:
		loc.Longitude = LongitudeWest
	}
	return loc
}

func compareDistance(guess, target *countries.Point) Distance {
	if guess == nil || target == nil {
		return Distance{}
	}
	return Distance{Kilometers: Haversine(*guess, *target), Known: true}
}

// Haversine returns the great-circle distance between a and b in kilometers.
// It is symmetric and exactly 0 for identical points.
func Haversine(a, b countries.Point) float64 {
	if a == b {
		return 0
	}
	// Sort the endpoints so the float evaluation order, and therefore the
	// result, does not depend on argument order.
	if a.Lat > b.Lat || (a.Lat == b.Lat && a.Lon > b.Lon) {
		a, b = b, a
	}
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h)) // rounding near antipodes
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}
