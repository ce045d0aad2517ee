package feedback

import (
	"math"
	"testing"

	"github.com/robalobadob/countryguess/internal/countries"
)

func at(lat, lon float64) *countries.Point { return &countries.Point{Lat: lat, Lon: lon} }

var (
	germany = countries.Country{Name: "Germany", Population: 83_000_000, Area: 357_022, Continent: "Europe", Position: at(51, 9), UNMember: true}
	poland  = countries.Country{Name: "Poland", Population: 37_000_000, Area: 312_696, Continent: "Europe", Position: at(52, 19), UNMember: true}
)

func TestComputeGermanyPoland(t *testing.T) {
	fb := Compute(germany, poland)
	if fb.Population != MagnitudeLower {
		t.Fatalf("population = %s, want LOWER", fb.Population)
	}
	if fb.Area != MagnitudeSimilar {
		t.Fatalf("area = %s, want SIMILAR", fb.Area)
	}
	if fb.Continent != ContinentMatch {
		t.Fatalf("continent = %s, want MATCH", fb.Continent)
	}
	if fb.Location.Latitude != LatitudeSame || fb.Location.Longitude != LongitudeEast {
		t.Fatalf("location = %+v, want SAME_LATITUDE/EAST", fb.Location)
	}
	if !fb.Distance.Known || math.Abs(fb.Distance.Kilometers-700.50) > 0.5 {
		t.Fatalf("distance = %+v, want ~700.5 km", fb.Distance)
	}
	if !fb.Valid() {
		t.Fatal("feedback not valid")
	}
}

func TestComputeReverseDirection(t *testing.T) {
	fb := Compute(poland, germany)
	if fb.Population != MagnitudeGreater || fb.Location.Longitude != LongitudeWest {
		t.Fatalf("reverse = %+v, want GREATER population and WEST", fb)
	}
	if d := Compute(germany, poland).Distance.Kilometers; d != fb.Distance.Kilometers {
		t.Fatalf("distance not symmetric: %v vs %v", d, fb.Distance.Kilometers)
	}
}

func TestComputeIdentical(t *testing.T) {
	fb := Compute(germany, germany)
	want := Feedback{
		Population: MagnitudeSimilar,
		Area:       MagnitudeSimilar,
		Continent:  ContinentMatch,
		Location:   Location{Latitude: LatitudeSame, Longitude: LongitudeSame},
		Distance:   Distance{Kilometers: 0, Known: true},
	}
	if fb != want {
		t.Fatalf("Compute(x, x) = %+v, want %+v", fb, want)
	}
}

func TestPopulationThreshold(t *testing.T) {
	cases := []struct {
		guess, target int64
		want          Magnitude
	}{
		{10_000_000, 10_999_999, MagnitudeSimilar},
		{10_999_999, 10_000_000, MagnitudeSimilar},
		{10_000_000, 11_000_000, MagnitudeGreater},
		{11_000_000, 10_000_000, MagnitudeLower},
		{0, 0, MagnitudeSimilar},
	}
	for _, tc := range cases {
		if got := comparePopulation(tc.guess, tc.target); got != tc.want {
			t.Fatalf("comparePopulation(%d, %d) = %s, want %s", tc.guess, tc.target, got, tc.want)
		}
	}
}

func TestAreaThreshold(t *testing.T) {
	cases := []struct {
		guess, target float64
		want          Magnitude
	}{
		{100_000, 149_999, MagnitudeSimilar},
		{100_000, 150_000, MagnitudeGreater},
		{150_000, 100_000, MagnitudeLower},
		{0.44, 0.44, MagnitudeSimilar},
	}
	for _, tc := range cases {
		if got := compareArea(tc.guess, tc.target); got != tc.want {
			t.Fatalf("compareArea(%v, %v) = %s, want %s", tc.guess, tc.target, got, tc.want)
		}
	}
}

func TestDirectionTolerance(t *testing.T) {
	cases := []struct {
		name   string
		g, tgt *countries.Point
		lat    LatitudeHint
		lon    LongitudeHint
	}{
		{"within", at(10, 10), at(12, 8), LatitudeSame, LongitudeSame},
		{"north-east", at(10, 10), at(12.5, 12.5), LatitudeNorth, LongitudeEast},
		{"south-west", at(10, 10), at(-10, -10), LatitudeSouth, LongitudeWest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loc := compareLocation(tc.g, tc.tgt)
			if loc.Latitude != tc.lat || loc.Longitude != tc.lon {
				t.Fatalf("location = %+v, want %s/%s", loc, tc.lat, tc.lon)
			}
		})
	}
}

func TestMissingCoordinates(t *testing.T) {
	heard := countries.Country{Name: "Heard Island and McDonald Islands", Area: 412, Continent: "Antarctica"}
	for _, fb := range []Feedback{Compute(heard, germany), Compute(germany, heard)} {
		if fb.Location.Latitude != LatitudeIndeterminate || fb.Location.Longitude != LongitudeIndeterminate {
			t.Fatalf("location = %+v, want INDETERMINATE", fb.Location)
		}
		if fb.Distance.Known || fb.Distance.Kilometers != 0 {
			t.Fatalf("distance = %+v, want unknown", fb.Distance)
		}
		if fb.Continent != ContinentDifferent || !fb.Valid() {
			t.Fatalf("feedback = %+v", fb)
		}
	}
}

func TestHaversine(t *testing.T) {
	cases := []struct {
		a, b countries.Point
		want float64
	}{
		{countries.Point{Lat: 52.52, Lon: 13.405}, countries.Point{Lat: 48.8566, Lon: 2.3522}, 877.46},
		{countries.Point{Lat: 0, Lon: 0}, countries.Point{Lat: 0, Lon: 180}, 20015.09},
		{countries.Point{Lat: 90, Lon: 0}, countries.Point{Lat: -90, Lon: 0}, 20015.09},
	}
	for _, tc := range cases {
		got := Haversine(tc.a, tc.b)
		if math.Abs(got-tc.want) > 0.05 {
			t.Fatalf("Haversine(%v, %v) = %.3f, want %.2f", tc.a, tc.b, got, tc.want)
		}
		if rev := Haversine(tc.b, tc.a); rev != got {
			t.Fatalf("Haversine not symmetric: %v vs %v", got, rev)
		}
	}
	p := countries.Point{Lat: -33.9, Lon: 18.4}
	if d := Haversine(p, p); d != 0 {
		t.Fatalf("Haversine(p, p) = %v, want 0", d)
	}
}

func TestValid(t *testing.T) {
	if (Feedback{}).Valid() {
		t.Fatal("zero Feedback reported valid")
	}
	if Magnitude("BIGGER").Valid() || LatitudeHint("UP").Valid() {
		t.Fatal("unknown hint reported valid")
	}
}
