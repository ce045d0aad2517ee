// internal/feedback/types.go
//
// Hint enumerations for the feedback engine.
// Each dimension is a closed set of string constants; Valid reports whether a
// value belongs to its set. Hints always describe the target relative to the
// guess ("GREATER" = the target is greater than the guess).

package feedback

// Magnitude compares a numeric attribute (population, area).
type Magnitude string

const (
	MagnitudeSimilar Magnitude = "SIMILAR" // within the dimension threshold
	MagnitudeGreater Magnitude = "GREATER" // target is greater than guess
	MagnitudeLower   Magnitude = "LOWER"   // target is lower than guess
)

func (m Magnitude) Valid() bool {
	switch m {
	case MagnitudeSimilar, MagnitudeGreater, MagnitudeLower:
		return true
	}
	return false
}

// ContinentHint compares continent labels.
type ContinentHint string

const (
	ContinentMatch     ContinentHint = "MATCH"
	ContinentDifferent ContinentHint = "DIFFERENT"
)

func (c ContinentHint) Valid() bool {
	return c == ContinentMatch || c == ContinentDifferent
}

// LatitudeHint says where the target lies north/south of the guess.
type LatitudeHint string

const (
	LatitudeSame          LatitudeHint = "SAME_LATITUDE"
	LatitudeNorth         LatitudeHint = "NORTH"
	LatitudeSouth         LatitudeHint = "SOUTH"
	LatitudeIndeterminate LatitudeHint = "INDETERMINATE" // a side has no coordinates
)

func (l LatitudeHint) Valid() bool {
	switch l {
	case LatitudeSame, LatitudeNorth, LatitudeSouth, LatitudeIndeterminate:
		return true
	}
	return false
}

// LongitudeHint says where the target lies east/west of the guess.
type LongitudeHint string

const (
	LongitudeSame          LongitudeHint = "SAME_LONGITUDE"
	LongitudeEast          LongitudeHint = "EAST"
	LongitudeWest          LongitudeHint = "WEST"
	LongitudeIndeterminate LongitudeHint = "INDETERMINATE"
)

func (l LongitudeHint) Valid() bool {
	switch l {
	case LongitudeSame, LongitudeEast, LongitudeWest, LongitudeIndeterminate:
		return true
	}
	return false
}

// Location pairs the two directional hints.
type Location struct {
	Latitude  LatitudeHint  `json:"latitudeHint"`
	Longitude LongitudeHint `json:"longitudeHint"`
}

// Distance is the great-circle distance between guess and target.
// Known is false when either side lacks coordinates; Kilometers is then 0.
type Distance struct {
	Kilometers float64 `json:"km"`
	Known      bool    `json:"known"`
}

// Feedback is the five-dimensional hint for one guess.
type Feedback struct {
	Population Magnitude     `json:"population"`
	Area       Magnitude     `json:"area"`
	Continent  ContinentHint `json:"continent"`
	Location   Location      `json:"location"`
	Distance   Distance      `json:"distance"`
}

// Valid reports whether every dimension holds a recognized value.
func (f Feedback) Valid() bool {
	return f.Population.Valid() && f.Area.Valid() && f.Continent.Valid() &&
		f.Location.Latitude.Valid() && f.Location.Longitude.Valid()
}
