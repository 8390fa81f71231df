package format

import "math"

// MaxStars is the size of every star row.
const MaxStars = 5

// StarCounts splits a rating into full, half and empty icons.
type StarCounts struct {
	Full  int
	Half  int
	Empty int
}

// Stars clamps rating into [0, 5] and returns floor(rating) full icons, one
// half icon when the fractional part is non-zero, and empty icons up to five.
func Stars(rating float64) StarCounts {
	if math.IsNaN(rating) || rating < 0 {
		rating = 0
	}
	if rating > MaxStars {
		rating = MaxStars
	}
	full := int(math.Floor(rating))
	half := 0
	if rating-float64(full) > 0 {
		half = 1
	}
	return StarCounts{Full: full, Half: half, Empty: MaxStars - full - half}
}

// Total is always MaxStars.
func (s StarCounts) Total() int { return s.Full + s.Half + s.Empty }
