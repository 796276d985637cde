package evaluation

import "math"

// NormalizeToFive maps score against maxScore onto 0..5. A nil or NaN score
// stays nil (ungraded); a non-positive max falls back to 5.
func NormalizeToFive(score *float64, maxScore float64) *float64 {
	if score == nil || math.IsNaN(*score) {
		return nil
	}
	if *score <= 0 {
		return floatPtr(0)
	}
	effectiveMax := maxScore
	if effectiveMax <= 0 || math.IsNaN(effectiveMax) {
		effectiveMax = DefaultMaxScore
	}
	return floatPtr(clamp((*score/effectiveMax)*5, 0, 5))
}

// ConvertBetweenScales rescales score from fromMax to toMax through the 0..5
// scale. A missing or non-positive toMax means 5.
func ConvertBetweenScales(score *float64, fromMax, toMax float64) *float64 {
	normalized := NormalizeToFive(score, fromMax)
	if normalized == nil {
		return nil
	}
	target := toMax
	if target <= 0 || math.IsNaN(target) {
		target = DefaultMaxScore
	}
	return floatPtr(*normalized / 5 * target)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floatPtr(v float64) *float64 {
	return &v
}

func maxOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
