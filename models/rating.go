package models

import "math"

// RatingSummary is the derived rating display for a product: the numeric
// average plus its five-position star rendering.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Full    int     `json:"full"`
	Half    int     `json:"half"`
	Empty   int     `json:"empty"`
}

// Summarize computes the rating display from the embedded reviews:
// floor(average) full stars, one half star when the fractional part is at
// least 0.5, the remainder empty, always five positions total.
func Summarize(reviews []Review) RatingSummary {
	if len(reviews) == 0 {
		return RatingSummary{Empty: 5}
	}

	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	avg := float64(sum) / float64(len(reviews))

	full := int(math.Floor(avg))
	half := 0
	if avg-float64(full) >= 0.5 {
		half = 1
	}

	return RatingSummary{
		Average: avg,
		Count:   len(reviews),
		Full:    full,
		Half:    half,
		Empty:   5 - full - half,
	}
}
