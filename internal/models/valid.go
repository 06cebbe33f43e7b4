package models

import "math"

// SentinelLive is the cutoff for live readings; values at or below it are
// missing-data codes (-99, -999.1, ...), never real observations.
const SentinelLive = -90

// SentinelHistorical is the cutoff for the historical text format, which uses
// -9991/-9996/-9997/-9998 style codes.
const SentinelHistorical = -9000

// ValidObservation reports whether v is a usable reading: present, finite and
// above the live sentinel threshold.
func ValidObservation(v *float64) bool {
	if v == nil {
		return false
	}
	return ValidValue(*v)
}

// ValidValue is ValidObservation for an already-dereferenced value.
func ValidValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > SentinelLive
}

// Float returns a pointer to v, for building optional fields.
func Float(v float64) *float64 { return &v }
