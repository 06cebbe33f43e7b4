// Package derive computes secondary quantities from normalized observations:
// apparent temperature, heat indices, wind classification, air-quality tiers
// and the color scales the presentation layer uses for choropleths.
package derive

import (
	"math"

	"github.com/faein/changhuaweather/internal/models"
)

// ApparentTemperature computes the Australian apparent temperature from air
// temperature (°C), relative humidity (percent) and wind speed (m/s), rounded
// to one decimal. If any input is missing or non-finite the raw temperature is
// returned unchanged.
func ApparentTemperature(temp, humidity, windSpeed *float64) *float64 {
	if temp == nil {
		return nil
	}
	t := *temp
	if humidity == nil || windSpeed == nil ||
		!isFinite(t) || !isFinite(*humidity) || !isFinite(*windSpeed) {
		return temp
	}
	e := (*humidity / 100) * 6.105 * math.Exp((17.27*t)/(237.7+t))
	at := 1.04*t + 0.2*e - 0.65**windSpeed - 2.7
	return models.Float(math.Round(at*10) / 10)
}

// THI computes the temperature-humidity index. Either input failing the
// valid-observation check yields nil.
func THI(temp, humidity *float64) *float64 {
	if !models.ValidObservation(temp) || !models.ValidObservation(humidity) {
		return nil
	}
	t, h := *temp, *humidity
	thi := (1.8*t + 32) - (0.55-0.0055*h)*(1.8*t-26)
	return models.Float(thi)
}

// NormalizeHumidity applies the fraction rule: readings at or below 1 are
// assumed fractional and scaled to percent. Idempotent: a value already in
// percent form is never rescaled.
func NormalizeHumidity(h *float64) *float64 {
	if h == nil {
		return nil
	}
	if *h <= 1 {
		return models.Float(*h * 100)
	}
	return h
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
