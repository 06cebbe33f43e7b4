// Package ranking orders station observations by a selected metric and
// prepares the per-township best map and colorbar configuration behind the
// live ranking view.
package ranking

import (
	"sort"
	"strings"

	"github.com/faein/changhuaweather/internal/derive"
	"github.com/faein/changhuaweather/internal/models"
	"github.com/faein/changhuaweather/internal/region"
)

// ColorScale names the palette family a metric renders with.
type ColorScale string

const (
	ScaleTemp     ColorScale = "temp"
	ScaleWind     ColorScale = "wind"
	ScaleHumidity ColorScale = "humidity"
	ScaleRain     ColorScale = "rain"
	ScaleTHI      ColorScale = "thi"
)

// Metric is one rankable quantity. Value extracts it from a normalized
// observation; Direction is set for wind-like metrics. RainGauges selects the
// rain-accumulation dataset instead of the weather-station dataset.
type Metric struct {
	Key        string
	Label      string
	Unit       string
	Scale      ColorScale
	RainGauges bool
	Value      func(models.StationObservation) *float64
	Direction  func(models.StationObservation) *float64
}

// metricOrder preserves the display order of the registry.
var metricOrder = []string{"temp", "apparent", "humidity", "wind", "gust", "rain", "rain3hr", "rain24hr", "thi"}

var metricRegistry = map[string]Metric{
	"temp": {
		Key: "temp", Label: "即時氣溫", Unit: "°C", Scale: ScaleTemp,
		Value: func(o models.StationObservation) *float64 { return o.Temperature },
	},
	"apparent": {
		Key: "apparent", Label: "體感溫度", Unit: "°C", Scale: ScaleTemp,
		Value: func(o models.StationObservation) *float64 {
			return derive.ApparentTemperature(o.Temperature, o.Humidity, o.WindSpeed)
		},
	},
	"humidity": {
		Key: "humidity", Label: "相對濕度", Unit: "%", Scale: ScaleHumidity,
		Value: func(o models.StationObservation) *float64 { return o.Humidity },
	},
	"wind": {
		Key: "wind", Label: "平均風速", Unit: "m/s", Scale: ScaleWind,
		Value:     func(o models.StationObservation) *float64 { return o.WindSpeed },
		Direction: func(o models.StationObservation) *float64 { return o.WindDir },
	},
	"gust": {
		Key: "gust", Label: "最大陣風", Unit: "m/s", Scale: ScaleWind,
		Value:     func(o models.StationObservation) *float64 { return o.Gust },
		Direction: func(o models.StationObservation) *float64 { return o.GustDir },
	},
	"rain": {
		Key: "rain", Label: "1小時雨量", Unit: "mm", Scale: ScaleRain, RainGauges: true,
		Value: func(o models.StationObservation) *float64 {
			if o.Rain1hr != nil {
				return o.Rain1hr
			}
			return o.RainNow
		},
	},
	"rain3hr": {
		Key: "rain3hr", Label: "3小時雨量", Unit: "mm", Scale: ScaleRain, RainGauges: true,
		Value: func(o models.StationObservation) *float64 { return o.Rain3hr },
	},
	"rain24hr": {
		Key: "rain24hr", Label: "24小時雨量", Unit: "mm", Scale: ScaleRain, RainGauges: true,
		Value: func(o models.StationObservation) *float64 { return o.Rain24hr },
	},
	"thi": {
		Key: "thi", Label: "溫濕度指數 (THI)", Unit: "", Scale: ScaleTHI,
		Value: func(o models.StationObservation) *float64 {
			return derive.THI(o.Temperature, o.Humidity)
		},
	},
}

// Lookup resolves a metric key, defaulting to temperature for unknown keys.
func Lookup(key string) Metric {
	if m, ok := metricRegistry[key]; ok {
		return m
	}
	return metricRegistry["temp"]
}

// Keys returns the metric keys in display order.
func Keys() []string {
	return append([]string(nil), metricOrder...)
}

// Build ranks the county's stations by the metric, descending. Stations
// outside the county, without coordinates, or without a valid reading are
// skipped. The sort is stable so stations with equal values keep payload
// order.
func Build(stations []models.StationObservation, metricKey, county string) []models.RankingEntry {
	metric := Lookup(metricKey)
	want := region.Canonical(county)

	var entries []models.RankingEntry
	for _, st := range stations {
		if region.Canonical(st.County) != want {
			continue
		}
		if !st.HasCoords {
			continue
		}
		value := metric.Value(st)
		if !models.ValidObservation(value) {
			continue
		}
		entry := models.RankingEntry{
			StationID:   st.StationID,
			Name:        st.StationName,
			Township:    st.Township,
			Lat:         st.Latitude,
			Lon:         st.Longitude,
			Value:       *value,
			Temperature: st.Temperature,
			Humidity:    st.Humidity,
		}
		if metric.Direction != nil {
			entry.Direction = metric.Direction(st)
		}
		if st.ObservedAt != nil {
			entry.ObsTime = st.ObservedAt.Format("2006/01/02 15:04:05")
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	return entries
}

// TownshipBest maps each township to its highest-valued entry. Township names
// are stripped of the county prefix before use as keys.
func TownshipBest(entries []models.RankingEntry, county string) map[string]models.RankingEntry {
	best := make(map[string]models.RankingEntry)
	for _, e := range entries {
		town := TownKey(e.Township, county)
		if town == "" {
			continue
		}
		if cur, ok := best[town]; !ok || e.Value > cur.Value {
			best[town] = e
		}
	}
	return best
}

// TownKey strips the county prefix from a township name.
func TownKey(town, county string) string {
	return strings.TrimSpace(strings.Replace(town, county, "", 1))
}

// EntryColor returns the marker color for one ranked value under the
// metric's palette.
func EntryColor(metric Metric, value float64) string {
	switch metric.Scale {
	case ScaleTemp:
		return derive.GradientColor(value, 6, 36, derive.TempPalette)
	case ScaleWind:
		return derive.WindColor(value)
	case ScaleHumidity:
		return derive.GradientColor(value, 30, 100, derive.HumidityPalette)
	case ScaleRain:
		return derive.RainColor(rainLevels(metric.Key), value)
	case ScaleTHI:
		return derive.GradientColor(value, 40, 90, derive.THIPalette)
	}
	return "#94a3b8"
}

func rainLevels(metricKey string) []float64 {
	switch metricKey {
	case "rain24hr":
		return derive.RainLevels24hr
	case "rain3hr":
		return derive.RainLevels3hr
	default:
		return derive.RainLevels1hr
	}
}
