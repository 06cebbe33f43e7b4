package ingest

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/derive"
	"github.com/faein/changhuaweather/internal/models"
	"github.com/faein/changhuaweather/internal/region"
)

// Station name keywords identifying the NCUE campus station, probed in order.
var campusStationKeywords = []string{"彰師大", "彰化師大", "國立彰化師範大學", "NCUE"}

// NormalizeObservation builds a model observation from one weather-station
// record. Gust and rainfall carry fallback chains because different station
// generations report them under different element names.
func NormalizeObservation(station gjson.Result) models.StationObservation {
	geo := StationGeo(station)
	obs := models.StationObservation{
		StationID:   StationID(station),
		StationName: StationName(station),
		County:      region.Canonical(firstExisting(geo, "CountyName", "countyName").String()),
		Township:    firstExisting(geo, "TownName", "townName").String(),
		Weather:     ReadElement(station, "Weather").String(),
	}

	if lat, lon, ok := StationCoords(geo); ok {
		obs.Latitude = lat
		obs.Longitude = lon
		obs.HasCoords = true
	}

	if raw := ObsTime(station); raw != "" {
		if t, err := parseObsTime(raw); err == nil {
			obs.ObservedAt = &t
		}
	}

	obs.Temperature = Numeric(ReadElement(station, "AirTemperature"))
	obs.Humidity = derive.NormalizeHumidity(Numeric(ReadElement(station, "RelativeHumidity")))
	obs.WindSpeed = Numeric(ReadElement(station, "WindSpeed"))
	obs.WindDir = Numeric(ReadElement(station, "WindDirection"))
	obs.Gust = firstNumeric(
		ReadNested(station, "GustInfo.PeakGustSpeed"),
		ReadNested(station, "Max10MinAverage.WindSpeed"),
		ReadElement(station, "Max10MinAverage"),
		ReadElement(station, "Max10MinAverageWindSpeed"),
		ReadElement(station, "Max10MinWindSpeed"),
		ReadElement(station, "GustWindSpeed"),
		ReadElement(station, "PeakGustSpeed"),
	)
	obs.GustDir = firstNumeric(
		ReadNested(station, "GustInfo.Occurred_at.WindDirection"),
		ReadElement(station, "WindDirection"),
	)
	obs.RainNow = firstNumeric(
		ReadElement(station, "NowPrecipitation"),
		ReadElement(station, "Precipitation"),
		ReadElement(station, "HourlyPrecipitation"),
		ReadElement(station, "DailyRainfall"),
	)
	return obs
}

// NormalizeRainObservation builds a model observation from one rain-station
// record of the accumulation dataset.
func NormalizeRainObservation(station gjson.Result) models.StationObservation {
	geo := StationGeo(station)
	obs := models.StationObservation{
		StationID:   StationID(station),
		StationName: StationName(station),
		County:      region.Canonical(firstExisting(geo, "CountyName", "countyName").String()),
		Township:    firstExisting(geo, "TownName", "townName").String(),
	}

	if lat, lon, ok := StationCoords(geo); ok {
		obs.Latitude = lat
		obs.Longitude = lon
		obs.HasCoords = true
	}

	if raw := ObsTime(station); raw != "" {
		if t, err := parseObsTime(raw); err == nil {
			obs.ObservedAt = &t
		}
	}

	obs.RainNow = Numeric(ReadRain(station, "Now"))
	obs.Rain1hr = Numeric(ReadRain(station, "Past1hr"))
	obs.Rain3hr = Numeric(ReadRain(station, "Past3hr"))
	obs.Rain24hr = Numeric(ReadRain(station, "Past24hr"))
	return obs
}

// PickCampusStation selects the NCUE campus station from a dataset payload,
// falling back to the first station when no keyword matches.
func PickCampusStation(payload gjson.Result) (gjson.Result, bool) {
	stations := ExtractStations(payload)
	if len(stations) == 0 {
		return gjson.Result{}, false
	}
	for _, s := range stations {
		name := StationName(s)
		if name == "" {
			continue
		}
		for _, k := range campusStationKeywords {
			if strings.Contains(name, k) {
				return s, true
			}
		}
	}
	return stations[0], true
}

// obsTimeLayouts lists the timestamp layouts seen in station payloads.
var obsTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

func parseObsTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range obsTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
