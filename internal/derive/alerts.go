package derive

import (
	"fmt"

	"github.com/faein/changhuaweather/internal/models"
)

// Threshold constants for locally-derived alerts. These mirror the dashboard's
// campus advisory rules rather than any official warning criteria.
const (
	highTempThreshold    = 34
	lowTempThreshold     = 12
	lowHumidityThreshold = 50
	windLevelThreshold   = 4
	gustLevelThreshold   = 6
	heavyRainThreshold   = 30
	localAlertArea       = "彰師大"
	localAlertTitle      = "即時提醒"
	localAlertSeverity   = "提醒"
)

// Snapshot is the latest-observation state threshold alerts are derived from.
type Snapshot struct {
	Temperature *float64
	Apparent    *float64
	Humidity    *float64
	WindSpeed   *float64
	Gust        *float64
	Rain        *float64
	Weather     string
	ObsTime     string
}

// ThresholdAlerts derives locally-flagged alert records from the latest
// observation and air-quality snapshot. Either input may be nil.
func ThresholdAlerts(obs *Snapshot, aqi *models.AQIRecord) []models.AlertRecord {
	var alerts []models.AlertRecord
	add := func(desc, levelClass string) {
		alerts = append(alerts, models.AlertRecord{
			Area:     localAlertArea,
			Title:    localAlertTitle,
			Desc:     desc,
			Severity: localAlertSeverity,
			Local:    true,
			Level:    levelClass,
		})
	}

	if obs != nil {
		if v := obs.Temperature; models.ValidObservation(v) {
			if *v >= highTempThreshold {
				add("溫度 ≥ 34（目前溫度偏高）", "")
			}
			if *v <= lowTempThreshold {
				add("溫度 ≤ 12（目前溫度偏低）", "")
			}
		}
		if v := obs.Apparent; models.ValidObservation(v) {
			if *v >= highTempThreshold {
				add("體感溫度 ≥ 34（目前體感溫度偏高）", "")
			}
			if *v <= lowTempThreshold {
				add("體感溫度 ≤ 12（目前體感溫度偏低）", "")
			}
		}
		if v := obs.Humidity; models.ValidObservation(v) && *v < lowHumidityThreshold {
			add("濕度 < 50%（目前濕度偏低）", "")
		}
		if level, ok := BeaufortLevel(obs.WindSpeed); ok && level >= windLevelThreshold {
			add("風速 ≥ 4級（目前風速偏大）", "")
		}
		if level, ok := BeaufortLevel(obs.Gust); ok && level >= gustLevelThreshold {
			add("陣風 ≥ 6級（目前陣風偏大）", "")
		}
		if v := obs.Rain; models.ValidObservation(v) && *v >= heavyRainThreshold {
			add("雨量 ≥ 30（今日雨量偏大）", "")
		}
	}

	if aqi != nil {
		if sev, ok := AQISeverity(aqi.AQI); ok {
			add(fmt.Sprintf("空氣品質%s（AQI %s）", sev.Label(), formatConc(aqi.AQI)), sev.Class())
		}
		type pollutantCheck struct {
			pollutant Pollutant
			value     *float64
			name      string
			unit      string
		}
		for _, pc := range []pollutantCheck{
			{PollutantPM25, aqi.PM25, "PM2.5", "μg/m3"},
			{PollutantPM10, aqi.PM10, "PM10", "μg/m3"},
			{PollutantO3, aqi.O3, "O3", "ppb"},
			{PollutantSO2, aqi.SO2, "SO2", "ppb"},
			{PollutantNO2, aqi.NO2, "NO2", "ppb"},
			{PollutantCO, aqi.CO, "CO", "ppm"},
		} {
			if sev, ok := PollutantSeverity(pc.pollutant, pc.value); ok {
				add(fmt.Sprintf("%s %s（%s %s）", pc.name, sev.Label(), formatConc(pc.value), pc.unit), sev.Class())
			}
		}
	}

	return alerts
}

func formatConc(v *float64) string {
	if v == nil {
		return "—"
	}
	if *v == float64(int64(*v)) {
		return fmt.Sprintf("%d", int64(*v))
	}
	return fmt.Sprintf("%.1f", *v)
}
