package history

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/faein/changhuaweather/internal/models"
)

// Rollup selects the aggregation grain.
type Rollup string

const (
	RollupHour Rollup = "hour"
	RollupDay  Rollup = "day"
)

// AggMode selects how bucket values combine into one point.
type AggMode string

const (
	ModeMean AggMode = "mean"
	ModeSum  AggMode = "sum"
)

// MetricConfig describes one archived metric: its whitespace-separated column
// in the hourly files, how buckets collapse, and its chart color.
type MetricConfig struct {
	Code   string
	Label  string
	Mode   AggMode
	Column int
	Color  string
}

// Metrics lists the archived metrics in display order.
var Metrics = []MetricConfig{
	{Code: "TX01", Label: "氣溫 (°C)", Mode: ModeMean, Column: 3, Color: "#5be4a8"},
	{Code: "PP01", Label: "降雨量 (mm)", Mode: ModeSum, Column: 7, Color: "#4ea3ff"},
	{Code: "RH01", Label: "相對濕度 (%)", Mode: ModeMean, Column: 4, Color: "#fcb97d"},
	{Code: "WD01", Label: "風速 (m/s)", Mode: ModeMean, Column: 5, Color: "#ff7eb6"},
}

// Series is one metric's aggregated points. Data is aligned with the result
// labels; nil marks a bucket with no valid readings.
type Series struct {
	Label string     `json:"label"`
	Data  []*float64 `json:"data"`
	Color string     `json:"color"`
	Mode  AggMode    `json:"mode"`
}

// Result is the merged aggregation across all metrics.
type Result struct {
	Labels []string          `json:"labels"`
	Series map[string]Series `json:"series"`
	Points int               `json:"points"`
}

// Aggregator accumulates metric buckets keyed by time code. Hour keys are the
// full 10-digit code, day keys its first 8 digits.
type Aggregator struct {
	buckets map[string]map[string]*models.TimeBucket
}

func NewAggregator() *Aggregator {
	buckets := make(map[string]map[string]*models.TimeBucket, len(Metrics))
	for _, m := range Metrics {
		buckets[m.Code] = make(map[string]*models.TimeBucket)
	}
	return &Aggregator{buckets: buckets}
}

// AddHourlyFile folds one month of hourly text into the buckets. Comment
// lines and short rows are skipped; sentinel values at or below -9000 never
// enter a bucket. A nil allowed set admits every station.
func (a *Aggregator) AddHourlyFile(text string, rollup Rollup, allowed map[string]bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) <= 8 {
			continue
		}
		stno := parts[0]
		if allowed != nil && !allowed[stno] {
			continue
		}

		rawTime := parts[1]
		key := rawTime
		if rollup == RollupDay && len(rawTime) >= 8 {
			key = rawTime[:8]
		}
		for _, m := range Metrics {
			if m.Column >= len(parts) {
				continue
			}
			value, err := strconv.ParseFloat(parts[m.Column], 64)
			if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= models.SentinelHistorical {
				continue
			}
			a.add(m.Code, key, value)
		}
	}
}

// AddDailyRecords folds precomputed daily rows into the buckets.
func (a *Aggregator) AddDailyRecords(recs []models.DailyRecord, allowed map[string]bool) {
	for _, rec := range recs {
		if allowed != nil && !allowed[rec.StationID] {
			continue
		}
		for _, m := range Metrics {
			value, ok := rec.Values[m.Code]
			if !ok || math.IsNaN(value) || math.IsInf(value, 0) || value <= models.SentinelHistorical {
				continue
			}
			a.add(m.Code, rec.Date, value)
		}
	}
}

func (a *Aggregator) add(code, key string, value float64) {
	bucket := a.buckets[code][key]
	if bucket == nil {
		bucket = &models.TimeBucket{}
		a.buckets[code][key] = bucket
	}
	bucket.Sum += value
	bucket.Count++
}

// Result collapses the buckets into aligned series over the union of all
// time keys. Rainfall sums are averaged across stations when more than one
// station contributed, so county-wide rain reads as a per-station figure
// rather than a station-count multiple.
func (a *Aggregator) Result(rollup Rollup, multiStation bool) Result {
	keySet := make(map[string]struct{})
	for _, m := range a.buckets {
		for k := range m {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = FormatKey(k, rollup)
	}

	points := 0
	series := make(map[string]Series, len(Metrics))
	for _, m := range Metrics {
		buckets := a.buckets[m.Code]
		data := make([]*float64, len(keys))
		label := m.Label
		averaged := m.Mode == ModeSum && multiStation
		if averaged {
			label += "（平均）"
		}
		for i, k := range keys {
			b, ok := buckets[k]
			if !ok || b.Count == 0 {
				continue
			}
			var val float64
			switch {
			case averaged:
				val = b.Mean()
			case m.Mode == ModeSum:
				val = b.Sum
			default:
				val = b.Mean()
			}
			val = math.Round(val*100) / 100
			data[i] = &val
			points += b.Count
		}
		series[m.Code] = Series{Label: label, Data: data, Color: m.Color, Mode: m.Mode}
	}

	return Result{Labels: labels, Series: series, Points: points}
}

// FormatKey renders a 10-digit hour code as yyyy/mm/dd hh:00 or an 8-digit
// day code as yyyy/mm/dd.
func FormatKey(key string, rollup Rollup) string {
	if rollup == RollupHour && len(key) >= 10 {
		return key[:4] + "/" + key[4:6] + "/" + key[6:8] + " " + key[8:10] + ":00"
	}
	if len(key) >= 8 {
		return key[:4] + "/" + key[4:6] + "/" + key[6:8]
	}
	return key
}
