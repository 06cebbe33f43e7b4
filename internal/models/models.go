package models

import "time"

// StationObservation is one normalized reading from one station. Optional
// values are pointers; nil means the upstream reported nothing or an
// unparseable field. Numeric fields may still hold sentinel codes (-99,
// -999.1, ...) exactly as the upstream sent them; consumers gate every read
// through ValidObservation rather than trusting the raw value.
type StationObservation struct {
	StationID   string
	StationName string
	County      string
	Township    string
	Latitude    float64
	Longitude   float64
	HasCoords   bool
	ObservedAt  *time.Time

	Temperature *float64
	Humidity    *float64 // percent, after fraction normalization
	WindSpeed   *float64 // m/s
	WindDir     *float64 // degrees
	Gust        *float64
	GustDir     *float64
	Rain1hr     *float64
	Rain3hr     *float64
	Rain24hr    *float64
	RainNow     *float64
	Weather     string
}

// TimeBucket accumulates one metric at one time key.
type TimeBucket struct {
	Sum   float64
	Count int
}

// Mean is only meaningful when Count > 0.
func (b TimeBucket) Mean() float64 {
	return b.Sum / float64(b.Count)
}

// AlertRecord is a hazard/warning for an area. Area is always canonicalized
// before comparison. Local is set for threshold alerts derived from the latest
// snapshot rather than fetched upstream.
type AlertRecord struct {
	Area     string `json:"area"`
	AreaRaw  string `json:"areaRaw,omitempty"`
	LocArea  string `json:"locArea,omitempty"`
	Title    string `json:"title"`
	Desc     string `json:"desc,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Severity string `json:"severity,omitempty"`
	Local    bool   `json:"local,omitempty"`
	Level    string `json:"level,omitempty"` // severity tier class for local alerts
}

// ForecastSlot is one forecast window for a location. Slots are aligned by
// array index across weather elements, not by timestamp.
type ForecastSlot struct {
	Location string  `json:"location"`
	Start    string  `json:"start,omitempty"`
	End      string  `json:"end,omitempty"`
	Wx       string  `json:"wx,omitempty"`
	PoP      *string `json:"pop,omitempty"`
	MinT     *string `json:"minT,omitempty"`
	MaxT     *string `json:"maxT,omitempty"`
	CI       string  `json:"ci,omitempty"`
	RH       *string `json:"rh,omitempty"`
}

// Empty reports whether the slot carries no data at all.
func (s ForecastSlot) Empty() bool {
	return s.Start == "" && s.Wx == "" && s.PoP == nil && s.MinT == nil && s.MaxT == nil
}

// TrackPoint is one position along a storm path.
type TrackPoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Time string  `json:"time,omitempty"`
}

// Typhoon is a normalized tropical cyclone record with its track, if one was
// found in the payload.
type Typhoon struct {
	Name   string       `json:"name"`
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
	Time   string       `json:"time,omitempty"`
	Text   string       `json:"text,omitempty"`
	Track  []TrackPoint `json:"track,omitempty"`
}

// RankingEntry is one station's value for the selected ranking metric.
type RankingEntry struct {
	StationID   string   `json:"id"`
	Name        string   `json:"name"`
	Township    string   `json:"town"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Value       float64  `json:"value"`
	Direction   *float64 `json:"direction,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	ObsTime     string   `json:"time,omitempty"`
}

// AQIRecord is one air-quality site reading.
type AQIRecord struct {
	SiteName    string   `json:"sitename"`
	County      string   `json:"county"`
	PublishTime string   `json:"publishtime,omitempty"`
	Status      string   `json:"status,omitempty"`
	AQI         *float64 `json:"aqi"`
	PM25        *float64 `json:"pm25"`
	PM10        *float64 `json:"pm10"`
	O3          *float64 `json:"o3"`
	NO2         *float64 `json:"no2"`
	SO2         *float64 `json:"so2"`
	CO          *float64 `json:"co"`
}

// StationMeta is one row of the static station metadata file.
type StationMeta struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	County string `json:"county"`
	Status string `json:"status"`
}

// Existing reports whether the station should be offered for selection.
func (m StationMeta) Existing() bool {
	return m.Status == "" || m.Status == "existing"
}

// IndexEntry is one row of the historical file index.
type IndexEntry struct {
	File  string `json:"file"`
	Path  string `json:"path"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// DailyRecord is one row of a precomputed daily-summary file. Metric values
// are keyed by metric code (TX01, PP01, ...).
type DailyRecord struct {
	StationID string
	Date      string
	Values    map[string]float64
}
