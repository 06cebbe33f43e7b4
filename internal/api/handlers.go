package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/faein/changhuaweather/internal/derive"
	"github.com/faein/changhuaweather/internal/history"
	"github.com/faein/changhuaweather/internal/ingest"
	"github.com/faein/changhuaweather/internal/models"
	"github.com/faein/changhuaweather/internal/ranking"
	"github.com/faein/changhuaweather/internal/region"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleSeries aggregates archived readings over an index range.
// Query: start, end (index positions), rollup (hour|day), station, county.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := strconv.Atoi(q.Get("start"))
	if err != nil {
		http.Error(w, "start: integer index required", http.StatusBadRequest)
		return
	}
	end, err := strconv.Atoi(q.Get("end"))
	if err != nil {
		http.Error(w, "end: integer index required", http.StatusBadRequest)
		return
	}
	rollup := history.Rollup(q.Get("rollup"))
	if rollup == "" {
		rollup = history.RollupHour
	}
	if rollup != history.RollupHour && rollup != history.RollupDay {
		http.Error(w, "rollup: hour or day", http.StatusBadRequest)
		return
	}

	res, err := s.history.Series(r.Context(), history.SeriesRequest{
		StartIdx: start,
		EndIdx:   end,
		Rollup:   rollup,
		Station:  q.Get("station"),
		County:   q.Get("county"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	index, err := s.history.Index(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, index)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.history.Stations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if stations == nil {
		stations = []models.StationMeta{}
	}
	writeJSON(w, stations)
}

func (s *Server) handleCounties(w http.ResponseWriter, r *http.Request) {
	counties, err := s.history.Counties(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if counties == nil {
		counties = []string{}
	}
	writeJSON(w, counties)
}

// rankingResponse carries the ranked entries together with everything the
// map rendering needs.
type rankingResponse struct {
	Metric   string                         `json:"metric"`
	Label    string                         `json:"label"`
	Unit     string                         `json:"unit"`
	Status   string                         `json:"status"`
	Entries  []models.RankingEntry          `json:"entries"`
	Colors   []string                       `json:"colors"`
	TownBest map[string]models.RankingEntry `json:"townBest"`
	Colorbar ranking.Colorbar               `json:"colorbar"`
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	metric := ranking.Lookup(r.URL.Query().Get("metric"))

	stations := s.refresher.Stations()
	if metric.RainGauges {
		stations = s.refresher.RainGauges()
	}
	entries := ranking.Build(stations, metric.Key, s.refresher.County())

	colors := make([]string, len(entries))
	for i, e := range entries {
		colors[i] = ranking.EntryColor(metric, e.Value)
	}
	if entries == nil {
		entries = []models.RankingEntry{}
	}

	writeJSON(w, rankingResponse{
		Metric:   metric.Key,
		Label:    metric.Label,
		Unit:     metric.Unit,
		Status:   dataStatus(len(entries) > 0),
		Entries:  entries,
		Colors:   colors,
		TownBest: ranking.TownshipBest(entries, s.refresher.County()),
		Colorbar: ranking.BuildColorbar(metric.Key),
	})
}

// realtimeResponse is the full live snapshot: the campus observation with its
// derived display values, the matching air-quality reading, alerts, forecast
// slots and active typhoons. Each section carries its own status so one
// failed upstream does not blank the rest.
type realtimeResponse struct {
	Observation *realtimeObservation  `json:"observation"`
	Air         *models.AQIRecord     `json:"air"`
	Alerts      []models.AlertRecord  `json:"alerts"`
	Forecast    []models.ForecastSlot `json:"forecast"`
	Typhoons    []models.Typhoon      `json:"typhoons"`
	Status      map[string]string     `json:"status"`
}

func dataStatus(hasData bool) string {
	if hasData {
		return "ok"
	}
	return "no data"
}

type realtimeObservation struct {
	Station     string   `json:"station"`
	ObsTime     string   `json:"obsTime,omitempty"`
	Temperature *float64 `json:"temperature"`
	Apparent    *float64 `json:"apparent"`
	Humidity    *float64 `json:"humidity"`
	WindSpeed   *float64 `json:"windSpeed"`
	WindLevel   string   `json:"windLevel"`
	WindDir     string   `json:"windDir"`
	Gust        *float64 `json:"gust"`
	GustLevel   string   `json:"gustLevel"`
	Rain        *float64 `json:"rain"`
	Weather     string   `json:"weather,omitempty"`
	THI         *float64 `json:"thi,omitempty"`
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	resp := realtimeResponse{
		Air:      s.refresher.Air(),
		Alerts:   s.assembleAlerts(s.refresher.County()),
		Forecast: s.refresher.Forecast(),
		Typhoons: s.refresher.Typhoons(),
	}
	if obs := s.refresher.Observation(); obs != nil {
		resp.Observation = buildRealtimeObservation(obs)
	}
	if resp.Forecast == nil {
		resp.Forecast = []models.ForecastSlot{}
	}
	if resp.Typhoons == nil {
		resp.Typhoons = []models.Typhoon{}
	}
	resp.Status = map[string]string{
		"observation": dataStatus(resp.Observation != nil),
		"air":         dataStatus(resp.Air != nil),
		"alerts":      dataStatus(len(resp.Alerts) > 0),
		"forecast":    dataStatus(len(resp.Forecast) > 0),
		"typhoon":     dataStatus(len(resp.Typhoons) > 0),
	}
	writeJSON(w, resp)
}

func buildRealtimeObservation(obs *models.StationObservation) *realtimeObservation {
	out := &realtimeObservation{
		Station:     obs.StationName,
		Temperature: obs.Temperature,
		Apparent:    derive.ApparentTemperature(obs.Temperature, obs.Humidity, obs.WindSpeed),
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		WindLevel:   derive.BeaufortLabel(obs.WindSpeed),
		WindDir:     derive.WindDirectionLabel(obs.WindDir),
		Gust:        obs.Gust,
		GustLevel:   derive.BeaufortLabel(obs.Gust),
		Rain:        obs.RainNow,
		Weather:     obs.Weather,
		THI:         derive.THI(obs.Temperature, obs.Humidity),
	}
	if obs.ObservedAt != nil {
		out.ObsTime = obs.ObservedAt.Format("2006/01/02 15:04:05")
	}
	return out
}

// handleAlerts returns the locally-derived threshold alerts followed by the
// upstream warnings for the county. No matching warnings is an empty list,
// not an error.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	county := r.URL.Query().Get("county")
	if county == "" {
		county = s.refresher.County()
	}
	writeJSON(w, s.assembleAlerts(county))
}

// assembleAlerts prepends the locally-derived threshold alerts to the
// upstream warnings filtered to one county.
func (s *Server) assembleAlerts(county string) []models.AlertRecord {
	local := derive.ThresholdAlerts(s.localSnapshot(), s.refresher.Air())
	upstream := ingest.FilterAlertsByCounty(s.refresher.Alerts(), county)

	alerts := append(local, upstream...)
	if alerts == nil {
		alerts = []models.AlertRecord{}
	}
	return alerts
}

// localSnapshot projects the campus observation into the threshold-alert
// input, with the apparent temperature already derived.
func (s *Server) localSnapshot() *derive.Snapshot {
	obs := s.refresher.Observation()
	if obs == nil {
		return nil
	}
	return &derive.Snapshot{
		Temperature: obs.Temperature,
		Apparent:    derive.ApparentTemperature(obs.Temperature, obs.Humidity, obs.WindSpeed),
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		Gust:        obs.Gust,
		Rain:        obs.RainNow,
		Weather:     obs.Weather,
	}
}

// handleForecast serves the snapshot for the configured county and fetches
// on demand for any other.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	county := region.Canonical(r.URL.Query().Get("county"))

	slots := s.refresher.Forecast()
	if county != "" && county != s.refresher.County() {
		var err error
		slots, err = s.refresher.ForecastFor(r.Context(), county)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
	if slots == nil {
		slots = []models.ForecastSlot{}
	}
	writeJSON(w, slots)
}

func (s *Server) handleTyphoon(w http.ResponseWriter, r *http.Request) {
	typhoons := s.refresher.Typhoons()
	if typhoons == nil {
		typhoons = []models.Typhoon{}
	}
	writeJSON(w, typhoons)
}

// handleLocate resolves a coordinate to its county.
// Query: lat, lon.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		http.Error(w, "lat: number required", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		http.Error(w, "lon: number required", http.StatusBadRequest)
		return
	}

	county, ok, err := s.locator.Resolve(r.Context(), lon, lat)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"county": county, "found": ok})
}

// handleRefresh triggers a full snapshot refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if err := s.refresher.RefreshAll(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"status": "refreshed"})
}
