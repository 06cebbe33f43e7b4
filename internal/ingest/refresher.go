package ingest

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/faein/changhuaweather/internal/metrics"
	"github.com/faein/changhuaweather/internal/models"
)

// AQI sitename keywords, probed in order; the county fallback catches renamed
// sites.
var (
	aqiSiteKeywords   = []string{"彰化"}
	aqiCountyFallback = "彰化"
)

// Refresher holds the latest snapshot of every realtime dataset. Each slot is
// refreshed independently; a failed refresh leaves the previous snapshot in
// place. Reads and writes go through one RWMutex, last write wins.
type Refresher struct {
	cwa    *CWAClient
	aqi    *AQIClient
	county string

	mu          sync.RWMutex
	observation *models.StationObservation
	air         *models.AQIRecord
	alerts      []models.AlertRecord
	forecast    []models.ForecastSlot
	typhoons    []models.Typhoon
	stations    []models.StationObservation
	rainGauges  []models.StationObservation
	refreshedAt map[string]time.Time
}

func NewRefresher(cwa *CWAClient, aqi *AQIClient, county string) *Refresher {
	return &Refresher{
		cwa:         cwa,
		aqi:         aqi,
		county:      county,
		refreshedAt: make(map[string]time.Time),
	}
}

// RefreshAll updates every slot concurrently. Slot refreshes are independent;
// one failure does not abort the others, and the first error is returned.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	ops := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"observation", r.RefreshObservation},
		{"air", r.RefreshAir},
		{"alerts", r.RefreshAlerts},
		{"forecast", r.RefreshForecast},
		{"typhoon", r.RefreshTyphoons},
		{"stations", r.RefreshStations},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ops))
	for i, op := range ops {
		wg.Add(1)
		go func(i int, name string, fn func(context.Context) error) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Printf("refresher: %s failed: %v", name, err)
				errs[i] = err
			}
		}(i, op.name, op.fn)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// RefreshObservation updates the campus station snapshot.
func (r *Refresher) RefreshObservation(ctx context.Context) error {
	payload, err := r.cwa.FetchDataset(ctx, DatasetCampus, nil)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("observation", "error").Inc()
		return err
	}
	station, ok := PickCampusStation(payload)
	if !ok {
		metrics.RefreshTotal.WithLabelValues("observation", "empty").Inc()
		r.setObservation(nil)
		return nil
	}
	obs := NormalizeObservation(station)
	metrics.StationsNormalized.WithLabelValues(DatasetCampus).Inc()
	metrics.RefreshTotal.WithLabelValues("observation", "ok").Inc()
	r.setObservation(&obs)
	return nil
}

// RefreshAir updates the air-quality snapshot.
func (r *Refresher) RefreshAir(ctx context.Context) error {
	records, err := r.aqi.FetchSites(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("air", "error").Inc()
		return err
	}
	site, ok := PickAQISite(records, aqiSiteKeywords, aqiCountyFallback)
	r.mu.Lock()
	if ok {
		r.air = &site
	} else {
		r.air = nil
	}
	r.refreshedAt["air"] = time.Now()
	r.mu.Unlock()
	if ok {
		metrics.RefreshTotal.WithLabelValues("air", "ok").Inc()
	} else {
		metrics.RefreshTotal.WithLabelValues("air", "empty").Inc()
	}
	return nil
}

// RefreshAlerts updates the hazard-warning snapshot.
func (r *Refresher) RefreshAlerts(ctx context.Context) error {
	payload, err := r.cwa.FetchDataset(ctx, DatasetAlerts, nil)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("alerts", "error").Inc()
		return err
	}
	alerts := NormalizeAlerts(payload)
	r.mu.Lock()
	r.alerts = alerts
	r.refreshedAt["alerts"] = time.Now()
	r.mu.Unlock()
	metrics.RefreshTotal.WithLabelValues("alerts", "ok").Inc()
	return nil
}

// RefreshForecast updates the 36-hour forecast snapshot for the configured
// county.
func (r *Refresher) RefreshForecast(ctx context.Context) error {
	params := url.Values{}
	params.Set("locationName", r.county)
	payload, err := r.cwa.FetchDataset(ctx, DatasetForecast, params)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("forecast", "error").Inc()
		return err
	}
	slots := NormalizeForecast(payload, r.county)
	r.mu.Lock()
	r.forecast = slots
	r.refreshedAt["forecast"] = time.Now()
	r.mu.Unlock()
	metrics.RefreshTotal.WithLabelValues("forecast", "ok").Inc()
	return nil
}

// ForecastFor fetches the 36-hour forecast for another county without
// touching the snapshot. The configured county is served from the snapshot
// by the caller.
func (r *Refresher) ForecastFor(ctx context.Context, county string) ([]models.ForecastSlot, error) {
	params := url.Values{}
	params.Set("locationName", county)
	payload, err := r.cwa.FetchDataset(ctx, DatasetForecast, params)
	if err != nil {
		return nil, err
	}
	return NormalizeForecast(payload, county), nil
}

// RefreshTyphoons updates the cyclone snapshot.
func (r *Refresher) RefreshTyphoons(ctx context.Context) error {
	payload, err := r.cwa.FetchDataset(ctx, DatasetTyphoon, nil)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("typhoon", "error").Inc()
		return err
	}
	typhoons := NormalizeTyphoons(payload)
	r.mu.Lock()
	r.typhoons = typhoons
	r.refreshedAt["typhoon"] = time.Now()
	r.mu.Unlock()
	metrics.RefreshTotal.WithLabelValues("typhoon", "ok").Inc()
	return nil
}

// RefreshStations updates the weather-station and rain-gauge snapshots used
// by the ranking endpoints.
func (r *Refresher) RefreshStations(ctx context.Context) error {
	payload, err := r.cwa.FetchDataset(ctx, DatasetRanking, nil)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("stations", "error").Inc()
		return err
	}
	var stations []models.StationObservation
	for _, s := range ExtractStations(payload) {
		stations = append(stations, NormalizeObservation(s))
		metrics.StationsNormalized.WithLabelValues(DatasetRanking).Inc()
	}

	rainPayload, err := r.cwa.FetchDataset(ctx, DatasetRain, nil)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("stations", "error").Inc()
		return err
	}
	var gauges []models.StationObservation
	for _, s := range ExtractStations(rainPayload) {
		gauges = append(gauges, NormalizeRainObservation(s))
		metrics.StationsNormalized.WithLabelValues(DatasetRain).Inc()
	}

	r.mu.Lock()
	r.stations = stations
	r.rainGauges = gauges
	r.refreshedAt["stations"] = time.Now()
	r.mu.Unlock()
	metrics.RefreshTotal.WithLabelValues("stations", "ok").Inc()
	return nil
}

// Clear drops every snapshot, returning the refresher to its initial state.
func (r *Refresher) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observation = nil
	r.air = nil
	r.alerts = nil
	r.forecast = nil
	r.typhoons = nil
	r.stations = nil
	r.rainGauges = nil
	r.refreshedAt = make(map[string]time.Time)
}

func (r *Refresher) setObservation(obs *models.StationObservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observation = obs
	r.refreshedAt["observation"] = time.Now()
}

// Observation returns the campus station snapshot, or nil before the first
// successful refresh.
func (r *Refresher) Observation() *models.StationObservation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.observation == nil {
		return nil
	}
	obs := *r.observation
	return &obs
}

// Air returns the air-quality snapshot, or nil when no site matched.
func (r *Refresher) Air() *models.AQIRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.air == nil {
		return nil
	}
	rec := *r.air
	return &rec
}

// Alerts returns the upstream alert snapshot.
func (r *Refresher) Alerts() []models.AlertRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.AlertRecord(nil), r.alerts...)
}

// Forecast returns the forecast slot snapshot.
func (r *Refresher) Forecast() []models.ForecastSlot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.ForecastSlot(nil), r.forecast...)
}

// Typhoons returns the cyclone snapshot.
func (r *Refresher) Typhoons() []models.Typhoon {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Typhoon(nil), r.typhoons...)
}

// Stations returns the weather-station snapshot.
func (r *Refresher) Stations() []models.StationObservation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.StationObservation(nil), r.stations...)
}

// RainGauges returns the rain-gauge snapshot.
func (r *Refresher) RainGauges() []models.StationObservation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.StationObservation(nil), r.rainGauges...)
}

// RefreshedAt reports when a slot last refreshed successfully.
func (r *Refresher) RefreshedAt(slot string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.refreshedAt[slot]
	return t, ok
}

// County returns the county this refresher is configured for.
func (r *Refresher) County() string {
	return r.county
}
