// Package history loads archived hourly station files and precomputed daily
// summaries, and aggregates them into chartable series.
package history

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/httputil"
	"github.com/faein/changhuaweather/internal/metrics"
	"github.com/faein/changhuaweather/internal/models"
)

// Source fetches the static history files published alongside the service.
// Hourly text and daily summaries are cached per URL for the life of the
// source; Reset drops both caches.
type Source struct {
	baseURL string
	client  *http.Client

	mu          sync.Mutex
	hourlyCache map[string]string
	dailyCache  map[string][]models.DailyRecord
}

func NewSource(baseURL string) *Source {
	return &Source{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      httputil.NewClient(),
		hourlyCache: make(map[string]string),
		dailyCache:  make(map[string][]models.DailyRecord),
	}
}

// Index fetches the month-file index in archive order.
func (s *Source) Index(ctx context.Context) ([]models.IndexEntry, error) {
	body, err := s.fetch(ctx, s.baseURL+"/fileIndex.json")
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("load index: not an array")
	}
	var entries []models.IndexEntry
	for _, e := range parsed.Array() {
		entries = append(entries, models.IndexEntry{
			File:  e.Get("file").String(),
			Path:  e.Get("path").String(),
			Year:  int(e.Get("year").Int()),
			Month: int(e.Get("month").Int()),
		})
	}
	return entries, nil
}

// StationsMeta fetches the station metadata list. A missing file is not an
// error; county filtering is simply unavailable then.
func (s *Source) StationsMeta(ctx context.Context) ([]models.StationMeta, error) {
	body, err := s.fetch(ctx, s.baseURL+"/stations_meta.json")
	if err != nil {
		return nil, nil
	}
	var metas []models.StationMeta
	for _, m := range gjson.ParseBytes(body).Array() {
		metas = append(metas, models.StationMeta{
			ID:     m.Get("id").String(),
			Name:   m.Get("name").String(),
			County: m.Get("county").String(),
			Status: m.Get("status").String(),
		})
	}
	return metas, nil
}

// Hourly fetches one month of hourly station text, from cache when possible.
func (s *Source) Hourly(ctx context.Context, entry models.IndexEntry) (string, error) {
	url := s.resolve(entry.Path)

	s.mu.Lock()
	if text, ok := s.hourlyCache[url]; ok {
		s.mu.Unlock()
		return text, nil
	}
	s.mu.Unlock()

	body, err := s.fetch(ctx, url)
	if err != nil {
		metrics.HistoryFilesLoaded.WithLabelValues("error").Inc()
		return "", fmt.Errorf("load %s: %w", entry.File, err)
	}
	metrics.HistoryFilesLoaded.WithLabelValues("ok").Inc()
	text := string(body)

	s.mu.Lock()
	s.hourlyCache[url] = text
	s.mu.Unlock()
	return text, nil
}

// Daily fetches the precomputed daily summary for one month. ok is false when
// the summary does not exist, in which case the caller falls back to the
// hourly file.
func (s *Source) Daily(ctx context.Context, entry models.IndexEntry) ([]models.DailyRecord, bool, error) {
	name := strings.Replace(entry.File, ".auto_hr.txt", ".daily.json", 1)
	url := s.baseURL + "/daily/" + name

	s.mu.Lock()
	if recs, ok := s.dailyCache[url]; ok {
		s.mu.Unlock()
		return recs, true, nil
	}
	s.mu.Unlock()

	body, err := s.fetch(ctx, url)
	if err != nil {
		return nil, false, nil
	}
	recs := parseDailyRecords(body)
	metrics.HistoryFilesLoaded.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.dailyCache[url] = recs
	s.mu.Unlock()
	return recs, true, nil
}

// Reset drops both caches, forcing fresh fetches on the next load.
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hourlyCache = make(map[string]string)
	s.dailyCache = make(map[string][]models.DailyRecord)
}

func (s *Source) resolve(rawPath string) string {
	if strings.HasPrefix(rawPath, "http://") || strings.HasPrefix(rawPath, "https://") {
		return rawPath
	}
	return s.baseURL + "/" + strings.TrimLeft(rawPath, "./")
}

func (s *Source) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseDailyRecords reads the flat daily-summary rows. Metric values sit as
// top-level keys next to stno and date, so rows are walked key by key.
func parseDailyRecords(body []byte) []models.DailyRecord {
	var recs []models.DailyRecord
	gjson.ParseBytes(body).ForEach(func(_, row gjson.Result) bool {
		rec := models.DailyRecord{
			StationID: row.Get("stno").String(),
			Date:      row.Get("date").String(),
			Values:    make(map[string]float64),
		}
		row.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if k == "stno" || k == "date" {
				return true
			}
			if value.Type == gjson.Number {
				rec.Values[k] = value.Float()
			}
			return true
		})
		recs = append(recs, rec)
		return true
	})
	return recs
}
