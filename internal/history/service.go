package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/faein/changhuaweather/internal/models"
)

// SeriesRequest selects which slice of the archive to aggregate. StartIdx and
// EndIdx are positions in the file index; they are swapped if reversed.
// Station narrows to one station; otherwise County narrows to its existing
// stations. With neither set, every station contributes.
type SeriesRequest struct {
	StartIdx int
	EndIdx   int
	Rollup   Rollup
	Station  string
	County   string
}

// Service ties the archive source to the aggregator and caches the index and
// station metadata after first load.
type Service struct {
	source *Source

	mu    sync.Mutex
	index []models.IndexEntry
	metas []models.StationMeta
}

func NewService(source *Source) *Service {
	return &Service{source: source}
}

// Index returns the archive file index, fetching it on first use.
func (s *Service) Index(ctx context.Context) ([]models.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		idx, err := s.source.Index(ctx)
		if err != nil {
			return nil, err
		}
		s.index = idx
	}
	return append([]models.IndexEntry(nil), s.index...), nil
}

// Stations returns the selectable station metadata, fetching it on first use.
// Stations marked removed are filtered out.
func (s *Service) Stations(ctx context.Context) ([]models.StationMeta, error) {
	metas, err := s.allStations(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.StationMeta
	for _, m := range metas {
		if m.Existing() {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Counties returns the sorted set of counties with at least one selectable
// station.
func (s *Service) Counties(ctx context.Context) ([]string, error) {
	metas, err := s.Stations(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var counties []string
	for _, m := range metas {
		if m.County == "" {
			continue
		}
		if _, ok := seen[m.County]; ok {
			continue
		}
		seen[m.County] = struct{}{}
		counties = append(counties, m.County)
	}
	sort.Strings(counties)
	return counties, nil
}

// Series aggregates the requested index range into chartable series. Daily
// rollups consult the precomputed summaries first and fall back to parsing
// the hourly file when a month has none.
func (s *Service) Series(ctx context.Context, req SeriesRequest) (Result, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(index) == 0 {
		return Result{}, fmt.Errorf("series: empty archive index")
	}

	start, end := req.StartIdx, req.EndIdx
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end >= len(index) {
		end = len(index) - 1
	}

	allowed, err := s.resolveStations(ctx, req)
	if err != nil {
		return Result{}, err
	}

	agg := NewAggregator()
	for _, entry := range index[start : end+1] {
		if req.Rollup == RollupDay {
			recs, ok, err := s.source.Daily(ctx, entry)
			if err != nil {
				return Result{}, err
			}
			if ok {
				agg.AddDailyRecords(recs, allowed)
				continue
			}
		}
		text, err := s.source.Hourly(ctx, entry)
		if err != nil {
			return Result{}, err
		}
		agg.AddHourlyFile(text, req.Rollup, allowed)
	}

	multiStation := allowed == nil || len(allowed) > 1
	return agg.Result(req.Rollup, multiStation), nil
}

// Reset drops the source caches along with the cached index and metadata.
func (s *Service) Reset() {
	s.source.Reset()
	s.mu.Lock()
	s.index = nil
	s.metas = nil
	s.mu.Unlock()
}

func (s *Service) allStations(ctx context.Context) ([]models.StationMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metas == nil {
		metas, err := s.source.StationsMeta(ctx)
		if err != nil {
			return nil, err
		}
		if metas == nil {
			metas = []models.StationMeta{}
		}
		s.metas = metas
	}
	return s.metas, nil
}

// resolveStations builds the station filter: a single station wins over a
// county, and a county resolves to its existing stations. nil means no
// filter; an empty map means the county matched nothing and the series
// aggregates to an empty result rather than failing.
func (s *Service) resolveStations(ctx context.Context, req SeriesRequest) (map[string]bool, error) {
	if req.Station != "" && req.Station != "*" {
		return map[string]bool{req.Station: true}, nil
	}
	if req.County == "" || req.County == "*" {
		return nil, nil
	}
	metas, err := s.allStations(ctx)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool)
	for _, m := range metas {
		if m.Existing() && m.County == req.County {
			allowed[m.ID] = true
		}
	}
	return allowed, nil
}
