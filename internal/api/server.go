// Package api serves the JSON endpoints behind the dashboard: historical
// series, live rankings, the campus observation, alerts, forecast and typhoon
// snapshots.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faein/changhuaweather/internal/history"
	"github.com/faein/changhuaweather/internal/ingest"
	"github.com/faein/changhuaweather/internal/ranking"
)

type Server struct {
	refresher *ingest.Refresher
	history   *history.Service
	locator   *ranking.Locator
	port      string
}

func NewServer(refresher *ingest.Refresher, hist *history.Service, locator *ranking.Locator, port string) *Server {
	return &Server{
		refresher: refresher,
		history:   hist,
		locator:   locator,
		port:      port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/series", s.handleSeries)
	mux.HandleFunc("/api/index", s.handleIndex)
	mux.HandleFunc("/api/stations", s.handleStations)
	mux.HandleFunc("/api/counties", s.handleCounties)
	mux.HandleFunc("/api/ranking", s.handleRanking)
	mux.HandleFunc("/api/realtime", s.handleRealtime)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/forecast", s.handleForecast)
	mux.HandleFunc("/api/typhoon", s.handleTyphoon)
	mux.HandleFunc("/api/locate", s.handleLocate)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status": "ok"}`))
}
