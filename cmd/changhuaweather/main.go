package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/robfig/cron/v3"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/faein/changhuaweather/internal/api"
	"github.com/faein/changhuaweather/internal/history"
	"github.com/faein/changhuaweather/internal/ingest"
	"github.com/faein/changhuaweather/internal/ranking"
)

var cli struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,help='Path to an optional .env file.'"`

	CWAKey string `kong:"required,name=cwa-key,env=CWA_API_KEY,help='CWA open-data authorization key.'"`
	AQIKey string `kong:"optional,name=aqi-key,env=MOENV_API_KEY,help='MOENV air-quality API key.'"`

	CWABaseURL     string `kong:"optional,name=cwa-base-url,env=CWA_BASE_URL,help='Override the CWA datastore base URL.'"`
	AQIBaseURL     string `kong:"optional,name=aqi-base-url,env=AQI_BASE_URL,help='Override the air-quality feed URL.'"`
	HistoryBaseURL string `kong:"required,name=history-base-url,env=HISTORY_BASE_URL,help='Base URL of the published station archive.'"`
	CountiesURL    string `kong:"required,name=counties-url,env=COUNTIES_URL,help='URL of the county boundary GeoJSON.'"`

	County      string `kong:"default='彰化縣',env=COUNTY,help='County the dashboard focuses on.'"`
	Port        string `kong:"default='8080',env=PORT,help='HTTP server port.'"`
	RefreshCron string `kong:"default='*/10 * * * *',env=REFRESH_CRON,help='Cron schedule for snapshot refreshes.'"`
	NoPoll      bool   `kong:"name=no-poll,help='Disable scheduled refreshes (server only, for local dev).'"`
	Once        bool   `kong:"help='Refresh once and exit (for testing).'"`
}

func main() {
	kong.Parse(&cli)

	refresher := ingest.NewRefresher(
		ingest.NewCWAClient(cli.CWABaseURL, cli.CWAKey),
		ingest.NewAQIClient(cli.AQIBaseURL, cli.AQIKey),
		cli.County,
	)
	hist := history.NewService(history.NewSource(cli.HistoryBaseURL))
	locator := ranking.NewLocator(cli.CountiesURL)
	server := api.NewServer(refresher, hist, locator, cli.Port)

	if cli.Once {
		log.Println("running single refresh")
		if err := refresher.RefreshAll(context.Background()); err != nil {
			log.Fatalf("refresh: %v", err)
		}
		log.Println("done")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := refresher.RefreshAll(ctx); err != nil {
		log.Printf("initial refresh: %v", err)
	}

	if !cli.NoPoll {
		c := cron.New()
		if _, err := c.AddFunc(cli.RefreshCron, func() {
			refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if err := refresher.RefreshAll(refreshCtx); err != nil {
				log.Printf("scheduled refresh: %v", err)
			}
		}); err != nil {
			log.Fatalf("refresh schedule: %v", err)
		}
		// The archive grows monthly; drop cached files and the index once a
		// day so new months show up without a restart.
		if _, err := c.AddFunc("15 3 * * *", func() {
			hist.Reset()
		}); err != nil {
			log.Fatalf("history schedule: %v", err)
		}
		c.Start()
		defer c.Stop()
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
