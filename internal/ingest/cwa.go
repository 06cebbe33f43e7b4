// Package ingest fetches Central Weather Administration open-data payloads
// and Taiwan EPA air-quality readings and normalizes them into model types.
// Upstream schemas vary between dataset generations, so field access goes
// through ordered candidate paths rather than fixed struct tags.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/httputil"
	"github.com/faein/changhuaweather/internal/metrics"
)

const DefaultCWABaseURL = "https://opendata.cwa.gov.tw/api/v1/rest/datastore"

// Dataset identifiers used across the service.
const (
	DatasetRanking  = "O-A0001-001" // automatic weather stations
	DatasetRain     = "O-A0002-001" // automatic rain stations
	DatasetCampus   = "O-A0003-001" // manned/bureau stations, includes NCUE
	DatasetAlerts   = "W-C0033-001" // county hazard warnings
	DatasetForecast = "F-C0032-001" // 36-hour county forecast
	DatasetTyphoon  = "W-C0034-005" // typhoon warnings and tracks
)

// CWAClient fetches datastore payloads from the CWA open-data API or a
// compatible proxy.
type CWAClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCWAClient(baseURL, apiKey string) *CWAClient {
	if baseURL == "" {
		baseURL = DefaultCWABaseURL
	}
	return &CWAClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  httputil.NewClient(),
	}
}

// FetchDataset retrieves one dataset and returns the parsed payload root.
// Transient upstream failures (429, 5xx) are retried with exponential
// backoff; anything else fails immediately. A payload with success set to
// "false" is an application-level error even on HTTP 200.
func (c *CWAClient) FetchDataset(ctx context.Context, datasetID string, params url.Values) (gjson.Result, error) {
	search := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			search.Add(k, v)
		}
	}
	search.Set("format", "JSON")
	if c.apiKey != "" {
		search.Set("Authorization", c.apiKey)
	}
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, datasetID, search.Encode())

	started := time.Now()
	body, err := c.get(ctx, reqURL, datasetID)
	metrics.UpstreamLatency.WithLabelValues("cwa", datasetID).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("cwa", datasetID, "error").Inc()
		return gjson.Result{}, err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("cwa", datasetID, "ok").Inc()

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("fetch %s: invalid JSON payload", datasetID)
	}
	payload := gjson.ParseBytes(body)
	if payload.Get("success").String() == "false" {
		msg := payload.Get("result.message").String()
		if msg == "" {
			msg = "upstream reported failure"
		}
		return gjson.Result{}, fmt.Errorf("fetch %s: %s", datasetID, msg)
	}
	return payload, nil
}

func (c *CWAClient) get(ctx context.Context, reqURL, datasetID string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", datasetID, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", datasetID, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", datasetID, resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
