package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/httputil"
	"github.com/faein/changhuaweather/internal/metrics"
	"github.com/faein/changhuaweather/internal/models"
)

const DefaultAQIBaseURL = "https://data.moenv.gov.tw/api/v2/aqx_p_432"

// AQIClient fetches the nationwide air-quality index feed.
type AQIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAQIClient(baseURL, apiKey string) *AQIClient {
	if baseURL == "" {
		baseURL = DefaultAQIBaseURL
	}
	return &AQIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  httputil.NewClient(),
	}
}

// FetchSites retrieves the full site list and normalizes every record.
func (c *AQIClient) FetchSites(ctx context.Context) ([]models.AQIRecord, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "200")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + "?" + params.Encode()

	started := time.Now()
	body, err := c.get(ctx, reqURL)
	metrics.UpstreamLatency.WithLabelValues("aqi", "aqx_p_432").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("aqi", "aqx_p_432", "error").Inc()
		return nil, err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("aqi", "aqx_p_432", "ok").Inc()

	payload := gjson.ParseBytes(body)
	list := firstExisting(payload, "records", "data")
	if !list.IsArray() {
		return nil, nil
	}
	var records []models.AQIRecord
	for _, r := range list.Array() {
		records = append(records, normalizeAQIRecord(r))
	}
	return records, nil
}

func (c *AQIClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch aqi: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch aqi: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch aqi: status %d", resp.StatusCode))
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

func normalizeAQIRecord(r gjson.Result) models.AQIRecord {
	return models.AQIRecord{
		SiteName:    firstString(r.Get("sitename"), r.Get("siteName"), r.Get("SiteName")),
		County:      firstString(r.Get("county"), r.Get("County")),
		PublishTime: firstString(r.Get("publishtime"), r.Get("PublishTime")),
		Status:      firstString(r.Get("status"), r.Get("Status")),
		AQI:         firstNumeric(r.Get("aqi"), r.Get("AQI")),
		PM25:        firstNumeric(r.Get("pm2\\.5"), r.Get("pm25")),
		PM10:        Numeric(r.Get("pm10")),
		O3:          Numeric(r.Get("o3")),
		NO2:         Numeric(r.Get("no2")),
		SO2:         Numeric(r.Get("so2")),
		CO:          Numeric(r.Get("co")),
	}
}

// PickAQISite selects the site for display: first a sitename keyword match,
// then a county+sitename match on the fallback keyword.
func PickAQISite(records []models.AQIRecord, keywords []string, fallback string) (models.AQIRecord, bool) {
	for _, r := range records {
		for _, k := range keywords {
			if k != "" && strings.Contains(r.SiteName, k) {
				return r, true
			}
		}
	}
	if fallback != "" {
		for _, r := range records {
			if strings.Contains(r.County, fallback) && strings.Contains(r.SiteName, fallback) {
				return r, true
			}
		}
	}
	return models.AQIRecord{}, false
}
