package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/models"
)

const newFormatStation = `{
	"StationName": "彰師大",
	"StationId": "C0G860",
	"ObsTime": {"DateTime": "2026-08-30T14:00:00+08:00"},
	"GeoInfo": {
		"CountyName": "彰化縣",
		"TownName": "彰化市",
		"Coordinates": [
			{"CoordinateName": "TWD67", "StationLatitude": 24.07, "StationLongitude": 120.55},
			{"CoordinateName": "WGS84", "StationLatitude": 24.081, "StationLongitude": 120.562}
		]
	},
	"WeatherElement": {
		"Weather": "晴",
		"AirTemperature": 31.2,
		"RelativeHumidity": 0.66,
		"WindSpeed": 2.3,
		"WindDirection": 150,
		"GustInfo": {"PeakGustSpeed": 6.1},
		"NowPrecipitation": 0.5
	}
}`

const legacyStation = `{
	"locationName": "彰化測站",
	"stationId": "46761",
	"time": {"obsTime": "2026-08-30 14:00:00"},
	"weatherElement": [
		{"elementName": "TEMP", "elementValue": "28.4"},
		{"elementName": "AirTemperature", "elementValue": "28.4"},
		{"elementName": "RelativeHumidity", "elementValue": "0.85"},
		{"elementName": "WindSpeed", "elementValue": "3.1"}
	]
}`

func TestExtractStations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"capitalized Station array", `{"records":{"Station":[{},{}]}}`, 2},
		{"lowercase station array", `{"records":{"station":[{}]}}`, 1},
		{"legacy location array", `{"records":{"location":[{},{},{}]}}`, 3},
		{"container wrapping Station", `{"records":{"Stations":{"Station":[{},{}]}}}`, 2},
		{"empty records", `{"records":{}}`, 0},
		{"no records", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractStations(gjson.Parse(tt.payload))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestReadElement(t *testing.T) {
	t.Run("keyed object container", func(t *testing.T) {
		station := gjson.Parse(newFormatStation)
		v := Numeric(ReadElement(station, "AirTemperature"))
		require.NotNil(t, v)
		assert.Equal(t, 31.2, *v)
	})

	t.Run("legacy name-value array", func(t *testing.T) {
		station := gjson.Parse(legacyStation)
		v := Numeric(ReadElement(station, "AirTemperature"))
		require.NotNil(t, v)
		assert.Equal(t, 28.4, *v)
	})

	t.Run("wrapped element value", func(t *testing.T) {
		station := gjson.Parse(`{"WeatherElement":{"AirTemperature":{"ElementValue":"26.5"}}}`)
		v := Numeric(ReadElement(station, "AirTemperature"))
		require.NotNil(t, v)
		assert.Equal(t, 26.5, *v)
	})

	t.Run("missing element", func(t *testing.T) {
		station := gjson.Parse(newFormatStation)
		assert.Nil(t, Numeric(ReadElement(station, "SeaLevelPressure")))
	})
}

func TestReadRain(t *testing.T) {
	station := gjson.Parse(`{
		"RainfallElement": {
			"Now": {"Precipitation": 0.0},
			"Past1hr": {"Precipitation": 1.5},
			"Past3hr": {"Precipitation": 4.0},
			"Past24hr": {"Precipitation": 12.5}
		}
	}`)
	v := Numeric(ReadRain(station, "Past1hr"))
	require.NotNil(t, v)
	assert.Equal(t, 1.5, *v)

	v = Numeric(ReadRain(station, "Past24hr"))
	require.NotNil(t, v)
	assert.Equal(t, 12.5, *v)

	assert.Nil(t, Numeric(ReadRain(station, "Past48hr")))
}

func TestNormalizeObservation(t *testing.T) {
	obs := NormalizeObservation(gjson.Parse(newFormatStation))

	assert.Equal(t, "C0G860", obs.StationID)
	assert.Equal(t, "彰師大", obs.StationName)
	assert.Equal(t, "彰化縣", obs.County)
	assert.Equal(t, "彰化市", obs.Township)
	assert.Equal(t, "晴", obs.Weather)

	require.True(t, obs.HasCoords)
	assert.Equal(t, 24.081, obs.Latitude)
	assert.Equal(t, 120.562, obs.Longitude)
	require.NotNil(t, obs.ObservedAt)

	require.NotNil(t, obs.Temperature)
	assert.Equal(t, 31.2, *obs.Temperature)
	require.NotNil(t, obs.Humidity)
	assert.Equal(t, 66.0, *obs.Humidity, "fractional humidity scales to percent")
	require.NotNil(t, obs.Gust)
	assert.Equal(t, 6.1, *obs.Gust, "gust resolves through GustInfo")
	require.NotNil(t, obs.RainNow)
	assert.Equal(t, 0.5, *obs.RainNow)
}

func TestNormalizeObservationLegacy(t *testing.T) {
	obs := NormalizeObservation(gjson.Parse(legacyStation))

	assert.Equal(t, "46761", obs.StationID)
	assert.Equal(t, "彰化測站", obs.StationName)
	assert.False(t, obs.HasCoords)

	require.NotNil(t, obs.Temperature)
	assert.Equal(t, 28.4, *obs.Temperature)
	require.NotNil(t, obs.Humidity)
	assert.Equal(t, 85.0, *obs.Humidity)
	assert.Nil(t, obs.Gust)
}

func TestPickCampusStation(t *testing.T) {
	t.Run("keyword match wins over order", func(t *testing.T) {
		payload := gjson.Parse(`{"records":{"Station":[
			{"StationName": "員林"},
			{"StationName": "彰師大"}
		]}}`)
		station, ok := PickCampusStation(payload)
		require.True(t, ok)
		assert.Equal(t, "彰師大", StationName(station))
	})

	t.Run("falls back to first station", func(t *testing.T) {
		payload := gjson.Parse(`{"records":{"Station":[{"StationName": "員林"}]}}`)
		station, ok := PickCampusStation(payload)
		require.True(t, ok)
		assert.Equal(t, "員林", StationName(station))
	})

	t.Run("empty payload", func(t *testing.T) {
		_, ok := PickCampusStation(gjson.Parse(`{"records":{}}`))
		assert.False(t, ok)
	})
}

func TestNormalizeAlerts(t *testing.T) {
	payload := gjson.Parse(`{"records":{"location":[
		{
			"locationName": "台中市",
			"hazardConditions": {
				"hazardCondition": [
					{
						"event": "大雨特報",
						"description": "對流雲系發展旺盛",
						"validTime": {"startTime": "2026-08-30 10:00:00", "endTime": "2026-08-30 18:00:00"},
						"severity": "注意"
					}
				]
			}
		},
		{
			"locationName": "彰化縣",
			"hazardConditions": {
				"hazards": {"info": {"phenomena": "陸上強風"}, "startTime": "2026-08-30 12:00:00"}
			}
		}
	]}}`)

	alerts := NormalizeAlerts(payload)
	require.Len(t, alerts, 2)

	assert.Equal(t, "臺中市", alerts[0].Area, "area is canonicalized")
	assert.Equal(t, "台中市", alerts[0].AreaRaw)
	assert.Equal(t, "大雨特報", alerts[0].Title)
	assert.Equal(t, "2026-08-30 10:00:00", alerts[0].Start)
	assert.Equal(t, "2026-08-30 18:00:00", alerts[0].End)
	assert.Equal(t, "注意", alerts[0].Severity)

	assert.Equal(t, "彰化縣", alerts[1].Area)
	assert.Equal(t, "陸上強風", alerts[1].Title, "title falls back to info.phenomena")
}

func TestNormalizeAlertsDirectList(t *testing.T) {
	payload := gjson.Parse(`{"records":{"alert":[
		{"areaName": "彰化縣", "title": "濃霧特報", "description": "能見度不足200公尺"}
	]}}`)
	alerts := NormalizeAlerts(payload)
	require.Len(t, alerts, 1)
	assert.Equal(t, "彰化縣", alerts[0].Area)
	assert.Equal(t, "濃霧特報", alerts[0].Title)
}

func TestFilterAlertsByCounty(t *testing.T) {
	alerts := NormalizeAlerts(gjson.Parse(`{"records":{"location":[
		{"locationName": "台中市", "hazardConditions": {"hazardCondition": [{"event": "大雨特報"}]}},
		{"locationName": "彰化縣", "hazardConditions": {"hazardCondition": [{"event": "濃霧特報"}]}}
	]}}`))
	require.Len(t, alerts, 2)

	got := FilterAlertsByCounty(alerts, "彰化縣")
	require.Len(t, got, 1)
	assert.Equal(t, "濃霧特報", got[0].Title)

	// alias form of the county matches the canonical records
	got = FilterAlertsByCounty(alerts, "台中市")
	require.Len(t, got, 1)
	assert.Equal(t, "大雨特報", got[0].Title)
}

func TestNormalizeForecast(t *testing.T) {
	payload := gjson.Parse(`{"records":{"location":[
		{
			"locationName": "彰化縣",
			"weatherElement": [
				{"elementName": "Wx", "time": [
					{"startTime": "2026-08-30 12:00:00", "endTime": "2026-08-30 18:00:00", "parameter": {"parameterName": "多雲時晴"}},
					{"startTime": "2026-08-30 18:00:00", "endTime": "2026-08-31 06:00:00", "parameter": {"parameterName": "晴時多雲"}}
				]},
				{"elementName": "PoP", "time": [
					{"startTime": "2026-08-30 12:00:00", "endTime": "2026-08-30 18:00:00", "parameter": {"parameterName": "20"}},
					{"startTime": "2026-08-30 18:00:00", "endTime": "2026-08-31 06:00:00", "parameter": {"parameterName": "10"}}
				]},
				{"elementName": "MinT", "time": [
					{"startTime": "2026-08-30 12:00:00", "endTime": "2026-08-30 18:00:00", "parameter": {"parameterName": "26"}},
					{"startTime": "2026-08-30 18:00:00", "endTime": "2026-08-31 06:00:00", "parameter": {"parameterName": "25"}}
				]},
				{"elementName": "MaxT", "time": [
					{"startTime": "2026-08-30 12:00:00", "endTime": "2026-08-30 18:00:00", "parameter": {"parameterName": "33"}},
					{"startTime": "2026-08-30 18:00:00", "endTime": "2026-08-31 06:00:00", "parameter": {"parameterName": "30"}}
				]}
			]
		}
	]}}`)

	slots := NormalizeForecast(payload, "彰化縣")
	require.Len(t, slots, 2)

	assert.Equal(t, "彰化縣", slots[0].Location)
	assert.Equal(t, "2026-08-30 12:00:00", slots[0].Start)
	assert.Equal(t, "2026-08-30 18:00:00", slots[0].End)
	assert.Equal(t, "多雲時晴", slots[0].Wx)
	require.NotNil(t, slots[0].PoP)
	assert.Equal(t, "20", *slots[0].PoP, "PoP read when PoP12h is absent")
	require.NotNil(t, slots[0].MinT)
	assert.Equal(t, "26", *slots[0].MinT)
	require.NotNil(t, slots[0].MaxT)
	assert.Equal(t, "33", *slots[0].MaxT)
}

func TestNormalizeForecastElementValueForm(t *testing.T) {
	payload := gjson.Parse(`{"records":{"location":[
		{
			"locationName": "彰化縣",
			"weatherElement": [
				{"elementName": "PoP12h", "time": [
					{"startTime": "2026-08-30 12:00:00", "elementValue": [{"value": "40"}]}
				]},
				{"elementName": "T", "time": [
					{"startTime": "2026-08-30 12:00:00", "elementValue": [{"value": "29"}]}
				]}
			]
		}
	]}}`)

	slots := NormalizeForecast(payload, "彰化縣")
	require.Len(t, slots, 1)
	require.NotNil(t, slots[0].PoP)
	assert.Equal(t, "40", *slots[0].PoP, "PoP12h preferred")
	require.NotNil(t, slots[0].MinT)
	assert.Equal(t, "29", *slots[0].MinT, "T read when MinT is absent")
}

func TestNormalizeForecastLocationFallback(t *testing.T) {
	payload := gjson.Parse(`{"records":{"location":[
		{"locationName": "南投縣", "weatherElement": [
			{"elementName": "Wx", "time": [{"startTime": "x", "parameter": {"parameterName": "晴"}}]}
		]}
	]}}`)
	slots := NormalizeForecast(payload, "彰化縣")
	require.Len(t, slots, 1)
	assert.Equal(t, "南投縣", slots[0].Location, "no exact match falls back to first location")
}

func TestNormalizeTyphoons(t *testing.T) {
	payload := gjson.Parse(`{"records":{"typhoon":[
		{
			"cwaTyphoonName": "山陀兒",
			"typhoonId": "2411",
			"status": "海上陸上颱風警報",
			"issueTime": "2026-08-30 14:00:00",
			"analysisData": {
				"fix": [
					{"緯度": 21.3, "經度": 123.5, "time": "2026-08-30 02:00:00"},
					{"緯度": 21.9, "經度": 122.8, "time": "2026-08-30 08:00:00"},
					{"緯度": 22.4, "經度": 122.1, "time": "2026-08-30 14:00:00"}
				]
			}
		}
	]}}`)

	typhoons := NormalizeTyphoons(payload)
	require.Len(t, typhoons, 1)
	assert.Equal(t, "山陀兒", typhoons[0].Name)
	assert.Equal(t, "2411", typhoons[0].ID)
	require.Len(t, typhoons[0].Track, 3)
	assert.Equal(t, 21.3, typhoons[0].Track[0].Lat)
	assert.Equal(t, 123.5, typhoons[0].Track[0].Lon)
	assert.Equal(t, "2026-08-30 02:00:00", typhoons[0].Track[0].Time)
}

func TestExtractTrack(t *testing.T) {
	t.Run("single point is not a track", func(t *testing.T) {
		node := gjson.Parse(`{"fix": [{"lat": 21.3, "lon": 123.5}]}`)
		assert.Empty(t, ExtractTrack(node))
	})

	t.Run("nested track found through wrappers", func(t *testing.T) {
		node := gjson.Parse(`{"data": {"forecast": {"points": [
			{"latitude": "22.0", "longitude": "121.5"},
			{"latitude": "22.5", "longitude": "121.0"}
		]}}}`)
		track := ExtractTrack(node)
		require.Len(t, track, 2)
		assert.Equal(t, 22.0, track[0].Lat)
	})

	t.Run("non-coordinate arrays are skipped", func(t *testing.T) {
		node := gjson.Parse(`{"names": ["a", "b", "c"]}`)
		assert.Empty(t, ExtractTrack(node))
	})
}

func TestNormalizeTyphoonsInfosFallback(t *testing.T) {
	payload := gjson.Parse(`{"records":{"typhoonInfos":[
		{"name": "凱米", "id": "2403", "issueTime": "2026-07-24 08:00:00"}
	]}}`)
	typhoons := NormalizeTyphoons(payload)
	require.Len(t, typhoons, 1)
	assert.Equal(t, "凱米", typhoons[0].Name)
}

func TestPickAQISite(t *testing.T) {
	sites := []models.AQIRecord{
		{SiteName: "二林", County: "彰化縣"},
		{SiteName: "彰化", County: "彰化縣"},
		{SiteName: "線西", County: "彰化縣"},
	}

	rec, ok := PickAQISite(sites, []string{"彰化"}, "彰化")
	require.True(t, ok)
	assert.Equal(t, "彰化", rec.SiteName, "first sitename containing the keyword wins")

	rec, ok = PickAQISite(sites, []string{"線西"}, "彰化")
	require.True(t, ok)
	assert.Equal(t, "線西", rec.SiteName)

	_, ok = PickAQISite(sites, []string{"馬公"}, "澎湖")
	assert.False(t, ok)
}

func TestCWAClientFetchDataset(t *testing.T) {
	t.Run("success payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "JSON", r.URL.Query().Get("format"))
			assert.Equal(t, "test-key", r.URL.Query().Get("Authorization"))
			w.Write([]byte(`{"success": "true", "records": {"Station": []}}`))
		}))
		defer srv.Close()

		client := NewCWAClient(srv.URL, "test-key")
		payload, err := client.FetchDataset(context.Background(), DatasetCampus, nil)
		require.NoError(t, err)
		assert.True(t, payload.Get("records").Exists())
	})

	t.Run("application-level failure on HTTP 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": "false", "result": {"message": "invalid authorization key"}}`))
		}))
		defer srv.Close()

		client := NewCWAClient(srv.URL, "bad-key")
		_, err := client.FetchDataset(context.Background(), DatasetCampus, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid authorization key")
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewCWAClient(srv.URL, "")
		_, err := client.FetchDataset(context.Background(), DatasetCampus, nil)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
