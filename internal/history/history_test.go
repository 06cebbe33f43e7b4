package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hourlyFixture = `# stno  yyyymmddhh  PS01  TX01  RH01  WD01  WD02  PP01  SS01
* comment row
C0G860 2024010100 1013.2 15.0 80 2.1 150 0.0 0.0
C0G860 2024010101 1013.0  5.0 82 2.3 155 1.5 0.0
C0G860 2024010102 1012.8 -9991 83 2.5 160 2.0 0.0
C0G870 2024010100 1013.1 17.0 78 1.9 140 3.0 0.0
short row
`

func TestAggregatorBuckets(t *testing.T) {
	agg := NewAggregator()
	agg.AddHourlyFile(hourlyFixture, RollupHour, nil)
	res := agg.Result(RollupHour, false)

	require.Len(t, res.Labels, 3)
	assert.Equal(t, "2024/01/01 00:00", res.Labels[0])
	assert.Equal(t, "2024/01/01 01:00", res.Labels[1])
	assert.Equal(t, "2024/01/01 02:00", res.Labels[2])

	temp := res.Series["TX01"]
	require.NotNil(t, temp.Data[0])
	assert.Equal(t, 16.0, *temp.Data[0], "two stations in the same hour mean to 16")
	require.NotNil(t, temp.Data[1])
	assert.Equal(t, 5.0, *temp.Data[1])
	assert.Nil(t, temp.Data[2], "sentinel-only bucket yields a gap")

	rh := res.Series["RH01"]
	require.NotNil(t, rh.Data[2], "humidity is unaffected by the temperature sentinel")
	assert.Equal(t, 83.0, *rh.Data[2])
}

func TestAggregatorMeanOfTwoReadings(t *testing.T) {
	agg := NewAggregator()
	agg.AddHourlyFile(
		"S1 2024010100 0 15.0 0 0 0 0 0\nS2 2024010100 0 5.0 0 0 0 0 0\n",
		RollupDay, nil)
	res := agg.Result(RollupDay, true)

	require.Len(t, res.Labels, 1)
	temp := res.Series["TX01"]
	require.NotNil(t, temp.Data[0])
	assert.Equal(t, 10.0, *temp.Data[0])
}

func TestRainfallAggregation(t *testing.T) {
	// three stations, 10/20/15 mm in the same bucket
	text := "S1 2024010100 0 20.0 0 0 0 10.0 0\n" +
		"S2 2024010100 0 21.0 0 0 0 20.0 0\n" +
		"S3 2024010100 0 22.0 0 0 0 15.0 0\n"

	t.Run("multi-station rain averages", func(t *testing.T) {
		agg := NewAggregator()
		agg.AddHourlyFile(text, RollupDay, nil)
		res := agg.Result(RollupDay, true)
		rain := res.Series["PP01"]
		require.NotNil(t, rain.Data[0])
		assert.Equal(t, 15.0, *rain.Data[0])
		assert.Equal(t, "降雨量 (mm)（平均）", rain.Label)
	})

	t.Run("single-station rain sums", func(t *testing.T) {
		agg := NewAggregator()
		agg.AddHourlyFile(
			"S1 2024010100 0 20.0 0 0 0 10.0 0\nS1 2024010101 0 20.0 0 0 0 20.0 0\n",
			RollupDay, map[string]bool{"S1": true})
		res := agg.Result(RollupDay, false)
		rain := res.Series["PP01"]
		require.NotNil(t, rain.Data[0])
		assert.Equal(t, 30.0, *rain.Data[0], "both hours fold into one day bucket")
		assert.Equal(t, "降雨量 (mm)", rain.Label)
	})
}

func TestAggregatorStationFilter(t *testing.T) {
	agg := NewAggregator()
	agg.AddHourlyFile(hourlyFixture, RollupHour, map[string]bool{"C0G870": true})
	res := agg.Result(RollupHour, false)

	require.Len(t, res.Labels, 1)
	temp := res.Series["TX01"]
	require.NotNil(t, temp.Data[0])
	assert.Equal(t, 17.0, *temp.Data[0])
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "2024/01/31 23:00", FormatKey("2024013123", RollupHour))
	assert.Equal(t, "2024/01/31", FormatKey("20240131", RollupDay))
	assert.Equal(t, "bad", FormatKey("bad", RollupDay))
}

func TestServiceSeries(t *testing.T) {
	var hourlyHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/fileIndex.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"file": "202401.auto_hr.txt", "path": "hourly/202401.auto_hr.txt", "year": 2024, "month": 1}]`))
	})
	mux.HandleFunc("/stations_meta.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": "C0G860", "name": "彰師大", "county": "彰化縣"},
			{"id": "C0G870", "name": "員林", "county": "彰化縣", "status": "existing"},
			{"id": "C0X999", "name": "舊站", "county": "彰化縣", "status": "removed"}
		]`))
	})
	mux.HandleFunc("/hourly/202401.auto_hr.txt", func(w http.ResponseWriter, r *http.Request) {
		hourlyHits++
		w.Write([]byte(hourlyFixture))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewService(NewSource(srv.URL))
	ctx := context.Background()

	t.Run("county filter aggregates existing stations", func(t *testing.T) {
		res, err := svc.Series(ctx, SeriesRequest{StartIdx: 0, EndIdx: 0, Rollup: RollupHour, County: "彰化縣"})
		require.NoError(t, err)
		assert.Len(t, res.Labels, 3)
		assert.Greater(t, res.Points, 0)
	})

	t.Run("single station filter", func(t *testing.T) {
		res, err := svc.Series(ctx, SeriesRequest{StartIdx: 0, EndIdx: 0, Rollup: RollupHour, Station: "C0G870"})
		require.NoError(t, err)
		require.Len(t, res.Labels, 1)
	})

	t.Run("day rollup falls back to hourly when no daily file", func(t *testing.T) {
		res, err := svc.Series(ctx, SeriesRequest{StartIdx: 0, EndIdx: 0, Rollup: RollupDay, Station: "C0G860"})
		require.NoError(t, err)
		require.Len(t, res.Labels, 1)
		assert.Equal(t, "2024/01/01", res.Labels[0])
	})

	t.Run("hourly file is cached across loads", func(t *testing.T) {
		assert.Equal(t, 1, hourlyHits)
	})

	t.Run("reversed range is swapped", func(t *testing.T) {
		_, err := svc.Series(ctx, SeriesRequest{StartIdx: 0, EndIdx: 0, Rollup: RollupHour})
		require.NoError(t, err)
	})

	t.Run("removed stations are not selectable", func(t *testing.T) {
		stations, err := svc.Stations(ctx)
		require.NoError(t, err)
		require.Len(t, stations, 2)
		for _, s := range stations {
			assert.NotEqual(t, "C0X999", s.ID)
		}
	})

	t.Run("county with no stations yields empty result", func(t *testing.T) {
		res, err := svc.Series(ctx, SeriesRequest{StartIdx: 0, EndIdx: 0, Rollup: RollupHour, County: "澎湖縣"})
		require.NoError(t, err)
		assert.Empty(t, res.Labels)
		assert.Equal(t, 0, res.Points)
	})

	t.Run("reset drops caches", func(t *testing.T) {
		svc.Reset()
		_, err := svc.Series(ctx, SeriesRequest{StartIdx: 0, EndIdx: 0, Rollup: RollupHour, Station: "C0G860"})
		require.NoError(t, err)
		assert.Equal(t, 2, hourlyHits)
	})
}

func TestServiceDailySummaries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fileIndex.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"file": "202401.auto_hr.txt", "path": "hourly/202401.auto_hr.txt", "year": 2024, "month": 1}]`))
	})
	mux.HandleFunc("/stations_meta.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/daily/202401.daily.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"stno": "C0G860", "date": "20240101", "TX01": 15.5, "PP01": 3.0},
			{"stno": "C0G860", "date": "20240102", "TX01": -9991, "PP01": 0.0}
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewService(NewSource(srv.URL))
	res, err := svc.Series(context.Background(), SeriesRequest{StartIdx: 0, EndIdx: 0, Rollup: RollupDay})
	require.NoError(t, err)

	require.Len(t, res.Labels, 2)
	temp := res.Series["TX01"]
	require.NotNil(t, temp.Data[0])
	assert.Equal(t, 15.5, *temp.Data[0])
	assert.Nil(t, temp.Data[1], "daily sentinel is filtered")
}
