package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartBody(timestamps []int64, closes, adjCloses []float64) string {
	ts, cl, adj := "[", "[", "["
	for i := range timestamps {
		if i > 0 {
			ts += ","
			cl += ","
			adj += ","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		cl += fmt.Sprintf("%g", closes[i])
		adj += fmt.Sprintf("%g", adjCloses[i])
	}
	ts += "]"
	cl += "]"
	adj += "]"

	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":%s,"indicators":{
		"quote":[{"open":%s,"high":%s,"low":%s,"close":%s,"volume":[100,200,300]}],
		"adjclose":[{"adjclose":%s}]}}],"error":null}}`, ts, cl, cl, cl, cl, adj)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(zerolog.Nop(), WithBaseURL(srv.URL), WithRateLimit(1000, 1000))
}

func TestGetHistoricalPrices(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		assert.NotEmpty(t, r.URL.Query().Get("period2"))
		fmt.Fprint(w, chartBody(
			[]int64{base, base + day, base + 2*day},
			[]float64{100, 101, 102},
			[]float64{99.5, 100.5, 101.5},
		))
	})

	prices, err := c.GetHistoricalPrices(context.Background(), "AAPL",
		time.Unix(base, 0), time.Unix(base+3*day, 0))
	require.NoError(t, err)
	require.Len(t, prices, 3)

	assert.Equal(t, "2024-01-02", prices[0].Date.Format("2006-01-02"))
	assert.Equal(t, 100.0, prices[0].Close)
	assert.Equal(t, 99.5, prices[0].AdjClose)
	assert.Equal(t, int64(100), prices[0].Volume)
}

func TestGetHistoricalPrices_AdjCloseFallsBackToClose(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d],"indicators":{
			"quote":[{"open":[100],"high":[101],"low":[99],"close":[100.5],"volume":[10]}]}}],"error":null}}`, ts)
	})

	prices, err := c.GetHistoricalPrices(context.Background(), "AAPL", time.Unix(ts, 0), time.Unix(ts+1, 0))
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, 100.5, prices[0].AdjClose)
}

func TestGetHistoricalPrices_SkipsAllZeroRows(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d],"indicators":{
			"quote":[{"open":[0,100],"high":[0,101],"low":[0,99],"close":[0,100.5],"volume":[0,10]}]}}],"error":null}}`,
			base, base+day)
	})

	prices, err := c.GetHistoricalPrices(context.Background(), "AAPL", time.Unix(base, 0), time.Unix(base+2*day, 0))
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, 100.5, prices[0].Close)
}

func TestGetHistoricalPrices_NoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})

	_, err := c.GetHistoricalPrices(context.Background(), "ZZZZ", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)

	var noData NoDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, "ZZZZ", noData.Symbol)
}

func TestGetHistoricalPrices_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})

	_, err := c.GetHistoricalPrices(context.Background(), "BAD", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chart API error")
}

func TestGetHistoricalPrices_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := c.GetHistoricalPrices(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
