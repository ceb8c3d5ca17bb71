// Package marketdata fetches historical daily prices from the Yahoo
// Finance chart API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// NoDataError is returned when the API answers successfully but carries no
// price history for the symbol.
type NoDataError struct {
	Symbol string
}

func (e NoDataError) Error() string {
	return fmt.Sprintf("no price history returned for symbol %s", e.Symbol)
}

// HistoricalPrice is one daily bar. AdjClose falls back to Close when the
// API omits the adjusted series.
type HistoricalPrice struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	AdjClose float64
}

// Client is a Yahoo Finance chart API client with request rate limiting.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewClient creates a Yahoo Finance client. The default limit of 2 requests
// per second keeps bulk syncs under the API's informal throttle.
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chartResponse is the chart API envelope.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetHistoricalPrices fetches daily bars for a symbol between start and end
// (inclusive). Rows where every OHLC field is zero are dropped, matching the
// API's way of encoding market holidays.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]HistoricalPrice, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", fmt.Sprintf("%d", start.Unix()))
	params.Add("period2", fmt.Sprintf("%d", end.Unix()))
	params.Add("events", "div,split")

	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chart API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 {
		return nil, NoDataError{Symbol: symbol}
	}

	chartData := result.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 || len(chartData.Timestamp) == 0 {
		return nil, NoDataError{Symbol: symbol}
	}

	quote := chartData.Indicators.Quote[0]

	var adjCloseData []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloseData = chartData.Indicators.AdjClose[0].AdjClose
	}

	prices := make([]HistoricalPrice, 0, len(chartData.Timestamp))
	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		adjClose := quote.Close[i]
		if i < len(adjCloseData) && adjCloseData[i] != 0 {
			adjClose = adjCloseData[i]
		}

		volume := int64(0)
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:     time.Unix(ts, 0).UTC(),
			Open:     quote.Open[i],
			High:     quote.High[i],
			Low:      quote.Low[i],
			Close:    quote.Close[i],
			Volume:   volume,
			AdjClose: adjClose,
		})
	}

	if len(prices) == 0 {
		return nil, NoDataError{Symbol: symbol}
	}

	c.log.Info().
		Str("symbol", symbol).
		Int("count", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}
