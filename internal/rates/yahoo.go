package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

const (
	defaultYahooURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// yahooChartResponse is the subset of the chart API response we read.
type yahooChartResponse struct {
	Chart struct {
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// YahooSource reads FX quotes from the Yahoo Finance chart API.
type YahooSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// YahooOption configures a YahooSource.
type YahooOption func(*YahooSource)

// WithYahooBaseURL points the source at a different chart endpoint.
func WithYahooBaseURL(url string) YahooOption {
	return func(y *YahooSource) {
		y.baseURL = strings.TrimRight(url, "/")
	}
}

// WithYahooHTTPClient sets the HTTP client.
func WithYahooHTTPClient(c *http.Client) YahooOption {
	return func(y *YahooSource) {
		y.httpClient = c
	}
}

// WithYahooLogger sets the logger.
func WithYahooLogger(l *slog.Logger) YahooOption {
	return func(y *YahooSource) {
		y.logger = l
	}
}

// NewYahooSource creates a Yahoo Finance source.
func NewYahooSource(opts ...YahooOption) *YahooSource {
	y := &YahooSource{
		baseURL:    defaultYahooURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name implements Source.
func (y *YahooSource) Name() string {
	return "yahoo"
}

// FetchRates queries USD/A, USD/B and A/B concurrently. Individual symbol
// failures are logged and skipped.
func (y *YahooSource) FetchRates(ctx context.Context, currencyA, currencyB string) (Table, error) {
	currencyA, currencyB = model.NormalizeCode(currencyA), model.NormalizeCode(currencyB)

	var mu sync.Mutex
	result := Table{}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range wantedPairs(currencyA, currencyB) {
		g.Go(func() error {
			rate, err := y.quote(gctx, p[0], p[1])
			if err != nil {
				y.logger.Debug("Yahoo quote failed",
					"pair", p[0]+"/"+p[1],
					"error", err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			return result.Set(p[0], p[1], rate)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: yahoo: %w", common.ErrRateSource, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: yahoo: %w", common.ErrRateSource, common.ErrNoRates)
	}
	return result, nil
}

func (y *YahooSource) quote(ctx context.Context, base, quote string) (float64, error) {
	url := fmt.Sprintf("%s/%s%s=X?interval=1d&range=1d", y.baseURL, base, quote)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			y.logger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, common.ErrRateLimit
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	var data yahooChartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if data.Chart.Error != nil {
		return 0, fmt.Errorf("yahoo API error: %s - %s", data.Chart.Error.Code, data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 {
		return 0, fmt.Errorf("empty response for %s%s", base, quote)
	}

	meta := data.Chart.Result[0].Meta
	rate := meta.RegularMarketPrice
	if !ValidRate(rate) {
		rate = meta.PreviousClose
	}
	if !ValidRate(rate) {
		return 0, fmt.Errorf("%w: %s%s", common.ErrInvalidRate, base, quote)
	}
	return rate, nil
}
