package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"coindash/internal/market"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	maxErrorBody   = 2048
)

// Options parameterise the CoinGecko client.
type Options struct {
	BaseURL           string
	APIKey            string
	APIKeyHeader      string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerMinute float64
}

// Client talks to the CoinGecko public REST API.
type Client struct {
	opts    Options
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New constructs a CoinGecko client.
func New(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerMinute/60), 1)
	}

	return &Client{
		opts:    opts,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With().Str("component", "coingecko").Logger(),
	}
}

// Markets returns the top assets by market cap, descending.
func (c *Client) Markets(ctx context.Context, cur market.Currency, limit int) ([]market.Asset, error) {
	if limit <= 0 {
		limit = market.DefaultListingSize
	}
	q := url.Values{}
	q.Set("vs_currency", cur.String())
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", "1")
	q.Set("price_change_percentage", "24h")

	var rows []marketRow
	if err := c.getJSON(ctx, "markets", "/coins/markets", q, &rows); err != nil {
		return nil, err
	}

	assets := make([]market.Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, row.asset())
	}
	return assets, nil
}

// Coin returns the extended market data of one asset.
func (c *Client) Coin(ctx context.Context, id string) (market.Detail, error) {
	if strings.TrimSpace(id) == "" {
		return market.Detail{}, fmt.Errorf("coin: empty id: %w", market.ErrNotFound)
	}
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("market_data", "true")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	q.Set("sparkline", "false")

	var res coinResponse
	if err := c.getJSON(ctx, "coin", "/coins/"+url.PathEscape(id), q, &res); err != nil {
		return market.Detail{}, err
	}
	if res.ID == "" {
		return market.Detail{}, fmt.Errorf("coin %s: %w", id, market.ErrNotFound)
	}
	return res.detail(), nil
}

// MarketChart returns the daily price series over the last days.
func (c *Client) MarketChart(ctx context.Context, id string, cur market.Currency, days int) ([]market.PricePoint, error) {
	if days <= 0 {
		days = market.DefaultHistoryDays
	}
	q := url.Values{}
	q.Set("vs_currency", cur.String())
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")

	var res chartResponse
	if err := c.getJSON(ctx, "market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", q, &res); err != nil {
		return nil, err
	}

	points := make([]market.PricePoint, len(res.Prices))
	for i, p := range res.Prices {
		points[i] = market.PricePoint(p)
	}
	return points, nil
}

// Search looks up coins by free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]market.SearchHit, error) {
	q := url.Values{}
	q.Set("query", query)

	var res searchResponse
	if err := c.getJSON(ctx, "search", "/search", q, &res); err != nil {
		return nil, err
	}

	hits := make([]market.SearchHit, 0, len(res.Coins))
	for _, coin := range res.Coins {
		hits = append(hits, market.SearchHit{
			ID:            coin.ID,
			Name:          coin.Name,
			Symbol:        coin.Symbol,
			Thumb:         coin.Thumb,
			MarketCapRank: coin.MarketCapRank,
		})
	}
	return hits, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &market.NetworkError{Op: op, Err: err}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "coindash/1.0")
	}
	if c.opts.APIKey != "" {
		header := c.opts.APIKeyHeader
		if header == "" {
			header = "x-cg-demo-api-key"
		}
		req.Header.Set(header, c.opts.APIKey)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &market.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("elapsed", time.Since(started)).Msg("coingecko request")

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := parseHTTPError(resp.StatusCode, payload)
		if resp.StatusCode == http.StatusNotFound && op == "coin" {
			return fmt.Errorf("%s: %w", apiErr.Error(), market.ErrNotFound)
		}
		return &market.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: apiErr}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &market.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("coingecko api error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Status.ErrorMessage != "" {
			return fmt.Errorf("coingecko api error (%d): %s", status, apiErr.Status.ErrorMessage)
		}
	}
	if text := strings.TrimSpace(string(payload)); text != "" {
		return fmt.Errorf("coingecko api error (%d): %s", status, text)
	}
	return errors.New("coingecko api error")
}

var _ market.Fetcher = (*Client)(nil)
