// Package candleapi is a client for the broker's historical candle and
// streaming quote API. Session login uses a time-based OTP derived from the
// account's TOTP secret, so fetch jobs can run unattended.
package candleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"backtest-systemv1/internal/model"
)

const (
	defaultBaseURL = "https://apiconnect.brokerhub.example"
	defaultTimeout = 7 * time.Second

	routeLogin   = "/rest/auth/user/v1/loginByPassword"
	routeLogout  = "/rest/secure/user/v1/logout"
	routeCandles = "/rest/secure/historical/v1/getCandleData"
)

// Config configures the API client.
type Config struct {
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string // base32 secret used to mint login OTPs

	BaseURL string        // default: production endpoint
	Timeout time.Duration // default: 7s
	Debug   bool
}

// Client is a thin HTTP client around the candle API. Safe for sequential
// use; callers needing concurrency should create one per goroutine.
type Client struct {
	cfg        Config
	httpClient *http.Client

	accessToken string
	feedToken   string

	// Called when the API reports an expired session (403 TokenException).
	SessionExpiryHook func()
}

// NewClient creates a Client. Call Login before fetching candles.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// FeedToken returns the streaming feed token obtained at login.
func (c *Client) FeedToken() string { return c.feedToken }

// Login opens a session: mints a fresh TOTP from the configured secret and
// exchanges the credentials for access and feed tokens.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("totp generate: %w", err)
	}

	res, err := c.post(ctx, routeLogin, map[string]any{
		"clientcode": c.cfg.ClientCode,
		"password":   c.cfg.Password,
		"totp":       code,
	})
	if err != nil {
		return err
	}

	data, ok := res["data"].(map[string]any)
	if !ok {
		return fmt.Errorf("unexpected login response format")
	}
	c.accessToken, _ = data["jwtToken"].(string)
	c.feedToken, _ = data["feedToken"].(string)
	if c.accessToken == "" {
		return fmt.Errorf("login response missing token")
	}

	log.Printf("[candleapi] session opened for %s", c.cfg.ClientCode)
	return nil
}

// Logout terminates the session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.post(ctx, routeLogout, map[string]any{"clientcode": c.cfg.ClientCode})
	c.accessToken = ""
	c.feedToken = ""
	return err
}

// GetCandles fetches daily bars for a symbol in [from, to]. The API returns
// rows of [date, open, high, low, close, volume].
func (c *Client) GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	res, err := c.post(ctx, routeCandles, map[string]any{
		"symboltoken": symbol,
		"interval":    "ONE_DAY",
		"fromdate":    from.Format("2006-01-02 15:04"),
		"todate":      to.Format("2006-01-02 15:04"),
	})
	if err != nil {
		return nil, err
	}

	rows, ok := res["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("candle response missing data rows")
	}

	bars := make([]model.PriceBar, 0, len(rows))
	for i, raw := range rows {
		row, ok := raw.([]any)
		if !ok || len(row) < 6 {
			return nil, fmt.Errorf("candle row %d malformed", i)
		}
		dateStr, _ := row[0].(string)
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("candle row %d: bad date %q: %w", i, dateStr, err)
		}
		bars = append(bars, model.PriceBar{
			Symbol: symbol,
			Date:   date.UTC(),
			Open:   asFloat(row[1]),
			High:   asFloat(row[2]),
			Low:    asFloat(row[3]),
			Close:  asFloat(row[4]),
			Volume: asFloat(row[5]),
		})
	}
	return bars, nil
}

func (c *Client) post(ctx context.Context, route string, params map[string]any) (map[string]any, error) {
	body, _ := json.Marshal(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-PrivateKey", c.cfg.APIKey)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	if c.cfg.Debug {
		log.Printf("[candleapi] POST %s params=%v", route, params)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", route, err)
	}
	if c.cfg.Debug {
		log.Printf("[candleapi] response code=%d body=%s", resp.StatusCode, raw)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", route, err)
	}

	if et, _ := out["error_type"].(string); et != "" {
		if c.SessionExpiryHook != nil && resp.StatusCode == http.StatusForbidden && et == "TokenException" {
			c.SessionExpiryHook()
		}
		msg, _ := out["message"].(string)
		return out, fmt.Errorf("%s: %s", et, msg)
	}
	if st, ok := out["status"].(bool); ok && !st {
		msg, _ := out["message"].(string)
		return out, fmt.Errorf("%s failed: %s", route, msg)
	}
	return out, nil
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
