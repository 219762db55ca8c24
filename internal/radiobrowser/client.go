package radiobrowser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when the directory cannot be reached or answers
// with an unexpected status.
var ErrUnavailable = errors.New("station directory unavailable")

// DefaultBaseURL round-robins over the public directory mirrors.
const DefaultBaseURL = "https://all.api.radio-browser.info"

const (
	defaultTimeout        = 10 * time.Second
	defaultUserAgent      = "broadcastrec/dev"
	defaultRateLimit      = 2
	defaultRateLimitBurst = 4
)

// Options configures the directory client.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	RateLimit      rate.Limit
	RateLimitBurst int
}

// Client queries the station directory over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a client for the directory at baseURL.
func NewClient(baseURL string, opts Options) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	nopts := normalizeOptions(opts)

	return &Client{
		BaseURL: trimmed,
		HTTPClient: &http.Client{
			Timeout: nopts.Timeout,
		},
		userAgent: nopts.UserAgent,
		limiter:   rate.NewLimiter(nopts.RateLimit, nopts.RateLimitBurst),
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	return opts
}

// StationByUUID looks a station up by its directory identifier. The
// directory answers with a list that normally holds exactly one record.
func (c *Client) StationByUUID(ctx context.Context, uuid string) ([]Station, error) {
	var stations []Station
	path := "/json/stations/byuuid/" + url.PathEscape(uuid)
	if err := c.get(ctx, path, nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// SearchByName returns stations whose name matches exactly, in the order of
// the directory's vote sort.
func (c *Client) SearchByName(ctx context.Context, name string) ([]Station, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("name_exact", "true")
	params.Set("order", "votes")

	var stations []Station
	if err := c.get(ctx, "/json/stations/search", params, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: directory returned status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}
