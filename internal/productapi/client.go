// Package productapi implements the HTTP client for the retailer product API.
// Every outbound request passes through a rate limiter plus a jittered pause,
// a mandatory side effect that keeps the crawl inside the remote service's
// implicit limits.
package productapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

// Config holds the settings for the API client. This struct is decoupled
// from Viper so the client is testable without a full config tree.
type Config struct {
	BaseURL   string
	Language  string
	Warehouse string
	UserAgent string
	Timeout   time.Duration
	// MaxRPS caps the outbound request rate; <= 0 disables the cap and
	// leaves only the jittered pause.
	MaxRPS float64
	// ProductDelay is the nominal pause before a product fetch;
	// ProductJitter is subtracted uniformly and ProductDelayFloor is the
	// hard minimum, mirroring max(floor, delay - uniform(0, jitter)).
	ProductDelay      time.Duration
	ProductJitter     time.Duration
	ProductDelayFloor time.Duration
	// RelatedDelay is the fixed pause before a cross-selling fetch.
	RelatedDelay time.Duration
}

// Client issues product and related-product requests against the API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        Config
	logger     *zap.Logger

	// sleep is swappable so tests run without real pauses.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	limit := rate.Limit(cfg.MaxRPS)
	if cfg.MaxRPS <= 0 {
		limit = rate.Inf
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		cfg:        cfg,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// relatedResponse is the wire shape of the cross-selling endpoint.
type relatedResponse struct {
	Results []struct {
		ID catalog.ID `json:"id"`
	} `json:"results"`
}

// Product fetches the raw product record for id and returns the response
// body verbatim so callers can cache it byte-for-byte.
func (c *Client) Product(ctx context.Context, id string) ([]byte, error) {
	if err := c.pause(ctx, c.productPause()); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/products/%s/?%s", c.cfg.BaseURL, url.PathEscape(id), c.query(nil))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("product %s: malformed response body", id)
	}
	return body, nil
}

// Related fetches the cross-selling list for id and returns the normalized
// related product ids.
func (c *Client) Related(ctx context.Context, id string) ([]string, error) {
	if err := c.pause(ctx, c.cfg.RelatedDelay); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/products/%s/xselling/?%s", c.cfg.BaseURL, url.PathEscape(id), c.query(map[string]string{"exclude": ""}))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var resp relatedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode related list for %s: %w", id, err)
	}
	ids := make([]string, 0, len(resp.Results))
	for _, item := range resp.Results {
		if item.ID != "" {
			ids = append(ids, string(item.ID))
		}
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.cfg.BaseURL+"/")
	req.Header.Set("Origin", c.cfg.BaseURL)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Cache-Control", "no-cache")
}

func (c *Client) query(extra map[string]string) string {
	q := url.Values{}
	q.Set("lang", c.cfg.Language)
	q.Set("wh", c.cfg.Warehouse)
	for k, v := range extra {
		q.Set(k, v)
	}
	return q.Encode()
}

// productPause samples the jittered pre-request delay:
// max(floor, delay - uniform(0, jitter)).
func (c *Client) productPause() time.Duration {
	d := c.cfg.ProductDelay
	if c.cfg.ProductJitter > 0 {
		d -= rand.N(c.cfg.ProductJitter)
	}
	if d < c.cfg.ProductDelayFloor {
		d = c.cfg.ProductDelayFloor
	}
	return d
}

func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if d <= 0 {
		return nil
	}
	return c.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("throttle wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
