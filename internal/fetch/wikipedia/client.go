// Package wikipedia fetches the plain-text extract of a Wikipedia page
// through the MediaWiki action API.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"askip/internal/domain"
	"askip/internal/logger"
)

const (
	DefaultEndpoint          = "https://{lang}.wikipedia.org/w/api.php"
	DefaultUserAgent         = "askip/0.1 (https://github.com/askip/askip)"
	DefaultTimeout           = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRequestsPerSecond = 2.0
	DefaultRetryBase         = 200 * time.Millisecond

	maxRetryDelay = 5 * time.Second
)

// Config configures the client. Endpoint may contain {lang}, replaced by the
// language edition of each request.
type Config struct {
	Endpoint          string
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	RetryBase         time.Duration
	HTTPClient        *http.Client
}

// Client implements domain.Fetcher for Wikipedia sources.
type Client struct {
	endpoint   string
	userAgent  string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
}

// NewClient creates a client, filling unset fields with the defaults.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		userAgent:  cfg.UserAgent,
		client:     hc,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
	}
}

// Fetch returns the plain-text extract of the page, section titles rendered
// as "== Title ==" lines. A missing page wraps domain.ErrNotFound.
func (c *Client) Fetch(ctx context.Context, src domain.Source) (string, error) {
	if src.Kind != domain.SourceWikipedia {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, domain.ErrInvalidSource)
	}
	lang := src.Language
	if lang == "" {
		lang = "en"
	}
	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("prop", "extracts")
	q.Set("explaintext", "1")
	q.Set("redirects", "1")
	q.Set("titles", src.Identifier)
	endpoint := strings.ReplaceAll(c.endpoint, "{lang}", url.PathEscape(lang))

	start := time.Now()
	body, err := c.get(ctx, endpoint+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, err)
	}
	if apiErr := gjson.GetBytes(body, "error.info"); apiErr.Exists() {
		return "", fmt.Errorf("%w: %s: %s", domain.ErrDocumentFetch, src, apiErr.String())
	}
	page := gjson.GetBytes(body, "query.pages.0")
	if !page.Exists() || page.Get("missing").Bool() || page.Get("invalid").Bool() {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, domain.ErrNotFound)
	}
	extract := page.Get("extract").String()
	if strings.TrimSpace(extract) == "" {
		return "", fmt.Errorf("%w: %s: page has no text", domain.ErrDocumentFetch, src)
	}
	logger.Debug("wikipedia page fetched",
		zap.String("title", page.Get("title").String()),
		zap.String("lang", lang),
		zap.Int("bytes", len(extract)),
		zap.Duration("took", time.Since(start)),
	)
	return extract, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil || attempt == c.maxRetries {
				return nil, err
			}
			logger.Debug("wikipedia request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			if err := sleep(ctx, c.retryDelay(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := c.retryDelay(attempt)
			// Respect Retry-After if provided
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
				delay = time.Duration(secs) * time.Second
			}
			_ = resp.Body.Close()
			if attempt == c.maxRetries {
				return nil, fmt.Errorf("wikipedia api: %s", resp.Status)
			}
			logger.Debug("wikipedia throttled, retrying",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("wikipedia api: %s", resp.Status)
		}
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(payload) {
			return nil, errors.New("wikipedia api: malformed JSON response")
		}
		return payload, nil
	}
	return nil, errors.New("wikipedia api: retries exhausted")
}

// exponential backoff capped at maxRetryDelay
func (c *Client) retryDelay(attempt int) time.Duration {
	d := c.retryBase << max(attempt, 0)
	return min(d, maxRetryDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
