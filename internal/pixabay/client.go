package pixabay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/config"
	"github.com/pders01/pixa/internal/debuglog"
	"github.com/pders01/pixa/internal/storage"
)

const (
	DefaultBaseURL = "https://pixabay.com/api/"

	maxBodySize      = 8 << 20
	maxErrorBodySize = 512
	defaultResetWait = 60 * time.Second
)

// Cache stores raw response bodies. *storage.Store implements it.
type Cache interface {
	GetCachedResponse(key string, maxAge time.Duration) ([]byte, bool, error)
	PutCachedResponse(key string, body []byte) error
}

// Response is the body of the image search endpoint.
type Response struct {
	Total     int             `json:"total"`
	TotalHits int             `json:"totalHits"`
	Hits      []storage.Image `json:"hits"`
}

type Client struct {
	baseURL    string
	key        string
	perPage    int
	safeSearch bool
	editors    bool
	userAgent  string
	cacheTTL   time.Duration

	http  *http.Client
	cache Cache
	group singleflight.Group
	log   *debuglog.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.key = key }
}

func NewClient(cfg config.APIConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		key:        cfg.Key,
		perPage:    cfg.PerPage,
		safeSearch: cfg.SafeSearch,
		editors:    cfg.Editors,
		userAgent:  cfg.UserAgent,
		cacheTTL:   cfg.CacheTTL,
		log:        debuglog.WithFields(map[string]interface{}{"component": "pixabay"}),
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.http = &http.Client{Timeout: timeout}

	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.perPage <= 0 {
		c.perPage = 25
	}
	if c.userAgent == "" {
		c.userAgent = "pixa/1.0"
	}
	return c
}

// BaseURL returns the endpoint the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// query adds the fixed parameters to params. The browse "type" filter is
// the API's image_type parameter.
func (c *Client) query(params url.Values) url.Values {
	q := url.Values{}
	for k, vs := range params {
		if k == "type" {
			k = "image_type"
		}
		q[k] = append([]string(nil), vs...)
	}
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("safesearch", strconv.FormatBool(c.safeSearch))
	q.Set("editors", strconv.FormatBool(c.editors))
	return q
}

// Search runs one image search. Identical concurrent calls share a single
// HTTP round trip.
func (c *Client) Search(ctx context.Context, params url.Values) (*Response, error) {
	if c.key == "" {
		return nil, ErrMissingAPIKey
	}

	q := c.query(params)
	cacheKey := q.Encode()

	// A refresh asks for current results; its response still updates the cache.
	fresh := browse.TriggerFrom(ctx) == browse.TriggerRefresh
	if body, ok := c.cached(cacheKey); ok && !fresh {
		var resp Response
		if err := json.Unmarshal(body, &resp); err == nil {
			c.log.Debugf("cache hit %s", cacheKey)
			return &resp, nil
		}
		c.log.Warnf("discarding undecodable cache entry %s", cacheKey)
	}

	ch := c.group.DoChan(cacheKey, func() (any, error) {
		// Shared by every waiter, so it must not die with the first caller.
		// The HTTP client timeout still bounds it.
		body, err := c.fetch(context.WithoutCancel(ctx), q)
		if err == nil && json.Valid(body) {
			c.store(cacheKey, body)
		}
		return body, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		body := res.Val.([]byte)
		var resp Response
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return &resp, nil
	}
}

// Images adapts Search to the browse data source.
func (c *Client) Images(ctx context.Context, params url.Values) (*browse.Page, error) {
	resp, err := c.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &browse.Page{Total: resp.Total, TotalHits: resp.TotalHits, Hits: resp.Hits}, nil
}

func (c *Client) fetch(ctx context.Context, q url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	withKey := url.Values{"key": {c.key}}
	for k, vs := range q {
		withKey[k] = vs
	}
	u.RawQuery = withKey.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching images: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debugf("GET %s -> %d in %s", q.Encode(), resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Reset: resetAfter(resp.Header)}
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func (c *Client) cached(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.GetCachedResponse(key, c.cacheTTL)
	if err != nil {
		c.log.Warnf("reading response cache: %v", err)
		return nil, false
	}
	return body, ok
}

func (c *Client) store(key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.PutCachedResponse(key, body); err != nil {
		c.log.Warnf("writing response cache: %v", err)
	}
}

// resetAfter reads the quota window from X-RateLimit-Reset, then Retry-After.
func resetAfter(h http.Header) time.Duration {
	for _, name := range []string{"X-RateLimit-Reset", "Retry-After"} {
		if v := h.Get(name); v != "" {
			if seconds, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && seconds >= 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return defaultResetWait
}
