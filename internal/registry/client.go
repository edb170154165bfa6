package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Client configuration defaults.
const (
	DefaultBaseURL             = "https://repo1.maven.org/maven2"
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second
	DefaultCacheSize           = 512
	DefaultConcurrency         = 8
	userAgent                  = "sbtup"
)

// ErrNotFound is returned when a group or artifact has no index page.
var ErrNotFound = errors.New("not found in registry")

// Client reads directory listings from a Maven repository.
type Client struct {
	baseURL     string
	client      *http.Client
	logger      *slog.Logger
	concurrency int
	cacheSize   int

	// Listing cache keyed by index URL
	cache  *lru.Cache[string, []string]
	flight singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the HTTP request timeout.
// Zero or negative values fall back to the default timeout (15 seconds).
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithCacheSize bounds the number of cached index pages.
func WithCacheSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.cacheSize = size
		}
	}
}

// WithConcurrency bounds the number of artifacts looked up at once by
// VersionsForAll.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the repository at baseURL. An empty baseURL
// selects Maven Central.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		concurrency: DefaultConcurrency,
		cacheSize:   DefaultCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cache, err := lru.New[string, []string](c.cacheSize)
	if err != nil {
		// Only reachable with a non-positive size, which the options reject.
		panic(err)
	}
	c.cache = cache
	return c
}

// BaseURL returns the repository base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClearCache removes all cached listings.
func (c *Client) ClearCache() {
	c.cache.Purge()
}

func (c *Client) groupURL(org string) string {
	return fmt.Sprintf("%s/%s/", c.baseURL, strings.ReplaceAll(org, ".", "/"))
}

func (c *Client) artifactURL(org, artifact string) string {
	return c.groupURL(org) + artifact + "/"
}

// listing returns the directory entries linked from an index page. Results are
// cached by URL and concurrent requests for one URL share a single fetch.
func (c *Client) listing(ctx context.Context, url string) ([]string, error) {
	if cached, ok := c.cache.Get(url); ok {
		return cached, nil
	}

	v, err, _ := c.flight.Do(url, func() (any, error) {
		body, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		dirs, err := parseListing(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse index %s: %w", url, err)
		}
		c.cache.Add(url, dirs)
		return dirs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// fetch performs an HTTP GET and returns the response body.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("fetching index", "url", url)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
