package hexdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public hexdb.io API root.
const DefaultBaseURL = "https://hexdb.io/api/v1"

// Config configures a Client.
type Config struct {
	// BaseURL is the API root; lookups go to BaseURL + "/aircraft/{hex}".
	BaseURL string
	// RequestsPerMinute caps outgoing HTTP requests.
	RequestsPerMinute int
	// Cache is optional persistent storage for found records.
	Cache *Cache
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// Client resolves transponder addresses to aircraft records.
//
// Lookups consult an in-memory LRU, then the SQLite cache, then hexdb.io.
// Cache failures are logged and treated as misses. Negative answers are
// remembered in memory only.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *Cache

	found    *expirable.LRU[string, Aircraft]
	notFound *expirable.LRU[string, struct{}]
}

// NewClient creates a Client from cfg, filling defaults.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:  base,
		http:     hc,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		cache:    cfg.Cache,
		found:    expirable.NewLRU[string, Aircraft](4096, nil, 6*time.Hour),
		notFound: expirable.NewLRU[string, struct{}](4096, nil, time.Hour),
	}
}

// Lookup returns the record for hex. The bool is false when hexdb.io has no
// record. An error means the answer is unknown and may be retried later.
func (c *Client) Lookup(ctx context.Context, hex string) (Aircraft, bool, error) {
	hex, err := NormalizeHex(hex)
	if err != nil {
		return Aircraft{}, false, err
	}

	if a, ok := c.found.Get(hex); ok {
		return a, true, nil
	}
	if _, ok := c.notFound.Get(hex); ok {
		return Aircraft{}, false, nil
	}

	a, ok, err := c.cache.Get(ctx, hex)
	if err != nil {
		log.Printf("hexdb cache read %s: %v", hex, err)
	} else if ok {
		c.found.Add(hex, a)
		return a, true, nil
	}

	a, ok, err = c.fetch(ctx, hex)
	if err != nil {
		return Aircraft{}, false, err
	}
	if !ok {
		c.notFound.Add(hex, struct{}{})
		return Aircraft{}, false, nil
	}
	if err := c.cache.Put(ctx, hex, a); err != nil {
		log.Printf("hexdb cache write %s: %v", hex, err)
	}
	c.found.Add(hex, a)
	return a, true, nil
}

func (c *Client) fetch(ctx context.Context, hex string) (Aircraft, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Aircraft{}, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/aircraft/"+hex, nil)
	if err != nil {
		return Aircraft{}, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Aircraft{}, false, fmt.Errorf("hexdb request %s: %w", hex, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Aircraft{}, false, fmt.Errorf("hexdb read %s: %w", hex, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Aircraft{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Aircraft{}, false, fmt.Errorf("hexdb %s: status %d", hex, resp.StatusCode)
	}
	// hexdb.io answers unknown addresses with 200 and an error object.
	if strings.Contains(string(body), "error") {
		return Aircraft{}, false, nil
	}

	var a Aircraft
	if err := json.Unmarshal(body, &a); err != nil {
		return Aircraft{}, false, fmt.Errorf("hexdb decode %s: %w", hex, err)
	}
	if a.ModeS == "" {
		a.ModeS = hex
	}
	return a, true, nil
}
