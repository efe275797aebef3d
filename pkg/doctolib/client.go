// Package doctolib implements the rate-limited, cache-aware JSON client used
// for every request against the booking site.
package doctolib

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lmarchal/doctoveille/internal/utils"
	"github.com/lmarchal/doctoveille/pkg/ledger"
	"github.com/lmarchal/doctoveille/pkg/webcache"
)

// UserAgent mimics a real browser: the site rejects default client signatures.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

var (
	// ErrUnfetchable marks URLs that are never requested (malformed or non-HTTPS).
	ErrUnfetchable = errors.New("URL is not fetchable")
	// ErrBudgetExhausted means the category's sliding-window quota is used up.
	// The fetch is refused, not queued.
	ErrBudgetExhausted = errors.New("request budget exhausted")
)

// Limit is a sliding-window request budget.
type Limit struct {
	Window time.Duration
	Quota  int
}

// DefaultLimits returns the per-category budgets: 5000 requests per 24h each.
func DefaultLimits() map[Category]Limit {
	day := Limit{Window: 24 * time.Hour, Quota: 5000}
	return map[Category]Limit{
		CategoryMainSite:       day,
		CategoryAvailabilities: day,
		CategoryOnlineBooking:  day,
	}
}

// Client is the single owner of network state. Construct one per process and
// pass it to every resolver; all callers share its ledger, and the
// prune-check-append-save sequence runs under one mutex.
type Client struct {
	// HTTP is exported so tests and the proxy flag can swap the transport.
	HTTP *retryablehttp.Client

	mu     sync.Mutex
	ledger *ledger.Ledger
	store  *ledger.FileStore
	cache  *webcache.Cache
	limits map[Category]Limit
}

// NewClient loads the persisted ledger and builds the client. cache may be
// nil, in which case FetchJSONCached always hits the network.
func NewClient(store *ledger.FileStore, cache *webcache.Cache) (*Client, error) {
	led, err := store.Load()
	if err != nil {
		return nil, err
	}

	rc := retryablehttp.NewClient()
	// Failed fetches are skipped within a run; retrying is left to the next
	// scheduled run.
	rc.RetryMax = 0
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil

	return &Client{
		HTTP:   rc,
		ledger: led,
		store:  store,
		cache:  cache,
		limits: DefaultLimits(),
	}, nil
}

// Close flushes the ledger and releases the cache.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(c.ledger); err != nil {
		return err
	}
	return c.cache.Close()
}

// FetchJSON classifies the URL, checks the category's budget and performs the
// GET. Any failure (refused URL, exhausted budget, transport error, non-2xx,
// invalid JSON) comes back as an error the caller treats as "no data".
func (c *Client) FetchJSON(url string) (gjson.Result, error) {
	category := Classify(url)
	if category == CategoryNone {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrUnfetchable, url)
	}
	if !category.Tracked() {
		return c.get(url)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if err := c.allow(category, now); err != nil {
		return gjson.Result{}, err
	}

	res, err := c.get(url)
	if err != nil {
		return gjson.Result{}, err
	}

	c.record(category, now)
	return res, nil
}

// allow prunes the category's ledger and checks its quota. Caller holds mu.
func (c *Client) allow(category Category, now time.Time) error {
	limit := c.limits[category]
	c.ledger.Prune(category.String(), now, limit.Window)
	if c.ledger.Count(category.String()) >= limit.Quota {
		return fmt.Errorf("%w: %s (%d per %s)", ErrBudgetExhausted, category, limit.Quota, limit.Window)
	}
	return nil
}

// record appends the request timestamp and persists the ledger. Caller holds mu.
func (c *Client) record(category Category, now time.Time) {
	c.ledger.Append(category.String(), now)
	// Synchronous save: a crash right after the request must not lose the
	// accounting.
	if err := c.store.Save(c.ledger); err != nil {
		utils.Log.Errorf("Could not persist request ledger: %v", err)
	}
}

// FetchJSONCached returns the cached payload for the URL when it is younger
// than maxAge, and refetches (overwriting the URL's cache slot) otherwise.
// maxAge <= 0 always refetches.
func (c *Client) FetchJSONCached(url string, maxAge time.Duration) (gjson.Result, error) {
	if c.cache != nil && maxAge > 0 {
		payload, dumpTime, ok, err := c.cache.Lookup(url)
		if err != nil {
			utils.Log.Warnf("Cache lookup failed for %s: %v", url, err)
		} else if ok && time.Since(dumpTime) <= maxAge {
			utils.Log.Debugf("Cache hit for %s", url)
			return gjson.Parse(payload), nil
		}
	}

	res, err := c.FetchJSON(url)
	if err != nil {
		return res, err
	}
	if c.cache != nil {
		if err := c.cache.Store(url, res.Raw, time.Now()); err != nil {
			utils.Log.Warnf("Could not cache response for %s: %v", url, err)
		}
	}
	return res, nil
}

func (c *Client) get(url string) (gjson.Result, error) {
	req, err := retryablehttp.NewRequest("GET", url, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("response from %s is not valid JSON", url)
	}
	return gjson.ParseBytes(body), nil
}

// Usage describes how much of a category's budget the current window used.
type Usage struct {
	Category Category
	Used     int
	Quota    int
	Window   time.Duration
}

// BudgetUsage prunes the ledger and reports per-category usage.
func (c *Client) BudgetUsage(now time.Time) []Usage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Usage, 0, len(c.limits))
	for _, category := range []Category{CategoryMainSite, CategoryAvailabilities, CategoryOnlineBooking} {
		limit := c.limits[category]
		c.ledger.Prune(category.String(), now, limit.Window)
		out = append(out, Usage{
			Category: category,
			Used:     c.ledger.Count(category.String()),
			Quota:    limit.Quota,
			Window:   limit.Window,
		})
	}
	return out
}
