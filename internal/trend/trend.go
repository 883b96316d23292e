// Package trend provides an optional external "what's trending" signal
// for a region. It is diagnostic only: a World given a Client stores the
// latest Reading in World.LastTrendSignal at each tick, and nothing in the
// propagation algorithm reads it — it never multiplies into the adoption
// or spread formulas, and context_modifier stays at its inert default
// (spec §4.1, §9 Open Questions).
package trend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
)

// Reading is a diagnostic trend snapshot for one region.
type Reading struct {
	Region      simmodel.Region
	TopTerms    []string
	Volume      float64
	Description string
}

// Client fetches trending-topic data for a region, with a TTL cache and
// exponential backoff on repeated failures — same shape as the teacher's
// weather.Client, applied to a different upstream.
type Client struct {
	apiKey string
	client *http.Client

	mu          sync.Mutex
	cached      map[simmodel.Region]cacheEntry
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

type cacheEntry struct {
	reading  Reading
	cachedAt time.Time
}

// NewClient constructs a trend Client. Returns nil if apiKey is empty —
// callers treat a nil Client as "trend reporting disabled".
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		cached:   make(map[simmodel.Region]cacheEntry),
		cacheTTL: 5 * time.Minute,
	}
}

// Fetch retrieves a trend Reading for region, using the cache if fresh and
// backing off after repeated upstream failures.
func (c *Client) Fetch(region simmodel.Region) (Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.cached[region]; ok && time.Since(entry.cachedAt) < c.cacheTTL {
		return entry.reading, nil
	}

	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		if entry, ok := c.cached[region]; ok {
			return entry.reading, nil
		}
		return Reading{}, fmt.Errorf("trend API backoff (%s remaining)", c.failBackoff-time.Since(c.lastFailAt))
	}

	reading, err := c.fetchFromAPI(region)
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = 1 * time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		if entry, ok := c.cached[region]; ok {
			return entry.reading, nil
		}
		return Reading{}, err
	}

	c.cached[region] = cacheEntry{reading: reading, cachedAt: time.Now()}
	c.failBackoff = 0
	return reading, nil
}

func (c *Client) fetchFromAPI(region simmodel.Region) (Reading, error) {
	apiURL := fmt.Sprintf("https://api.twitter.com/2/trends/by/woeid/%s?key=%s",
		url.QueryEscape(region.String()), c.apiKey)

	resp, err := c.client.Get(apiURL)
	if err != nil {
		return Reading{}, fmt.Errorf("trend API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reading{}, fmt.Errorf("read trend response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Reading{}, fmt.Errorf("trend API error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Data []struct {
			Name       string  `json:"trend_name"`
			TweetCount float64 `json:"tweet_volume"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Reading{}, fmt.Errorf("parse trend response: %w", err)
	}

	reading := Reading{Region: region}
	var total float64
	for _, d := range parsed.Data {
		reading.TopTerms = append(reading.TopTerms, d.Name)
		total += d.TweetCount
	}
	reading.Volume = total
	if len(reading.TopTerms) > 0 {
		reading.Description = reading.TopTerms[0]
	}
	return reading, nil
}
