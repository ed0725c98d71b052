// Package events talks to the local-events discovery API and formats the
// weekly announcement digest.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// Event is one discovered happening inside an announcement window.
type Event struct {
	Title string    `json:"title"`
	Venue string    `json:"venue"`
	Start time.Time `json:"start"`
	URL   string    `json:"url"`
}

type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds each discovery call.
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("events base_url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}, nil
}

// Discover returns events in location between from and to.
func (c *Client) Discover(ctx context.Context, location string, from, to time.Time) ([]Event, error) {
	q := url.Values{}
	q.Set("location", location)
	q.Set("start", from.UTC().Format(time.RFC3339))
	q.Set("end", to.UTC().Format(time.RFC3339))

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/events?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bwaincell")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("events api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("events api: http=%d", resp.StatusCode)
	}

	var payload struct {
		Events []Event `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("events api: decode: %w", err)
	}

	c.log.Debug("events discovered",
		logx.String("location", location),
		logx.Int("count", len(payload.Events)),
	)
	return payload.Events, nil
}
