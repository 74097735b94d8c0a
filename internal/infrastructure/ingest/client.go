package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"streamcast/internal/core/ports"
)

// Client queries the media-ingest server's stats API. The stats payload maps
// application namespaces to the stream keys currently publishing:
//
//	{"live": {"abc123": {...}, "def456": {...}}}
type Client struct {
	statsURL string
	http     *http.Client
}

func NewClient(statsURL string, timeout time.Duration) ports.IngestClient {
	return &Client{
		statsURL: statsURL,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListActivePaths(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ingest stats request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest stats request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest stats request returned status %d", resp.StatusCode)
	}

	var stats map[string]map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode ingest stats: %w", err)
	}

	var paths []string
	for app, streams := range stats {
		for key := range streams {
			paths = append(paths, app+"/"+key)
		}
	}
	return paths, nil
}
