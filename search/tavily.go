package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// tavilyMaxAttempts bounds the rate-limit retry loop so a persistently
// throttled API cannot stall a request whose context has no deadline.
const tavilyMaxAttempts = 5

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey    string
	endpoint  string
	client    *http.Client
	baseDelay time.Duration
}

// TavilyOption configures a Tavily client.
type TavilyOption func(*Tavily)

// WithTavilyEndpoint overrides the API endpoint.
func WithTavilyEndpoint(endpoint string) TavilyOption {
	return func(t *Tavily) {
		t.endpoint = endpoint
	}
}

// WithTavilyHTTPClient overrides the HTTP client.
func WithTavilyHTTPClient(client *http.Client) TavilyOption {
	return func(t *Tavily) {
		t.client = client
	}
}

// NewTavily constructs a Tavily search client.
func NewTavily(apiKey string, opts ...TavilyOption) *Tavily {
	t := &Tavily{
		apiKey:    apiKey,
		endpoint:  tavilyEndpoint,
		client:    &http.Client{Timeout: 15 * time.Second},
		baseDelay: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Search posts a query to Tavily. Rate-limited requests are retried a bounded
// number of times with an exponential backoff capped at 30 seconds.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	payload, err := json.Marshal(map[string]any{
		"api_key":     t.apiKey,
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := t.baseDelay
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		if attempt >= tavilyMaxAttempts {
			return nil, fmt.Errorf("tavily: rate limited after %d attempts", attempt)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	results := response.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}
