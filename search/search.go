// Package search provides web search for grounding estimates in current
// information, backed by the Tavily API.
package search

import "context"

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher runs a web search and returns ranked results.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
