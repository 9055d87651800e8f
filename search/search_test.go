package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if body["query"] != "Humana Gold Plus HMO knee MRI coverage" {
			t.Errorf("query = %v", body["query"])
		}
		if body["api_key"] != "tvly-test" {
			t.Errorf("api_key = %v", body["api_key"])
		}
		w.Write([]byte(`{"results": [
			{"title": "Plan overview", "url": "https://example.com/plan", "content": "MRI is covered in network."},
			{"title": "Cost guide", "url": "https://example.com/costs", "content": "Typical copay applies."}
		]}`))
	}))
	defer server.Close()

	client := NewTavily("tvly-test", WithTavilyEndpoint(server.URL))
	results, err := client.Search(context.Background(), "Humana Gold Plus HMO knee MRI coverage", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Title != "Plan overview" || results[0].URL != "https://example.com/plan" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestTavilySearchRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results": [{"title": "ok", "url": "u", "content": "c"}]}`))
	}))
	defer server.Close()

	client := NewTavily("tvly-test", WithTavilyEndpoint(server.URL))
	results, err := client.Search(context.Background(), "anything", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
	if len(results) != 1 || results[0].Title != "ok" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestTavilySearchRateLimitGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewTavily("tvly-test", WithTavilyEndpoint(server.URL))
	client.baseDelay = time.Millisecond

	_, err := client.Search(context.Background(), "anything", 1)
	if err == nil {
		t.Fatal("expected error when every attempt is rate limited")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error = %v, want rate-limit failure", err)
	}
	if calls.Load() != tavilyMaxAttempts {
		t.Errorf("server called %d times, want %d", calls.Load(), tavilyMaxAttempts)
	}
}

func TestTavilySearchTruncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [
			{"title": "a"}, {"title": "b"}, {"title": "c"}, {"title": "d"}
		]}`))
	}))
	defer server.Close()

	client := NewTavily("tvly-test", WithTavilyEndpoint(server.URL))
	results, err := client.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search() returned %d results, want 2", len(results))
	}
}

func TestTavilySearchMissingKey(t *testing.T) {
	client := NewTavily("  ")
	if _, err := client.Search(context.Background(), "q", 1); err == nil {
		t.Fatal("Search() expected error with blank API key")
	}
}

func TestReadablePage(t *testing.T) {
	html := `<html><head><style>p{color:red}</style><script>alert(1)</script></head>
	<body>
		<nav>Home | About</nav>
		<h1>Plan Benefits</h1>
		<p>MRI imaging requires a $40 copay.</p>
		<ul><li>Deductible: $240</li><li>Coinsurance: 20%</li></ul>
		<footer>Copyright</footer>
	</body></html>`

	text, err := ReadablePage(html)
	if err != nil {
		t.Fatalf("ReadablePage() error = %v", err)
	}
	for _, want := range []string{"Plan Benefits", "MRI imaging requires a $40 copay.", "Deductible: $240", "Coinsurance: 20%"} {
		if !strings.Contains(text, want) {
			t.Errorf("ReadablePage() missing %q in:\n%s", want, text)
		}
	}
	for _, banned := range []string{"alert(1)", "color:red", "Home | About", "Copyright"} {
		if strings.Contains(text, banned) {
			t.Errorf("ReadablePage() should strip %q", banned)
		}
	}
}
