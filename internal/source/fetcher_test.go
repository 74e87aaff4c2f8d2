package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, attempts *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "User-agent: claimrank\nDisallow: /private\n")
	})
	mux.HandleFunc("/doc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<html><body><script>ignored()</script><p>Uptime reached four nines.</p></body></html>")
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "  plain body  ")
	})
	mux.HandleFunc("/private/doc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "secret")
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func noFetchSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestFetchText_HTML(t *testing.T) {
	var attempts atomic.Int32
	server := newTestServer(t, &attempts)
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "claimrank/0.1", RespectRobots: true})

	text, err := f.FetchText(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "Uptime reached four nines." {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestFetchText_Plain(t *testing.T) {
	var attempts atomic.Int32
	server := newTestServer(t, &attempts)
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "claimrank/0.1"})

	text, err := f.FetchText(context.Background(), server.URL+"/plain")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "plain body" {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var attempts atomic.Int32
	server := newTestServer(t, &attempts)
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "claimrank/0.1", RespectRobots: true})

	_, err := f.Fetch(context.Background(), server.URL+"/private/doc")
	if !errors.Is(err, ErrDisallowed) {
		t.Fatalf("Expected ErrDisallowed, got %v", err)
	}

	// Without robots compliance the same URL is fetched
	f = NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "claimrank/0.1"})
	if _, err := f.Fetch(context.Background(), server.URL+"/private/doc"); err != nil {
		t.Fatalf("Expected fetch without robots to succeed, got %v", err)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	noFetchSleep(t)

	var attempts atomic.Int32
	server := newTestServer(t, &attempts)
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "test-agent"})
	page, err := f.FetchWithRetry(context.Background(), server.URL+"/flaky")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if page.Body != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", page.Body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noFetchSleep(t)

	var attempts atomic.Int32
	server := newTestServer(t, &attempts)
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "test-agent"})
	_, err := f.FetchWithRetry(context.Background(), server.URL+"/missing")
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("404 must not be retried, got %d attempts", attempts.Load())
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("a", 100))
	}))
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, MaxBodyBytes: 10})
	page, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(page.Body) != 10 {
		t.Errorf("Expected body truncated to 10 bytes, got %d", len(page.Body))
	}
}

func TestFetch_TooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second})
	if _, err := f.Fetch(context.Background(), server.URL+"/r"); err == nil {
		t.Fatal("Expected redirect error, got nil")
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewFetcher(Options{})
	if _, err := f.Fetch(context.Background(), "not a url"); err == nil {
		t.Fatal("Expected error for URL without host")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("claimrank/0.1 (+https://example.com)"); got != "claimrank" {
		t.Errorf("Expected claimrank, got %s", got)
	}
}
