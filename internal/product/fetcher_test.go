package product

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"status":1}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != `{"status":1}` {
		t.Errorf("Unexpected body: %s", result.Body)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"status":1}`)
	}))
	defer server.Close()

	// Override sleep for fast tests
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(result.Body) != `{"status":1}` {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	// 404 is not retryable, so should fail immediately
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 StatusError, got %v", err)
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_429Retried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"status":1}`)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if string(result.Body) != `{"status":1}` {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"503", &StatusError{StatusCode: 503, Status: "503 Service Unavailable"}, true},
		{"500", &StatusError{StatusCode: 500, Status: "500 Internal Server Error"}, true},
		{"502 wrapped", fmt.Errorf("product lookup: %w", &StatusError{StatusCode: 502, Status: "502 Bad Gateway"}), true},
		{"429", &StatusError{StatusCode: 429, Status: "429 Too Many Requests"}, true},
		{"404", &StatusError{StatusCode: 404, Status: "404 Not Found"}, false},
		{"403", &StatusError{StatusCode: 403, Status: "403 Forbidden"}, false},
		{"connection refused", fmt.Errorf("fetch: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}), true},
		{"cancelled", fmt.Errorf("fetch: %w", context.Canceled), false},
		{"robots", fmt.Errorf("%w: /x", ErrDisallowed), false},
		{"plain", errors.New("read body: unexpected EOF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isRetryableFetchError(tt.err)
			if got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestIsRetryableFetchError_Nil(t *testing.T) {
	if isRetryableFetchError(nil) {
		t.Error("Expected nil error to not be retryable")
	}
}

func TestFetch_RespectsRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: foodlens\nDisallow: /private/\n")
			return
		}
		_, _ = fmt.Fprint(w, `{"status":1}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "foodlens/0.1 (+https://example.org)", 1<<20, true, "", "", "")

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/api/v0/product/1.json"); err != nil {
		t.Fatalf("Expected allowed path to succeed, got %v", err)
	}

	_, err := fetcher.Fetch(context.Background(), server.URL+"/private/data.json")
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
}

func TestFetch_LimitsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 4, false, "", "", "")
	result, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != "0123" {
		t.Errorf("Expected truncated body, got %q", result.Body)
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "internal.example")

	req := httptest.NewRequest(http.MethodGet, "http://world.openfoodfacts.org/api", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("Expected proxy.local:3128, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "http://internal.example/api", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u != nil {
		t.Errorf("Expected no proxy for NO_PROXY host, got %v", u)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("foodlens/0.1 (+https://github.com/ppiankov/foodlens)"); got != "foodlens" {
		t.Errorf("NormalizeUserAgent() = %q, want foodlens", got)
	}
}
