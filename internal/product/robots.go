package product

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsChecker caches robots.txt per host and answers whether a path may be fetched
type RobotsChecker struct {
	cache      map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
	agentName  string
}

// NewRobotsChecker creates a robots.txt checker sharing client's transport
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		userAgent:  userAgent,
		agentName:  NormalizeUserAgent(userAgent),
	}
}

// IsAllowed reports whether rawURL may be fetched. An unreachable robots.txt allows everything.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data, err := r.robotsData(ctx, parsed)
	if err != nil {
		return true
	}

	return data.TestAgent(parsed.Path, r.agentName)
}

func (r *RobotsChecker) robotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, exists := r.cache[target.Host]
	r.mu.RUnlock()

	if exists {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[target.Host] = data
	r.mu.Unlock()

	return data, nil
}

// NormalizeUserAgent returns the product token of a user agent ("foodlens/0.1 (+url)" -> "foodlens")
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
