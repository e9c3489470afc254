package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const maxFetchBytes = 10 << 20

// Fetcher performs the crawl's HTTP traffic: rate-limited GETs and the
// metadata-only HEAD probe used by PDF classification.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func NewFetcher(userAgent string, requestsPerSec float64) *Fetcher {
	if requestsPerSec <= 0 {
		requestsPerSec = 2.0
	}
	return &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		userAgent: userAgent,
	}
}

// Get downloads url and returns the body. Non-2xx responses are errors.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s failed: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s failed: %w", url, err)
	}
	return body, nil
}

// ContentType issues a HEAD request (redirects followed) and returns the
// declared Content-Type header.
func (f *Fetcher) ContentType(ctx context.Context, url string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("build probe for %s failed: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	return resp.Header.Get("Content-Type"), nil
}
