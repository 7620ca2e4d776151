// Package download fetches corpus files over HTTP.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Spec names one file to fetch.
type Spec struct {
	URL  string `json:"url" yaml:"url"`
	Dest string `json:"dest" yaml:"dest"`
}

// Client downloads files with bounded retries. The zero value is usable.
type Client struct {
	HTTPClient *http.Client
	MaxRetries int
	Backoff    time.Duration
}

// Fetch streams url into dest. The body is written to a temp file next to
// dest and renamed into place once the size matches Content-Length, so a
// partial download never masquerades as a complete one.
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}

		retryable, err := c.fetchOnce(ctx, httpClient, url, dest)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return fmt.Errorf("download: %s: %w", url, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, httpClient *http.Client, url, dest string) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500
		return retryable, fmt.Errorf("download: %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "download-*")
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return true, err
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return true, fmt.Errorf("download: %s: got %d bytes, expected %d", url, written, resp.ContentLength)
	}
	if err = tmp.Close(); err != nil {
		return false, err
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return false, err
	}
	return false, nil
}

// FetchAll downloads every spec through a bounded worker pool. Requests are
// paced by the rate limiter when one is set.
func (c *Client) FetchAll(ctx context.Context, specs []Spec, workers int, limiter RateLimiter) error {
	if workers <= 0 {
		workers = 1
	}

	specCh := make(chan Spec, len(specs))
	for _, spec := range specs {
		specCh <- spec
	}
	close(specCh)

	errCh := make(chan error, len(specs))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for spec := range specCh {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					errCh <- err
					return
				}
			}
			if err := c.Fetch(ctx, spec.URL, spec.Dest); err != nil {
				errCh <- err
				return
			}
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}
