// Package health offers startup reachability probes: is the upstream auth
// endpoint resolvable at all, and does our own HTTP surface answer once the
// listener is up.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CheckUpstream verifies the auth endpoint is reachable. The endpoint only
// answers POST, so any HTTP response counts as reachable; only transport
// failures (DNS, TCP, TLS) are errors.
func CheckUpstream(ctx context.Context, pingURL string) error {
	if pingURL == "" {
		return fmt.Errorf("no upstream URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pingURL, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// CheckEndpoints hits health, manifest and playlist at baseURL and returns
// the first error or nil. Run after the listener is up to catch wiring
// mistakes early.
func CheckEndpoints(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{"/health", "/manifest.json", "/playlist.m3u8"} {
		url := baseURL + path
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
	}
	return nil
}
