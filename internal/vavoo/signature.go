package vavoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/flussotv/flusso/internal/httpclient"
	"github.com/flussotv/flusso/internal/metrics"
)

// PingURL is the auth endpoint that issues addon signatures.
const PingURL = "https://www.vavoo.tv/api/app/ping"

// SignatureProvider caches the upstream addon signature and refreshes it
// when the TTL lapses. Concurrent callers during a refresh share one
// upstream call.
type SignatureProvider struct {
	client   *http.Client
	url      string
	deviceID string
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sig      string
	expires  time.Time
	inflight *sigFlight
}

type sigFlight struct {
	done chan struct{}
	sig  string
	err  error
}

// NewSignatureProvider builds a provider with the given device identity
// and cache TTL. A nil client falls back to the shared default.
func NewSignatureProvider(client *http.Client, deviceID string, ttl time.Duration) *SignatureProvider {
	if client == nil {
		client = httpclient.Default()
	}
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	return &SignatureProvider{
		client:   client,
		url:      PingURL,
		deviceID: deviceID,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Obtain returns a valid signature, refreshing it upstream when the cached
// one has expired. On refresh failure every waiting caller receives the
// same error and the cache stays empty, so the next call retries. Callers
// that can work unsigned should treat an error as "proceed without".
func (p *SignatureProvider) Obtain(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.sig != "" && p.now().Before(p.expires) {
		sig := p.sig
		p.mu.Unlock()
		return sig, nil
	}
	if f := p.inflight; f != nil {
		p.mu.Unlock()
		select {
		case <-f.done:
			return f.sig, f.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f := &sigFlight{done: make(chan struct{})}
	p.inflight = f
	p.mu.Unlock()

	f.sig, f.err = p.ping(ctx)
	if f.err != nil {
		metrics.RecordSignatureRefresh("error")
	} else {
		metrics.RecordSignatureRefresh("ok")
	}

	p.mu.Lock()
	if f.err == nil {
		p.sig = f.sig
		p.expires = p.now().Add(p.ttl)
	}
	p.inflight = nil
	p.mu.Unlock()
	close(f.done)
	return f.sig, f.err
}

// ping performs the upstream auth call and extracts the signature.
func (p *SignatureProvider) ping(ctx context.Context) (string, error) {
	headers := http.Header{}
	headers.Set("User-Agent", "okhttp/4.11.0")
	headers.Set("Accept", "application/json")
	headers.Set("Accept-Encoding", httpclient.AcceptEncoding)

	resp, err := httpclient.PostJSON(ctx, p.client, p.url, headers, newPingPayload(p.deviceID), httpclient.DefaultRetryPolicy)
	if err != nil {
		return "", fmt.Errorf("signature ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signature ping: upstream status %s", resp.Status)
	}

	body, err := httpclient.Body(resp)
	if err != nil {
		return "", fmt.Errorf("signature ping: %w", err)
	}
	defer body.Close()

	var out struct {
		AddonSig string `json:"addonSig"`
	}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return "", fmt.Errorf("signature ping: decode: %w", err)
	}
	if out.AddonSig == "" {
		return "", fmt.Errorf("signature ping: response carried no addonSig")
	}
	return out.AddonSig, nil
}
