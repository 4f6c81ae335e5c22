// Package resolver turns a catalog channel into playable stream
// descriptors. It exchanges the catalog URL for the physical one upstream
// when it can, and degrades to the unresolved URL when it cannot; a
// resolution never fails the request that asked for it.
package resolver

import (
	"context"
	"log"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/flussotv/flusso/internal/catalog"
	"github.com/flussotv/flusso/internal/metrics"
	"github.com/flussotv/flusso/internal/proxy"
)

// Resolution outcomes, used in metrics and the journal.
const (
	OutcomeResolved    = "resolved"
	OutcomeCached      = "cached"
	OutcomeDegraded    = "degraded"
	OutcomePassthrough = "passthrough"
)

// DefaultTimeout bounds one resolution end to end.
const DefaultTimeout = 12 * time.Second

// Playback is one way to play a channel. Name tags the proxy that
// produced it; Title is what players display.
type Playback struct {
	Name    string           `json:"name"`
	Title   string           `json:"title"`
	URL     string           `json:"url"`
	Headers []catalog.Header `json:"headers,omitempty"`
}

// Upstream is the resolve half of the Vavoo client.
type Upstream interface {
	ResolveURL(ctx context.Context, signature, target string) (string, error)
}

// Signatures yields addon signatures.
type Signatures interface {
	Obtain(ctx context.Context) (string, error)
}

// Recorder persists resolution outcomes. A nil journal satisfies it.
type Recorder interface {
	RecordResolution(channelID, outcome string, took time.Duration) error
}

// Resolver resolves channels against the upstream and builds playback
// descriptors. Resolved URLs are cached briefly so players mashing the
// stream button do not re-resolve every time.
type Resolver struct {
	upstream   Upstream
	signatures Signatures
	journal    Recorder
	cache      *cache.Cache
	timeout    time.Duration
	secondary  proxy.Secondary
}

// New builds a Resolver. cacheTTL <= 0 disables resolved-URL caching;
// timeout <= 0 uses DefaultTimeout.
func New(upstream Upstream, signatures Signatures, journal Recorder, secondary proxy.Secondary, timeout, cacheTTL time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var c *cache.Cache
	if cacheTTL > 0 {
		c = cache.New(cacheTTL, 2*cacheTTL)
	}
	return &Resolver{
		upstream:   upstream,
		signatures: signatures,
		journal:    journal,
		cache:      c,
		timeout:    timeout,
		secondary:  secondary,
	}
}

// Resolve builds the playback list for ch using the given MediaFlow
// credentials. The list is deterministic: MediaFlow first, the secondary
// proxy (when configured) second. Failures along the way downgrade to the
// unresolved URL; Resolve never returns an error.
//
// Each call is bounded by the resolver's own timeout rather than the
// caller's context: the resolved URL lands in a cache shared across
// requests, so one impatient client must not cancel work others will use.
func (r *Resolver) Resolve(ch catalog.Channel, mf proxy.MediaFlow) []Playback {
	target, sig, outcome, took := r.target(ch)

	metrics.RecordResolve(outcome, took)
	if err := r.journal.RecordResolution(ch.ID, outcome, took); err != nil {
		log.Printf("journal resolution %s: %v", ch.ID, err)
	}

	streams := make([]Playback, 0, 2)
	if mf.Configured() {
		streams = append(streams, Playback{
			Name:    "MediaFlow",
			Title:   ch.Name,
			URL:     mf.ManifestURL(target, ch.Headers, sig),
			Headers: ch.Headers,
		})
	}
	if r.secondary.Configured() {
		streams = append(streams, Playback{
			Name:  "Proxy",
			Title: ch.Name,
			URL:   r.secondary.PlaylistURL(target, sig),
		})
	}
	return streams
}

// target works out the URL to embed and the signature to attach.
func (r *Resolver) target(ch catalog.Channel) (target, sig, outcome string, took time.Duration) {
	target = ch.URL
	if !ch.SignatureRequired {
		return target, "", OutcomePassthrough, 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	s, err := r.signatures.Obtain(ctx)
	if err != nil {
		log.Printf("resolve %s: no signature, serving unresolved url: %v", ch.ID, err)
		return target, "", OutcomeDegraded, 0
	}
	sig = s

	if r.cache != nil {
		if v, ok := r.cache.Get(ch.ID); ok {
			return v.(string), sig, OutcomeCached, 0
		}
	}

	start := time.Now()
	resolved, err := r.upstream.ResolveURL(ctx, sig, ch.URL)
	took = time.Since(start)
	if err != nil {
		log.Printf("resolve %s: %v (serving unresolved url)", ch.ID, err)
		return target, sig, OutcomeDegraded, took
	}
	if r.cache != nil {
		r.cache.Set(ch.ID, resolved, cache.DefaultExpiration)
	}
	return resolved, sig, OutcomeResolved, took
}
