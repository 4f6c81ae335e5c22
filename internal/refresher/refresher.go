// Package refresher drives the periodic catalog rebuild: fetch the raw
// listing, compile it under the current rules, publish the snapshot, and
// persist the playlist. A failed cycle logs and leaves the previous
// snapshot in place; the loop itself never stops until its context does.
package refresher

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/flussotv/flusso/internal/catalog"
	"github.com/flussotv/flusso/internal/compiler"
	"github.com/flussotv/flusso/internal/config"
	"github.com/flussotv/flusso/internal/journal"
	"github.com/flussotv/flusso/internal/metrics"
	"github.com/flussotv/flusso/internal/playlist"
	"github.com/flussotv/flusso/internal/vavoo"
)

// State is where the loop currently is. Exposed through /health.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateCompiling  State = "compiling"
	StatePublishing State = "publishing"
)

// journalRetention is how long cycle/exclusion/resolution records live.
const journalRetention = 7 * 24 * time.Hour

// Fetcher lists the upstream catalog for one group.
type Fetcher interface {
	FetchCatalog(ctx context.Context, signature, group string) ([]vavoo.RawItem, error)
}

// Signatures yields addon signatures.
type Signatures interface {
	Obtain(ctx context.Context) (string, error)
}

// Status is a point-in-time view of the loop.
type Status struct {
	State       State     `json:"state"`
	LastRefresh time.Time `json:"last_refresh"`
	LastError   string    `json:"last_error,omitempty"`
}

// Refresher owns the refresh cycle. It is the only writer of the catalog
// store and the playlist file.
type Refresher struct {
	cfg     config.Config
	store   *catalog.Store
	fetcher Fetcher
	sigs    Signatures
	journal *journal.Journal
	kick    chan struct{}

	mu          sync.Mutex
	state       State
	lastRefresh time.Time
	lastError   string
}

// New wires a refresher. The journal may be nil.
func New(cfg config.Config, store *catalog.Store, fetcher Fetcher, sigs Signatures, jnl *journal.Journal) *Refresher {
	return &Refresher{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		sigs:    sigs,
		journal: jnl,
		kick:    make(chan struct{}, 1),
		state:   StateIdle,
	}
}

// Status reports the loop state for health endpoints.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{State: r.state, LastRefresh: r.lastRefresh, LastError: r.lastError}
}

// Kick requests an immediate cycle (SIGHUP handler). Non-blocking; a kick
// while one is already pending is dropped.
func (r *Refresher) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Run executes the first cycle immediately, then loops on the configured
// interval until ctx is cancelled. Kicks between ticks trigger extra
// cycles.
func (r *Refresher) Run(ctx context.Context) {
	interval := r.cfg.RefreshInterval
	if interval <= 0 {
		interval = 20 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.RefreshNow(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-r.kick:
		}
		r.RefreshNow(ctx)
	}
}

// RefreshNow runs one full cycle synchronously.
func (r *Refresher) RefreshNow(ctx context.Context) {
	start := time.Now()
	rep, err := r.cycle(ctx, start)
	took := time.Since(start)

	result := "ok"
	errMsg := ""
	if err != nil {
		result = "error"
		errMsg = err.Error()
		log.Printf("refresh: %v (previous snapshot stays published)", err)
	} else {
		log.Printf("refresh: published %d channels (%d fetched, %d dropped) in %s",
			rep.Kept, rep.Total, len(rep.Drops), took.Round(time.Millisecond))
	}
	metrics.RecordRefresh(result, took)

	if jerr := r.journal.RecordCycle(journal.Cycle{
		StartedAt: start,
		Took:      took,
		Fetched:   rep.Total,
		Kept:      rep.Kept,
		Dropped:   len(rep.Drops),
		Err:       errMsg,
	}); jerr != nil {
		log.Printf("journal cycle: %v", jerr)
	}
	if jerr := r.journal.Prune(journalRetention); jerr != nil {
		log.Printf("journal prune: %v", jerr)
	}

	r.mu.Lock()
	r.state = StateIdle
	if err == nil {
		r.lastRefresh = time.Now()
		r.lastError = ""
	} else {
		r.lastError = errMsg
	}
	r.mu.Unlock()
}

// cycle is one fetch→compile→publish→save pass. Any error aborts it
// without touching the published snapshot.
func (r *Refresher) cycle(ctx context.Context, start time.Time) (compiler.Report, error) {
	// Rules are re-read every cycle so edits apply without a restart.
	rules, err := config.LoadRules(r.cfg.DataDir)
	if err != nil {
		return compiler.Report{}, fmt.Errorf("rules: %w", err)
	}

	r.setState(StateFetching)
	sig, err := r.sigs.Obtain(ctx)
	if err != nil {
		return compiler.Report{}, fmt.Errorf("signature: %w", err)
	}

	var items []compiler.Item
	groups := r.cfg.Groups
	if len(groups) == 0 {
		groups = []string{"Italy"}
	}
	for _, group := range groups {
		raw, err := r.fetcher.FetchCatalog(ctx, sig, group)
		if err != nil {
			// Keep whatever the group yielded before failing.
			log.Printf("fetch %s: %v (%d items kept)", group, err, len(raw))
		}
		for _, it := range raw {
			items = append(items, compiler.Item{Name: it.Name, URL: it.URL})
		}
	}
	if len(items) == 0 {
		return compiler.Report{}, fmt.Errorf("fetch: no items from %d group(s)", len(groups))
	}

	r.setState(StateCompiling)
	comp := compiler.Compiler{
		Categories: rules.Categories,
		Include:    rules.Include,
		Remove:     rules.Remove,
		Logos:      rules.Logos,
	}
	channels, rep := comp.Compile(items)
	if len(channels) == 0 {
		return rep, fmt.Errorf("compile: all %d items dropped", rep.Total)
	}
	for _, reason := range []string{compiler.DropRemoved, compiler.DropUnmatched, compiler.DropNoURL} {
		metrics.RecordExclusions(reason, rep.Count(reason))
	}

	r.setState(StatePublishing)
	r.store.Replace(&catalog.Snapshot{Channels: channels, GeneratedAt: time.Now()})
	metrics.SetChannelsPublished(len(channels))

	if err := playlist.Save(r.cfg.PlaylistPath, playlist.Playlist{EPGURL: r.cfg.EPGURL, Channels: channels}); err != nil {
		// Memory is ahead of disk until the next successful save.
		log.Printf("save playlist: %v", err)
	}

	if len(rep.Drops) > 0 {
		excl := make([]journal.Exclusion, len(rep.Drops))
		for i, d := range rep.Drops {
			excl[i] = journal.Exclusion{Name: d.Name, Reason: d.Reason}
		}
		if err := r.journal.RecordExclusions(start, excl); err != nil {
			log.Printf("journal exclusions: %v", err)
		}
	}
	return rep, nil
}

func (r *Refresher) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}
