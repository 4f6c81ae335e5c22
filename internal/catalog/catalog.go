// Package catalog holds the compiled channel model and the published snapshot store.
package catalog

import (
	"strings"
	"sync"
	"time"
)

// Header is one HTTP header pair attached to a channel for playback.
// Channels carry headers as an ordered slice, not a map: downstream URL
// builders must emit them in a stable order.
type Header struct {
	Name  string
	Value string
}

// Channel is one entry of the compiled catalog.
type Channel struct {
	ID       string
	Name     string
	Category string
	Logo     string
	URL      string
	Headers  []Header
	// SignatureRequired marks channels whose playback needs the upstream
	// auth signature attached at resolve time.
	SignatureRequired bool
}

// Header returns the value for name (case-insensitive), or "".
func (c Channel) Header(name string) string {
	for _, h := range c.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Snapshot is an immutable published channel list. Never mutate a snapshot
// after handing it to Store.Replace; build a new one instead.
type Snapshot struct {
	Channels    []Channel
	GeneratedAt time.Time
}

// Find returns the channel with the given id.
func (s *Snapshot) Find(id string) (Channel, bool) {
	for _, c := range s.Channels {
		if c.ID == id {
			return c, true
		}
	}
	return Channel{}, false
}

// Store holds the current snapshot. One writer (the refresh loop), any
// number of readers. Readers always get the last published snapshot even
// while a refresh is running; before the first publish they get an empty
// snapshot with a zero GeneratedAt.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewStore() *Store {
	return &Store{snap: &Snapshot{}}
}

// Current returns the published snapshot without blocking on refresh work.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace publishes snap as the current snapshot.
func (s *Store) Replace(snap *Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
