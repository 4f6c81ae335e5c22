package catalog

import (
	"sync"
	"testing"
	"time"
)

func TestStore_emptyBeforeFirstPublish(t *testing.T) {
	s := NewStore()
	snap := s.Current()
	if snap == nil {
		t.Fatal("Current returned nil")
	}
	if len(snap.Channels) != 0 {
		t.Errorf("channels = %d, want 0", len(snap.Channels))
	}
	if !snap.GeneratedAt.IsZero() {
		t.Errorf("GeneratedAt = %v, want zero", snap.GeneratedAt)
	}
}

func TestStore_replacePublishesNewerSnapshot(t *testing.T) {
	s := NewStore()

	first := &Snapshot{
		Channels:    []Channel{{ID: "rai1", Name: "Rai 1"}},
		GeneratedAt: time.Now().Add(-time.Hour),
	}
	s.Replace(first)
	if got := s.Current(); got != first {
		t.Fatalf("Current = %p, want %p", got, first)
	}
	// Same snapshot until the next Replace, however often it is read.
	for i := 0; i < 3; i++ {
		if got := s.Current(); got != first {
			t.Fatalf("read %d: snapshot changed without Replace", i)
		}
	}

	second := &Snapshot{
		Channels:    []Channel{{ID: "rai1"}, {ID: "rai2"}},
		GeneratedAt: time.Now(),
	}
	s.Replace(second)
	got := s.Current()
	if got != second {
		t.Fatal("Current did not return the replaced snapshot")
	}
	if !got.GeneratedAt.After(first.GeneratedAt) {
		t.Errorf("GeneratedAt %v not after %v", got.GeneratedAt, first.GeneratedAt)
	}
}

func TestStore_concurrentReaders(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if s.Current() == nil {
					t.Error("Current returned nil under concurrency")
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		s.Replace(&Snapshot{GeneratedAt: time.Now()})
	}
	close(stop)
	wg.Wait()
}

func TestSnapshot_find(t *testing.T) {
	snap := &Snapshot{Channels: []Channel{
		{ID: "rai1", Name: "Rai 1"},
		{ID: "canale5", Name: "Canale 5"},
	}}
	ch, ok := snap.Find("canale5")
	if !ok || ch.Name != "Canale 5" {
		t.Errorf("Find(canale5) = %+v, %v", ch, ok)
	}
	if _, ok := snap.Find("nope"); ok {
		t.Error("Find(nope) reported a hit")
	}
}

func TestChannel_headerLookup(t *testing.T) {
	c := Channel{Headers: []Header{
		{Name: "user-agent", Value: "okhttp/4.11.0"},
		{Name: "referer", Value: "https://vavoo.to/"},
	}}
	if got := c.Header("User-Agent"); got != "okhttp/4.11.0" {
		t.Errorf("Header(User-Agent) = %q", got)
	}
	if got := c.Header("cookie"); got != "" {
		t.Errorf("Header(cookie) = %q, want empty", got)
	}
}
