package vavoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.Client(), 0, false)
	c.catalogURL = srv.URL
	c.resolveURL = srv.URL
	return c
}

func itemPage(n, from int) []RawItem {
	items := make([]RawItem, n)
	for i := range items {
		items[i] = RawItem{
			Name: fmt.Sprintf("Canale %d", from+i),
			URL:  fmt.Sprintf("https://vavoo.to/vavoo-iptv/play/%d", from+i),
		}
	}
	return items
}

func TestFetchCatalog_paginates(t *testing.T) {
	var cursors []int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req catalogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		cursors = append(cursors, req.Cursor)
		if req.Sort != "name" || req.CatalogID != "vto-iptv" || req.Filter.Group != "Italy" {
			t.Errorf("request = %+v", req)
		}
		var items []RawItem
		if req.Cursor == 0 {
			items = itemPage(100, 0)
		}
		json.NewEncoder(w).Encode(map[string][]RawItem{"items": items})
	})

	items, err := c.FetchCatalog(context.Background(), "sig", "Italy")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if len(items) != 100 {
		t.Fatalf("got %d items, want 100", len(items))
	}
	if len(cursors) != 2 || cursors[0] != 0 || cursors[1] != 100 {
		t.Errorf("cursors = %v, want [0 100]", cursors)
	}
}

func TestFetchCatalog_cursorIsCumulative(t *testing.T) {
	var cursors []int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req catalogRequest
		json.NewDecoder(r.Body).Decode(&req)
		cursors = append(cursors, req.Cursor)
		var items []RawItem
		switch req.Cursor {
		case 0:
			items = itemPage(40, 0)
		case 40:
			items = itemPage(25, 40)
		}
		json.NewEncoder(w).Encode(map[string][]RawItem{"items": items})
	})

	items, err := c.FetchCatalog(context.Background(), "sig", "Italy")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if len(items) != 65 {
		t.Fatalf("got %d items, want 65", len(items))
	}
	want := []int{0, 40, 65}
	if len(cursors) != len(want) {
		t.Fatalf("cursors = %v, want %v", cursors, want)
	}
	for i := range want {
		if cursors[i] != want[i] {
			t.Errorf("cursor[%d] = %d, want %d", i, cursors[i], want[i])
		}
	}
	if items[0].Name != "Canale 0" || items[64].Name != "Canale 64" {
		t.Errorf("item order lost: first %q last %q", items[0].Name, items[64].Name)
	}
}

func TestFetchCatalog_partialOnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req catalogRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Cursor > 0 {
			http.Error(w, "boom", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string][]RawItem{"items": itemPage(30, 0)})
	})

	items, err := c.FetchCatalog(context.Background(), "sig", "Italy")
	if err == nil {
		t.Fatal("want error from failing page")
	}
	if len(items) != 30 {
		t.Errorf("items fetched before the error must be returned: got %d", len(items))
	}
}

func TestFetchCatalog_pageCap(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Never an empty page.
		json.NewEncoder(w).Encode(map[string][]RawItem{"items": itemPage(10, 0)})
	}))
	defer srv.Close()
	c := NewClient(srv.Client(), 3, false)
	c.catalogURL = srv.URL

	items, err := c.FetchCatalog(context.Background(), "sig", "Italy")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("page cap ignored: %d calls", n)
	}
	if len(items) != 30 {
		t.Errorf("got %d items", len(items))
	}
}

func TestFetchCatalog_sendsSignatureHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("mediahubmx-signature"); got != "sig-abc" {
			t.Errorf("signature header = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "MediaHubMX/2" {
			t.Errorf("user-agent = %q", got)
		}
		json.NewEncoder(w).Encode(map[string][]RawItem{"items": nil})
	})
	if _, err := c.FetchCatalog(context.Background(), "sig-abc", "Italy"); err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.URL != "https://vavoo.to/vavoo-iptv/play/99" || req.ClientVersion != clientVersion {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode([]map[string]string{{"url": "https://edge.example/stream.m3u8"}})
	})

	got, err := c.ResolveURL(context.Background(), "sig", "https://vavoo.to/vavoo-iptv/play/99")
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if got != "https://edge.example/stream.m3u8" {
		t.Errorf("resolved = %q", got)
	}
}

func TestResolveURL_loopbackPassthrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("loopback target must not reach the upstream")
	})
	for _, target := range []string{
		"http://localhost:3000/stream/rai1",
		"http://127.0.0.1/x.m3u8",
	} {
		got, err := c.ResolveURL(context.Background(), "sig", target)
		if err != nil {
			t.Fatalf("ResolveURL(%q): %v", target, err)
		}
		if got != target {
			t.Errorf("ResolveURL(%q) = %q, want unchanged", target, got)
		}
	}
}

func TestResolveURL_emptyResultIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{})
	})
	if _, err := c.ResolveURL(context.Background(), "sig", "https://vavoo.to/vavoo-iptv/play/1"); err == nil {
		t.Fatal("empty result array must be an error")
	}
}
