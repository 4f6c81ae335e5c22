package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flussotv/flusso/internal/catalog"
)

func testCategories() catalog.CategoryMap {
	return catalog.NewCategoryMap(
		catalog.CategoryKeywords{Name: "RAI", Keywords: []string{"rai"}},
		catalog.CategoryKeywords{Name: "SPORT", Keywords: []string{"sport"}},
	)
}

func samplePlaylist() Playlist {
	return Playlist{
		EPGURL: "http://epg-guide.com/it.gz",
		Channels: []catalog.Channel{
			{
				ID:       "rai-1",
				Name:     "Rai 1",
				Category: "RAI",
				Logo:     "https://example.com/rai1.png",
				URL:      "https://vavoo.to/vavoo-iptv/play/1234",
				Headers: []catalog.Header{
					{Name: "user-agent", Value: "okhttp/4.11.0"},
					{Name: "origin", Value: "https://vavoo.to/"},
					{Name: "referer", Value: "https://vavoo.to/"},
				},
				SignatureRequired: true,
			},
			{
				ID:       "sky-sport-24",
				Name:     "Sky Sport 24",
				Category: "SPORT",
				Logo:     "https://example.com/skysport24.png",
				URL:      "https://vavoo.to/vavoo-iptv/play/5678",
				Headers: []catalog.Header{
					{Name: "user-agent", Value: "okhttp/4.11.0"},
				},
			},
		},
	}
}

func TestWriteParse_roundtrip(t *testing.T) {
	want := samplePlaylist()

	var sb strings.Builder
	if err := Write(&sb, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Parse(strings.NewReader(sb.String()), testCategories())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got.EPGURL != want.EPGURL {
		t.Errorf("EPGURL = %q, want %q", got.EPGURL, want.EPGURL)
	}
	if len(got.Channels) != len(want.Channels) {
		t.Fatalf("got %d channels, want %d", len(got.Channels), len(want.Channels))
	}
	for i, w := range want.Channels {
		g := got.Channels[i]
		if g.ID != w.ID || g.Name != w.Name || g.Category != w.Category || g.Logo != w.Logo || g.URL != w.URL {
			t.Errorf("channel %d = %+v, want %+v", i, g, w)
		}
		if g.SignatureRequired != w.SignatureRequired {
			t.Errorf("channel %d SignatureRequired = %v, want %v", i, g.SignatureRequired, w.SignatureRequired)
		}
		if len(g.Headers) != len(w.Headers) {
			t.Fatalf("channel %d has %d headers, want %d", i, len(g.Headers), len(w.Headers))
		}
		for j, h := range w.Headers {
			if g.Headers[j] != h {
				t.Errorf("channel %d header %d = %+v, want %+v", i, j, g.Headers[j], h)
			}
		}
	}
}

func TestWrite_format(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, samplePlaylist()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		`#EXTM3U url-tvg="http://epg-guide.com/it.gz"`,
		`#EXTINF:-1 tvg-id="rai-1" tvg-name="Rai 1" tvg-logo="https://example.com/rai1.png" group-title="RAI",Rai 1`,
		"#EXTVLCOPT:http-user-agent=okhttp/4.11.0",
		"#EXTVLCOPT:http-origin=https://vavoo.to/",
		"#EXTVLCOPT:http-referrer=https://vavoo.to/",
		"#EXTVLCOPT:mediahubmx-signature=[$KEY$]",
		"https://vavoo.to/vavoo-iptv/play/1234",
	} {
		if !strings.Contains(out, want+"\n") {
			t.Errorf("output missing line %q\n%s", want, out)
		}
	}
	// Second channel carries no signature directive.
	if strings.Count(out, SignatureSentinel) != 1 {
		t.Errorf("sentinel should appear exactly once:\n%s", out)
	}
}

func TestParse_fallbacks(t *testing.T) {
	in := strings.Join([]string{
		"#EXTM3U",
		`#EXTINF:-1 tvg-name="Rai Due",Rai Due`,
		"https://example.com/rai2",
		"#EXTINF:-1,Canale Misterioso",
		"https://example.com/misc",
	}, "\n")

	p, err := Parse(strings.NewReader(in), testCategories())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(p.Channels))
	}

	first := p.Channels[0]
	if first.ID != "channel-1" {
		t.Errorf("missing tvg-id should fall back to index: got %q", first.ID)
	}
	if first.Category != "RAI" {
		t.Errorf("missing group-title should fall back to keyword match: got %q", first.Category)
	}
	if first.Logo != catalog.PlaceholderLogo("Rai Due") {
		t.Errorf("missing tvg-logo should fall back to placeholder: got %q", first.Logo)
	}

	second := p.Channels[1]
	if second.ID != "channel-2" {
		t.Errorf("second fallback id = %q, want channel-2", second.ID)
	}
	if second.Category != catalog.DefaultCategory {
		t.Errorf("unmatched name should land in %q, got %q", catalog.DefaultCategory, second.Category)
	}
	if second.Name != "Canale Misterioso" {
		t.Errorf("display name = %q", second.Name)
	}
}

func TestParse_tolerance(t *testing.T) {
	in := strings.Join([]string{
		"#EXTM3U",
		"#PLAYLIST:whatever",
		"",
		`#EXTINF:-1 tvg-id="orphan" tvg-name="Orphan",Orphan`,
		`#EXTINF:-1 tvg-id="kept" tvg-name="Kept",Kept`,
		"#EXTVLCOPT:http-user-agent=custom/1.0",
		"#EXTVLCOPT:http-x-custom=abc",
		"#EXTVLCOPT:garbage-without-equals",
		"https://example.com/kept",
	}, "\n")

	p, err := Parse(strings.NewReader(in), testCategories())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Channels) != 1 {
		t.Fatalf("entry without URL must be dropped: got %d channels", len(p.Channels))
	}
	ch := p.Channels[0]
	if ch.ID != "kept" {
		t.Errorf("ID = %q, want kept", ch.ID)
	}
	if got := ch.Header("User-Agent"); got != "custom/1.0" {
		t.Errorf("user-agent = %q", got)
	}
	if got := ch.Header("x-custom"); got != "abc" {
		t.Errorf("unknown http-* directive should map to a header: got %q", got)
	}
}

func TestSaveLoad_roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "channels.m3u8")

	want := samplePlaylist()
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path, testCategories())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Channels) != len(want.Channels) {
		t.Fatalf("got %d channels, want %d", len(got.Channels), len(want.Channels))
	}
	if got.Channels[0].ID != "rai-1" || got.Channels[1].ID != "sky-sport-24" {
		t.Errorf("channel order not preserved: %q, %q", got.Channels[0].ID, got.Channels[1].ID)
	}
}

func TestSave_atomic_noPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.m3u8")

	if err := Save(path, samplePlaylist()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "channels.m3u8" {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestParse_signatureSentinelNotAHeader(t *testing.T) {
	in := strings.Join([]string{
		"#EXTM3U",
		`#EXTINF:-1 tvg-id="x" tvg-name="X",X`,
		"#EXTVLCOPT:mediahubmx-signature=[$KEY$]",
		"https://example.com/x",
	}, "\n")
	p, err := Parse(strings.NewReader(in), testCategories())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ch := p.Channels[0]
	if !ch.SignatureRequired {
		t.Error("signature directive should set SignatureRequired")
	}
	if len(ch.Headers) != 0 {
		t.Errorf("signature directive must not become a header: %v", ch.Headers)
	}
}
