// Package playlist reads and writes the channel list as an M3U file with
// the player option directives IPTV players understand. The file is both
// the served playlist and the warm-start source after a restart.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/flussotv/flusso/internal/catalog"
)

// SignatureSentinel is written verbatim into the signature directive.
// Substituting a live signature is playback-side work; the file never
// contains one.
const SignatureSentinel = "[$KEY$]"

const signatureDirective = "mediahubmx-signature"

// Playlist is the persisted form of a snapshot.
type Playlist struct {
	EPGURL   string
	Channels []catalog.Channel
}

var (
	attrRE   = regexp.MustCompile(`([A-Za-z0-9-]+)="([^"]*)"`)
	urlTvgRE = regexp.MustCompile(`url-tvg="([^"]*)"`)
)

// Write renders p in channel order.
func Write(w io.Writer, p Playlist) error {
	bw := bufio.NewWriter(w)
	if p.EPGURL != "" {
		fmt.Fprintf(bw, "#EXTM3U url-tvg=\"%s\"\n", p.EPGURL)
	} else {
		fmt.Fprintln(bw, "#EXTM3U")
	}
	for _, ch := range p.Channels {
		fmt.Fprintf(bw, "#EXTINF:-1 tvg-id=\"%s\" tvg-name=\"%s\" tvg-logo=\"%s\" group-title=\"%s\",%s\n",
			ch.ID, ch.Name, ch.Logo, ch.Category, ch.Name)
		for _, h := range ch.Headers {
			if d := directiveFor(h.Name); d != "" {
				fmt.Fprintf(bw, "#EXTVLCOPT:%s=%s\n", d, h.Value)
			}
		}
		if ch.SignatureRequired {
			fmt.Fprintf(bw, "#EXTVLCOPT:%s=%s\n", signatureDirective, SignatureSentinel)
		}
		fmt.Fprintln(bw, ch.URL)
	}
	return bw.Flush()
}

// Save writes p to path atomically: temp file in the target directory,
// then rename. Readers never see a partial playlist.
func Save(path string, p Playlist) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".channels-*.m3u8")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()
	if err := Write(tmp, p); err != nil {
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Load parses the playlist at path. categories supplies the group-title
// fallback for entries missing one.
func Load(path string, categories catalog.CategoryMap) (Playlist, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Playlist{}, err
	}
	defer f.Close()
	return Parse(f, categories)
}

// Parse reads an M3U channel list. It tolerates attribute and directive
// order, skips unknown lines, and fills defaults for missing metadata:
// tvg-id falls back to channel-<n> (1-based entry index), group-title to
// keyword matching on the display name, tvg-logo to the generated
// placeholder. Entries without a URL line are dropped.
func Parse(r io.Reader, categories catalog.CategoryMap) (Playlist, error) {
	var p Playlist
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur *catalog.Channel
	var haveID bool
	index := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTM3U"):
			if m := urlTvgRE.FindStringSubmatch(line); m != nil {
				p.EPGURL = m[1]
			}
		case strings.HasPrefix(line, "#EXTINF"):
			index++
			ch, ok := parseExtinf(line)
			cur, haveID = &ch, ok
		case strings.HasPrefix(line, "#EXTVLCOPT:"):
			if cur != nil {
				applyDirective(cur, strings.TrimPrefix(line, "#EXTVLCOPT:"))
			}
		case strings.HasPrefix(line, "#"):
			continue
		default:
			if cur == nil {
				continue
			}
			cur.URL = line
			finalize(cur, haveID, index, categories)
			p.Channels = append(p.Channels, *cur)
			cur = nil
		}
	}
	if err := sc.Err(); err != nil {
		return Playlist{}, err
	}
	return p, nil
}

// parseExtinf extracts attrs and display name. ok reports whether tvg-id
// was present.
func parseExtinf(line string) (catalog.Channel, bool) {
	var ch catalog.Channel
	ok := false
	for _, m := range attrRE.FindAllStringSubmatch(line, -1) {
		switch strings.ToLower(m[1]) {
		case "tvg-id":
			ch.ID = m[2]
			ok = ch.ID != ""
		case "tvg-name":
			ch.Name = m[2]
		case "tvg-logo":
			ch.Logo = m[2]
		case "group-title":
			ch.Category = m[2]
		}
	}
	// Display name: after the last quote-comma, or after the first comma
	// when the line has no quoted attributes.
	if i := strings.LastIndex(line, `",`); i >= 0 {
		ch.Name = strings.TrimSpace(line[i+2:])
	} else if i := strings.Index(line, ","); i >= 0 {
		if name := strings.TrimSpace(line[i+1:]); name != "" {
			ch.Name = name
		}
	}
	return ch, ok
}

func applyDirective(ch *catalog.Channel, opt string) {
	name, value, found := strings.Cut(opt, "=")
	if !found {
		return
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == signatureDirective {
		ch.SignatureRequired = true
		return
	}
	if h := headerFor(name); h != "" {
		ch.Headers = append(ch.Headers, catalog.Header{Name: h, Value: value})
	}
}

func finalize(ch *catalog.Channel, haveID bool, index int, categories catalog.CategoryMap) {
	if !haveID {
		ch.ID = "channel-" + strconv.Itoa(index)
	}
	if ch.Category == "" {
		ch.Category = categories.Match(ch.Name)
	}
	if ch.Logo == "" {
		ch.Logo = catalog.PlaceholderLogo(ch.Name)
	}
}

// directiveFor maps a playback header name to its EXTVLCOPT directive.
func directiveFor(header string) string {
	switch strings.ToLower(header) {
	case "user-agent":
		return "http-user-agent"
	case "origin":
		return "http-origin"
	case "referer":
		return "http-referrer"
	default:
		return ""
	}
}

// headerFor is the inverse of directiveFor, tolerant of unknown http-*
// directives.
func headerFor(directive string) string {
	switch directive {
	case "http-user-agent":
		return "user-agent"
	case "http-origin":
		return "origin"
	case "http-referrer":
		return "referer"
	default:
		if rest, ok := strings.CutPrefix(directive, "http-"); ok {
			return rest
		}
		return ""
	}
}
