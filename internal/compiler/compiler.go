// Package compiler turns raw upstream catalog items into the published
// channel list: keyword filtering, name cleanup, id assignment, category
// and logo resolution, playback headers.
package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/flussotv/flusso/internal/catalog"
)

// Item is one raw catalog entry as fetched from the provider.
type Item struct {
	Name string
	URL  string
}

// Compiler holds the rule set a compile pass runs under. All fields may be
// left zero; an empty Include list keeps everything not removed.
type Compiler struct {
	Categories catalog.CategoryMap
	Include    []string
	Remove     []string
	Logos      map[string]string // keyed by lowercased sanitized name
}

// Drop reasons, recorded per excluded item.
const (
	DropRemoved   = "removed"   // raw name matched a removal keyword
	DropUnmatched = "unmatched" // raw name matched no inclusion keyword
	DropNoURL     = "nourl"     // item arrived without a stream URL
)

// Drop is one excluded item with the reason it was excluded.
type Drop struct {
	Name   string
	Reason string
}

// Report describes what a compile pass did with its input.
type Report struct {
	Total int
	Kept  int
	Drops []Drop
}

// Count returns how many items were dropped for reason.
func (r Report) Count(reason string) int {
	n := 0
	for _, d := range r.Drops {
		if d.Reason == reason {
			n++
		}
	}
	return n
}

// DefaultHeaders returns the playback headers every compiled channel
// carries. Callers get a fresh slice.
func DefaultHeaders() []catalog.Header {
	return []catalog.Header{
		{Name: "user-agent", Value: "okhttp/4.11.0"},
		{Name: "origin", Value: "https://vavoo.to/"},
		{Name: "referer", Value: "https://vavoo.to/"},
	}
}

// Compile runs the pipeline over items in order. Keyword filters match the
// raw name; category and logo resolution use the sanitized one. Input
// order is preserved for the channels that survive, so equal input yields
// an identical list.
func (c Compiler) Compile(items []Item) ([]catalog.Channel, Report) {
	rep := Report{Total: len(items)}
	channels := make([]catalog.Channel, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		lower := strings.ToLower(it.Name)
		switch {
		case containsAny(lower, c.Remove):
			rep.Drops = append(rep.Drops, Drop{Name: it.Name, Reason: DropRemoved})
			continue
		case len(c.Include) > 0 && !containsAny(lower, c.Include):
			rep.Drops = append(rep.Drops, Drop{Name: it.Name, Reason: DropUnmatched})
			continue
		case it.URL == "":
			rep.Drops = append(rep.Drops, Drop{Name: it.Name, Reason: DropNoURL})
			continue
		}
		name := Sanitize(it.Name)
		channels = append(channels, catalog.Channel{
			ID:                uniqueID(Slug(name), seen),
			Name:              name,
			Category:          c.Categories.Match(name),
			Logo:              c.logoFor(name),
			URL:               it.URL,
			Headers:           DefaultHeaders(),
			SignatureRequired: true,
		})
	}
	rep.Kept = len(channels)
	return channels, rep
}

func (c Compiler) logoFor(name string) string {
	if logo, ok := c.Logos[strings.ToLower(name)]; ok && logo != "" {
		return logo
	}
	return catalog.PlaceholderLogo(name)
}

var trailingMarkerRE = regexp.MustCompile(`\s*\.[A-Za-z]$`)

// Sanitize trims provider quality markers like ".c" or " .s" from the end
// of a channel name. Markers can stack, so it strips until the name is
// stable; applying Sanitize to its own output changes nothing.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	for {
		trimmed := strings.TrimSpace(trailingMarkerRE.ReplaceAllString(name, ""))
		if trimmed == name {
			return name
		}
		name = trimmed
	}
}

// Slug derives a channel id from a cleaned name: lowercased with
// everything outside [a-z0-9] dropped.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// uniqueID claims slug in seen, suffixing -2, -3, ... on collisions.
func uniqueID(slug string, seen map[string]bool) string {
	if slug == "" {
		slug = "channel"
	}
	id := slug
	for n := 2; seen[id]; n++ {
		id = slug + "-" + strconv.Itoa(n)
	}
	seen[id] = true
	return id
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
