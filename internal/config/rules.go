package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/flussotv/flusso/internal/catalog"
)

// Rule file names under DataDir. All four are plain JSON, editable by hand
// while the service runs; the refresh loop re-reads them every cycle.
const (
	CategoriesFile = "category_keywords.json"
	FiltersFile    = "channel_filters.json"
	RemoveFile     = "channel_remove.json"
	LogosFile      = "channel_logos.json"
)

// Rules is the compile ruleset: which channels to keep, how to group them,
// which logos to attach.
type Rules struct {
	Categories catalog.CategoryMap
	Include    []string          // keep only names containing one of these
	Remove     []string          // drop names containing any of these
	Logos      map[string]string // lowercase sanitized name -> logo URL
}

// LoadRules reads the four rule files from dataDir. A missing file is
// created with built-in defaults; an existing but unreadable or invalid
// file is an error, so a bad hand edit never silently reverts to defaults.
func LoadRules(dataDir string) (*Rules, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	r := &Rules{}

	if err := loadRuleFile(dataDir, CategoriesFile, &r.Categories, defaultCategories); err != nil {
		return nil, err
	}
	if err := loadRuleFile(dataDir, FiltersFile, &r.Include, defaultFilters); err != nil {
		return nil, err
	}
	if err := loadRuleFile(dataDir, RemoveFile, &r.Remove, defaultRemove); err != nil {
		return nil, err
	}
	logos := map[string]string{}
	if err := loadRuleFile(dataDir, LogosFile, &logos, defaultLogos); err != nil {
		return nil, err
	}
	r.Logos = make(map[string]string, len(logos))
	for name, u := range logos {
		r.Logos[strings.ToLower(name)] = u
	}
	return r, nil
}

// loadRuleFile reads name into dst, or writes defaultFn() to disk and into
// dst when the file does not exist yet.
func loadRuleFile[T any](dataDir, name string, dst *T, defaultFn func() T) error {
	path := filepath.Join(dataDir, name)
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		*dst = defaultFn()
		if werr := writeRuleFile(path, *dst); werr != nil {
			log.Printf("Could not seed %s: %v", path, werr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func writeRuleFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0644)
}

func defaultCategories() catalog.CategoryMap {
	return catalog.NewCategoryMap(
		catalog.CategoryKeywords{Name: "SKY", Keywords: []string{
			"sky cin", "tv 8", "fox", "comedy central", "animal planet", "nat geo", "tv8",
			"sky atl", "sky uno", "sky prima", "sky serie", "sky arte", "sky docum",
			"sky natu", "cielo", "history", "sky tg",
		}},
		catalog.CategoryKeywords{Name: "RAI", Keywords: []string{"rai"}},
		catalog.CategoryKeywords{Name: "MEDIASET", Keywords: []string{
			"mediaset", "canale 5", "rete 4", "italia", "focus", "tg com 24", "tgcom 24",
			"premium crime", "iris", "mediaset iris", "cine 34", "27 twenty seven",
			"27 twentyseven",
		}},
		catalog.CategoryKeywords{Name: "DISCOVERY", Keywords: []string{
			"discovery", "real time", "investigation", "top crime", "wwe", "hgtv", "nove",
			"dmax", "food network", "warner tv",
		}},
		catalog.CategoryKeywords{Name: "SPORT", Keywords: []string{
			"sport", "dazn", "tennis", "moto", "f1", "golf", "sportitalia",
			"sport italia", "solo calcio", "solocalcio",
		}},
		catalog.CategoryKeywords{Name: "ALTRI", Keywords: []string{}},
		catalog.CategoryKeywords{Name: "BAMBINI", Keywords: []string{
			"boing", "cartoon", "k2", "discovery k2", "nick", "super", "frisbee",
		}},
	)
}

func defaultFilters() []string {
	return []string{
		"sky", "fox", "rai", "cine34", "real time", "crime+ investigation", "top crime",
		"wwe", "tennis", "k2", "inter", "rsi", "la 7", "la7", "la 7d", "la7d",
		"27 twentyseven", "premium crime", "comedy central", "super!", "animal planet",
		"hgtv", "avengers grimm channel", "catfish", "rakuten", "nickelodeon",
		"cartoonito", "nick jr", "history", "nat geo", "tv8", "canale 5", "italia",
		"mediaset", "rete 4", "focus", "iris", "discovery", "dazn", "cine 34", "la 5",
		"giallo", "dmax", "cielo", "eurosport", "disney+", "food", "tv 8", "motortrend",
		"boing", "frisbee", "deejay tv", "cartoon network", "tg com 24", "warner tv",
		"boing plus", "27 twenty seven", "tgcom 24", "sky uno",
	}
}

func defaultRemove() []string {
	return []string{
		"maria+vision", "telepace", "uninettuno", "lombardia", "cusano", "fm italia",
		"juwelo", "kiss kiss", "qvc", "rete tv", "italia 3", "fishing", "inter tv",
		"avengers",
	}
}

func defaultLogos() map[string]string {
	return map[string]string{
		"sky uno": "https://raw.githubusercontent.com/tv-logo/tv-logos/main/countries/italy/sky-uno-it.png",
		"rai 1":   "https://raw.githubusercontent.com/tv-logo/tv-logos/main/countries/italy/rai-1-it.png",
		"rai 2":   "https://raw.githubusercontent.com/tv-logo/tv-logos/main/countries/italy/rai-2-it.png",
		"rai 3":   "https://raw.githubusercontent.com/tv-logo/tv-logos/main/countries/italy/rai-3-it.png",
	}
}
