// Package config loads service settings from env vars, an optional .env
// file, and an optional YAML file. Precedence: built-in defaults, then the
// YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP
	Addr   string // listen address, e.g. :3000
	Domain string // external host for install links; empty = use request host

	// Proxy targets
	MediaFlowURL      string // MediaFlow proxy host (no scheme), default for requests without path params
	MediaFlowPassword string
	SecondaryProxyURL string // optional alternate proxy base URL (with scheme); empty = primary only

	// Paths
	DataDir      string // rule files, playlist, journal live here
	PlaylistPath string // default <DataDir>/channels.m3u8
	JournalPath  string // default <DataDir>/journal.db

	// Catalog
	EPGURL string   // EPG reference written into the playlist header
	Groups []string // upstream group filters fetched per cycle, in order

	// Timing
	RefreshInterval time.Duration
	SignatureTTL    time.Duration
	ResolveTimeout  time.Duration
	ResolveCacheTTL time.Duration

	// Upstream
	PageLimit int    // hard cap on catalog pages per group
	DeviceID  string // device uniqueId sent in the auth payload; generated when empty
	Adult     bool   // pass adult=true in the catalog filter
}

func defaults() *Config {
	return &Config{
		Addr:            ":3000",
		DataDir:         "./data",
		EPGURL:          "http://epg-guide.com/it.gz",
		Groups:          []string{"Italy"},
		RefreshInterval: 20 * time.Minute,
		SignatureTTL:    3 * time.Hour,
		ResolveTimeout:  12 * time.Second,
		ResolveCacheTTL: 5 * time.Minute,
		PageLimit:       50,
	}
}

// Load builds the config. Call LoadDotEnv() first to honor .env files.
// Returns an error only for an unreadable or invalid YAML file; everything
// else falls back to defaults.
func Load() (*Config, error) {
	c := defaults()

	path := strings.TrimSpace(os.Getenv("FLUSSO_CONFIG"))
	if path == "" {
		if _, err := os.Stat("flusso.yaml"); err == nil {
			path = "flusso.yaml"
		}
	}
	if path != "" {
		if err := c.applyFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	c.applyEnv()

	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 20 * time.Minute
	}
	if c.SignatureTTL <= 0 {
		c.SignatureTTL = 3 * time.Hour
	}
	if c.ResolveTimeout <= 0 {
		c.ResolveTimeout = 12 * time.Second
	}
	if c.PageLimit <= 0 {
		c.PageLimit = 50
	}
	if len(c.Groups) == 0 {
		c.Groups = []string{"Italy"}
	}
	if c.PlaylistPath == "" {
		c.PlaylistPath = filepath.Join(c.DataDir, "channels.m3u8")
	}
	if c.JournalPath == "" {
		c.JournalPath = filepath.Join(c.DataDir, "journal.db")
	}
	if c.DeviceID == "" {
		c.DeviceID = newDeviceID()
	}
	return c, nil
}

// fileConfig is the YAML form. Durations are strings ("20m", "3h") so the
// file reads like the env vars do.
type fileConfig struct {
	Addr              string   `yaml:"addr"`
	Domain            string   `yaml:"domain"`
	MediaFlowURL      string   `yaml:"mediaflow_url"`
	MediaFlowPassword string   `yaml:"mediaflow_password"`
	SecondaryProxyURL string   `yaml:"secondary_proxy_url"`
	DataDir           string   `yaml:"data_dir"`
	PlaylistPath      string   `yaml:"playlist_path"`
	JournalPath       string   `yaml:"journal_path"`
	EPGURL            string   `yaml:"epg_url"`
	Groups            []string `yaml:"groups"`
	RefreshInterval   string   `yaml:"refresh_interval"`
	SignatureTTL      string   `yaml:"signature_ttl"`
	ResolveTimeout    string   `yaml:"resolve_timeout"`
	ResolveCacheTTL   string   `yaml:"resolve_cache_ttl"`
	PageLimit         int      `yaml:"page_limit"`
	DeviceID          string   `yaml:"device_id"`
	Adult             *bool    `yaml:"adult"`
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return err
	}
	setString(&c.Addr, fc.Addr)
	setString(&c.Domain, fc.Domain)
	setString(&c.MediaFlowURL, fc.MediaFlowURL)
	setString(&c.MediaFlowPassword, fc.MediaFlowPassword)
	setString(&c.SecondaryProxyURL, fc.SecondaryProxyURL)
	setString(&c.DataDir, fc.DataDir)
	setString(&c.PlaylistPath, fc.PlaylistPath)
	setString(&c.JournalPath, fc.JournalPath)
	setString(&c.EPGURL, fc.EPGURL)
	setString(&c.DeviceID, fc.DeviceID)
	if len(fc.Groups) > 0 {
		c.Groups = fc.Groups
	}
	if fc.PageLimit > 0 {
		c.PageLimit = fc.PageLimit
	}
	if fc.Adult != nil {
		c.Adult = *fc.Adult
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.RefreshInterval, &c.RefreshInterval},
		{fc.SignatureTTL, &c.SignatureTTL},
		{fc.ResolveTimeout, &c.ResolveTimeout},
		{fc.ResolveCacheTTL, &c.ResolveCacheTTL},
	} {
		if d.raw == "" {
			continue
		}
		dur, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("bad duration %q: %w", d.raw, err)
		}
		*d.dst = dur
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("FLUSSO_ADDR", c.Addr)
	c.Domain = getEnv("FLUSSO_DOMAIN", c.Domain)
	c.MediaFlowURL = getEnv("FLUSSO_MEDIAFLOW_URL", c.MediaFlowURL)
	c.MediaFlowPassword = getEnv("FLUSSO_MEDIAFLOW_PSW", c.MediaFlowPassword)
	c.SecondaryProxyURL = getEnv("FLUSSO_SECONDARY_PROXY_URL", c.SecondaryProxyURL)
	c.DataDir = getEnv("FLUSSO_DATA_DIR", c.DataDir)
	c.PlaylistPath = getEnv("FLUSSO_PLAYLIST", c.PlaylistPath)
	c.JournalPath = getEnv("FLUSSO_JOURNAL", c.JournalPath)
	c.EPGURL = getEnv("FLUSSO_EPG_URL", c.EPGURL)
	if v := os.Getenv("FLUSSO_GROUPS"); v != "" {
		c.Groups = splitComma(v)
	}
	c.RefreshInterval = getEnvDuration("FLUSSO_REFRESH", c.RefreshInterval)
	c.SignatureTTL = getEnvDuration("FLUSSO_SIGNATURE_TTL", c.SignatureTTL)
	c.ResolveTimeout = getEnvDuration("FLUSSO_RESOLVE_TIMEOUT", c.ResolveTimeout)
	c.ResolveCacheTTL = getEnvDuration("FLUSSO_RESOLVE_CACHE_TTL", c.ResolveCacheTTL)
	c.PageLimit = getEnvInt("FLUSSO_PAGE_LIMIT", c.PageLimit)
	c.DeviceID = getEnv("FLUSSO_DEVICE_ID", c.DeviceID)
	c.Adult = getEnvBool("FLUSSO_ADULT", c.Adult)
}

// newDeviceID generates a 16-char hex id in the shape the upstream app
// sends (android device uniqueId).
func newDeviceID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:16]
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
