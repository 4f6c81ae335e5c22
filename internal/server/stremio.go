package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flussotv/flusso/internal/catalog"
	"github.com/flussotv/flusso/internal/proxy"
)

const (
	addonID      = "org.flusso.iptv"
	addonName    = "Flusso IPTV"
	addonVersion = "1.0.0"

	// idPrefix namespaces both catalog ids (flusso-<CATEGORY>) and
	// channel meta ids (flusso-<channel id>).
	idPrefix = "flusso-"

	addonLogo       = "https://dl.strem.io/addon-logo.png"
	addonBackground = "https://dl.strem.io/addon-background.jpg"
)

type manifest struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	Description   string            `json:"description"`
	Resources     []string          `json:"resources"`
	Types         []string          `json:"types"`
	Catalogs      []manifestCatalog `json:"catalogs"`
	IDPrefixes    []string          `json:"idPrefixes"`
	BehaviorHints behaviorHints     `json:"behaviorHints"`
	Logo          string            `json:"logo"`
	Icon          string            `json:"icon"`
	Background    string            `json:"background"`
}

type manifestCatalog struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Extra []manifestExtra `json:"extra"`
}

type manifestExtra struct {
	Name       string `json:"name"`
	IsRequired bool   `json:"isRequired"`
}

type behaviorHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

// meta is a channel in Stremio meta form. streamInfo carries the
// unresolved proxy URL as a preview; the stream endpoint serves the
// resolved variants.
type meta struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Genres      []string   `json:"genres"`
	Poster      string     `json:"poster"`
	PosterShape string     `json:"posterShape"`
	Background  string     `json:"background"`
	Logo        string     `json:"logo"`
	StreamInfo  streamInfo `json:"streamInfo"`
}

type streamInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type stream struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (s *Server) handleManifest(c *gin.Context) {
	mf := s.mediaflow(c)
	cats := make([]manifestCatalog, 0, s.categories.Len())
	for _, name := range s.categories.Names() {
		cats = append(cats, manifestCatalog{
			Type:  "tv",
			ID:    idPrefix + name,
			Name:  addonName + " - " + titleCase(name),
			Extra: []manifestExtra{{Name: "search", IsRequired: false}},
		})
	}
	c.JSON(http.StatusOK, manifest{
		ID:          addonID,
		Name:        addonName,
		Version:     addonVersion,
		Description: fmt.Sprintf("Italian live TV through MediaFlow Proxy (%s)", mf.Base),
		Resources:   []string{"catalog", "meta", "stream"},
		Types:       []string{"tv"},
		Catalogs:    cats,
		IDPrefixes:  []string{idPrefix},
		BehaviorHints: behaviorHints{
			Configurable:          false,
			ConfigurationRequired: false,
		},
		Logo:       addonLogo,
		Icon:       addonLogo,
		Background: addonBackground,
	})
}

func (s *Server) handleCatalog(c *gin.Context) {
	id, ok := resourceID(c)
	metas := make([]meta, 0)
	mf := s.mediaflow(c)
	// No proxy target means nothing here is playable; serve empty
	// catalogs rather than dead entries.
	if !ok || !mf.Configured() {
		c.JSON(http.StatusOK, gin.H{"metas": metas})
		return
	}

	category := strings.TrimPrefix(id, idPrefix)
	search := strings.ToLower(c.Query("search"))
	for _, ch := range s.store.Current().Channels {
		if search != "" {
			// Search spans the whole catalog, not just this category.
			if !strings.Contains(strings.ToLower(ch.Name), search) {
				continue
			}
		} else if ch.Category != category {
			continue
		}
		metas = append(metas, toMeta(ch, mf))
	}
	c.JSON(http.StatusOK, gin.H{"metas": metas})
}

func (s *Server) handleMeta(c *gin.Context) {
	id, ok := resourceID(c)
	mf := s.mediaflow(c)
	if !ok || !mf.Configured() {
		c.JSON(http.StatusOK, gin.H{"meta": gin.H{}})
		return
	}
	ch, found := s.store.Current().Find(strings.TrimPrefix(id, idPrefix))
	if !found {
		c.JSON(http.StatusOK, gin.H{"meta": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meta": toMeta(ch, mf)})
}

// handleStream answers with whatever variants the resolver produced; a
// known id never yields an error status, only a possibly empty list.
func (s *Server) handleStream(c *gin.Context) {
	id, ok := resourceID(c)
	streams := make([]stream, 0)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"streams": streams})
		return
	}
	ch, found := s.store.Current().Find(strings.TrimPrefix(id, idPrefix))
	if !found {
		c.JSON(http.StatusOK, gin.H{"streams": streams})
		return
	}
	for _, p := range s.streams.Resolve(ch, s.mediaflow(c)) {
		streams = append(streams, stream{Name: p.Name, Title: p.Title, URL: p.URL})
	}
	c.JSON(http.StatusOK, gin.H{"streams": streams})
}

// resourceID validates the :type/:id route params and returns the id with
// its .json suffix stripped.
func resourceID(c *gin.Context) (string, bool) {
	typ := c.Param("type")
	id := strings.TrimSuffix(c.Param("id"), ".json")
	return id, typ == "tv" && strings.HasPrefix(id, idPrefix)
}

func toMeta(ch catalog.Channel, mf proxy.MediaFlow) meta {
	return meta{
		ID:          idPrefix + ch.ID,
		Name:        ch.Name,
		Type:        "tv",
		Genres:      []string{ch.Category},
		Poster:      ch.Logo,
		PosterShape: "square",
		Background:  ch.Logo,
		Logo:        ch.Logo,
		StreamInfo: streamInfo{
			URL:   mf.ManifestURL(ch.URL, ch.Headers, ""),
			Title: ch.Name,
		},
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
