// Package server exposes the HTTP surface: the Stremio addon protocol
// (manifest, catalog, meta, stream), the M3U playlist, and the ops
// endpoints (health, status, metrics).
package server

import (
	"html/template"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flussotv/flusso/internal/catalog"
	"github.com/flussotv/flusso/internal/config"
	"github.com/flussotv/flusso/internal/journal"
	"github.com/flussotv/flusso/internal/playlist"
	"github.com/flussotv/flusso/internal/proxy"
	"github.com/flussotv/flusso/internal/refresher"
	"github.com/flussotv/flusso/internal/resolver"
)

// Streams turns a channel into playable stream variants.
type Streams interface {
	Resolve(ch catalog.Channel, mf proxy.MediaFlow) []resolver.Playback
}

// LoopStatus reports the refresh loop state for /health.
type LoopStatus interface {
	Status() refresher.Status
}

// Server holds the router and its collaborators. Construct with New,
// serve via Handler.
type Server struct {
	cfg        config.Config
	categories catalog.CategoryMap
	store      *catalog.Store
	streams    Streams
	loop       LoopStatus
	journal    *journal.Journal
	router     *gin.Engine
	home       *template.Template
}

// New builds the server and registers all routes. loop and jnl may be nil
// (health then reports idle, status an empty summary).
func New(cfg config.Config, categories catalog.CategoryMap, store *catalog.Store, streams Streams, loop LoopStatus, jnl *journal.Journal) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// Stremio web clients call the addon cross-origin.
	router.Use(gin.Recovery(), cors.Default())

	s := &Server{
		cfg:        cfg,
		categories: categories,
		store:      store,
		streams:    streams,
		loop:       loop,
		journal:    jnl,
		router:     router,
		home:       template.Must(template.New("home").Parse(homePage)),
	}
	s.routes()
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.GET("/", s.handleHome)
	s.router.GET("/manifest.json", s.handleManifest)
	s.router.GET("/catalog/:type/:id", s.handleCatalog)
	s.router.GET("/meta/:type/:id", s.handleMeta)
	s.router.GET("/stream/:type/:id", s.handleStream)

	// Same resources with per-user MediaFlow credentials in the path;
	// this is the form the install page hands to Stremio.
	creds := s.router.Group("/mfp/:mfp/psw/:psw")
	creds.GET("/manifest.json", s.handleManifest)
	creds.GET("/catalog/:type/:id", s.handleCatalog)
	creds.GET("/meta/:type/:id", s.handleMeta)
	creds.GET("/stream/:type/:id", s.handleStream)

	s.router.GET("/playlist.m3u8", s.handlePlaylist)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/status.json", s.handleStatus)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// mediaflow resolves the MediaFlow target for a request: path params win,
// configured defaults fill in.
func (s *Server) mediaflow(c *gin.Context) proxy.MediaFlow {
	mf := proxy.MediaFlow{Base: s.cfg.MediaFlowURL, Password: s.cfg.MediaFlowPassword}
	if v := pathParam(c, "mfp"); v != "" {
		mf.Base = v
	}
	if v := pathParam(c, "psw"); v != "" {
		mf.Password = v
	}
	return mf
}

func pathParam(c *gin.Context, name string) string {
	v := c.Param(name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) handlePlaylist(c *gin.Context) {
	snap := s.store.Current()
	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.Status(http.StatusOK)
	if err := playlist.Write(c.Writer, playlist.Playlist{EPGURL: s.cfg.EPGURL, Channels: snap.Channels}); err != nil {
		log.Printf("write playlist response: %v", err)
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	State       string `json:"state"`
	Channels    int    `json:"channels"`
	LastRefresh string `json:"last_refresh,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

// handleHealth always answers 200; liveness is "the process serves HTTP",
// upstream trouble shows up in the fields.
func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{
		Status:   "ok",
		State:    string(refresher.StateIdle),
		Channels: len(s.store.Current().Channels),
	}
	if s.loop != nil {
		st := s.loop.Status()
		resp.State = string(st.State)
		resp.LastError = st.LastError
		if !st.LastRefresh.IsZero() {
			resp.LastRefresh = st.LastRefresh.UTC().Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStatus(c *gin.Context) {
	sum, err := s.journal.Summarize(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleHome(c *gin.Context) {
	domain := s.cfg.Domain
	if domain == "" {
		domain = c.Request.Host
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := s.home.Execute(c.Writer, map[string]string{
		"Domain":     domain,
		"DefaultURL": s.cfg.MediaFlowURL,
		"DefaultPsw": s.cfg.MediaFlowPassword,
	})
	if err != nil {
		log.Printf("render install page: %v", err)
	}
}
