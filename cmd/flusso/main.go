// Command flusso: Stremio IPTV addon backed by the vavoo catalog.
//
//	run      Service: refresh loop + HTTP surface (addon, playlist, ops). For systemd.
//	index    One-shot: signature, fetch, compile, write the playlist file. For cron.
//	resolve  Resolve one channel URL to its playable form
//	sig      Print a fresh addon signature
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flussotv/flusso/internal/catalog"
	"github.com/flussotv/flusso/internal/compiler"
	"github.com/flussotv/flusso/internal/config"
	"github.com/flussotv/flusso/internal/health"
	"github.com/flussotv/flusso/internal/journal"
	"github.com/flussotv/flusso/internal/playlist"
	"github.com/flussotv/flusso/internal/proxy"
	"github.com/flussotv/flusso/internal/refresher"
	"github.com/flussotv/flusso/internal/resolver"
	"github.com/flussotv/flusso/internal/server"
	"github.com/flussotv/flusso/internal/vavoo"
)

// fetchAll obtains a signature and pulls every configured group once.
// Partial results from a failed group are kept.
func fetchAll(ctx context.Context, cfg *config.Config) ([]compiler.Item, error) {
	sigs := vavoo.NewSignatureProvider(nil, cfg.DeviceID, cfg.SignatureTTL)
	sig, err := sigs.Obtain(ctx)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	client := vavoo.NewClient(nil, cfg.PageLimit, cfg.Adult)
	var items []compiler.Item
	for _, group := range cfg.Groups {
		raw, err := client.FetchCatalog(ctx, sig, group)
		if err != nil {
			log.Printf("Fetch %s: %v (%d items kept)", group, err, len(raw))
		}
		for _, it := range raw {
			items = append(items, compiler.Item{Name: it.Name, URL: it.URL})
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no channels from %d group(s)", len(cfg.Groups))
	}
	return items, nil
}

func main() {
	_ = config.LoadDotEnv()
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[flusso] ")

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	runAddr := runCmd.String("addr", "", "Listen address (default: FLUSSO_ADDR or :3000)")
	runSkipHealth := runCmd.Bool("skip-health", false, "Skip upstream reachability check at startup")

	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)
	indexOut := indexCmd.String("out", "", "Playlist path (default: FLUSSO_PLAYLIST or <data>/channels.m3u8)")

	resolveCmd := flag.NewFlagSet("resolve", flag.ExitOnError)
	resolveURL := resolveCmd.String("url", "", "Channel URL to resolve")
	resolveJSON := resolveCmd.Bool("json", false, "Print the result as JSON")

	sigCmd := flag.NewFlagSet("sig", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <run|index|resolve|sig> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  run      Refresh loop + HTTP server (addon, playlist, ops)\n")
		fmt.Fprintf(os.Stderr, "  index    Fetch and compile once, write the playlist file\n")
		fmt.Fprintf(os.Stderr, "  resolve  Resolve a channel URL (-url https://... [-json])\n")
		fmt.Fprintf(os.Stderr, "  sig      Print a fresh addon signature\n")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Config: %v", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		_ = runCmd.Parse(os.Args[2:])
		if *runAddr != "" {
			cfg.Addr = *runAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Bad rule files should stop the service here, not fail the
		// first cycle twenty minutes in.
		rules, err := config.LoadRules(cfg.DataDir)
		if err != nil {
			log.Printf("Rules: %v", err)
			os.Exit(1)
		}

		if !*runSkipHealth {
			log.Print("Checking upstream ...")
			hctx, cancel := context.WithTimeout(ctx, 20*time.Second)
			err := health.CheckUpstream(hctx, vavoo.PingURL)
			cancel()
			if err != nil {
				log.Printf("Upstream check failed: %v", err)
				os.Exit(1)
			}
			log.Print("Upstream OK")
		}

		store := catalog.NewStore()
		if pl, err := playlist.Load(cfg.PlaylistPath, rules.Categories); err == nil && len(pl.Channels) > 0 {
			generated := time.Now()
			if fi, serr := os.Stat(cfg.PlaylistPath); serr == nil {
				generated = fi.ModTime()
			}
			store.Replace(&catalog.Snapshot{Channels: pl.Channels, GeneratedAt: generated})
			log.Printf("Warm start: %d channels from %s", len(pl.Channels), cfg.PlaylistPath)
		} else if err != nil && !os.IsNotExist(err) {
			log.Printf("Warm start skipped: %v", err)
		}

		jnl, err := journal.Open(cfg.JournalPath)
		if err != nil {
			log.Printf("Journal disabled: %v", err)
			jnl = nil
		}
		defer jnl.Close()

		sigs := vavoo.NewSignatureProvider(nil, cfg.DeviceID, cfg.SignatureTTL)
		client := vavoo.NewClient(nil, cfg.PageLimit, cfg.Adult)
		secondary := proxy.Secondary{Base: cfg.SecondaryProxyURL}
		res := resolver.New(client, sigs, jnl, secondary, cfg.ResolveTimeout, cfg.ResolveCacheTTL)
		ref := refresher.New(*cfg, store, client, sigs, jnl)
		srv := server.New(*cfg, rules.Categories, store, res, ref, jnl)

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-hup:
					log.Print("SIGHUP received, forcing refresh")
					ref.Kick()
				}
			}
		}()

		go ref.Run(ctx)

		httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}
		go func() {
			<-ctx.Done()
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shCtx)
		}()
		log.Printf("Listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Serve failed: %v", err)
			os.Exit(1)
		}

	case "index":
		_ = indexCmd.Parse(os.Args[2:])
		out := *indexOut
		if out == "" {
			out = cfg.PlaylistPath
		}
		rules, err := config.LoadRules(cfg.DataDir)
		if err != nil {
			log.Printf("Rules: %v", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		items, err := fetchAll(ctx, cfg)
		if err != nil {
			log.Printf("Index failed: %v", err)
			os.Exit(1)
		}
		comp := compiler.Compiler{
			Categories: rules.Categories,
			Include:    rules.Include,
			Remove:     rules.Remove,
			Logos:      rules.Logos,
		}
		channels, rep := comp.Compile(items)
		if len(channels) == 0 {
			log.Printf("Index failed: all %d channels dropped", rep.Total)
			os.Exit(1)
		}
		if err := playlist.Save(out, playlist.Playlist{EPGURL: cfg.EPGURL, Channels: channels}); err != nil {
			log.Printf("Save playlist failed: %v", err)
			os.Exit(1)
		}
		log.Printf("Saved %d channels to %s (%d fetched, %d dropped)",
			len(channels), out, rep.Total, len(rep.Drops))

	case "resolve":
		_ = resolveCmd.Parse(os.Args[2:])
		if *resolveURL == "" {
			log.Print("Set -url to the channel URL to resolve")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sigs := vavoo.NewSignatureProvider(nil, cfg.DeviceID, cfg.SignatureTTL)
		sig, err := sigs.Obtain(ctx)
		if err != nil {
			log.Printf("Signature failed: %v", err)
			os.Exit(1)
		}
		client := vavoo.NewClient(nil, cfg.PageLimit, cfg.Adult)
		resolved, err := client.ResolveURL(ctx, sig, *resolveURL)
		if err != nil {
			log.Printf("Resolve failed: %v", err)
			os.Exit(1)
		}
		if *resolveJSON {
			b, _ := json.Marshal(map[string]string{"url": *resolveURL, "resolved": resolved})
			fmt.Println(string(b))
		} else {
			fmt.Println(resolved)
		}

	case "sig":
		_ = sigCmd.Parse(os.Args[2:])
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sigs := vavoo.NewSignatureProvider(nil, cfg.DeviceID, cfg.SignatureTTL)
		sig, err := sigs.Obtain(ctx)
		if err != nil {
			log.Printf("Signature failed: %v", err)
			os.Exit(1)
		}
		fmt.Println(sig)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}
