package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/claude/liveset/internal/clock"
	"github.com/claude/liveset/internal/config"
	"github.com/claude/liveset/internal/engine"
	livemcp "github.com/claude/liveset/internal/mcp"
	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/persister"
	"github.com/claude/liveset/internal/server"
	"github.com/claude/liveset/internal/session"
	"github.com/claude/liveset/internal/snapshot"
	"github.com/claude/liveset/internal/sound"
	"github.com/claude/liveset/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	quiet := flag.Bool("quiet", false, "never ring the terminal bell when rest ends")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiveSet starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	devUserID, err := db.GetOrCreateUser(ctx, cfg.Session.UserLogin, cfg.Session.UserLogin)
	if err != nil {
		log.Error("failed to resolve user", "login", cfg.Session.UserLogin, "error", err)
		os.Exit(1)
	}

	// Resume snapshot
	snaps, err := snapshot.Open(cfg.Session.SnapshotDir, log)
	if err != nil {
		log.Error("failed to open snapshot store", "dir", cfg.Session.SnapshotDir, "error", err)
		os.Exit(1)
	}
	defer snaps.Close()

	var bell session.Sound = sound.NewBell(os.Stdout, log)
	if *quiet {
		bell = sound.Silent{}
	}

	// Live session
	store := session.NewStore(clock.NewReal(), snaps, bell, session.Options{
		RestDefaultSeconds: cfg.Session.RestDefaultSeconds,
		NotifyOnFinish:     cfg.Session.Notify(),
		DefaultSets:        cfg.Session.DefaultSets,
	}, log)
	if err := store.Rehydrate(ctx); err != nil {
		log.Warn("resume failed", "error", err)
	}
	if st := store.State(); st.Session != nil {
		log.Info("resumed workout", "name", st.Session.WorkoutName, "exercises", len(st.Session.Exercises))
	}
	defer store.Subscribe(lifecycleLogger(log, store.State().Lifecycle))()

	svc := engine.New(store, persister.New(db, cfg.Session.DefaultSets, log), db, log)

	opts := server.Options{
		APIKey:    cfg.Auth.APIKey,
		DevUserID: devUserID,
		DevLogin:  cfg.Session.UserLogin,
	}

	// Listen on the tailnet or plain TCP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		opts.WhoIs = lc
		opts.ResolveUser = db.GetOrCreateUser

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	srv := server.New(svc, opts, log)

	// MCP over streamable HTTP, sharing the REST identity
	mcpSrv := livemcp.New(livemcp.NewLocal(svc), Version, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return livemcp.WithUserID(ctx, server.UserID(r.Context()))
		}),
	))

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := svc.Background(shutdownCtx); err != nil {
		log.Error("saving resume snapshot", "error", err)
	}
	log.Info("server stopped")
}

// lifecycleLogger logs workout starts and ends.
func lifecycleLogger(log *slog.Logger, initial models.Lifecycle) func(session.State) {
	var mu sync.Mutex
	last := initial
	return func(st session.State) {
		mu.Lock()
		defer mu.Unlock()
		if st.Lifecycle == last {
			return
		}
		last = st.Lifecycle
		if st.Session != nil {
			log.Info("workout "+string(st.Lifecycle), "name", st.Session.WorkoutName)
			return
		}
		log.Info("workout " + string(st.Lifecycle))
	}
}
