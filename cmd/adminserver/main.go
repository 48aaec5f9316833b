// Command adminserver runs the read-only HTTP admin surface
// (internal/adminhttp) against an already-populated data directory,
// grounded on tuannm99-novasql's cmd/server/main.go for flag/config
// loading and signal-aware shutdown.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carina-TzuHsuan/CS564/internal/adminhttp"
	"github.com/Carina-TzuHsuan/CS564/internal/bufmgr"
	"github.com/Carina-TzuHsuan/CS564/internal/catalog"
	"github.com/Carina-TzuHsuan/CS564/internal/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "minibase.yaml", "path to minibase YAML config")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			slog.Error("adminserver: load config failed", "path", cfgPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if !cfg.Admin.Enabled {
		slog.Info("adminserver: admin.enabled is false, nothing to do")
		return
	}

	bm := bufmgr.New(cfg.Bufferpool.NumFrames, cfg.Storage.PageSize)
	cat, err := catalog.New(cfg.Storage.DataDir)
	if err != nil {
		slog.Error("adminserver: init catalog failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      adminhttp.Router(bm, cat),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("adminserver: listening", "addr", cfg.Admin.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("adminserver: serve failed", "err", err)
		os.Exit(1)
	}
}
