// Package main provides the navisold binary entry point. Navisold serves the
// boat-building project lifecycle API: project status machine, configuration
// freeze and snapshots, quotes, amendments, and compliance packs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"navisolcore/internal/adapters/projectapi"
	"navisolcore/internal/core"
	"navisolcore/internal/vault"
)

const (
	version = "0.1.0"
	appName = "navisold"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr         string
		settingsPath string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Boat-building project lifecycle server",
		Long: `Navisold manages boat-building projects end to end: the lifecycle
status machine, configuration freeze at order confirmation, quote revisions,
post-freeze amendments, and CE compliance checklist packs.

Storage and blob backends are selected through NAVISOL_* environment
variables; the defaults keep everything in memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, settingsPath, logLevel)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVarP(&settingsPath, "settings", "s", "", "Settings file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, version)
		},
	})

	return cmd
}

func run(addr, settingsPath, logLevel string) error {
	logger := newLogger(logLevel)
	slog.SetDefault(logger)

	settings, err := core.LoadSettings(settingsPath, logger)
	if err != nil {
		return err
	}

	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := core.NewMetrics(registry)

	audit := core.NewAuditLog()
	store.Observe(audit.Record)

	service := core.NewService(store,
		core.WithSettings(settings),
		core.WithLogger(logger),
		core.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobStore, err := vault.Open(ctx)
	if err != nil {
		return err
	}

	handler := projectapi.NewHandler(service)
	handler.Vault = blobStore
	handler.Audit = audit

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "blob_driver", string(blobStore.Driver()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
