// Command snakeserver serves engine decisions over HTTP and websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/greedysnek/config"
	"github.com/brensch/greedysnek/logging"
	"github.com/brensch/greedysnek/server"
	"github.com/brensch/greedysnek/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "snakeserver:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.EnvOr("CONFIG", ""), "YAML config file; defaults apply when empty")
	listen := flag.String("listen", config.EnvOr("LISTEN", ""), "Address to listen on, overrides server.addr")
	recordDir := flag.String("record-dir", config.EnvOr("RECORD_DIR", ""), "Write decision parquet logs here, overrides store.dir and enables recording")
	logLevel := flag.String("log-level", config.EnvOr("LOG_LEVEL", ""), "debug, info, warn or error")
	logFormat := flag.String("log-format", config.EnvOr("LOG_FORMAT", ""), "pretty, json or text")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Server.Addr = *listen
	}
	if *recordDir != "" {
		cfg.Store.Dir = *recordDir
		cfg.Server.Record = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	log, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		Engine:     cfg.Engine,
		SessionTTL: cfg.Server.SessionTTL,
		SweepEvery: cfg.Server.SweepEvery,
		Logger:     log,
	}

	var recorder *store.BatchWriter[store.DecisionRow]
	if cfg.Server.Record {
		recorder, err = store.NewDecisionWriter(cfg.Store.Dir, cfg.Store.FlushRows)
		if err != nil {
			return err
		}
		opts.Recorder = recorder
		go flushLoop(ctx, recorder, cfg.Store.FlushEvery, log)
		log.Info("recording decisions", "dir", recorder.Dir(), "flush_rows", cfg.Store.FlushRows, "flush_every", cfg.Store.FlushEvery)
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	go srv.Run(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr, "version", server.Version)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", "err", err)
		}
	}

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			return fmt.Errorf("final decision flush: %w", err)
		}
		files, rows := recorder.Stats()
		log.Info("decision log closed", "files", files, "rows", rows)
	}
	return nil
}

// flushLoop publishes the open decision file once it is older than every.
func flushLoop(ctx context.Context, w *store.BatchWriter[store.DecisionRow], every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			path, err := w.FlushOlderThan(every)
			if err != nil {
				if !errors.Is(err, store.ErrClosed) {
					log.Warn("decision flush failed", "err", err)
				}
				continue
			}
			if path != "" {
				log.Info("decision log flushed", "path", path)
			}
		}
	}
}
