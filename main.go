package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/PedroGGomess/lions-clube-gaia/cliparse"
	"github.com/PedroGGomess/lions-clube-gaia/db"
	"github.com/PedroGGomess/lions-clube-gaia/middleware"
	"github.com/PedroGGomess/lions-clube-gaia/ratelimit"
	"github.com/PedroGGomess/lions-clube-gaia/reconcile"
	"github.com/PedroGGomess/lions-clube-gaia/router"
	"github.com/PedroGGomess/lions-clube-gaia/store"
	"github.com/PedroGGomess/lions-clube-gaia/voting"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	var dbConn *sql.DB
	var st store.Store
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		st = store.NewMemoryStore()
		slog.Warn("Using in-memory storage, elections and votes are lost on exit")
	} else {
		// Connect and verify
		dbConn, err = db.Open(cfg.DatabaseType, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer dbConn.Close()

		// Create schema (tables)
		if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
			slog.Error("schema creation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema ready", "type", cfg.DatabaseType)
		st = store.NewSQLStore(dbConn)
	}

	// ParseFlags rejects replay on the memory store
	if cfg.ReplayReconcile {
		if err := replayReconcile(context.Background(), cfg.ReconcileLog, st); err != nil {
			slog.Error("reconciliation replay failed", "error", err)
			dbConn.Close()
			os.Exit(1)
		}
		return
	}

	journal, err := reconcile.Open(cfg.ReconcileLog)
	if err != nil {
		slog.Error("failed to open reconciliation journal", "path", cfg.ReconcileLog, "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var counter ratelimit.Counter
	var sqlCounter *ratelimit.SQLCounter
	switch cfg.RateLimitBackend {
	case cliparse.RateLimitDatabase:
		sqlCounter = ratelimit.NewSQLCounter(dbConn)
		counter = sqlCounter
	default:
		counter = ratelimit.NewMemoryCounter()
	}
	limiter := ratelimit.New(counter, cfg.RateLimitMax, cfg.RateLimitWindow)
	if sqlCounter != nil {
		go purgeRateLimits(ctx, sqlCounter, limiter.Window())
	}

	svc := voting.NewService(st, cfg, journal)

	// Create router
	mux := router.NewRouter(dbConn, cfg, svc, limiter)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal, then let in-flight commits finish
		<-ctrlc
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "storage", cfg.DatabaseType, "rate_limit_backend", cfg.RateLimitBackend)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// purgeRateLimits drops expired rate limit windows once per window.
func purgeRateLimits(ctx context.Context, c *ratelimit.SQLCounter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := c.Purge(ctx, now)
			if err != nil {
				slog.Warn("rate limit purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("rate limit windows purged", "count", n)
			}
		}
	}
}

// replayReconcile resets the credentials listed in the journal at path,
// moves the journal aside and writes any failures to a fresh journal.
func replayReconcile(ctx context.Context, path string, r reconcile.Resetter) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no reconciliation journal, nothing to replay", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	entries, err := reconcile.Read(f)
	f.Close()
	if err != nil {
		return err
	}

	rep := reconcile.Resolve(ctx, entries, r)

	replayed := fmt.Sprintf("%s.replayed-%d", path, time.Now().Unix())
	if err := os.Rename(path, replayed); err != nil {
		return fmt.Errorf("failed to move journal aside: %w", err)
	}

	if len(rep.Failed) > 0 {
		j, err := reconcile.Open(path)
		if err != nil {
			return err
		}
		for _, e := range rep.Failed {
			j.Record(e)
		}
		j.Close()
	}

	slog.Info("reconciliation replayed",
		"entries", len(entries),
		"reset", rep.Reset,
		"skipped", rep.Skipped,
		"failed", len(rep.Failed),
		"moved_to", replayed,
	)
	if len(rep.Failed) > 0 {
		return fmt.Errorf("%d credentials could not be reset, see %s", len(rep.Failed), path)
	}
	return nil
}
