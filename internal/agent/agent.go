// Package agent wires the Store, Coordinator and HTTP query endpoint
// together into one runnable process and owns its shutdown sequence.
// Unlike the teacher's own agent, this one is wired with plain
// constructor arguments rather than through its `fabric` DI container
// (see DESIGN.md): four components with a fixed dependency graph gain
// nothing from reflective injection.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/localindex/gofind/internal/config"
	"github.com/localindex/gofind/internal/coordinator"
	"github.com/localindex/gofind/internal/httpapi"
	"github.com/localindex/gofind/internal/store"
	"github.com/localindex/gofind/pkg/log"
)

// GoFindAgent runs the core indexing/search engine plus its HTTP skin
// for the lifetime of one process.
type GoFindAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.Config
	log log.LoggerService

	st  *store.Store
	co  *coordinator.Coordinator
	srv *httpapi.Server
}

// NewAgent builds an agent from cfg, not yet connected to anything.
func NewAgent(cfg *config.Config) *GoFindAgent {
	return &GoFindAgent{
		cfg: cfg,
		log: log.NewLoggerService("gofind", cfg.Log),
	}
}

func (a *GoFindAgent) setup(ctx context.Context) error {
	st, err := store.New(store.Config{
		Path:         a.cfg.Store.Path,
		BatchSize:    a.cfg.Store.BatchSize,
		MaxOpenConns: a.cfg.Store.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("agent: open store: %w", err)
	}
	if err := st.Connect(ctx); err != nil {
		return fmt.Errorf("agent: connect store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("agent: migrate store: %w", err)
	}
	if err := st.RepairIndexes(ctx); err != nil {
		return fmt.Errorf("agent: repair indexes: %w", err)
	}
	a.st = st

	a.co = coordinator.New(st, coordinator.Config{
		ScannerWorkers:   a.cfg.Scanner.Workers,
		ScannerBatchSize: a.cfg.Scanner.BatchSize,
		WatcherDebounce:  time.Duration(a.cfg.Watcher.DebounceMillis) * time.Millisecond,
	}, a.log.Named("coordinator"))

	if err := a.co.LoadPersisted(ctx); err != nil {
		return fmt.Errorf("agent: load persisted roots: %w", err)
	}

	if len(a.co.ListIgnores()) == 0 {
		if err := a.co.AddDefaultIgnores(ctx); err != nil {
			return fmt.Errorf("agent: seed default ignores: %w", err)
		}
	}

	if len(a.co.ListRoots()) == 0 {
		for _, root := range a.cfg.Roots {
			if err := a.co.AddRoot(ctx, root); err != nil {
				a.log.Warn("agent: add configured root %q: %v", root, err)
			}
		}
	}

	a.srv = httpapi.New(a.cfg.HTTP.Addr, a.co, a.log.Named("http"))
	return nil
}

// Serve runs until SIGINT/SIGTERM, then drains within the configured
// shutdown timeout, following internal/agent/agent.go's shutdown
// pattern in the teacher repository.
func (a *GoFindAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.mutex.Lock()
	if err := a.setup(ctx); err != nil {
		a.mutex.Unlock()
		return err
	}
	a.mutex.Unlock()

	a.wait.Add(1)
	go func() {
		defer a.wait.Done()
		a.log.Info("agent: serving on %s", a.cfg.HTTP.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("agent: http server: %v", err)
		}
	}()

	a.wait.Add(1)
	go a.pollHealth(ctx)

	<-ctx.Done()
	a.log.Info("agent: shutdown signal received")

	timeout, err := time.ParseDuration(a.cfg.ShutdownTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("agent: http shutdown: %v", err)
	}
	if err := a.st.Close(); err != nil {
		a.log.Warn("agent: close store: %v", err)
	}

	a.wait.Wait()
	a.logFinalStats()
	return nil
}

// pollHealth periodically checks the store for the StoreCorruption
// condition described in §7, logging loudly even between queries so an
// operator watching logs finds out before the next search request does.
func (a *GoFindAgent) pollHealth(ctx context.Context) {
	defer a.wait.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.st.Health(ctx); err != nil {
				a.log.Error("agent: store health check failed: %v", err)
			}
		}
	}
}

func (a *GoFindAgent) logFinalStats() {
	status := a.co.Status()
	var total int64
	for _, rs := range status.Roots {
		total += rs.IndexedFiles
	}
	a.log.Info("agent: stopped with %s files indexed across %d root(s)",
		humanize.Comma(total), len(status.Roots))
}
