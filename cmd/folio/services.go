package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/home"
	"github.com/foliolabs/folio/internal/index"
	"github.com/foliolabs/folio/internal/ingest"
	"github.com/foliolabs/folio/internal/jobs"
	"github.com/foliolabs/folio/internal/pipeline"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/storage"
	"github.com/foliolabs/folio/internal/svcctx"
)

// buildServices wires the full service graph from config and the home
// directory. The returned cleanup closes the repository and index; callers
// must invoke it once no service is in use.
func buildServices() (*svcctx.Services, func(), error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, nil, err
	}

	cfgMgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := cfgMgr.Get()

	logger := newLogger(cfg.Log.Level)

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = h.DatabasePath()
	}
	rp, err := repo.NewBun(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	indexPath := cfg.Index.Path
	if indexPath == "" {
		indexPath = h.IndexPath()
	}
	idx, err := index.NewBleve(indexPath)
	if err != nil {
		rp.Close()
		return nil, nil, fmt.Errorf("failed to open search index: %w", err)
	}

	eng, err := engine.New(cfg.Parser.Engine, cfg)
	if err != nil {
		idx.Close()
		rp.Close()
		return nil, nil, err
	}

	store := storage.New(h)

	pl := &pipeline.Pipeline{
		Repo:                rp,
		Store:               store,
		Engine:              eng,
		Index:               idx,
		Logger:              logger,
		BatchSize:           cfg.Parser.BatchSize,
		PersistEngineOutput: cfg.Parser.PersistEngineOutput,
	}
	runner := jobs.NewRunner(pl, rp, logger)
	ing := &ingest.Service{Repo: rp, Store: store, Index: idx, Engine: eng, Logger: logger}

	services := &svcctx.Services{
		Repo:   rp,
		Store:  store,
		Index:  idx,
		Engine: eng,
		Runner: runner,
		Ingest: ing,
		Config: cfgMgr,
		Logger: logger,
		Home:   h,
	}

	cleanup := func() {
		runner.Shutdown()
		if err := idx.Close(); err != nil {
			logger.Error("index close error", "error", err)
		}
		if err := rp.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}
	return services, cleanup, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
