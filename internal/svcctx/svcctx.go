// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/home"
	"github.com/foliolabs/folio/internal/index"
	"github.com/foliolabs/folio/internal/ingest"
	"github.com/foliolabs/folio/internal/jobs"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/storage"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Repo   repo.Repository
	Store  *storage.Store
	Index  index.Index
	Engine engine.Engine
	Runner *jobs.Runner
	Ingest *ingest.Service
	Config *config.Manager
	Logger *slog.Logger
	Home   *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RepoFrom extracts the repository from context.
func RepoFrom(ctx context.Context) repo.Repository {
	if s := ServicesFrom(ctx); s != nil {
		return s.Repo
	}
	return nil
}

// StoreFrom extracts the artifact store from context.
func StoreFrom(ctx context.Context) *storage.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// IndexFrom extracts the search index from context.
func IndexFrom(ctx context.Context) index.Index {
	if s := ServicesFrom(ctx); s != nil {
		return s.Index
	}
	return nil
}

// RunnerFrom extracts the job runner from context.
func RunnerFrom(ctx context.Context) *jobs.Runner {
	if s := ServicesFrom(ctx); s != nil {
		return s.Runner
	}
	return nil
}

// IngestFrom extracts the ingest service from context.
func IngestFrom(ctx context.Context) *ingest.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Ingest
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
