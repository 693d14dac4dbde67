// Package engine defines the parsing engines that turn a source file into a
// ParsedDocument. The set of engines is closed and selected by configuration.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/model"
)

// ErrUnknownEngine is returned when the configured engine name is not one of
// the supported variants.
var ErrUnknownEngine = errors.New("unknown parsing engine")

// Engine parses a source file into an in-memory document.
type Engine interface {
	// Version identifies the engine and its output format. It is recorded
	// on books so stale parses can be detected.
	Version() string

	// Parse reads the source file and produces a complete parsed document.
	Parse(ctx context.Context, path string) (*model.ParsedDocument, error)

	// CountPages returns the source's page count when it can be determined
	// cheaply, or 0 when unknown.
	CountPages(ctx context.Context, path string) int
}

// New returns the engine selected by name.
func New(name string, cfg *config.Config) (Engine, error) {
	switch name {
	case "docjson":
		return NewDocJSON(), nil
	case "text":
		return NewText(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}
