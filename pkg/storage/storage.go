package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/savegame"
)

// ErrNotFound is returned when a save slot holds no document.
var ErrNotFound = errors.New("save not found")

// Storage defines a unified interface for all storage operations.
// Save slots live in the backend (file or Redis); catalogs are always read
// from the data directory.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Save slot operations. A slot is keyed by pet id and holds one document.
	SaveGame(ctx context.Context, id uuid.UUID, doc *savegame.Document) error
	LoadGame(ctx context.Context, id uuid.UUID) (*savegame.Document, error)
	DeleteGame(ctx context.Context, id uuid.UUID) error
	GameExists(ctx context.Context, id uuid.UUID) (bool, error)

	// Reference data (filesystem-backed). The returned catalog is always
	// usable; a non-nil error lists the catalogs that failed to load.
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
}
