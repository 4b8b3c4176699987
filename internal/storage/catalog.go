package storage

import (
	"context"
	"log/slog"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
)

// Catalog operations (filesystem-backed)

func loadCatalog(ctx context.Context, dataDir string, logger *slog.Logger) (*catalog.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Empty(), err
	}
	logger.Debug("Loading catalogs", "dataDir", dataDir)
	return catalog.Load(dataDir, logger)
}

func (r *RedisStorage) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return loadCatalog(ctx, r.dataDir, r.logger)
}

func (f *FileStorage) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return loadCatalog(ctx, f.dataDir, f.logger)
}
