package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/pet-engine/pkg/savegame"
	"github.com/jwebster45206/pet-engine/pkg/storage"
)

// FileStorage keeps one JSON document per save slot in saveDir. Writes go to
// a temp file in the same directory which is synced and renamed over the
// slot, so a crash leaves either the old save or the new one.
type FileStorage struct {
	mu      sync.Mutex
	saveDir string
	dataDir string
	logger  *slog.Logger
}

// Ensure FileStorage implements Storage interface
var _ storage.Storage = (*FileStorage)(nil)

// NewFileStorage creates saveDir if needed.
func NewFileStorage(saveDir, dataDir string, logger *slog.Logger) (*FileStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if saveDir == "" {
		saveDir = "./saves"
	}
	if dataDir == "" {
		dataDir = "./data"
	}
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStorage{saveDir: saveDir, dataDir: dataDir, logger: logger}, nil
}

func (f *FileStorage) path(id uuid.UUID) string {
	return filepath.Join(f.saveDir, id.String()+".json")
}

// Ping checks that the save directory is still there.
func (f *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(f.saveDir)
	if err != nil {
		return fmt.Errorf("save directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save directory unavailable: %s is not a directory", f.saveDir)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) SaveGame(ctx context.Context, id uuid.UUID, doc *savegame.Document) error {
	if doc == nil {
		return errors.New("document cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := savegame.Marshal(*doc)
	if err != nil {
		return fmt.Errorf("failed to marshal save: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.saveDir, id.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp save: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close save: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(id)); err != nil {
		f.logger.Error("Failed to replace save", "pet_id", id, "error", err)
		return fmt.Errorf("failed to replace save: %w", err)
	}

	f.logger.Debug("Game saved", "pet_id", id, "path", f.path(id), "bytes", len(data))
	return nil
}

func (f *FileStorage) LoadGame(ctx context.Context, id uuid.UUID) (*savegame.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	data, err := os.ReadFile(f.path(id))
	f.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read save: %w", err)
	}

	doc, err := savegame.Decode(data)
	if err != nil {
		f.logger.Error("Failed to decode save", "pet_id", id, "error", err)
		return nil, err
	}
	return &doc, nil
}

func (f *FileStorage) DeleteGame(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to delete save: %w", err)
	}
	return nil
}

func (f *FileStorage) GameExists(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := os.Stat(f.path(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check save: %w", err)
}
