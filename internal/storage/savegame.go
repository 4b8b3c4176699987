package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/pet-engine/pkg/savegame"
	"github.com/jwebster45206/pet-engine/pkg/storage"
)

// Save slot operations (Redis-backed). Slots never expire.

func saveKey(id uuid.UUID) string {
	return "save:" + id.String()
}

func (r *RedisStorage) SaveGame(ctx context.Context, id uuid.UUID, doc *savegame.Document) error {
	if doc == nil {
		return errors.New("document cannot be nil")
	}

	data, err := savegame.Marshal(*doc)
	if err != nil {
		r.logger.Error("Failed to marshal save", "pet_id", id, "error", err)
		return fmt.Errorf("failed to marshal save: %w", err)
	}

	if err := r.client.Set(ctx, saveKey(id), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save game", "pet_id", id, "error", err)
		return fmt.Errorf("failed to save game: %w", err)
	}

	r.logger.Debug("Game saved", "pet_id", id, "bytes", len(data))
	return nil
}

func (r *RedisStorage) LoadGame(ctx context.Context, id uuid.UUID) (*savegame.Document, error) {
	data, err := r.client.Get(ctx, saveKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		r.logger.Error("Failed to load game", "pet_id", id, "error", err)
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	doc, err := savegame.Decode(data)
	if err != nil {
		r.logger.Error("Failed to decode save", "pet_id", id, "error", err)
		return nil, err
	}
	return &doc, nil
}

func (r *RedisStorage) DeleteGame(ctx context.Context, id uuid.UUID) error {
	n, err := r.client.Del(ctx, saveKey(id)).Result()
	if err != nil {
		r.logger.Error("Failed to delete game", "pet_id", id, "error", err)
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *RedisStorage) GameExists(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.client.Exists(ctx, saveKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check save: %w", err)
	}
	return n > 0, nil
}
