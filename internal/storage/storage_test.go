package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/pet-engine/pkg/savegame"
	"github.com/jwebster45206/pet-engine/pkg/stats"
	"github.com/jwebster45206/pet-engine/pkg/timeutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testDocument(id string) *savegame.Document {
	hunger := 42.5
	level := 3
	return &savegame.Document{
		Version:   savegame.Version,
		ID:        id,
		SaveTime:  timeutil.At(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
		PetStats:  stats.Record{Hunger: &hunger, Level: &level},
		Inventory: savegame.Inventory{"apple": 2, "ball": 1},
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
