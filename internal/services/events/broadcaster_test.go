package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/pet-engine/pkg/notify"
)

func setup(t *testing.T, buffer int) (*Broadcaster, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBroadcaster(rdb, uuid.New(), buffer, logger), rdb
}

func TestBroadcaster_RelaysToChannelAndHistory(t *testing.T) {
	b, rdb := setup(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, Channel(b.petID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- b.Run(runCtx) }()

	n := notify.New(notify.KindAchievement, "Achievement unlocked", "First meal", time.Now())
	b.Publish(n)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, notify.KindAchievement, got.Type)
	assert.Equal(t, b.petID.String(), got.PetID)
	assert.Equal(t, n.ID, got.Data.ID)
	assert.Equal(t, "First meal", got.Data.Message)

	stop()
	require.NoError(t, <-done)

	history, err := b.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, n.ID, history[0].Data.ID)
}

func TestBroadcaster_FlushesOnStop(t *testing.T) {
	b, _ := setup(t, 8)
	for i := range 3 {
		b.Publish(notify.New(notify.KindEvent, "Event", string(rune('a'+i)), time.Now()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Run(ctx))

	history, err := b.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "a", history[0].Data.Message)
	assert.Equal(t, "c", history[2].Data.Message)
}

func TestBroadcaster_DropsWhenFull(t *testing.T) {
	b, _ := setup(t, 2)
	for range 5 {
		b.Publish(notify.New(notify.KindWarning, "Hunger is low", "", time.Now()))
	}
	assert.Equal(t, int64(3), b.Dropped())
}

func TestBroadcaster_HistoryIsCapped(t *testing.T) {
	b, _ := setup(t, HistoryLimit+10)
	for range HistoryLimit + 5 {
		b.Publish(notify.New(notify.KindSystem, "Saved", "", time.Now()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Run(ctx))

	history, err := b.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, history, HistoryLimit)

	last, err := b.History(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, last, 2)
}
