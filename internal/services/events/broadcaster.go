package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/pet-engine/pkg/notify"
)

// DefaultBuffer is how many notifications may wait for Redis before new ones
// are dropped.
const DefaultBuffer = 128

// HistoryLimit caps the per-pet notification history list.
const HistoryLimit = 100

// Event is the JSON payload published for each notification.
type Event struct {
	Type  notify.Kind         `json:"type"`
	PetID string              `json:"pet_id"`
	Data  notify.Notification `json:"data"`
}

// Broadcaster relays notifications to Redis Pub/Sub and keeps a short
// history list per pet. Publish never blocks; Run does the network work.
type Broadcaster struct {
	redisClient *redis.Client
	petID       uuid.UUID
	logger      *slog.Logger
	pending     chan notify.Notification
	dropped     atomic.Int64
}

// Ensure Broadcaster can be subscribed to a notification queue
var _ notify.Sink = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster for one pet
func NewBroadcaster(redisClient *redis.Client, petID uuid.UUID, buffer int, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		redisClient: redisClient,
		petID:       petID,
		logger:      logger,
		pending:     make(chan notify.Notification, buffer),
	}
}

// Channel is the Pub/Sub channel for a pet.
func Channel(petID uuid.UUID) string {
	return fmt.Sprintf("pet-events:%s", petID.String())
}

func historyKey(petID uuid.UUID) string {
	return fmt.Sprintf("pet-history:%s", petID.String())
}

// Publish queues n for relay. When the buffer is full the notification is
// dropped and counted.
func (b *Broadcaster) Publish(n notify.Notification) {
	select {
	case b.pending <- n:
	default:
		b.dropped.Add(1)
		b.logger.Warn("Notification relay buffer full, dropping", "notification_id", n.ID, "kind", n.Kind)
	}
}

// Dropped is the number of notifications lost to a full buffer.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Run relays queued notifications until ctx is done. Whatever is still
// buffered at that point is flushed with a fresh context.
func (b *Broadcaster) Run(ctx context.Context) error {
	b.logger.Info("Notification relay started", "channel", Channel(b.petID))
	for {
		select {
		case n := <-b.pending:
			if err := b.publish(ctx, n); err != nil {
				b.logger.Error("Failed to relay notification", "error", err, "notification_id", n.ID)
			}
		case <-ctx.Done():
			b.flush()
			b.logger.Info("Notification relay stopped")
			return nil
		}
	}
}

func (b *Broadcaster) flush() {
	ctx := context.Background()
	for {
		select {
		case n := <-b.pending:
			if err := b.publish(ctx, n); err != nil {
				b.logger.Error("Failed to relay notification", "error", err, "notification_id", n.ID)
			}
		default:
			return
		}
	}
}

// publish sends one notification to the pet channel and appends it to the
// history list.
func (b *Broadcaster) publish(ctx context.Context, n notify.Notification) error {
	event := Event{Type: n.Kind, PetID: b.petID.String(), Data: n}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := Channel(b.petID)
	pipe := b.redisClient.TxPipeline()
	pipe.Publish(ctx, channel, data)
	pipe.RPush(ctx, historyKey(b.petID), data)
	pipe.LTrim(ctx, historyKey(b.petID), -HistoryLimit, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"notification_id", n.ID,
	)
	return nil
}

// History returns up to limit of the most recent relayed events, oldest
// first. limit <= 0 returns the whole list.
func (b *Broadcaster) History(ctx context.Context, limit int) ([]Event, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := b.redisClient.LRange(ctx, historyKey(b.petID), start, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read event history: %w", err)
	}

	out := make([]Event, 0, len(raw))
	for _, item := range raw {
		var e Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			b.logger.Warn("Skipping unreadable history entry", "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
