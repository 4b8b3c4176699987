package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification so the presentation layer can decorate it.
type Kind string

const (
	KindWarning     Kind = "warning"
	KindEvent       Kind = "event"
	KindAchievement Kind = "achievement"
	KindLevelUp     Kind = "level_up"
	KindSystem      Kind = "system"
)

// Notification is a (title, message) pair emitted by the core.
type Notification struct {
	ID      uuid.UUID      `json:"id"`
	Kind    Kind           `json:"kind"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Time    time.Time      `json:"time"`
	Data    map[string]any `json:"data,omitempty"`
}

// New builds a notification stamped with a fresh ID.
func New(kind Kind, title, message string, at time.Time) Notification {
	return Notification{
		ID:      uuid.New(),
		Kind:    kind,
		Title:   title,
		Message: message,
		Time:    at,
	}
}

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Publish(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(n Notification)

func (f SinkFunc) Publish(n Notification) { f(n) }

// Discard drops everything.
var Discard Sink = SinkFunc(func(Notification) {})

// DefaultQueueLimit bounds how many undrained notifications are kept.
const DefaultQueueLimit = 256

// Queue is an ordered outbound notification buffer drained by the presentation
// layer. Every published notification is also forwarded to subscribed sinks.
type Queue struct {
	mu      sync.Mutex
	items   []Notification
	limit   int
	dropped int
	sinks   []Sink
}

// Ensure Queue implements Sink
var _ Sink = (*Queue)(nil)

// NewQueue creates a queue keeping at most limit undrained notifications.
// When full, the oldest entry is dropped.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Queue{limit: limit}
}

// Subscribe adds a sink that sees every notification published after the call.
func (q *Queue) Subscribe(s Sink) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sinks = append(q.sinks, s)
}

// Publish appends n, filling in ID and Time when unset.
func (q *Queue) Publish(n Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	q.mu.Lock()
	q.items = append(q.items, n)
	if len(q.items) > q.limit {
		over := len(q.items) - q.limit
		q.items = append([]Notification(nil), q.items[over:]...)
		q.dropped += over
	}
	sinks := append([]Sink(nil), q.sinks...)
	q.mu.Unlock()

	for _, s := range sinks {
		s.Publish(n)
	}
}

// Drain returns all pending notifications in emission order and empties the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Pending returns a copy of the pending notifications without draining.
func (q *Queue) Pending() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification{}, q.items...)
}

// Len returns the number of pending notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many notifications were evicted because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
