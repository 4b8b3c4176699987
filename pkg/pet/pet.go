// Package pet ties the simulation components together behind one lock.
// Every tick, interaction, snapshot and save/load goes through Pet, so no
// two operations ever observe each other half done.
package pet

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/pet-engine/pkg/behavior"
	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/events"
	"github.com/jwebster45206/pet-engine/pkg/interaction"
	"github.com/jwebster45206/pet-engine/pkg/inventory"
	"github.com/jwebster45206/pet-engine/pkg/notify"
	"github.com/jwebster45206/pet-engine/pkg/savegame"
	"github.com/jwebster45206/pet-engine/pkg/stats"
)

// Config gathers the immutable tuning of every component.
type Config struct {
	Stats         stats.Config
	Behavior      behavior.Config
	Interaction   interaction.Config
	EventInterval time.Duration
	Starter       []inventory.Stock
	QueueLimit    int

	// Seed fixes the random source. Zero picks a random seed.
	Seed uint64
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Stats:         stats.DefaultConfig(),
		Behavior:      behavior.DefaultConfig(),
		Interaction:   interaction.DefaultConfig(),
		EventInterval: events.DefaultInterval,
		Starter:       inventory.DefaultStarter(),
		QueueLimit:    notify.DefaultQueueLimit,
	}
}

// Pet is a complete simulated pet. It is safe for concurrent use.
type Pet struct {
	mu sync.Mutex

	id      uuid.UUID
	cfg     Config
	clock   func() time.Time
	catalog *catalog.Catalog
	logger  *slog.Logger

	queue    *notify.Queue
	stats    *stats.Engine
	behavior *behavior.Selector
	inv      *inventory.Store
	gate     *interaction.Gate
	events   *events.Engine
}

// New creates a newborn pet holding the starter inventory.
func New(id uuid.UUID, cat *catalog.Catalog, cfg Config, logger *slog.Logger) *Pet {
	if cat == nil {
		cat = catalog.Empty()
	}
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	now := clock()

	queue := notify.NewQueue(cfg.QueueLimit)
	st := stats.NewEngine(cfg.Stats, now, queue, logger.With("component", "stats"))
	inv := inventory.NewStore(cat, rng, logger.With("component", "inventory"))
	inv.Seed(cfg.Starter)

	p := &Pet{
		id:       id,
		cfg:      cfg,
		clock:    clock,
		catalog:  cat,
		logger:   logger,
		queue:    queue,
		stats:    st,
		behavior: behavior.NewSelector(cfg.Behavior, rng, logger.With("component", "behavior")),
		inv:      inv,
		gate:     interaction.NewGate(cfg.Interaction, st, inv, logger.With("component", "interaction")),
		events:   events.NewEngine(cat, cfg.EventInterval, st, inv, rng, queue, logger.With("component", "events")),
	}
	logger.Info("Pet created", "pet_id", id, "seed", seed)
	return p
}

// ID identifies the pet and its save slot.
func (p *Pet) ID() uuid.UUID {
	return p.id
}

// Catalog is the reference data the pet was built with.
func (p *Pet) Catalog() *catalog.Catalog {
	return p.catalog
}

// Notifications is the outbound queue. It has its own lock.
func (p *Pet) Notifications() *notify.Queue {
	return p.queue
}

// TickStats applies decay for the time since the last stats tick.
func (p *Pet) TickStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Tick(p.clock())
}

// TickBehavior picks the next behavior.
func (p *Pet) TickBehavior() behavior.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.behavior.Choose()
}

// TickEvents tries to fire a random event and then checks achievements.
func (p *Pet) TickEvents() (fired *events.Fired, unlocked []catalog.AchievementDefinition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.clock()
	if f, ok := p.events.TryTrigger(now); ok {
		fired = &f
	}
	return fired, p.events.CheckAchievements(now)
}

// ForceFlip reports a screen boundary collision.
func (p *Pet) ForceFlip(edge behavior.Edge) behavior.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.behavior.ForceFlip(edge)
	return p.behavior.State()
}

// Interact performs a player action. foodID is only read by Feed and may be
// empty to pick a random food.
func (p *Pet) Interact(action interaction.Action, foodID string) (interaction.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate.Perform(action, foodID, p.clock())
}

// Status is everything the presentation layer needs for one frame of UI.
type Status struct {
	ID             uuid.UUID          `json:"id"`
	Stats          stats.Snapshot     `json:"stats"`
	Behavior       behavior.State     `json:"behavior"`
	WalkDurationMS int64              `json:"walk_duration_ms,omitempty"`
	AnimationToken string             `json:"animation_token"`
	Cooldowns      map[string]float64 `json:"cooldowns"`
	Time           time.Time          `json:"time"`
}

// Status snapshots the pet. Cooldowns are remaining seconds per action.
func (p *Pet) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.clock()

	cooldowns := make(map[string]float64, len(interaction.Actions))
	for action, left := range p.gate.Cooldowns(now) {
		cooldowns[string(action)] = left.Seconds()
	}
	st := p.behavior.State()
	return Status{
		ID:             p.id,
		Stats:          p.stats.Snapshot(now),
		Behavior:       st,
		WalkDurationMS: st.DurationMS(),
		AnimationToken: st.Token(),
		Cooldowns:      cooldowns,
		Time:           now,
	}
}

// Inventory returns a copy of the item counts.
func (p *Pet) Inventory() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inv.Snapshot()
}

// AchievementReport is progress plus the unlocked definitions.
type AchievementReport struct {
	Progress events.Progress                 `json:"progress"`
	Unlocked []catalog.AchievementDefinition `json:"unlocked"`
}

func (p *Pet) Achievements() AchievementReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return AchievementReport{
		Progress: p.events.Progress(),
		Unlocked: p.events.Unlocked(),
	}
}

// Capture takes a save document under the lock. Writing it is up to the caller.
func (p *Pet) Capture() savegame.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return savegame.Capture(p.id.String(), p.stats, p.inv, p.events, p.clock())
}

// Restore replaces the pet state with doc. Cooldowns are not part of the
// document and are left as they are.
func (p *Pet) Restore(doc savegame.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	savegame.Apply(doc, p.stats, p.inv, p.events, p.cfg.Starter, p.clock())
	p.logger.Info("Pet restored", "pet_id", p.id, "version", doc.Version, "save_time", doc.SaveTime.Time)
}

// Reset replaces the pet with a newborn one holding the starter inventory.
func (p *Pet) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Reset(p.clock())
	p.inv.Reset()
	p.inv.Seed(p.cfg.Starter)
	p.events.Reset()
	p.gate.Reset()
	p.logger.Info("Pet reset", "pet_id", p.id)
}
