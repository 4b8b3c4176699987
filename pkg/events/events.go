// Package events fires conditional random events and unlocks achievements
// against the live stat snapshot.
package events

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/conditionals"
	"github.com/jwebster45206/pet-engine/pkg/notify"
	"github.com/jwebster45206/pet-engine/pkg/stats"
	"github.com/jwebster45206/pet-engine/pkg/timeutil"
)

// DefaultInterval is the minimum time between two fired events.
const DefaultInterval = 60 * time.Second

// PetView is what events read and mutate on the stat engine.
type PetView interface {
	Snapshot(now time.Time) stats.Snapshot
	ModifyVital(v stats.Vital, delta float64)
}

// Items receives event and achievement rewards.
type Items interface {
	Add(id string, qty int) error
}

// Rand is the random source for event rolls.
type Rand interface {
	Float64() float64
}

// Fired describes an event that went off.
type Fired struct {
	EventID     string          `json:"event_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Deltas      []catalog.Delta `json:"deltas,omitempty"`
	Item        string          `json:"item,omitempty"`
	Quantity    int             `json:"quantity,omitempty"`
	Time        time.Time       `json:"time"`
}

// Progress summarizes achievement completion.
type Progress struct {
	Total      int     `json:"total"`
	Unlocked   int     `json:"unlocked"`
	Percentage float64 `json:"percentage"`
}

// Record is the persisted form of the engine state.
type Record struct {
	UnlockedAchievements []string           `json:"unlocked_achievements"`
	LastEventTime        timeutil.Timestamp `json:"last_event_time"`
}

// Engine evaluates the event and achievement catalogs. It is not safe for
// concurrent use.
type Engine struct {
	events       catalog.Table[catalog.EventDefinition]
	achievements catalog.Table[catalog.AchievementDefinition]
	interval     time.Duration

	pet    PetView
	items  Items
	rng    Rand
	sink   notify.Sink
	logger *slog.Logger

	lastEventTime time.Time
	unlocked      map[string]struct{}
}

// NewEngine builds an engine over cat's event and achievement tables.
// A non-positive interval uses DefaultInterval.
func NewEngine(cat *catalog.Catalog, interval time.Duration, pet PetView, items Items, rng Rand, sink notify.Sink, logger *slog.Logger) *Engine {
	if cat == nil {
		cat = catalog.Empty()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if sink == nil {
		sink = notify.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		events:       cat.Events,
		achievements: cat.Achievements,
		interval:     interval,
		pet:          pet,
		items:        items,
		rng:          rng,
		sink:         sink,
		logger:       logger,
		unlocked:     make(map[string]struct{}),
	}
}

// LastEventTime is zero until the first event fires.
func (e *Engine) LastEventTime() time.Time {
	return e.lastEventTime
}

// TryTrigger fires at most one event, and nothing within the interval of the
// previous one. Every event whose condition holds is eligible; eligible
// events are then rolled one at a time in catalog order against their own
// probability and the first success fires. This is a run of independent
// trials, not a weighted pick, so events declared earlier win more often
// than their probability alone suggests.
func (e *Engine) TryTrigger(now time.Time) (Fired, bool) {
	if !e.lastEventTime.IsZero() && now.Sub(e.lastEventTime) < e.interval {
		return Fired{}, false
	}

	snap := e.pet.Snapshot(now)
	var eligible []catalog.EventDefinition
	for _, def := range e.events.Values() {
		// Stats the snapshot does not know are ignored here, unlike achievements.
		if conditionals.Evaluate(def.Condition, snap, conditionals.SkipMissing) {
			eligible = append(eligible, def)
		}
	}

	for _, def := range eligible {
		if e.rng.Float64() < def.Chance() {
			fired := e.fire(def, now)
			return fired, true
		}
	}
	return Fired{}, false
}

func (e *Engine) fire(def catalog.EventDefinition, now time.Time) Fired {
	fired := Fired{
		EventID:     def.ID,
		Name:        def.Name,
		Description: def.Description,
		Deltas:      def.Effect.Deltas(),
		Time:        now,
	}

	for _, d := range fired.Deltas {
		e.pet.ModifyVital(d.Stat, d.Amount)
	}
	if def.Effect.AddItem != "" {
		qty := def.Effect.ItemQuantity()
		if err := e.items.Add(def.Effect.AddItem, qty); err != nil {
			e.logger.Warn("Event item grant failed", "event_id", def.ID, "item_id", def.Effect.AddItem, "error", err)
		} else {
			fired.Item, fired.Quantity = def.Effect.AddItem, qty
		}
	}
	e.lastEventTime = now

	n := notify.New(notify.KindEvent, def.Name, def.Description, now)
	n.Data = map[string]any{"event_id": def.ID}
	if fired.Item != "" {
		n.Data["item"] = fired.Item
		n.Data["quantity"] = fired.Quantity
	}
	e.sink.Publish(n)

	e.logger.Info("Event fired", "event_id", def.ID, "item", fired.Item)
	return fired
}

// CheckAchievements unlocks every achievement whose requirement now holds and
// returns the newly unlocked ones in catalog order. An id unlocks at most once.
func (e *Engine) CheckAchievements(now time.Time) []catalog.AchievementDefinition {
	var snap *stats.Snapshot
	var unlocked []catalog.AchievementDefinition

	for _, def := range e.achievements.Values() {
		if _, done := e.unlocked[def.ID]; done {
			continue
		}
		if snap == nil {
			s := e.pet.Snapshot(now)
			snap = &s
		}
		if !conditionals.Evaluate(def.Requirement.Condition, snap, conditionals.FailMissing) {
			continue
		}
		e.unlock(def, now)
		unlocked = append(unlocked, def)
	}
	return unlocked
}

func (e *Engine) unlock(def catalog.AchievementDefinition, now time.Time) {
	e.unlocked[def.ID] = struct{}{}

	n := notify.New(notify.KindAchievement, def.Name, def.Description, now)
	n.Data = map[string]any{"achievement_id": def.ID}

	if def.Reward != nil && def.Reward.Item != "" {
		qty := def.Reward.ItemQuantity()
		if err := e.items.Add(def.Reward.Item, qty); err != nil {
			e.logger.Warn("Achievement reward failed", "achievement_id", def.ID, "item_id", def.Reward.Item, "error", err)
		} else {
			n.Data["item"] = def.Reward.Item
			n.Data["quantity"] = qty
		}
	}
	e.sink.Publish(n)

	e.logger.Info("Achievement unlocked", "achievement_id", def.ID)
}

// IsUnlocked reports whether id has been unlocked.
func (e *Engine) IsUnlocked(id string) bool {
	_, ok := e.unlocked[id]
	return ok
}

// Unlocked lists the unlocked achievements in catalog order. Ids with no
// catalog entry are kept in state but not listed.
func (e *Engine) Unlocked() []catalog.AchievementDefinition {
	out := []catalog.AchievementDefinition{}
	for _, def := range e.achievements.Values() {
		if _, ok := e.unlocked[def.ID]; ok {
			out = append(out, def)
		}
	}
	return out
}

// Progress counts unlocked ids that are still in the catalog.
func (e *Engine) Progress() Progress {
	p := Progress{Total: e.achievements.Len()}
	for id := range e.unlocked {
		if e.achievements.Has(id) {
			p.Unlocked++
		}
	}
	if p.Total > 0 {
		p.Percentage = math.Round(float64(p.Unlocked)/float64(p.Total)*10000) / 100
	}
	return p
}

// Record returns the persisted form with ids sorted.
func (e *Engine) Record() Record {
	ids := make([]string, 0, len(e.unlocked))
	for id := range e.unlocked {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return Record{
		UnlockedAchievements: ids,
		LastEventTime:        timeutil.At(e.lastEventTime),
	}
}

// Restore replaces the unlocked set and last event time from rec.
func (e *Engine) Restore(rec Record) {
	e.unlocked = make(map[string]struct{}, len(rec.UnlockedAchievements))
	for _, id := range rec.UnlockedAchievements {
		if id == "" {
			continue
		}
		e.unlocked[id] = struct{}{}
	}
	e.lastEventTime = rec.LastEventTime.Time
}

// Reset clears the unlocked set and the event timer.
func (e *Engine) Reset() {
	e.unlocked = make(map[string]struct{})
	e.lastEventTime = time.Time{}
}
