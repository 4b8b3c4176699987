// Package interaction applies player actions to the pet behind per-action cooldowns.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/inventory"
	"github.com/jwebster45206/pet-engine/pkg/stats"
)

// Action is a player interaction.
type Action string

const (
	Feed  Action = "feed"
	Play  Action = "play"
	Pet   Action = "pet"
	Clean Action = "clean"
	Rest  Action = "rest"
)

// Actions lists every action in display order.
var Actions = []Action{Feed, Play, Pet, Clean, Rest}

var (
	ErrCooldownActive = errors.New("cooldown active")
	ErrNoItem         = errors.New("no suitable item")
	ErrUnknownAction  = errors.New("unknown action")
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// CooldownError reports how long until an action may be used again.
// It matches ErrCooldownActive with errors.Is.
type CooldownError struct {
	Action    Action
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for another %s", e.Action, e.Remaining.Round(100*time.Millisecond))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// Config holds cooldowns and experience rewards per action.
type Config struct {
	Cooldowns  map[Action]time.Duration
	Experience map[Action]float64
}

// DefaultConfig returns the stock cooldowns and rewards.
func DefaultConfig() Config {
	return Config{
		Cooldowns: map[Action]time.Duration{
			Feed:  5 * time.Second,
			Play:  10 * time.Second,
			Pet:   3 * time.Second,
			Clean: 15 * time.Second,
			Rest:  8 * time.Second,
		},
		Experience: map[Action]float64{
			Feed:  5,
			Play:  8,
			Pet:   2,
			Clean: 5,
			Rest:  3,
		},
	}
}

// Play falls back to these when the toy leaves them unset or no toy is held.
const (
	toyHappiness    = 20.0
	toyEnergyCost   = 10.0
	noToyHappiness  = 10.0
	noToyEnergyCost = 10.0
)

var counters = map[Action]stats.Counter{
	Feed:  stats.FeedCount,
	Play:  stats.PlayCount,
	Pet:   stats.PetCount,
	Clean: stats.CleanCount,
}

// StatsMutator is the part of the stat engine interactions touch.
type StatsMutator interface {
	ModifyVital(v stats.Vital, delta float64)
	Increment(c stats.Counter)
	AddExperience(amount float64)
}

// Items is the part of the inventory interactions touch.
type Items interface {
	Use(id string) error
	Info(id string) (catalog.ItemInfo, bool)
	Food(id string) (catalog.ItemInfo, bool)
	RandomFood() (string, bool)
	RandomToy() (string, bool)
}

// Result describes a successful interaction.
type Result struct {
	Action     Action          `json:"action"`
	Item       string          `json:"item,omitempty"`
	Deltas     []catalog.Delta `json:"deltas"`
	Experience float64         `json:"experience"`
}

// Gate owns the cooldown table. It is not safe for concurrent use.
type Gate struct {
	cfg      Config
	stats    StatsMutator
	items    Items
	lastUsed map[Action]time.Time
	logger   *slog.Logger
}

// NewGate creates a gate with every action available.
func NewGate(cfg Config, st StatsMutator, items Items, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		cfg:      cfg,
		stats:    st,
		items:    items,
		lastUsed: make(map[Action]time.Time),
		logger:   logger,
	}
}

// Can reports whether action is off cooldown at now.
func (g *Gate) Can(action Action, now time.Time) bool {
	return g.Remaining(action, now) == 0
}

// Remaining is how long until action is available. Zero when it is.
func (g *Gate) Remaining(action Action, now time.Time) time.Duration {
	last, used := g.lastUsed[action]
	if !used {
		return 0
	}
	left := g.cfg.Cooldowns[action] - now.Sub(last)
	if left < 0 {
		return 0
	}
	return left
}

// Cooldowns returns the remaining wait for every action.
func (g *Gate) Cooldowns(now time.Time) map[Action]time.Duration {
	out := make(map[Action]time.Duration, len(Actions))
	for _, a := range Actions {
		out[a] = g.Remaining(a, now)
	}
	return out
}

// Reset forgets every cooldown.
func (g *Gate) Reset() {
	g.lastUsed = make(map[Action]time.Time)
}

// Perform dispatches action. foodID is only used by Feed.
func (g *Gate) Perform(action Action, foodID string, now time.Time) (Result, error) {
	switch action {
	case Feed:
		return g.Feed(foodID, now)
	case Play:
		return g.Play(now)
	case Pet:
		return g.Pet(now)
	case Clean:
		return g.Clean(now)
	case Rest:
		return g.Rest(now)
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

// Feed consumes one foodID and applies its hunger, happiness and health
// deltas. An empty foodID picks a random held food.
func (g *Gate) Feed(foodID string, now time.Time) (Result, error) {
	if err := g.check(Feed, now); err != nil {
		return Result{}, err
	}

	if foodID == "" {
		id, ok := g.items.RandomFood()
		if !ok {
			return Result{}, fmt.Errorf("%w: no food in inventory", ErrNoItem)
		}
		foodID = id
	}

	food, ok := g.items.Food(foodID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s is not a food", inventory.ErrUnknownItem, foodID)
	}
	if err := g.items.Use(foodID); err != nil {
		return Result{}, fmt.Errorf("failed to use %s: %w", foodID, err)
	}

	res := Result{Action: Feed, Item: foodID}
	for _, v := range []stats.Vital{stats.Hunger, stats.Happiness, stats.Health} {
		res.Deltas = append(res.Deltas, catalog.Delta{Stat: v, Amount: food.GetOr(v, 0)})
	}
	return g.finish(res, now), nil
}

// Play consumes a random held toy. Without one the pet still plays, at a
// flat rate and without consuming anything. Play always costs energy.
func (g *Gate) Play(now time.Time) (Result, error) {
	if err := g.check(Play, now); err != nil {
		return Result{}, err
	}

	res := Result{Action: Play}
	if toy, ok := g.items.RandomToy(); ok && g.items.Use(toy) == nil {
		info, _ := g.items.Info(toy)
		res.Item = toy
		res.Deltas = []catalog.Delta{
			{Stat: stats.Happiness, Amount: info.GetOr(stats.Happiness, toyHappiness)},
			{Stat: stats.Energy, Amount: -math.Abs(info.GetOr(stats.Energy, -toyEnergyCost))},
		}
	} else {
		res.Deltas = []catalog.Delta{
			{Stat: stats.Happiness, Amount: noToyHappiness},
			{Stat: stats.Energy, Amount: -noToyEnergyCost},
		}
	}
	return g.finish(res, now), nil
}

func (g *Gate) Pet(now time.Time) (Result, error) {
	return g.flat(Pet, now, catalog.Delta{Stat: stats.Happiness, Amount: 10})
}

func (g *Gate) Clean(now time.Time) (Result, error) {
	return g.flat(Clean, now,
		catalog.Delta{Stat: stats.Health, Amount: 20},
		catalog.Delta{Stat: stats.Happiness, Amount: 5})
}

func (g *Gate) Rest(now time.Time) (Result, error) {
	return g.flat(Rest, now,
		catalog.Delta{Stat: stats.Energy, Amount: 30},
		catalog.Delta{Stat: stats.Happiness, Amount: 5})
}

func (g *Gate) flat(action Action, now time.Time, deltas ...catalog.Delta) (Result, error) {
	if err := g.check(action, now); err != nil {
		return Result{}, err
	}
	return g.finish(Result{Action: action, Deltas: deltas}, now), nil
}

func (g *Gate) check(action Action, now time.Time) error {
	if left := g.Remaining(action, now); left > 0 {
		g.logger.Debug("Interaction on cooldown", "action", action, "remaining", left)
		return &CooldownError{Action: action, Remaining: left}
	}
	return nil
}

// finish applies the deltas and records the use.
func (g *Gate) finish(res Result, now time.Time) Result {
	for _, d := range res.Deltas {
		g.stats.ModifyVital(d.Stat, d.Amount)
	}
	g.lastUsed[res.Action] = now
	if c, ok := counters[res.Action]; ok {
		g.stats.Increment(c)
	}
	res.Experience = g.cfg.Experience[res.Action]
	g.stats.AddExperience(res.Experience)

	g.logger.Info("Interaction performed", "action", res.Action, "item", res.Item)
	return res
}
