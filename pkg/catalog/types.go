package catalog

import (
	"github.com/jwebster45206/pet-engine/pkg/conditionals"
	"github.com/jwebster45206/pet-engine/pkg/stats"
)

// TypeToy marks items that Play can consume.
const TypeToy = "toy"

// DefaultEventProbability applies when an event omits probability.
const DefaultEventProbability = 0.1

// Effects holds optional per-vital deltas. A nil field means "not specified",
// which callers distinguish from an explicit zero.
type Effects struct {
	Hunger    *float64 `json:"hunger,omitempty" yaml:"hunger,omitempty"`
	Happiness *float64 `json:"happiness,omitempty" yaml:"happiness,omitempty"`
	Health    *float64 `json:"health,omitempty" yaml:"health,omitempty"`
	Energy    *float64 `json:"energy,omitempty" yaml:"energy,omitempty"`
}

// Get returns the delta for v and whether it was specified.
func (e Effects) Get(v stats.Vital) (float64, bool) {
	var p *float64
	switch v {
	case stats.Hunger:
		p = e.Hunger
	case stats.Happiness:
		p = e.Happiness
	case stats.Health:
		p = e.Health
	case stats.Energy:
		p = e.Energy
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// GetOr returns the delta for v, or def when unspecified.
func (e Effects) GetOr(v stats.Vital, def float64) float64 {
	if d, ok := e.Get(v); ok {
		return d
	}
	return def
}

// Delta is one stat change.
type Delta struct {
	Stat   stats.Vital `json:"stat"`
	Amount float64     `json:"amount"`
}

// Deltas lists the specified deltas in canonical vital order.
func (e Effects) Deltas() []Delta {
	var out []Delta
	for _, v := range stats.Vitals {
		if d, ok := e.Get(v); ok {
			out = append(out, Delta{Stat: v, Amount: d})
		}
	}
	return out
}

// ItemInfo describes a food or an item.
type ItemInfo struct {
	ID          string `json:"id" yaml:"-"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Effects     `yaml:",inline"`
}

// IsToy reports whether the item can be played with.
func (i ItemInfo) IsToy() bool {
	return i.Type == TypeToy
}

// EventEffect is what a fired event does.
type EventEffect struct {
	Effects  `yaml:",inline"`
	AddItem  string `json:"add_item,omitempty" yaml:"add_item,omitempty"`
	Quantity int    `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// ItemQuantity returns the granted quantity, defaulting to 1.
func (e EventEffect) ItemQuantity() int {
	if e.Quantity < 1 {
		return 1
	}
	return e.Quantity
}

// EventDefinition is a random event.
type EventDefinition struct {
	ID          string                 `json:"id" yaml:"-"`
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Condition   conditionals.Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Probability *float64               `json:"probability,omitempty" yaml:"probability,omitempty"`
	Effect      EventEffect            `json:"effect,omitempty" yaml:"effect,omitempty"`
}

// Chance is the per-roll firing probability.
func (d EventDefinition) Chance() float64 {
	if d.Probability == nil {
		return DefaultEventProbability
	}
	return *d.Probability
}

// Reward is granted when an achievement unlocks.
type Reward struct {
	Item     string `json:"item" yaml:"item"`
	Quantity int    `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// ItemQuantity returns the granted quantity, defaulting to 1.
func (r Reward) ItemQuantity() int {
	if r.Quantity < 1 {
		return 1
	}
	return r.Quantity
}

// AchievementDefinition is a one-time unlock.
type AchievementDefinition struct {
	ID          string                   `json:"id" yaml:"-"`
	Name        string                   `json:"name" yaml:"name"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Requirement conditionals.Requirement `json:"requirement,omitempty" yaml:"requirement,omitempty"`
	Reward      *Reward                  `json:"reward,omitempty" yaml:"reward,omitempty"`
}
