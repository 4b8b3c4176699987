package stats

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/pet-engine/pkg/notify"
)

// Vital is one of the four bounded stats.
type Vital string

const (
	Hunger    Vital = "hunger"
	Happiness Vital = "happiness"
	Health    Vital = "health"
	Energy    Vital = "energy"
)

// Vitals lists every vital in canonical order.
var Vitals = []Vital{Hunger, Happiness, Health, Energy}

// ParseVital maps a stat name to a Vital.
func ParseVital(name string) (Vital, bool) {
	switch Vital(name) {
	case Hunger, Happiness, Health, Energy:
		return Vital(name), true
	}
	return "", false
}

// Counter is a monotonically increasing interaction tally.
type Counter string

const (
	FeedCount  Counter = "feed_count"
	PlayCount  Counter = "play_count"
	PetCount   Counter = "pet_count"
	CleanCount Counter = "clean_count"
)

const (
	MinVital = 0.0
	MaxVital = 100.0
)

// Config holds the decay rates and thresholds. Rates are per second.
type Config struct {
	HungerDecay    float64
	HappinessDecay float64
	HealthDecay    float64
	EnergyDecay    float64

	// Below EnergyRecoveryBelow, energy recovers instead of decaying.
	EnergyRecoveryBelow float64
	EnergyRecoveryRate  float64

	// Below CouplingThreshold, hunger drains health and health drains happiness.
	CouplingThreshold float64
	CouplingRate      float64

	WarningThreshold float64

	BaseExpToNextLevel int
	LevelGrowth        float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		HungerDecay:         0.05,
		HappinessDecay:      0.03,
		HealthDecay:         0.02,
		EnergyDecay:         0.04,
		EnergyRecoveryBelow: 30,
		EnergyRecoveryRate:  0.05,
		CouplingThreshold:   20,
		CouplingRate:        0.1,
		WarningThreshold:    20,
		BaseExpToNextLevel:  100,
		LevelGrowth:         1.5,
	}
}

// Stats is the full mutable state owned by Engine.
type Stats struct {
	Hunger    float64
	Happiness float64
	Health    float64
	Energy    float64

	Level          int
	Experience     float64
	ExpToNextLevel int

	BirthTime time.Time

	FeedCount  int
	PlayCount  int
	PetCount   int
	CleanCount int
}

// Fresh returns the stats of a newly born pet.
func Fresh(cfg Config, now time.Time) Stats {
	return Stats{
		Hunger:         MaxVital,
		Happiness:      MaxVital,
		Health:         MaxVital,
		Energy:         MaxVital,
		Level:          1,
		ExpToNextLevel: cfg.BaseExpToNextLevel,
		BirthTime:      now,
	}
}

// Engine owns PetStats. It is not safe for concurrent use; callers serialize access.
type Engine struct {
	cfg        Config
	s          Stats
	lastUpdate time.Time
	sink       notify.Sink
	logger     *slog.Logger
	title      cases.Caser
}

// NewEngine creates an engine holding fresh stats born at now.
func NewEngine(cfg Config, now time.Time, sink notify.Sink, logger *slog.Logger) *Engine {
	if sink == nil {
		sink = notify.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseExpToNextLevel < 1 {
		cfg.BaseExpToNextLevel = DefaultConfig().BaseExpToNextLevel
	}
	return &Engine{
		cfg:        cfg,
		s:          Fresh(cfg, now),
		lastUpdate: now,
		sink:       sink,
		logger:     logger,
		title:      cases.Title(language.English),
	}
}

// Stats returns a copy of the raw state.
func (e *Engine) Stats() Stats {
	return e.s
}

// LastUpdate is the time of the most recent Tick or Restore.
func (e *Engine) LastUpdate() time.Time {
	return e.lastUpdate
}

// Tick applies decay for the time since the previous tick.
func (e *Engine) Tick(now time.Time) {
	elapsed := now.Sub(e.lastUpdate)
	if elapsed < 0 {
		elapsed = 0
	}
	e.lastUpdate = now
	e.Update(elapsed)
}

// Update decays the vitals over elapsed, applies cross-coupling and emits a
// warning for every vital under the warning threshold.
func (e *Engine) Update(elapsed time.Duration) {
	dt := elapsed.Seconds()
	if dt < 0 {
		dt = 0
	}

	e.s.Hunger = math.Max(MinVital, e.s.Hunger-e.cfg.HungerDecay*dt)
	e.s.Happiness = math.Max(MinVital, e.s.Happiness-e.cfg.HappinessDecay*dt)
	e.s.Health = math.Max(MinVital, e.s.Health-e.cfg.HealthDecay*dt)

	if e.s.Energy < e.cfg.EnergyRecoveryBelow {
		e.s.Energy = math.Min(MaxVital, e.s.Energy+e.cfg.EnergyRecoveryRate*dt)
	} else {
		e.s.Energy = math.Max(MinVital, e.s.Energy-e.cfg.EnergyDecay*dt)
	}

	if e.s.Hunger < e.cfg.CouplingThreshold {
		e.s.Health = math.Max(MinVital, e.s.Health-e.cfg.CouplingRate*dt)
	}
	if e.s.Health < e.cfg.CouplingThreshold {
		e.s.Happiness = math.Max(MinVital, e.s.Happiness-e.cfg.CouplingRate*dt)
	}

	e.checkWarnings()
}

func (e *Engine) checkWarnings() {
	for _, v := range Vitals {
		value := e.Vital(v)
		if value >= e.cfg.WarningThreshold {
			continue
		}
		n := notify.New(notify.KindWarning,
			fmt.Sprintf("%s is low", e.title.String(string(v))),
			fmt.Sprintf("%s is at %d", e.title.String(string(v)), int(value)),
			e.lastUpdate)
		n.Data = map[string]any{"stat": string(v), "value": int(value)}
		e.sink.Publish(n)
	}
}

// Vital returns the current value of v.
func (e *Engine) Vital(v Vital) float64 {
	switch v {
	case Hunger:
		return e.s.Hunger
	case Happiness:
		return e.s.Happiness
	case Health:
		return e.s.Health
	case Energy:
		return e.s.Energy
	}
	return 0
}

// Modify adds delta to the named vital, clamping into [0,100].
// Unknown names are a no-op and report false.
func (e *Engine) Modify(stat string, delta float64) bool {
	v, ok := ParseVital(stat)
	if !ok {
		e.logger.Debug("Ignoring modify on unknown stat", "stat", stat, "delta", delta)
		return false
	}
	e.ModifyVital(v, delta)
	return true
}

// ModifyVital adds delta to v, clamping into [0,100].
func (e *Engine) ModifyVital(v Vital, delta float64) {
	switch v {
	case Hunger:
		e.s.Hunger = clamp(e.s.Hunger + delta)
	case Happiness:
		e.s.Happiness = clamp(e.s.Happiness + delta)
	case Health:
		e.s.Health = clamp(e.s.Health + delta)
	case Energy:
		e.s.Energy = clamp(e.s.Energy + delta)
	}
}

// Level and threshold ceilings. Hand-edited saves can carry any experience,
// so levelling is bounded and the threshold saturates before it overflows.
const (
	MaxLevel          = 10000
	MaxExpToNextLevel = 1 << 40
)

// AddExperience accumulates experience, levelling up as many times as it covers.
// Each level gained emits a notification.
func (e *Engine) AddExperience(amount float64) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}
	e.s.Experience += amount
	for _, level := range e.levelUp(true) {
		n := notify.New(notify.KindLevelUp, "Level up!", fmt.Sprintf("Reached level %d", level), e.lastUpdate)
		n.Data = map[string]any{"level": level}
		e.sink.Publish(n)
		e.logger.Info("Pet levelled up", "level", level)
	}
}

// levelUp converts surplus experience into levels. With collect set it
// returns each level reached. At MaxLevel the surplus is dropped.
func (e *Engine) levelUp(collect bool) []int {
	var reached []int
	for e.s.Experience >= float64(e.s.ExpToNextLevel) {
		if e.s.Level >= MaxLevel {
			e.logger.Warn("Level cap reached, dropping surplus experience",
				"level", e.s.Level, "experience", e.s.Experience)
			e.s.Experience = float64(e.s.ExpToNextLevel - 1)
			break
		}
		e.s.Experience -= float64(e.s.ExpToNextLevel)
		e.s.Level++
		e.s.ExpToNextLevel = nextThreshold(e.s.ExpToNextLevel, e.cfg.LevelGrowth)
		if collect {
			reached = append(reached, e.s.Level)
		}
	}
	return reached
}

// nextThreshold grows current by growth, saturating at MaxExpToNextLevel.
// It always grows by at least one below the ceiling.
func nextThreshold(current int, growth float64) int {
	if current >= MaxExpToNextLevel {
		return MaxExpToNextLevel
	}
	next := math.Floor(float64(current) * growth)
	switch {
	case math.IsNaN(next) || next <= float64(current):
		return current + 1
	case next >= MaxExpToNextLevel:
		return MaxExpToNextLevel
	}
	return int(next)
}

// Increment bumps an interaction counter.
func (e *Engine) Increment(c Counter) {
	switch c {
	case FeedCount:
		e.s.FeedCount++
	case PlayCount:
		e.s.PlayCount++
	case PetCount:
		e.s.PetCount++
	case CleanCount:
		e.s.CleanCount++
	}
}

// Age is the time since birth.
func (e *Engine) Age(now time.Time) time.Duration {
	age := now.Sub(e.s.BirthTime)
	if age < 0 {
		return 0
	}
	return age
}

func clamp(v float64) float64 {
	if v < MinVital {
		return MinVital
	}
	if v > MaxVital {
		return MaxVital
	}
	return v
}
