package stats

import (
	"math"
	"time"

	"github.com/jwebster45206/pet-engine/pkg/timeutil"
)

// Snapshot is the display view of the stats. Vitals are truncated to integers.
// It is also the view conditions are evaluated against.
type Snapshot struct {
	Hunger    int `json:"hunger"`
	Happiness int `json:"happiness"`
	Health    int `json:"health"`
	Energy    int `json:"energy"`

	Level          int     `json:"level"`
	Experience     float64 `json:"experience"`
	ExpToNextLevel int     `json:"exp_to_next_level"`

	AgeSeconds float64 `json:"age_seconds"`
	AgeHours   float64 `json:"age_hours"`
	AgeDays    float64 `json:"age_days"`

	FeedCount  int `json:"feed_count"`
	PlayCount  int `json:"play_count"`
	PetCount   int `json:"pet_count"`
	CleanCount int `json:"clean_count"`
}

// Snapshot returns the current display view with age derived from now.
func (e *Engine) Snapshot(now time.Time) Snapshot {
	age := e.Age(now)
	return Snapshot{
		Hunger:         int(e.s.Hunger),
		Happiness:      int(e.s.Happiness),
		Health:         int(e.s.Health),
		Energy:         int(e.s.Energy),
		Level:          e.s.Level,
		Experience:     e.s.Experience,
		ExpToNextLevel: e.s.ExpToNextLevel,
		AgeSeconds:     age.Seconds(),
		AgeHours:       age.Hours(),
		AgeDays:        age.Hours() / 24,
		FeedCount:      e.s.FeedCount,
		PlayCount:      e.s.PlayCount,
		PetCount:       e.s.PetCount,
		CleanCount:     e.s.CleanCount,
	}
}

// StatValue implements conditionals.StatsView.
func (s Snapshot) StatValue(name string) (float64, bool) {
	switch name {
	case "hunger":
		return float64(s.Hunger), true
	case "happiness":
		return float64(s.Happiness), true
	case "health":
		return float64(s.Health), true
	case "energy":
		return float64(s.Energy), true
	case "level":
		return float64(s.Level), true
	case "experience":
		return s.Experience, true
	case "exp_to_next_level":
		return float64(s.ExpToNextLevel), true
	case "age_seconds":
		return s.AgeSeconds, true
	case "age_hours":
		return s.AgeHours, true
	case "age_days":
		return s.AgeDays, true
	case "feed_count":
		return float64(s.FeedCount), true
	case "play_count":
		return float64(s.PlayCount), true
	case "pet_count":
		return float64(s.PetCount), true
	case "clean_count":
		return float64(s.CleanCount), true
	}
	return 0, false
}

// StatNames lists every name StatValue understands.
var StatNames = []string{
	"hunger", "happiness", "health", "energy",
	"level", "experience", "exp_to_next_level",
	"age_seconds", "age_hours", "age_days",
	"feed_count", "play_count", "pet_count", "clean_count",
}

// Record is the persisted form of the stats. Every field is optional on load.
type Record struct {
	Hunger         *float64            `json:"hunger,omitempty"`
	Happiness      *float64            `json:"happiness,omitempty"`
	Health         *float64            `json:"health,omitempty"`
	Energy         *float64            `json:"energy,omitempty"`
	Level          *int                `json:"level,omitempty"`
	Experience     *float64            `json:"experience,omitempty"`
	ExpToNextLevel *int                `json:"exp_to_next_level,omitempty"`
	BirthTime      *timeutil.Timestamp `json:"birth_time,omitempty"`
	FeedCount      *int                `json:"feed_count,omitempty"`
	PlayCount      *int                `json:"play_count,omitempty"`
	PetCount       *int                `json:"pet_count,omitempty"`
	CleanCount     *int                `json:"clean_count,omitempty"`
}

// Record returns the persisted form of the current stats.
func (e *Engine) Record() Record {
	s := e.s
	return Record{
		Hunger:         &s.Hunger,
		Happiness:      &s.Happiness,
		Health:         &s.Health,
		Energy:         &s.Energy,
		Level:          &s.Level,
		Experience:     &s.Experience,
		ExpToNextLevel: &s.ExpToNextLevel,
		BirthTime:      timeutil.Ptr(s.BirthTime),
		FeedCount:      &s.FeedCount,
		PlayCount:      &s.PlayCount,
		PetCount:       &s.PetCount,
		CleanCount:     &s.CleanCount,
	}
}

// Restore replaces the stats from rec. Missing fields take fresh defaults and
// out-of-range values are clamped. Decay bookkeeping restarts at now, so time
// spent while not running is never applied.
func (e *Engine) Restore(rec Record, now time.Time) {
	s := Fresh(e.cfg, now)

	if rec.Hunger != nil {
		s.Hunger = clamp(*rec.Hunger)
	}
	if rec.Happiness != nil {
		s.Happiness = clamp(*rec.Happiness)
	}
	if rec.Health != nil {
		s.Health = clamp(*rec.Health)
	}
	if rec.Energy != nil {
		s.Energy = clamp(*rec.Energy)
	}
	if rec.Level != nil && *rec.Level >= 1 {
		s.Level = min(*rec.Level, MaxLevel)
	}
	if rec.Experience != nil && *rec.Experience > 0 && !math.IsInf(*rec.Experience, 0) {
		s.Experience = *rec.Experience
	}
	if rec.ExpToNextLevel != nil && *rec.ExpToNextLevel >= 1 {
		s.ExpToNextLevel = min(*rec.ExpToNextLevel, MaxExpToNextLevel)
	}
	if rec.BirthTime != nil && !rec.BirthTime.IsZero() {
		s.BirthTime = rec.BirthTime.Time
	}
	s.FeedCount = nonNegative(rec.FeedCount)
	s.PlayCount = nonNegative(rec.PlayCount)
	s.PetCount = nonNegative(rec.PetCount)
	s.CleanCount = nonNegative(rec.CleanCount)

	e.s = s
	e.lastUpdate = now
	// Hand-edited saves can carry surplus experience; fold it into levels quietly.
	e.levelUp(false)
}

// Reset replaces the stats with a newborn pet.
func (e *Engine) Reset(now time.Time) {
	e.s = Fresh(e.cfg, now)
	e.lastUpdate = now
}

func nonNegative(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
