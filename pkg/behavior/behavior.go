// Package behavior picks what the pet is doing between ticks and derives the
// animation token the presentation layer plays.
package behavior

import (
	"fmt"
	"log/slog"
	"time"
)

// Behavior is what the pet is currently doing.
type Behavior string

const (
	Idle  Behavior = "idle"
	Walk  Behavior = "walk"
	Sleep Behavior = "sleep"
	Sit   Behavior = "sit"
)

// Direction is the walking direction.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// Edge is the screen boundary the pet ran into.
type Edge string

const (
	LeftEdge  Edge = "left"
	RightEdge Edge = "right"
)

// ParseEdge validates a boundary name.
func ParseEdge(s string) (Edge, error) {
	switch Edge(s) {
	case LeftEdge, RightEdge:
		return Edge(s), nil
	}
	return "", fmt.Errorf("unknown edge %q", s)
}

// Weight is one row of the selection table.
type Weight struct {
	Behavior    Behavior
	Probability float64
}

// Config is the selection table and walk duration bounds.
type Config struct {
	// Table is scanned in order; see Choose.
	Table   []Weight
	MinWalk time.Duration
	MaxWalk time.Duration
}

// DefaultConfig returns the stock probabilities.
func DefaultConfig() Config {
	return Config{
		Table: []Weight{
			{Idle, 0.4},
			{Walk, 0.3},
			{Sleep, 0.2},
			{Sit, 0.1},
		},
		MinWalk: 2000 * time.Millisecond,
		MaxWalk: 5000 * time.Millisecond,
	}
}

// Rand is the random source. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// State is the current behavior. Direction and Duration are set only while walking.
type State struct {
	Behavior  Behavior      `json:"behavior"`
	Direction Direction     `json:"direction,omitempty"`
	Duration  time.Duration `json:"-"`
}

// DurationMS is the walk duration in milliseconds.
func (s State) DurationMS() int64 {
	return s.Duration.Milliseconds()
}

// Selector is the behavior state machine. It is not safe for concurrent use.
type Selector struct {
	cfg    Config
	rng    Rand
	state  State
	logger *slog.Logger
}

// NewSelector starts idle.
func NewSelector(cfg Config, rng Rand, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Table) == 0 {
		cfg.Table = DefaultConfig().Table
	}
	if cfg.MaxWalk < cfg.MinWalk {
		cfg.MaxWalk = cfg.MinWalk
	}
	return &Selector{
		cfg:    cfg,
		rng:    rng,
		state:  State{Behavior: Idle},
		logger: logger,
	}
}

// Choose draws a new behavior. The table is walked in order with a running
// sum and the first row whose cumulative probability reaches the draw wins;
// if rounding leaves the draw unmatched the pet idles. Walking also rolls a
// direction and a whole-millisecond duration within the configured bounds.
func (s *Selector) Choose() State {
	r := s.rng.Float64()
	chosen := Idle
	cumulative := 0.0
	for _, w := range s.cfg.Table {
		cumulative += w.Probability
		if cumulative >= r {
			chosen = w.Behavior
			break
		}
	}

	next := State{Behavior: chosen}
	if chosen == Walk {
		next.Direction = Left
		if s.rng.IntN(2) == 1 {
			next.Direction = Right
		}
		minMS := s.cfg.MinWalk.Milliseconds()
		spread := s.cfg.MaxWalk.Milliseconds() - minMS
		next.Duration = time.Duration(minMS+int64(s.rng.IntN(int(spread)+1))) * time.Millisecond
	}

	if next.Behavior != s.state.Behavior {
		s.logger.Debug("Behavior changed", "from", s.state.Behavior, "to", next.Behavior)
	}
	s.state = next
	return next
}

// ForceFlip turns a walking pet away from the edge it hit. The duration is
// kept. Not walking is a no-op.
func (s *Selector) ForceFlip(edge Edge) {
	if s.state.Behavior != Walk {
		return
	}
	switch edge {
	case LeftEdge:
		s.state.Direction = Right
	case RightEdge:
		s.state.Direction = Left
	}
}

// Reverse flips the walking direction regardless of edge.
func (s *Selector) Reverse() {
	if s.state.Behavior != Walk {
		return
	}
	if s.state.Direction == Left {
		s.state.Direction = Right
	} else {
		s.state.Direction = Left
	}
}

func (s *Selector) State() State {
	return s.state
}

func (s *Selector) IsWalking() bool {
	return s.state.Behavior == Walk
}

func (s *Selector) Direction() Direction {
	return s.state.Direction
}

// AnimationToken is walk_<direction> while walking, else the behavior name.
func (s *Selector) AnimationToken() string {
	return s.state.Token()
}

// Token derives the animation token for a state.
func (st State) Token() string {
	if st.Behavior == Walk {
		return "walk_" + string(st.Direction)
	}
	return string(st.Behavior)
}

// ResolveToken returns the token if the presentation layer has an asset for
// it, else the idle token.
func ResolveToken(token string, available map[string]bool) string {
	if available[token] {
		return token
	}
	return string(Idle)
}
