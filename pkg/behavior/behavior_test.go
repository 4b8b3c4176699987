package behavior

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted replays fixed draws.
type scripted struct {
	floats []float64
	ints   []int
}

func (s *scripted) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scripted) IntN(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		panic("scripted int out of range")
	}
	return v
}

func TestChoose_CumulativeTable(t *testing.T) {
	tests := []struct {
		name     string
		draw     float64
		expected Behavior
	}{
		{"zero is idle", 0, Idle},
		{"idle upper bound inclusive", 0.4, Idle},
		{"just past idle walks", 0.41, Walk},
		{"walk upper range", 0.69, Walk},
		{"sleep", 0.85, Sleep},
		{"sit", 0.95, Sit},
		{"near one", 0.999999, Sit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &scripted{floats: []float64{tt.draw}, ints: []int{0, 0}}
			s := NewSelector(DefaultConfig(), rng, nil)
			assert.Equal(t, tt.expected, s.Choose().Behavior)
		})
	}
}

func TestChoose_UnmatchedDrawIdles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Table = []Weight{{Walk, 0.2}, {Sit, 0.2}}
	s := NewSelector(cfg, &scripted{floats: []float64{0.9}}, nil)
	assert.Equal(t, Idle, s.Choose().Behavior)
}

func TestChoose_WalkRollsDirectionAndDuration(t *testing.T) {
	s := NewSelector(DefaultConfig(), &scripted{floats: []float64{0.5}, ints: []int{1, 3000}}, nil)
	st := s.Choose()
	assert.Equal(t, Walk, st.Behavior)
	assert.Equal(t, Right, st.Direction)
	assert.Equal(t, int64(5000), st.DurationMS())
	assert.True(t, s.IsWalking())
	assert.Equal(t, "walk_right", s.AnimationToken())
}

func TestChoose_NonWalkClearsDirection(t *testing.T) {
	s := NewSelector(DefaultConfig(), &scripted{floats: []float64{0.5, 0.9}, ints: []int{0, 0}}, nil)
	s.Choose()
	require.Equal(t, Left, s.Direction())

	st := s.Choose()
	assert.Equal(t, Sleep, st.Behavior)
	assert.Equal(t, Direction(""), s.Direction())
	assert.Equal(t, time.Duration(0), st.Duration)
	assert.Equal(t, "sleep", s.AnimationToken())
}

func TestChoose_SeededDistribution(t *testing.T) {
	s := NewSelector(DefaultConfig(), rand.New(rand.NewPCG(1, 2)), nil)
	counts := map[Behavior]int{}
	const n = 20000
	for range n {
		st := s.Choose()
		counts[st.Behavior]++
		if st.Behavior == Walk {
			assert.GreaterOrEqual(t, st.DurationMS(), int64(2000))
			assert.LessOrEqual(t, st.DurationMS(), int64(5000))
			assert.Contains(t, []Direction{Left, Right}, st.Direction)
		}
	}
	assert.InDelta(t, 0.4, float64(counts[Idle])/n, 0.02)
	assert.InDelta(t, 0.3, float64(counts[Walk])/n, 0.02)
	assert.InDelta(t, 0.2, float64(counts[Sleep])/n, 0.02)
	assert.InDelta(t, 0.1, float64(counts[Sit])/n, 0.02)
}

func TestForceFlip(t *testing.T) {
	tests := []struct {
		name     string
		start    Direction
		edge     Edge
		expected Direction
	}{
		{"left edge turns right", Left, LeftEdge, Right},
		{"right edge turns left", Right, RightEdge, Left},
		{"already heading away stays", Right, LeftEdge, Right},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirIndex := 0
			if tt.start == Right {
				dirIndex = 1
			}
			s := NewSelector(DefaultConfig(), &scripted{floats: []float64{0.5}, ints: []int{dirIndex, 1234}}, nil)
			before := s.Choose()

			s.ForceFlip(tt.edge)
			after := s.State()
			assert.Equal(t, tt.expected, after.Direction)
			assert.Equal(t, before.Duration, after.Duration, "duration is not re-rolled")
			assert.Equal(t, Walk, after.Behavior)
		})
	}
}

func TestForceFlip_NotWalkingIsNoop(t *testing.T) {
	s := NewSelector(DefaultConfig(), &scripted{}, nil)
	s.ForceFlip(LeftEdge)
	s.Reverse()
	assert.Equal(t, State{Behavior: Idle}, s.State())
}

func TestReverse(t *testing.T) {
	s := NewSelector(DefaultConfig(), &scripted{floats: []float64{0.5}, ints: []int{0, 0}}, nil)
	s.Choose()
	s.Reverse()
	assert.Equal(t, Right, s.Direction())
	s.Reverse()
	assert.Equal(t, Left, s.Direction())
}

func TestResolveToken(t *testing.T) {
	available := map[string]bool{"idle": true, "walk_left": true, "walk_right": true, "sleep": true}
	assert.Equal(t, "sleep", ResolveToken("sleep", available))
	assert.Equal(t, "walk_left", ResolveToken("walk_left", available))
	assert.Equal(t, "idle", ResolveToken("sit", available))
	assert.Equal(t, "idle", ResolveToken("sit", nil))
}

func TestParseEdge(t *testing.T) {
	e, err := ParseEdge("left")
	require.NoError(t, err)
	assert.Equal(t, LeftEdge, e)
	_, err = ParseEdge("top")
	assert.Error(t, err)
}
