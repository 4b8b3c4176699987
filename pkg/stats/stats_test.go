package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/pet-engine/pkg/notify"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *notify.Queue) {
	t.Helper()
	q := notify.NewQueue(100)
	return NewEngine(DefaultConfig(), epoch, q, nil), q
}

func TestUpdate_HungerDecayScenario(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(10 * time.Second)
	assert.InDelta(t, 99.5, e.Stats().Hunger, 1e-9)
	assert.InDelta(t, 99.7, e.Stats().Happiness, 1e-9)
	assert.InDelta(t, 99.8, e.Stats().Health, 1e-9)
	assert.InDelta(t, 99.6, e.Stats().Energy, 1e-9)
}

func TestUpdate_EnergyRecoversWhenLow(t *testing.T) {
	e, _ := newTestEngine(t)
	e.s.Energy = 10
	e.Update(20 * time.Second)
	assert.InDelta(t, 11.0, e.Stats().Energy, 1e-9)
}

func TestUpdate_EnergyRecoveryCapped(t *testing.T) {
	e, _ := newTestEngine(t)
	e.s.Energy = 29
	e.Update(10000 * time.Second)
	assert.Equal(t, 100.0, e.Stats().Energy)
}

func TestUpdate_CrossCoupling(t *testing.T) {
	e, _ := newTestEngine(t)
	e.s.Hunger = 10
	e.s.Health = 50
	e.Update(10 * time.Second)

	// hunger < 20 drains health by an extra 0.1/s
	assert.InDelta(t, 50-0.2-1.0, e.Stats().Health, 1e-9)
	assert.InDelta(t, 100-0.3, e.Stats().Happiness, 1e-9)

	e2, _ := newTestEngine(t)
	e2.s.Health = 10
	e2.Update(10 * time.Second)
	assert.InDelta(t, 100-0.3-1.0, e2.Stats().Happiness, 1e-9)
}

func TestUpdate_NeverBelowZero(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(24 * time.Hour)
	s := e.Stats()
	for _, v := range Vitals {
		value := e.Vital(v)
		assert.GreaterOrEqual(t, value, 0.0, "vital %s", v)
		assert.LessOrEqual(t, value, 100.0, "vital %s", v)
	}
	assert.Equal(t, 0.0, s.Hunger)
}

func TestUpdate_IsAdditiveWithoutCoupling(t *testing.T) {
	a, _ := newTestEngine(t)
	b, _ := newTestEngine(t)

	a.Update(30 * time.Second)
	a.Update(45 * time.Second)
	b.Update(75 * time.Second)

	for _, v := range Vitals {
		assert.InDelta(t, b.Vital(v), a.Vital(v), 1e-9, "vital %s", v)
	}
}

func TestUpdate_EmitsWarningsForLowVitals(t *testing.T) {
	e, q := newTestEngine(t)
	e.s.Hunger = 15
	e.s.Energy = 50
	e.s.Health = 5
	e.Update(time.Second)

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, notify.KindWarning, drained[0].Kind)
	assert.Equal(t, "Hunger is low", drained[0].Title)
	assert.Equal(t, "Health is low", drained[1].Title)
	assert.Equal(t, "hunger", drained[0].Data["stat"])
}

func TestTick_UsesElapsedSinceLastTick(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Tick(epoch.Add(10 * time.Second))
	assert.InDelta(t, 99.5, e.Stats().Hunger, 1e-9)

	// A clock going backwards applies no decay.
	e.Tick(epoch)
	assert.InDelta(t, 99.5, e.Stats().Hunger, 1e-9)
	assert.Equal(t, epoch, e.LastUpdate())
}

func TestModify(t *testing.T) {
	tests := []struct {
		name     string
		stat     string
		start    float64
		delta    float64
		expected float64
		ok       bool
	}{
		{"add within range", "happiness", 50, 10, 60, true},
		{"capped at 100", "hunger", 95, 20, 100, true},
		{"floored at 0", "energy", 5, -30, 0, true},
		{"unknown stat is a no-op", "mood", 50, 10, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			e.s.Hunger, e.s.Happiness, e.s.Energy = tt.start, tt.start, tt.start
			ok := e.Modify(tt.stat, tt.delta)
			assert.Equal(t, tt.ok, ok)
			target := tt.stat
			if !tt.ok {
				target = "happiness"
			}
			v, _ := ParseVital(target)
			assert.InDelta(t, tt.expected, e.Vital(v), 1e-9)
		})
	}
}

func TestAddExperience(t *testing.T) {
	t.Run("single level", func(t *testing.T) {
		e, q := newTestEngine(t)
		e.AddExperience(120)
		s := e.Stats()
		assert.Equal(t, 2, s.Level)
		assert.InDelta(t, 20, s.Experience, 1e-9)
		assert.Equal(t, 150, s.ExpToNextLevel)
		require.Equal(t, 1, q.Len())
	})

	t.Run("multiple levels in one call", func(t *testing.T) {
		e, q := newTestEngine(t)
		// 100 + 150 + 225 = 475
		e.AddExperience(480)
		s := e.Stats()
		assert.Equal(t, 4, s.Level)
		assert.InDelta(t, 5, s.Experience, 1e-9)
		assert.Equal(t, 337, s.ExpToNextLevel)
		drained := q.Drain()
		require.Len(t, drained, 3)
		assert.Equal(t, notify.KindLevelUp, drained[2].Kind)
		assert.Equal(t, 4, drained[2].Data["level"])
	})

	t.Run("experience stays below threshold", func(t *testing.T) {
		e, _ := newTestEngine(t)
		for _, amount := range []float64{5, 99, 250.5, 1e4, 0.1} {
			e.AddExperience(amount)
			s := e.Stats()
			assert.Less(t, s.Experience, float64(s.ExpToNextLevel))
		}
	})

	t.Run("negative ignored", func(t *testing.T) {
		e, _ := newTestEngine(t)
		e.AddExperience(-50)
		assert.Equal(t, 0.0, e.Stats().Experience)
	})
}

func TestSnapshot(t *testing.T) {
	e, _ := newTestEngine(t)
	e.s.Hunger = 42.9
	e.Increment(FeedCount)
	e.Increment(FeedCount)
	e.Increment(CleanCount)

	snap := e.Snapshot(epoch.Add(36 * time.Hour))
	assert.Equal(t, 42, snap.Hunger)
	assert.Equal(t, 2, snap.FeedCount)
	assert.Equal(t, 1, snap.CleanCount)
	assert.InDelta(t, 36, snap.AgeHours, 1e-9)
	assert.InDelta(t, 1.5, snap.AgeDays, 1e-9)

	v, ok := snap.StatValue("hunger")
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)
	_, ok = snap.StatValue("mood")
	assert.False(t, ok)

	for _, name := range StatNames {
		_, ok := snap.StatValue(name)
		assert.True(t, ok, "stat %s", name)
	}
}

func TestRecordRestoreRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	e.s.Hunger = 33.25
	e.s.Happiness = 12.5
	e.s.Health = 77
	e.s.Energy = 1
	e.AddExperience(130)
	e.Increment(PetCount)
	e.Increment(PlayCount)

	data, err := json.Marshal(e.Record())
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))

	loadTime := epoch.Add(time.Hour)
	restored := NewEngine(DefaultConfig(), loadTime, nil, nil)
	restored.Restore(rec, loadTime)

	want := e.Stats()
	got := restored.Stats()
	assert.True(t, want.BirthTime.Equal(got.BirthTime))
	want.BirthTime, got.BirthTime = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
	assert.Equal(t, loadTime, restored.LastUpdate())
}

func TestRestore_MissingFieldsUseDefaults(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"hunger": 140, "level": 0, "feed_count": 3}`), &rec))

	now := epoch.Add(time.Minute)
	e := NewEngine(DefaultConfig(), epoch, nil, nil)
	e.Restore(rec, now)

	s := e.Stats()
	assert.Equal(t, 100.0, s.Hunger, "out of range values are clamped")
	assert.Equal(t, 100.0, s.Happiness)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 100, s.ExpToNextLevel)
	assert.Equal(t, 3, s.FeedCount)
	assert.Equal(t, now, s.BirthTime)
}

func TestRestore_LegacyUnixBirthTime(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"birth_time": 1700000000.5}`), &rec))

	e := NewEngine(DefaultConfig(), epoch, nil, nil)
	e.Restore(rec, epoch)
	assert.True(t, e.Stats().BirthTime.Equal(time.Unix(1700000000, 500000000)))
}

func TestRestore_HugeExperienceIsBounded(t *testing.T) {
	tests := []struct {
		name string
		rec  string
	}{
		{"huge experience", `{"experience": 1e29}`},
		{"huge threshold and level", `{"level": 9223372036854775807, "experience": 1e300, "exp_to_next_level": 9223372036854775807}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			require.NoError(t, json.Unmarshal([]byte(tt.rec), &rec))

			sink := notify.NewQueue(100)
			e := NewEngine(DefaultConfig(), epoch, sink, nil)
			done := make(chan struct{})
			go func() {
				defer close(done)
				e.Restore(rec, epoch)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("Restore did not return")
			}

			s := e.Stats()
			assert.Equal(t, MaxLevel, s.Level)
			assert.LessOrEqual(t, s.ExpToNextLevel, MaxExpToNextLevel)
			assert.Less(t, s.Experience, float64(s.ExpToNextLevel))
			assert.Empty(t, sink.Pending(), "restoring never announces level ups")

			e.AddExperience(float64(s.ExpToNextLevel))
			assert.Equal(t, MaxLevel, e.Stats().Level)
		})
	}
}

func TestNextThreshold(t *testing.T) {
	tests := []struct {
		name    string
		current int
		growth  float64
		want    int
	}{
		{"stock growth", 100, 1.5, 150},
		{"floor", 225, 1.5, 337},
		{"flat growth still grows", 100, 1, 101},
		{"saturates", MaxExpToNextLevel - 10, 1.5, MaxExpToNextLevel},
		{"at ceiling", MaxExpToNextLevel, 1.5, MaxExpToNextLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextThreshold(tt.current, tt.growth))
		})
	}
}
