package events

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/conditionals"
	"github.com/jwebster45206/pet-engine/pkg/inventory"
	"github.com/jwebster45206/pet-engine/pkg/notify"
	"github.com/jwebster45206/pet-engine/pkg/stats"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

// draws replays fixed Float64 values and counts how many were taken.
type draws struct {
	values []float64
	taken  int
}

func (d *draws) Float64() float64 {
	v := d.values[d.taken]
	d.taken++
	return v
}

func cond(field string, op conditionals.Operator, value float64) conditionals.Condition {
	return conditionals.Condition{Comparisons: []conditionals.Comparison{{Field: field, Op: op, Value: value}}}
}

func req(pairs ...any) conditionals.Requirement {
	var r conditionals.Requirement
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Comparisons = append(r.Comparisons, conditionals.Comparison{
			Field: pairs[i].(string), Op: conditionals.OpGE, Value: pairs[i+1].(float64),
		})
	}
	return r
}

type fixture struct {
	engine *Engine
	stats  *stats.Engine
	inv    *inventory.Store
	queue  *notify.Queue
	rng    *draws
}

func newFixture(t *testing.T, events []catalog.EventDefinition, achievements []catalog.AchievementDefinition, rolls ...float64) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	cat := catalog.Empty()
	cat.Foods = catalog.NewItemTable(catalog.ItemInfo{ID: "apple"}, catalog.ItemInfo{ID: "fish"})
	cat.Items = catalog.NewItemTable(catalog.ItemInfo{ID: "ball", Type: catalog.TypeToy})
	cat.Events = catalog.NewEventTable(events...)
	cat.Achievements = catalog.NewAchievementTable(achievements...)

	q := notify.NewQueue(100)
	st := stats.NewEngine(stats.DefaultConfig(), epoch, nil, logger)
	inv := inventory.NewStore(cat, rand.New(rand.NewPCG(1, 1)), logger)
	rng := &draws{values: rolls}
	return fixture{
		engine: NewEngine(cat, 0, st, inv, rng, q, logger),
		stats:  st,
		inv:    inv,
		queue:  q,
		rng:    rng,
	}
}

func TestTryTrigger_FiresAndAppliesEffect(t *testing.T) {
	f := newFixture(t, []catalog.EventDefinition{{
		ID:          "found_treat",
		Name:        "Found a treat",
		Description: "Snack!",
		Probability: ptr(0.5),
		Effect: catalog.EventEffect{
			Effects: catalog.Effects{Happiness: ptr(-10), Energy: ptr(-5)},
			AddItem: "fish",
		},
	}}, nil, 0.2)

	fired, ok := f.engine.TryTrigger(epoch)
	require.True(t, ok)
	assert.Equal(t, "found_treat", fired.EventID)
	assert.Equal(t, "fish", fired.Item)
	assert.Equal(t, 1, fired.Quantity, "quantity defaults to 1")
	assert.Equal(t, epoch, f.engine.LastEventTime())

	s := f.stats.Stats()
	assert.Equal(t, 90.0, s.Happiness)
	assert.Equal(t, 95.0, s.Energy)
	assert.Equal(t, 1, f.inv.Count("fish"))

	drained := f.queue.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, notify.KindEvent, drained[0].Kind)
	assert.Equal(t, "Found a treat", drained[0].Title)
	assert.Equal(t, "Snack!", drained[0].Message)
}

func TestTryTrigger_RespectsInterval(t *testing.T) {
	f := newFixture(t, []catalog.EventDefinition{{ID: "always", Probability: ptr(1)}}, nil, 0, 0, 0)

	_, ok := f.engine.TryTrigger(epoch)
	require.True(t, ok)

	_, ok = f.engine.TryTrigger(epoch.Add(59 * time.Second))
	assert.False(t, ok)
	assert.Equal(t, 1, f.rng.taken, "no roll inside the interval")

	_, ok = f.engine.TryTrigger(epoch.Add(60 * time.Second))
	assert.True(t, ok)
}

func TestTryTrigger_FailedRollsDoNotResetTimer(t *testing.T) {
	f := newFixture(t, []catalog.EventDefinition{{ID: "rare", Probability: ptr(0.1)}}, nil, 0.9, 0.05)

	_, ok := f.engine.TryTrigger(epoch)
	assert.False(t, ok)
	assert.True(t, f.engine.LastEventTime().IsZero())

	_, ok = f.engine.TryTrigger(epoch.Add(time.Second))
	assert.True(t, ok, "a miss does not start the interval")
}

func TestTryTrigger_SequentialTrialsInDeclaredOrder(t *testing.T) {
	events := []catalog.EventDefinition{
		{ID: "first", Probability: ptr(0.3)},
		{ID: "hungry_only", Condition: cond("hunger", conditionals.OpLT, 50), Probability: ptr(1)},
		{ID: "second", Probability: ptr(0.6)},
		{ID: "third", Probability: ptr(0.9)},
	}

	tests := []struct {
		name     string
		rolls    []float64
		expected string
		taken    int
	}{
		{"first succeeds", []float64{0.1}, "first", 1},
		{"first misses, second hits", []float64{0.5, 0.5}, "second", 2},
		{"later event with higher chance still waits its turn", []float64{0.35, 0.7, 0.1}, "third", 3},
		{"all miss", []float64{0.99, 0.99, 0.99}, "", 3},
		{"roll equal to probability misses", []float64{0.3, 0.6, 0.9}, "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, events, nil, tt.rolls...)
			fired, ok := f.engine.TryTrigger(epoch)
			assert.Equal(t, tt.expected != "", ok)
			assert.Equal(t, tt.expected, fired.EventID)
			assert.Equal(t, tt.taken, f.rng.taken, "ineligible events are never rolled")
		})
	}
}

func TestTryTrigger_ConditionAgainstSnapshot(t *testing.T) {
	events := []catalog.EventDefinition{
		{ID: "hungry", Condition: cond("hunger", conditionals.OpLT, 50), Probability: ptr(1)},
		{ID: "mood_ring", Condition: cond("mood", conditionals.OpGT, 1000), Probability: ptr(1)},
	}

	f := newFixture(t, events, nil, 0, 0)
	fired, ok := f.engine.TryTrigger(epoch)
	require.True(t, ok)
	assert.Equal(t, "mood_ring", fired.EventID, "unknown stats in a condition are skipped")

	f = newFixture(t, events, nil, 0)
	f.stats.ModifyVital(stats.Hunger, -60)
	fired, ok = f.engine.TryTrigger(epoch)
	require.True(t, ok)
	assert.Equal(t, "hungry", fired.EventID)
}

func TestTryTrigger_UnknownItemStillFires(t *testing.T) {
	f := newFixture(t, []catalog.EventDefinition{{
		ID: "gift", Probability: ptr(1), Effect: catalog.EventEffect{AddItem: "unicorn", Quantity: 3},
	}}, nil, 0)

	fired, ok := f.engine.TryTrigger(epoch)
	require.True(t, ok)
	assert.Empty(t, fired.Item)
	assert.Empty(t, f.inv.Snapshot())
}

func TestCheckAchievements(t *testing.T) {
	achievements := []catalog.AchievementDefinition{
		{ID: "welcome", Name: "Welcome"},
		{ID: "first_meal", Name: "First meal", Requirement: req("feed_count", 1.0), Reward: &catalog.Reward{Item: "apple", Quantity: 2}},
		{ID: "secret", Requirement: req("mood", 1.0)},
		{ID: "exactly", Requirement: req("happiness", 100.0), Reward: &catalog.Reward{Item: "ball"}},
	}
	f := newFixture(t, nil, achievements)

	unlocked := f.engine.CheckAchievements(epoch)
	ids := []string{}
	for _, def := range unlocked {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []string{"welcome", "exactly"}, ids, "threshold is inclusive and unknown stats fail")
	assert.Equal(t, 1, f.inv.Count("ball"))

	f.stats.Increment(stats.FeedCount)
	unlocked = f.engine.CheckAchievements(epoch)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_meal", unlocked[0].ID)
	assert.Equal(t, 2, f.inv.Count("apple"))

	drained := f.queue.Drain()
	require.Len(t, drained, 3)
	for _, n := range drained {
		assert.Equal(t, notify.KindAchievement, n.Kind)
	}

	// Idempotent: nothing new unlocks and nothing is re-emitted.
	assert.Empty(t, f.engine.CheckAchievements(epoch.Add(time.Hour)))
	assert.Equal(t, 0, f.queue.Len())
	assert.True(t, f.engine.IsUnlocked("welcome"))
	assert.False(t, f.engine.IsUnlocked("secret"))
}

func TestProgressAndUnlocked(t *testing.T) {
	achievements := []catalog.AchievementDefinition{
		{ID: "a", Requirement: req("level", 99.0)},
		{ID: "b"},
		{ID: "c", Requirement: req("level", 99.0)},
	}
	f := newFixture(t, nil, achievements)
	assert.Equal(t, Progress{Total: 3}, f.engine.Progress())

	f.engine.CheckAchievements(epoch)
	p := f.engine.Progress()
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 1, p.Unlocked)
	assert.InDelta(t, 33.33, p.Percentage, 0.001)

	f.engine.Restore(Record{UnlockedAchievements: []string{"c", "retired", "b"}})
	unlocked := f.engine.Unlocked()
	require.Len(t, unlocked, 2)
	assert.Equal(t, "b", unlocked[0].ID, "listed in catalog order")
	assert.Equal(t, "c", unlocked[1].ID)
	assert.Equal(t, 2, f.engine.Progress().Unlocked, "ids missing from the catalog are not counted")
	assert.Contains(t, f.engine.Record().UnlockedAchievements, "retired", "but they are kept")

	empty := newFixture(t, nil, nil)
	assert.Equal(t, Progress{}, empty.engine.Progress())
	assert.NotNil(t, empty.engine.Unlocked())
}

func TestRecordRestore(t *testing.T) {
	f := newFixture(t,
		[]catalog.EventDefinition{{ID: "always", Probability: ptr(1)}},
		[]catalog.AchievementDefinition{{ID: "z"}, {ID: "a"}},
		0)
	f.engine.CheckAchievements(epoch)
	_, ok := f.engine.TryTrigger(epoch.Add(time.Minute))
	require.True(t, ok)

	data, err := json.Marshal(f.engine.Record())
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, []string{"a", "z"}, rec.UnlockedAchievements)

	restored := newFixture(t, []catalog.EventDefinition{{ID: "always", Probability: ptr(1)}}, nil, 0)
	restored.engine.Restore(rec)
	assert.True(t, restored.engine.LastEventTime().Equal(epoch.Add(time.Minute)))
	assert.True(t, restored.engine.IsUnlocked("z"))

	_, ok = restored.engine.TryTrigger(epoch.Add(90 * time.Second))
	assert.False(t, ok, "restored event time keeps the interval")
}

func TestRestore_LegacyUnixEventTime(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"unlocked_achievements": ["a"], "last_event_time": 0}`), &rec))
	assert.True(t, rec.LastEventTime.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"last_event_time": 1735732800}`), &rec))
	assert.True(t, rec.LastEventTime.Equal(epoch))
}

func TestReset(t *testing.T) {
	f := newFixture(t, []catalog.EventDefinition{{ID: "always", Probability: ptr(1)}}, []catalog.AchievementDefinition{{ID: "a"}}, 0)
	f.engine.CheckAchievements(epoch)
	f.engine.TryTrigger(epoch)
	f.engine.Reset()
	assert.False(t, f.engine.IsUnlocked("a"))
	assert.True(t, f.engine.LastEventTime().IsZero())
}
