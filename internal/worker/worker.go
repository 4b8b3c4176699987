package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/pet-engine/pkg/behavior"
	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/events"
	"github.com/jwebster45206/pet-engine/pkg/savegame"
)

const saveTimeout = 10 * time.Second

// ErrSaveInFlight is returned by Autosave when the previous write has not
// finished yet.
var ErrSaveInFlight = errors.New("save already in progress")

// Simulation is the part of the pet the scheduler drives.
type Simulation interface {
	ID() uuid.UUID
	TickStats()
	TickBehavior() behavior.State
	TickEvents() (*events.Fired, []catalog.AchievementDefinition)
	Capture() savegame.Document
}

// Saver writes a save document.
type Saver interface {
	SaveGame(ctx context.Context, id uuid.UUID, doc *savegame.Document) error
}

// Intervals holds the period of each periodic job.
type Intervals struct {
	Stats    time.Duration
	Behavior time.Duration
	Events   time.Duration
	Autosave time.Duration
}

// DefaultIntervals returns the stock periods.
func DefaultIntervals() Intervals {
	return Intervals{
		Stats:    time.Second,
		Behavior: 3 * time.Second,
		Events:   30 * time.Second,
		Autosave: 5 * time.Minute,
	}
}

// Scheduler drives a pet from independent tickers. All ticks run on one
// goroutine; autosave writes run on their own, one at a time.
type Scheduler struct {
	sim       Simulation
	saver     Saver
	intervals Intervals
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	// writeMu is held for the whole of a save write, possibly across
	// goroutines.
	writeMu  sync.Mutex
	lastSave atomic.Pointer[time.Time]
}

// New creates a new scheduler. saver may be nil to disable autosave.
func New(sim Simulation, saver Saver, intervals Intervals, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	def := DefaultIntervals()
	if intervals.Stats <= 0 {
		intervals.Stats = def.Stats
	}
	if intervals.Behavior <= 0 {
		intervals.Behavior = def.Behavior
	}
	if intervals.Events <= 0 {
		intervals.Events = def.Events
	}
	if intervals.Autosave <= 0 {
		intervals.Autosave = def.Autosave
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sim:       sim,
		saver:     saver,
		intervals: intervals,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs the tickers until Stop is called. It waits for an autosave
// still in flight before returning.
func (s *Scheduler) Start() error {
	s.log.Info("Scheduler starting",
		"pet_id", s.sim.ID(),
		"stats", s.intervals.Stats,
		"behavior", s.intervals.Behavior,
		"events", s.intervals.Events,
		"autosave", s.intervals.Autosave,
	)

	stats := time.NewTicker(s.intervals.Stats)
	defer stats.Stop()
	behave := time.NewTicker(s.intervals.Behavior)
	defer behave.Stop()
	evts := time.NewTicker(s.intervals.Events)
	defer evts.Stop()
	autosave := time.NewTicker(s.intervals.Autosave)
	defer autosave.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.Wait()
			s.log.Info("Scheduler shutting down", "pet_id", s.sim.ID())
			return nil
		case <-stats.C:
			s.sim.TickStats()
		case <-behave.C:
			st := s.sim.TickBehavior()
			s.log.Debug("Behavior changed", "behavior", st.Behavior, "token", st.Token())
		case <-evts.C:
			s.tickEvents()
		case <-autosave.C:
			if err := s.Autosave(); err != nil {
				s.log.Warn("Autosave skipped", "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the scheduler
func (s *Scheduler) Stop() {
	s.log.Info("Scheduler stop requested", "pet_id", s.sim.ID())
	s.cancel()
}

func (s *Scheduler) tickEvents() {
	fired, unlocked := s.sim.TickEvents()
	if fired != nil {
		s.log.Info("Event fired", "event_id", fired.EventID)
	}
	for _, a := range unlocked {
		s.log.Info("Achievement unlocked", "achievement_id", a.ID)
	}
}

// Autosave captures the pet now and writes it in the background. It returns
// ErrSaveInFlight without capturing when the previous write is still running.
func (s *Scheduler) Autosave() error {
	if s.saver == nil {
		return nil
	}
	if !s.writeMu.TryLock() {
		return ErrSaveInFlight
	}

	doc := s.sim.Capture()
	go func() {
		defer s.writeMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.saver.SaveGame(ctx, s.sim.ID(), &doc); err != nil {
			s.log.Error("Autosave failed", "pet_id", s.sim.ID(), "error", err)
			return
		}
		now := time.Now()
		s.lastSave.Store(&now)
		s.log.Info("Autosaved", "pet_id", s.sim.ID())
	}()
	return nil
}

// Wait blocks until any in-flight autosave has finished.
func (s *Scheduler) Wait() {
	s.writeMu.Lock()
	s.writeMu.Unlock()
}

// LastSave is the time of the last successful save, zero if none.
func (s *Scheduler) LastSave() time.Time {
	if t := s.lastSave.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// SaveNow captures and writes the pet synchronously, after any autosave in
// flight.
func (s *Scheduler) SaveNow(ctx context.Context) error {
	if s.saver == nil {
		return errors.New("no storage configured")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	doc := s.sim.Capture()
	if err := s.saver.SaveGame(ctx, s.sim.ID(), &doc); err != nil {
		return fmt.Errorf("failed to save pet: %w", err)
	}
	now := time.Now()
	s.lastSave.Store(&now)
	return nil
}
