// Package inventory tracks how many of each catalog item the player holds.
package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
)

var (
	ErrUnknownItem          = errors.New("unknown item")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
)

// Stock is an id and a quantity.
type Stock struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// DefaultStarter is what a newly created pet owns.
func DefaultStarter() []Stock {
	return []Stock{
		{"apple", 5},
		{"milk", 3},
		{"ball", 2},
		{"brush", 1},
	}
}

// Rand is the random source used to pick food and toys.
type Rand interface {
	IntN(n int) int
}

// Store holds item counts over the immutable food and item catalogs.
// It is not safe for concurrent use.
type Store struct {
	cat    *catalog.Catalog
	counts map[string]int
	rng    Rand
	logger *slog.Logger
}

// NewStore returns an empty store.
func NewStore(cat *catalog.Catalog, rng Rand, logger *slog.Logger) *Store {
	if cat == nil {
		cat = catalog.Empty()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cat:    cat,
		counts: make(map[string]int),
		rng:    rng,
		logger: logger,
	}
}

// Seed adds the starter stock. Ids the catalogs do not know are skipped.
func (s *Store) Seed(starter []Stock) {
	for _, st := range starter {
		if err := s.Add(st.ID, st.Quantity); err != nil {
			s.logger.Warn("Skipping starter item", "item_id", st.ID, "error", err)
		}
	}
}

// Add increases the count of id by qty.
func (s *Store) Add(id string, qty int) error {
	if !s.cat.Known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if qty < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	s.counts[id] += qty
	s.logger.Debug("Item added", "item_id", id, "quantity", qty, "count", s.counts[id])
	return nil
}

// Use consumes one of id. The key is removed when the count reaches zero.
func (s *Store) Use(id string) error {
	if !s.cat.Known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if s.counts[id] <= 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientQuantity, id)
	}
	s.counts[id]--
	if s.counts[id] == 0 {
		delete(s.counts, id)
	}
	s.logger.Debug("Item used", "item_id", id, "remaining", s.counts[id])
	return nil
}

// Count is 0 for ids not held.
func (s *Store) Count(id string) int {
	return s.counts[id]
}

// Info looks the id up in the food catalog, then the item catalog.
func (s *Store) Info(id string) (catalog.ItemInfo, bool) {
	return s.cat.Lookup(id)
}

// Snapshot returns a copy of the counts.
func (s *Store) Snapshot() map[string]int {
	return maps.Clone(s.counts)
}

// RandomFood picks uniformly among held foods. ok is false when none are held.
func (s *Store) RandomFood() (string, bool) {
	var held []string
	for _, id := range s.cat.Foods.IDs() {
		if s.counts[id] > 0 {
			held = append(held, id)
		}
	}
	return s.pick(held)
}

// RandomToy picks uniformly among held items of type toy.
func (s *Store) RandomToy() (string, bool) {
	var held []string
	for _, info := range s.cat.Items.Values() {
		if info.IsToy() && s.counts[info.ID] > 0 {
			held = append(held, info.ID)
		}
	}
	return s.pick(held)
}

func (s *Store) pick(ids []string) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	return ids[s.rng.IntN(len(ids))], true
}

// Record is the persisted form: id -> quantity.
func (s *Store) Record() map[string]int {
	return maps.Clone(s.counts)
}

// Restore replaces every count. Non-positive entries are dropped. Ids missing
// from the catalogs are kept so a degraded catalog load does not lose them.
func (s *Store) Restore(rec map[string]int) {
	s.counts = make(map[string]int, len(rec))
	for _, id := range slices.Sorted(maps.Keys(rec)) {
		qty := rec[id]
		if qty <= 0 {
			continue
		}
		if !s.cat.Known(id) {
			s.logger.Warn("Restored item is not in any catalog", "item_id", id, "quantity", qty)
		}
		s.counts[id] = qty
	}
}

// Reset empties the store.
func (s *Store) Reset() {
	s.counts = make(map[string]int)
}

// Food looks id up in the food catalog only.
func (s *Store) Food(id string) (catalog.ItemInfo, bool) {
	return s.cat.Foods.Get(id)
}
