// Package savegame defines the versioned save document and moves state
// between it and the live components.
package savegame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jwebster45206/pet-engine/pkg/events"
	"github.com/jwebster45206/pet-engine/pkg/inventory"
	"github.com/jwebster45206/pet-engine/pkg/stats"
	"github.com/jwebster45206/pet-engine/pkg/timeutil"
)

// Version is written into every new document.
const Version = "2.0"

// ErrMalformed means the document is not valid JSON or has fields of the wrong type.
var ErrMalformed = errors.New("malformed save document")

// Document is the whole persisted state. Every field is optional on decode.
type Document struct {
	Version     string             `json:"version"`
	ID          string             `json:"id,omitempty"`
	SaveTime    timeutil.Timestamp `json:"save_time"`
	PetStats    stats.Record       `json:"pet_stats"`
	Inventory   Inventory          `json:"inventory"`
	EventSystem events.Record      `json:"event_system"`
}

// Inventory is the id -> quantity map. It also reads the older nested form
// {"inventory": {...}} and tolerates fractional counts.
type Inventory map[string]int

func (inv *Inventory) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*inv = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("inventory must be an object: %w", err)
	}
	if nested, ok := raw["inventory"]; ok && len(raw) == 1 {
		trimmed := bytes.TrimSpace(nested)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return inv.UnmarshalJSON(nested)
		}
	}

	out := make(Inventory, len(raw))
	for id, value := range raw {
		var qty float64
		if err := json.Unmarshal(value, &qty); err != nil {
			return fmt.Errorf("inventory quantity for %q: %w", id, err)
		}
		if math.IsNaN(qty) || qty < 1 {
			continue
		}
		out[id] = int(qty)
	}
	*inv = out
	return nil
}

// StatsState is the stat engine's serialization contract.
type StatsState interface {
	Record() stats.Record
	Restore(rec stats.Record, now time.Time)
}

// InventoryState is the inventory's serialization contract.
type InventoryState interface {
	Record() map[string]int
	Restore(rec map[string]int)
	Reset()
	Seed(starter []inventory.Stock)
}

// EventsState is the event engine's serialization contract.
type EventsState interface {
	Record() events.Record
	Restore(rec events.Record)
}

// Capture builds a document from the live components.
func Capture(id string, st StatsState, inv InventoryState, ev EventsState, now time.Time) Document {
	return Document{
		Version:     Version,
		ID:          id,
		SaveTime:    timeutil.At(now),
		PetStats:    st.Record(),
		Inventory:   Inventory(inv.Record()),
		EventSystem: ev.Record(),
	}
}

// Apply restores every component from doc. Missing fields fall back to fresh
// defaults and decay bookkeeping restarts at now. A document without an
// inventory gets the starter stock; an empty object stays empty.
func Apply(doc Document, st StatsState, inv InventoryState, ev EventsState, starter []inventory.Stock, now time.Time) {
	st.Restore(doc.PetStats, now)
	if doc.Inventory == nil {
		inv.Reset()
		inv.Seed(starter)
	} else {
		inv.Restore(map[string]int(doc.Inventory))
	}
	ev.Restore(doc.EventSystem)
}

// Marshal encodes doc as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save document: %w", err)
	}
	return data, nil
}

// Decode parses a document. Anything that is not a JSON object with
// correctly typed fields is ErrMalformed.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if doc.Version == "" {
		doc.Version = "1.0"
	}
	return doc, nil
}
