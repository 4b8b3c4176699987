package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/pet-engine/pkg/behavior"
	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/interaction"
	"github.com/jwebster45206/pet-engine/pkg/inventory"
	"github.com/jwebster45206/pet-engine/pkg/notify"
	"github.com/jwebster45206/pet-engine/pkg/pet"
	"github.com/jwebster45206/pet-engine/pkg/savegame"
	"github.com/jwebster45206/pet-engine/pkg/storage"
)

const maxBodyBytes = 1 << 20

// Pet is the simulation surface the API exposes.
type Pet interface {
	ID() uuid.UUID
	Catalog() *catalog.Catalog
	Status() pet.Status
	Inventory() map[string]int
	Interact(action interaction.Action, foodID string) (interaction.Result, error)
	ForceFlip(edge behavior.Edge) behavior.State
	Notifications() *notify.Queue
	Achievements() pet.AchievementReport
	Restore(doc savegame.Document)
	Reset()
}

// Saver writes the pet's current state to its save slot.
type Saver interface {
	SaveNow(ctx context.Context) error
}

type InteractRequest struct {
	FoodID string `json:"food_id,omitempty"`
}

type InteractResponse struct {
	Result interaction.Result `json:"result"`
	Status pet.Status         `json:"status"`
}

type BoundaryRequest struct {
	Edge string `json:"edge"`
}

type InventoryEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Food     bool   `json:"food"`
	Quantity int    `json:"quantity"`
}

type InventoryResponse struct {
	Inventory map[string]int   `json:"inventory"`
	Items     []InventoryEntry `json:"items"`
}

type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
	Dropped       int                   `json:"dropped"`
}

type SaveResponse struct {
	PetID  uuid.UUID `json:"pet_id"`
	Exists bool      `json:"exists"`
}

type PetHandler struct {
	pet     Pet
	storage storage.Storage
	saver   Saver
	logger  *slog.Logger
}

func NewPetHandler(p Pet, storage storage.Storage, saver Saver, logger *slog.Logger) *PetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PetHandler{
		pet:     p,
		storage: storage,
		saver:   saver,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for the pet
// Routes:
// GET    /v1/pet                   - Status snapshot
// GET    /v1/pet/inventory         - Item counts
// POST   /v1/pet/interact/{action} - feed, play, pet, clean or rest
// POST   /v1/pet/boundary          - Report a screen edge collision
// GET    /v1/pet/notifications     - Drain notifications (?peek=true keeps them)
// GET    /v1/pet/achievements      - Progress and unlocked achievements
// GET    /v1/pet/save              - Whether a save exists
// POST   /v1/pet/save              - Save now
// DELETE /v1/pet/save              - Delete the save
// POST   /v1/pet/load              - Restore from the save
// POST   /v1/pet/reset             - Start over with a newborn pet
func (h *PetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/pet"), "/")
	route, rest, _ := strings.Cut(path, "/")

	switch {
	case route == "" && r.Method == http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, h.pet.Status())
	case route == "inventory" && r.Method == http.MethodGet:
		h.handleInventory(w)
	case route == "interact" && r.Method == http.MethodPost:
		h.handleInteract(w, r, rest)
	case route == "boundary" && r.Method == http.MethodPost:
		h.handleBoundary(w, r)
	case route == "notifications" && r.Method == http.MethodGet:
		h.handleNotifications(w, r)
	case route == "achievements" && r.Method == http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, h.pet.Achievements())
	case route == "save":
		h.handleSave(w, r)
	case route == "load" && r.Method == http.MethodPost:
		h.handleLoad(w, r)
	case route == "reset" && r.Method == http.MethodPost:
		h.pet.Reset()
		h.pet.Notifications().Publish(notify.New(notify.KindSystem, "New pet", "A new pet has hatched", time.Now()))
		writeJSON(w, h.logger, http.StatusOK, h.pet.Status())
	case isKnownRoute(route):
		h.logger.Warn("Method not allowed for pet endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func isKnownRoute(route string) bool {
	switch route {
	case "", "inventory", "interact", "boundary", "notifications", "achievements", "save", "load", "reset":
		return true
	}
	return false
}

func (h *PetHandler) handleInventory(w http.ResponseWriter) {
	counts := h.pet.Inventory()
	cat := h.pet.Catalog()

	items := make([]InventoryEntry, 0, len(counts))
	add := func(info catalog.ItemInfo, food bool) {
		if qty, ok := counts[info.ID]; ok {
			items = append(items, InventoryEntry{ID: info.ID, Name: info.Name, Type: info.Type, Food: food, Quantity: qty})
		}
	}
	for _, info := range cat.Foods.Values() {
		add(info, true)
	}
	for _, info := range cat.Items.Values() {
		if !cat.Foods.Has(info.ID) {
			add(info, false)
		}
	}

	writeJSON(w, h.logger, http.StatusOK, InventoryResponse{Inventory: counts, Items: items})
}

func (h *PetHandler) handleInteract(w http.ResponseWriter, r *http.Request, name string) {
	action, err := interaction.ParseAction(name)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	var req InteractRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	result, err := h.pet.Interact(action, req.FoodID)
	if err != nil {
		h.writeInteractError(w, action, err)
		return
	}

	h.logger.Info("Interaction performed", "action", action, "item", result.Item)
	writeJSON(w, h.logger, http.StatusOK, InteractResponse{Result: result, Status: h.pet.Status()})
}

func (h *PetHandler) writeInteractError(w http.ResponseWriter, action interaction.Action, err error) {
	var cooldown *interaction.CooldownError
	switch {
	case errors.As(err, &cooldown):
		secs := cooldown.Remaining.Seconds()
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(secs))))
		writeJSON(w, h.logger, http.StatusTooManyRequests, ErrorResponse{Error: err.Error(), RemainingSeconds: secs})
	case errors.Is(err, inventory.ErrUnknownItem):
		writeError(w, h.logger, http.StatusNotFound, err.Error())
	case errors.Is(err, interaction.ErrNoItem), errors.Is(err, inventory.ErrInsufficientQuantity):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Interaction failed", "action", action, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Interaction failed")
	}
}

func (h *PetHandler) handleBoundary(w http.ResponseWriter, r *http.Request) {
	var req BoundaryRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}
	edge, err := behavior.ParseEdge(req.Edge)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.pet.ForceFlip(edge))
}

func (h *PetHandler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	q := h.pet.Notifications()
	var list []notify.Notification
	if peek, _ := strconv.ParseBool(r.URL.Query().Get("peek")); peek {
		list = q.Pending()
	} else {
		list = q.Drain()
	}
	writeJSON(w, h.logger, http.StatusOK, NotificationsResponse{Notifications: list, Dropped: q.Dropped()})
}

func (h *PetHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	id := h.pet.ID()
	switch r.Method {
	case http.MethodGet:
		exists, err := h.storage.GameExists(r.Context(), id)
		if err != nil {
			h.logger.Error("Failed to check save", "pet_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to check save")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, SaveResponse{PetID: id, Exists: exists})

	case http.MethodPost:
		if err := h.saver.SaveNow(r.Context()); err != nil {
			h.logger.Error("Failed to save pet", "pet_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save pet")
			return
		}
		h.pet.Notifications().Publish(notify.New(notify.KindSystem, "Game saved", "", time.Now()))
		writeJSON(w, h.logger, http.StatusOK, SaveResponse{PetID: id, Exists: true})

	case http.MethodDelete:
		if err := h.storage.DeleteGame(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, h.logger, http.StatusNotFound, "No save to delete")
				return
			}
			h.logger.Error("Failed to delete save", "pet_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete save")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST, DELETE")
	}
}

func (h *PetHandler) handleLoad(w http.ResponseWriter, r *http.Request) {
	id := h.pet.ID()
	doc, err := h.storage.LoadGame(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "No save found")
		return
	case errors.Is(err, savegame.ErrMalformed):
		h.logger.Warn("Save is malformed", "pet_id", id, "error", err)
		writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Error("Failed to load save", "pet_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load save")
		return
	}

	h.pet.Restore(*doc)
	h.pet.Notifications().Publish(notify.New(notify.KindSystem, "Game loaded", "", time.Now()))
	writeJSON(w, h.logger, http.StatusOK, h.pet.Status())
}

// decodeOptional reads a JSON body into v. An empty body leaves v as is.
func (h *PetHandler) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
