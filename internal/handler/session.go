package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/terminal/internal/cart"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/pricing"
	"github.com/kiwari-pos/terminal/internal/service"
)

// SessionServicer defines the order service methods needed by session handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type SessionServicer interface {
	Snapshot() service.Snapshot
	SelectRoom(roomID int) error
	SetGuestName(name string)
	AddItem(itemID int, sel pricing.Selection, note string, quantity int) (cart.Line, error)
	EditItem(lineID uuid.UUID, sel pricing.Selection, note string, quantity int) (cart.Line, error)
	ChangeQuantity(lineID uuid.UUID, delta int) (cart.Line, error)
	RemoveLine(lineID uuid.UUID) error
	RequestDeletion(lineID uuid.UUID) error
	ApproveDeletion(lineID uuid.UUID) error
	DenyDeletion(lineID uuid.UUID) error
	PlaceOrder(ctx context.Context) (*service.PlacedOrder, error)
	CancelOrder(ctx context.Context, confirmed bool) error
}

// SessionHandler exposes the order being built on the terminal.
type SessionHandler struct {
	svc SessionServicer
}

func NewSessionHandler(svc SessionServicer) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// RegisterRoutes registers session endpoints. Expected to be mounted at /session.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/room", h.SelectRoom)
	r.Put("/guest", h.SetGuest)
	r.Post("/lines", h.AddLine)
	r.Route("/lines/{lid}", func(r chi.Router) {
		r.Put("/", h.EditLine)
		r.Patch("/quantity", h.ChangeQuantity)
		r.Delete("/", h.RemoveLine)
		r.Post("/deletion", h.RequestDeletion)
		r.Post("/deletion/approve", h.ApproveDeletion)
		r.Post("/deletion/deny", h.DenyDeletion)
	})
	r.Post("/place", h.Place)
	r.Post("/cancel", h.Cancel)
}

// --- Request / Response types ---

type selectRoomRequest struct {
	RoomID int `json:"room_id"`
}

type guestRequest struct {
	GuestName string `json:"guest_name"`
}

type addLineRequest struct {
	ItemID int `json:"item_id"`
	selectionRequest
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

type cancelRequest struct {
	Confirm bool `json:"confirm"`
}

type modifierResponse struct {
	Category string `json:"category"`
	Option   string `json:"option"`
	Price    string `json:"price"`
}

type lineResponse struct {
	LineID         uuid.UUID          `json:"line_id"`
	ItemID         int                `json:"item_id"`
	Name           string             `json:"name"`
	Category       string             `json:"category"`
	Price          string             `json:"price"`
	Quantity       int                `json:"quantity"`
	Modifiers      []modifierResponse `json:"modifiers"`
	Note           string             `json:"note"`
	DeletionStatus string             `json:"deletion_status"`
	Selection      selectionResponse  `json:"selection"`
	LinePrice      string             `json:"line_price,omitempty"`
}

// selectionResponse prefills the customization dialog when a line is edited.
type selectionResponse struct {
	Size        string   `json:"size"`
	Temperature string   `json:"temperature"`
	Additions   []string `json:"additions"`
}

type contextResponse struct {
	Room      *catalog.Room `json:"room"`
	GuestName string        `json:"guest_name"`
}

type totalsResponse struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type snapshotResponse struct {
	Version      uint64          `json:"version"`
	State        string          `json:"state"`
	Context      contextResponse `json:"context"`
	Lines        []lineResponse  `json:"lines"`
	ActiveCount  int             `json:"active_count"`
	PendingCount int             `json:"pending_count"`
	Totals       totalsResponse  `json:"totals"`
}

type placedOrderResponse struct {
	OrderNumber string          `json:"order_number"`
	Context     contextResponse `json:"context"`
	Lines       []lineResponse  `json:"lines"`
	Totals      totalsResponse  `json:"totals"`
	PlacedAt    time.Time       `json:"placed_at"`
}

// --- Handlers ---

// Get handles GET /session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.svc.Snapshot()))
}

// SelectRoom handles PUT /session/room.
func (h *SessionHandler) SelectRoom(w http.ResponseWriter, r *http.Request) {
	var req selectRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoomID <= 0 {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}
	if err := h.svc.SelectRoom(req.RoomID); err != nil {
		writeSessionError(w, r, "select room", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.svc.Snapshot()))
}

// SetGuest handles PUT /session/guest. An empty name clears the guest only.
func (h *SessionHandler) SetGuest(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.svc.SetGuestName(req.GuestName)
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.svc.Snapshot()))
}

// AddLine handles POST /session/lines.
func (h *SessionHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID <= 0 {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	line, err := h.svc.AddItem(req.ItemID, req.selection(), req.Note, req.Quantity)
	if err != nil {
		writeSessionError(w, r, "add line", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLineResponse(line))
}

// EditLine handles PUT /session/lines/{lid}.
func (h *SessionHandler) EditLine(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLineID(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.svc.EditItem(id, req.selection(), req.Note, req.Quantity)
	if err != nil {
		writeSessionError(w, r, "edit line", err)
		return
	}
	writeJSON(w, http.StatusOK, toLineResponse(line))
}

// ChangeQuantity handles PATCH /session/lines/{lid}/quantity.
func (h *SessionHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLineID(w, r)
	if !ok {
		return
	}
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.svc.ChangeQuantity(id, req.Delta)
	if err != nil {
		writeSessionError(w, r, "change quantity", err)
		return
	}
	writeJSON(w, http.StatusOK, toLineResponse(line))
}

// RemoveLine handles DELETE /session/lines/{lid}.
func (h *SessionHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	h.lineAction(w, r, "remove line", h.svc.RemoveLine)
}

// RequestDeletion handles POST /session/lines/{lid}/deletion.
func (h *SessionHandler) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	h.lineAction(w, r, "request deletion", h.svc.RequestDeletion)
}

// ApproveDeletion handles POST /session/lines/{lid}/deletion/approve.
func (h *SessionHandler) ApproveDeletion(w http.ResponseWriter, r *http.Request) {
	h.lineAction(w, r, "approve deletion", h.svc.ApproveDeletion)
}

// DenyDeletion handles POST /session/lines/{lid}/deletion/deny.
func (h *SessionHandler) DenyDeletion(w http.ResponseWriter, r *http.Request) {
	h.lineAction(w, r, "deny deletion", h.svc.DenyDeletion)
}

func (h *SessionHandler) lineAction(w http.ResponseWriter, r *http.Request, op string, fn func(uuid.UUID) error) {
	id, ok := parseLineID(w, r)
	if !ok {
		return
	}
	if err := fn(id); err != nil {
		writeSessionError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.svc.Snapshot()))
}

// Place handles POST /session/place.
func (h *SessionHandler) Place(w http.ResponseWriter, r *http.Request) {
	placed, err := h.svc.PlaceOrder(r.Context())
	if err != nil {
		writeSessionError(w, r, "place order", err)
		return
	}
	writeJSON(w, http.StatusCreated, placedOrderResponse{
		OrderNumber: placed.Number,
		Context:     toContextResponse(placed.Context),
		Lines:       toLineResponses(placed.Lines),
		Totals:      toTotalsResponse(placed.Totals),
		PlacedAt:    placed.PlacedAt,
	})
}

// Cancel handles POST /session/cancel. The body must carry {"confirm": true}.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.CancelOrder(r.Context(), req.Confirm); err != nil {
		writeSessionError(w, r, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.svc.Snapshot()))
}

// --- Helpers ---

func parseLineID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeSessionError maps order service errors to HTTP statuses.
func writeSessionError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNoContext):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		internalError(w, r, op, err)
	}
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, pricing.ErrUnknownOption) ||
		errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrNotConfirmed)
}

func toSnapshotResponse(s service.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Version:      s.Version,
		State:        s.State,
		Context:      toContextResponse(s.Context),
		Lines:        make([]lineResponse, len(s.Lines)),
		ActiveCount:  s.ActiveCount,
		PendingCount: s.PendingCount,
		Totals:       toTotalsResponse(s.Totals),
	}
	for i, v := range s.Lines {
		resp.Lines[i] = toLineResponse(v.Line)
		resp.Lines[i].LinePrice = money(v.LinePrice)
	}
	return resp
}

func toContextResponse(c service.OrderContext) contextResponse {
	return contextResponse{Room: c.Room, GuestName: c.GuestName}
}

func toTotalsResponse(t pricing.Totals) totalsResponse {
	return totalsResponse{Subtotal: money(t.Subtotal), Tax: money(t.Tax), Total: money(t.Total)}
}

func toLineResponse(l cart.Line) lineResponse {
	return lineResponse{
		LineID:         l.ID,
		ItemID:         l.MenuItem.ID,
		Name:           l.Name,
		Category:       l.Category,
		Price:          money(l.Price),
		Quantity:       l.Quantity,
		Modifiers:      toModifierResponses(l.Modifiers),
		Note:           l.Note,
		DeletionStatus: l.DeletionStatus,
		Selection:      toSelectionResponse(pricing.SelectionFromModifiers(l.Modifiers)),
	}
}

func toSelectionResponse(sel pricing.Selection) selectionResponse {
	additions := sel.Additions
	if additions == nil {
		additions = []string{}
	}
	return selectionResponse{Size: sel.Size, Temperature: sel.Temperature, Additions: additions}
}

func toLineResponses(lines []cart.Line) []lineResponse {
	out := make([]lineResponse, len(lines))
	for i, l := range lines {
		out[i] = toLineResponse(l)
	}
	return out
}

func toModifierResponses(mods []pricing.Modifier) []modifierResponse {
	out := make([]modifierResponse, len(mods))
	for i, m := range mods {
		out[i] = modifierResponse{Category: m.Category, Option: m.Option, Price: money(m.Price)}
	}
	return out
}
