package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/kiwari-pos/terminal/internal/pricing"
)

// CatalogHandler serves the read-only menu, rooms and modifiers.
type CatalogHandler struct {
	cat *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{cat: cat}
}

// RegisterRoutes registers catalog endpoints. Expected to be mounted at /catalog.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Menu)
	r.Get("/rooms", h.Rooms)
	r.Get("/modifiers", h.Modifiers)
	r.Post("/menu/{id}/quote", h.Quote)
}

// --- Response types ---

type menuItemResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

type roomsResponse struct {
	Rooms  []catalog.Room     `json:"rooms"`
	Counts catalog.RoomCounts `json:"counts"`
}

type modifierOptionResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type modifierCategoryResponse struct {
	Name    string                   `json:"name"`
	Type    string                   `json:"type"`
	Options []modifierOptionResponse `json:"options"`
}

// selectionRequest is the body shape of the customization dialog, shared by
// the quote and the session line endpoints.
type selectionRequest struct {
	Size        string   `json:"size"`
	Temperature string   `json:"temperature"`
	Additions   []string `json:"additions"`
	Quantity    int      `json:"quantity"`
	Note        string   `json:"note"`
}

func (s selectionRequest) selection() pricing.Selection {
	return pricing.Selection{Size: s.Size, Temperature: s.Temperature, Additions: s.Additions}
}

type quoteResponse struct {
	ItemID    int                `json:"item_id"`
	Quantity  int                `json:"quantity"`
	Modifiers []modifierResponse `json:"modifiers"`
	LinePrice string             `json:"line_price"`
}

// --- Handlers ---

// Menu handles GET /catalog/menu?category=&q=.
func (h *CatalogHandler) Menu(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && category != enum.CategoryAll && !enum.IsMenuCategory(category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items := h.cat.FilterItems(category, r.URL.Query().Get("q"))
	resp := make([]menuItemResponse, len(items))
	for i, it := range items {
		resp[i] = toMenuItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Rooms handles GET /catalog/rooms?q=.
func (h *CatalogHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, roomsResponse{
		Rooms:  h.cat.FilterRooms(r.URL.Query().Get("q")),
		Counts: h.cat.RoomCounts(),
	})
}

// Modifiers handles GET /catalog/modifiers.
func (h *CatalogHandler) Modifiers(w http.ResponseWriter, r *http.Request) {
	cats := h.cat.Modifiers()
	resp := make([]modifierCategoryResponse, len(cats))
	for i, c := range cats {
		opts := make([]modifierOptionResponse, len(c.Options))
		for j, o := range c.Options {
			opts[j] = modifierOptionResponse{Name: o.Name, Price: money(o.Price)}
		}
		resp[i] = modifierCategoryResponse{Name: c.Name, Type: c.Type, Options: opts}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Quote handles POST /catalog/menu/{id}/quote. It prices a selection
// without touching the current order.
func (h *CatalogHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item id")
		return
	}
	item, ok := h.cat.Item(id)
	if !ok {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	mods, err := pricing.BuildModifiers(h.cat, req.selection())
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownOption) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, r, "quote", err)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		ItemID:    item.ID,
		Quantity:  req.Quantity,
		Modifiers: toModifierResponses(mods),
		LinePrice: money(pricing.ComputeLinePrice(h.cat, item.Price, req.Additions, req.Quantity)),
	})
}

// --- Helpers ---

func toMenuItemResponse(it catalog.MenuItem) menuItemResponse {
	return menuItemResponse{ID: it.ID, Name: it.Name, Price: money(it.Price), Category: it.Category}
}
