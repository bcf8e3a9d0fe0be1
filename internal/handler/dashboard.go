package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/service"
)

// DashboardProvider is satisfied by *service.OrderService.
type DashboardProvider interface {
	Dashboard() service.Dashboard
}

type DashboardHandler struct {
	src DashboardProvider
}

func NewDashboardHandler(src DashboardProvider) *DashboardHandler {
	return &DashboardHandler{src: src}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Get)
}

type dashboardResponse struct {
	OccupiedRooms    int    `json:"occupied_rooms"`
	AvailableRooms   int    `json:"available_rooms"`
	PendingOrders    int    `json:"pending_orders"`
	UnpaidBills      int    `json:"unpaid_bills"`
	PendingApprovals int    `json:"pending_approvals"`
	Revenue          string `json:"revenue"`
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	d := h.src.Dashboard()
	writeJSON(w, http.StatusOK, dashboardResponse{
		OccupiedRooms:    d.OccupiedRooms,
		AvailableRooms:   d.AvailableRooms,
		PendingOrders:    d.PendingOrders,
		UnpaidBills:      d.UnpaidBills,
		PendingApprovals: d.PendingApprovals,
		Revenue:          money(d.Revenue),
	})
}
