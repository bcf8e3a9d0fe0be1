package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/payment"
	"github.com/kiwari-pos/terminal/internal/service"
	"github.com/shopspring/decimal"
)

// BillStore defines the bill book methods needed by bill handlers.
// Satisfied by *bills.Book; narrow interface for testability.
type BillStore interface {
	List() []bills.Bill
	Get(number string) (bills.Bill, error)
	History(date string) ([]bills.Entry, error)
	HistoryByDate() []bills.Day
}

// PaymentServicer defines the payment service methods needed by bill handlers.
// Satisfied by *service.PaymentService; narrow interface for testability.
type PaymentServicer interface {
	Quote(ctx context.Context, number, method string) (payment.Quote, error)
	Pay(ctx context.Context, req service.PayRequest) (*service.Receipt, error)
}

// BillHandler serves open table bills, their payment and the paid history.
type BillHandler struct {
	store BillStore
	svc   PaymentServicer
}

func NewBillHandler(store BillStore, svc PaymentServicer) *BillHandler {
	return &BillHandler{store: store, svc: svc}
}

// RegisterRoutes registers bill endpoints. Expected to be mounted at /bills.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/history", h.History)
	r.Get("/{number}", h.Get)
	r.Get("/{number}/quote", h.Quote)
	r.Post("/{number}/payments", h.Pay)
}

// --- Request / Response types ---

type billItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type billResponse struct {
	OrderNumber string             `json:"order_number"`
	RoomID      int                `json:"room_id,omitempty"`
	GuestName   string             `json:"guest_name"`
	Label       string             `json:"label"`
	Status      string             `json:"status"`
	StartTime   string             `json:"start_time"`
	Items       []billItemResponse `json:"items"`
	Totals      totalsResponse     `json:"totals"`
}

type historyEntryResponse struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"order_number,omitempty"`
	Table         string    `json:"table"`
	Subtotal      string    `json:"subtotal"`
	Tax           string    `json:"tax"`
	Total         string    `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	PaidAt        time.Time `json:"paid_at"`
}

type historyDayResponse struct {
	Date    string                 `json:"date"`
	Entries []historyEntryResponse `json:"entries"`
}

type quoteResponseBody struct {
	Method       string `json:"method"`
	BaseUSD      string `json:"base_usd"`
	SurchargeUSD string `json:"surcharge_usd"`
	TotalUSD     string `json:"total_usd"`
	Rate         string `json:"rate"`
	TotalLKR     string `json:"total_lkr"`
}

type payRequest struct {
	PaymentMethod  string `json:"payment_method"`
	AmountReceived string `json:"amount_received"`
}

type receiptResponse struct {
	Entry       historyEntryResponse `json:"entry"`
	Quote       quoteResponseBody    `json:"quote"`
	ReceivedLKR string               `json:"received_lkr"`
	ChangeLKR   string               `json:"change_lkr"`
}

// --- Handlers ---

// List handles GET /bills.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	open := h.store.List()
	resp := make([]billResponse, len(open))
	for i, b := range open {
		resp[i] = toBillResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /bills/{number}.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	bill, err := h.store.Get(chi.URLParam(r, "number"))
	if err != nil {
		writeBillError(w, r, "get bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

// History handles GET /bills/history?date=YYYY-MM-DD. Without a date the
// history is grouped by day.
func (h *BillHandler) History(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		days := h.store.HistoryByDate()
		resp := make([]historyDayResponse, len(days))
		for i, d := range days {
			resp[i] = historyDayResponse{Date: d.Date, Entries: toHistoryResponses(d.Entries)}
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	entries, err := h.store.History(date)
	if err != nil {
		writeBillError(w, r, "bill history", err)
		return
	}
	writeJSON(w, http.StatusOK, []historyDayResponse{{Date: date, Entries: toHistoryResponses(entries)}})
}

// Quote handles GET /bills/{number}/quote?method=cash|card.
func (h *BillHandler) Quote(w http.ResponseWriter, r *http.Request) {
	method := strings.ToLower(r.URL.Query().Get("method"))
	if method == "" {
		writeError(w, http.StatusBadRequest, "method is required")
		return
	}

	q, err := h.svc.Quote(r.Context(), chi.URLParam(r, "number"), method)
	if err != nil {
		writeBillError(w, r, "quote bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

// Pay handles POST /bills/{number}/payments.
func (h *BillHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, "payment_method is required")
		return
	}

	received := decimal.Zero
	if req.AmountReceived != "" {
		var err error
		received, err = decimal.NewFromString(req.AmountReceived)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount_received")
			return
		}
	}

	receipt, err := h.svc.Pay(r.Context(), service.PayRequest{
		Number:      chi.URLParam(r, "number"),
		Method:      strings.ToLower(req.PaymentMethod),
		ReceivedLKR: received,
	})
	if err != nil {
		writeBillError(w, r, "pay bill", err)
		return
	}

	writeJSON(w, http.StatusCreated, receiptResponse{
		Entry:       toHistoryResponse(receipt.Entry),
		Quote:       toQuoteResponse(receipt.Quote),
		ReceivedLKR: money(receipt.ReceivedLKR),
		ChangeLKR:   money(receipt.ChangeLKR),
	})
}

// --- Helpers ---

func writeBillError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, bills.ErrBillNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bills.ErrBillChanged):
		writeError(w, http.StatusConflict, "bill changed during payment, quote it again")
	case errors.Is(err, bills.ErrInvalidDate),
		errors.Is(err, payment.ErrInvalidMethod),
		errors.Is(err, service.ErrInsufficientCash):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		internalError(w, r, op, err)
	}
}

func toBillResponse(b bills.Bill) billResponse {
	items := make([]billItemResponse, len(b.Items))
	for i, it := range b.Items {
		items[i] = billItemResponse{ID: it.ID, Name: it.Name, Quantity: it.Quantity, Price: money(it.Price)}
	}
	return billResponse{
		OrderNumber: b.Number,
		RoomID:      b.RoomID,
		GuestName:   b.GuestName,
		Label:       b.Label(),
		Status:      b.Status,
		StartTime:   b.StartTime,
		Items:       items,
		Totals:      toTotalsResponse(b.Totals()),
	}
}

func toHistoryResponse(e bills.Entry) historyEntryResponse {
	return historyEntryResponse{
		ID:            e.ID,
		OrderNumber:   e.Number,
		Table:         e.Table,
		Subtotal:      money(e.Subtotal),
		Tax:           money(e.Tax),
		Total:         money(e.Total),
		PaymentMethod: e.PaymentMethod,
		Status:        e.Status,
		PaidAt:        e.PaidAt,
	}
}

func toHistoryResponses(entries []bills.Entry) []historyEntryResponse {
	out := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toHistoryResponse(e)
	}
	return out
}

func toQuoteResponse(q payment.Quote) quoteResponseBody {
	return quoteResponseBody{
		Method:       q.Method,
		BaseUSD:      money(q.BaseUSD),
		SurchargeUSD: money(q.Surcharge),
		TotalUSD:     money(q.TotalUSD),
		Rate:         money(q.Rate),
		TotalLKR:     money(q.TotalLKR),
	}
}
