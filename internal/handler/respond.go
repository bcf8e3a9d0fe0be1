package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err with the request's logger and answers a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SessionBody renders a snapshot exactly as GET /session does, for pushing
// over the WebSocket hub.
func SessionBody(s service.Snapshot) interface{} {
	return toSnapshotResponse(s)
}

// BillBody renders a bill exactly as GET /bills/{number} does.
func BillBody(b bills.Bill) interface{} {
	return toBillResponse(b)
}
