package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/config"
	"github.com/kiwari-pos/terminal/internal/router"
	"github.com/kiwari-pos/terminal/internal/service"
	"github.com/kiwari-pos/terminal/internal/ws"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type stubRates struct{}

func (stubRates) Refresh(ctx context.Context) decimal.Decimal { return decimal.NewFromInt(300) }
func (stubRates) Rate() decimal.Decimal                       { return decimal.NewFromInt(300) }

type testEnv struct {
	handler http.Handler
	hub     *ws.Hub
	orders  *service.OrderService
	book    *bills.Book
}

func setup(t *testing.T) testEnv {
	t.Helper()
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:5173"}}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	cat := catalog.Default()
	book := bills.Seeded()
	orders := service.NewOrderService(cat, book)
	t.Cleanup(router.PublishEvents(zerolog.Nop(), hub, orders, book))

	h := router.New(cfg, zerolog.Nop(), router.Deps{
		Catalog:  cat,
		Book:     book,
		Orders:   orders,
		Payments: service.NewPaymentService(book, stubRates{}, cfg.Payment),
		Hub:      hub,
	})
	return testEnv{handler: h, hub: hub, orders: orders, book: book}
}

func TestHealth(t *testing.T) {
	env := setup(t)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Errorf("body: got %s", rr.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setup(t)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("OPTIONS", "/session/lines", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			rr := httptest.NewRecorder()
			env.handler.ServeHTTP(rr, req)

			got := rr.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("allow-origin: got %q, want %q", got, tt.origin)
			}
			if !tt.allowed && got != "" {
				t.Errorf("allow-origin: got %q, want none", got)
			}
		})
	}
}

func dialTopic(t *testing.T, env testEnv, topic string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", topic, err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(time.Second)
	for env.hub.Subscribers(topic) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) ws.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// Queued events may share one frame; the first is enough here.
	first := strings.SplitN(string(msg), "\n", 2)[0]
	var ev ws.Event
	if err := json.Unmarshal([]byte(first), &ev); err != nil {
		t.Fatalf("unmarshal %s: %v", first, err)
	}
	return ev
}

func TestPublishEvents_Session(t *testing.T) {
	env := setup(t)
	conn := dialTopic(t, env, ws.TopicSession)

	if err := env.orders.SelectRoom(102); err != nil {
		t.Fatalf("select room: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != router.EventSessionUpdated {
		t.Fatalf("type: got %s", ev.Type)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(ev.Payload, &body); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if body["state"] != "context_set" {
		t.Errorf("state: got %v", body["state"])
	}
}

func TestPublishEvents_BillOpened(t *testing.T) {
	env := setup(t)
	conn := dialTopic(t, env, ws.TopicBills)

	_, err := env.book.Open(bills.Order{
		GuestName: "Ann",
		Items:     []bills.Item{{Name: "Tiramisu", Quantity: 1, Price: decimal.RequireFromString("11.99")}},
		At:        time.Date(2025, 12, 18, 19, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != router.EventBillOpened {
		t.Fatalf("type: got %s", ev.Type)
	}
	if !strings.Contains(string(ev.Payload), `"order_number":"ORD-013"`) {
		t.Errorf("payload: got %s", ev.Payload)
	}
}
