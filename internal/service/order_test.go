package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/kiwari-pos/terminal/internal/pricing"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

type mockBillBook struct {
	openFn    func(o bills.Order) (bills.Bill, error)
	revenueFn func() decimal.Decimal
}

func (m *mockBillBook) Open(o bills.Order) (bills.Bill, error) { return m.openFn(o) }
func (m *mockBillBook) Revenue() decimal.Decimal              { return m.revenueFn() }

// --- Helpers ---

const (
	grilledSalmon = 2
	caesarSalad   = 1
	room101       = 101 // carries an open order
	room102       = 102
)

var ctx = context.Background()

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T, book BillBook) *OrderService {
	t.Helper()
	svc := NewOrderService(catalog.Default(), book)
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 19, 0, 0, 0, time.UTC) }
	return svc
}

func mustAdd(t *testing.T, svc *OrderService, itemID int, sel pricing.Selection, qty int) uuid.UUID {
	t.Helper()
	line, err := svc.AddItem(itemID, sel, "", qty)
	if err != nil {
		t.Fatalf("add item %d: %v", itemID, err)
	}
	return line.ID
}

// --- Context selector ---

func TestSelectRoom_ClearsGuest(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")

	if err := svc.SelectRoom(room102); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := svc.Snapshot()
	if snap.Context.GuestName != "" || snap.Context.Room == nil || snap.Context.Room.ID != room102 {
		t.Errorf("context: got %+v", snap.Context)
	}
}

func TestSetGuestName_ClearsRoom(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SelectRoom(room102)

	svc.SetGuestName("  Ann ")
	snap := svc.Snapshot()
	if snap.Context.Room != nil || snap.Context.GuestName != "Ann" {
		t.Errorf("context: got %+v", snap.Context)
	}
}

func TestSetGuestName_EmptyKeepsRoom(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SelectRoom(room102)

	svc.SetGuestName("")
	snap := svc.Snapshot()
	if snap.Context.Room == nil || snap.Context.Room.ID != room102 {
		t.Errorf("room dropped by empty guest name: %+v", snap.Context)
	}
}

func TestSelectRoom_WithOpenOrderKeepsCart(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	mustAdd(t, svc, grilledSalmon, pricing.Selection{}, 1)

	if err := svc.SelectRoom(room101); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(svc.Snapshot().Lines); got != 1 {
		t.Errorf("cart lines after selecting room 101: got %d, want 1", got)
	}
}

func TestSelectRoom_WithoutOpenOrderClearsCart(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	mustAdd(t, svc, grilledSalmon, pricing.Selection{}, 1)

	if err := svc.SelectRoom(room102); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(svc.Snapshot().Lines); got != 0 {
		t.Errorf("cart lines after selecting room 102: got %d, want 0", got)
	}
}

func TestSelectRoom_Unknown(t *testing.T) {
	svc := newTestService(t, nil)
	if err := svc.SelectRoom(999); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got: %v", err)
	}
}

// --- Cart intents ---

func TestAddItem_NoContextRejected(t *testing.T) {
	svc := newTestService(t, nil)
	notified := 0
	svc.Subscribe(func(Snapshot) { notified++ })

	_, err := svc.AddItem(grilledSalmon, pricing.Selection{}, "", 1)
	if !errors.Is(err, ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got: %v", err)
	}
	if got := len(svc.Snapshot().Lines); got != 0 {
		t.Errorf("cart length changed to %d", got)
	}
	if notified != 0 {
		t.Errorf("rejected intent notified %d times", notified)
	}
}

func TestAddItem_Errors(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")

	if _, err := svc.AddItem(999, pricing.Selection{}, "", 1); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got: %v", err)
	}
	if _, err := svc.AddItem(grilledSalmon, pricing.Selection{Size: "Enormous"}, "", 1); !errors.Is(err, pricing.ErrUnknownOption) {
		t.Errorf("expected ErrUnknownOption, got: %v", err)
	}
}

func TestAddItem_CapturesModifiers(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")

	line, err := svc.AddItem(grilledSalmon, pricing.Selection{Size: "Large", Additions: []string{"Bacon"}}, "no butter", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(line.Modifiers) != 3 || line.Modifiers[0].Option != "Large" || line.Modifiers[1].Option != pricing.DefaultTemperature {
		t.Errorf("modifiers: got %+v", line.Modifiers)
	}
	view := svc.Snapshot().Lines[0]
	if !view.LinePrice.Equal(dec("65.96")) {
		t.Errorf("line price: got %s, want 65.96", view.LinePrice)
	}
}

func TestTotalsScenario(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	mustAdd(t, svc, grilledSalmon, pricing.Selection{Additions: []string{"Bacon"}}, 1)
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 2)

	totals := svc.Snapshot().Totals
	if !totals.Subtotal.Equal(dec("54.97")) || !totals.Tax.Equal(dec("5.497")) || !totals.Total.Equal(dec("60.467")) {
		t.Errorf("totals: got %+v", totals)
	}
}

func TestEditItem(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	id := mustAdd(t, svc, grilledSalmon, pricing.Selection{}, 1)
	svc.RequestDeletion(id)

	line, err := svc.EditItem(id, pricing.Selection{Temperature: "Rare", Additions: []string{"Avocado"}}, "edited", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.ID != id || line.Quantity != 3 || line.Note != "edited" {
		t.Errorf("edited line: got %+v", line)
	}
	if !line.Pending() {
		t.Error("edit cleared a pending deletion")
	}
	if snap := svc.Snapshot(); snap.PendingCount != 1 || !snap.Totals.Subtotal.IsZero() {
		t.Errorf("pending line counted after edit: pending %d subtotal %s", snap.PendingCount, snap.Totals.Subtotal)
	}

	if _, err := svc.EditItem(uuid.New(), pricing.Selection{}, "", 1); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got: %v", err)
	}
}

func TestLineOps_UnknownLine(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)
	before := svc.Snapshot()
	missing := uuid.New()

	ops := map[string]func() error{
		"remove":  func() error { return svc.RemoveLine(missing) },
		"request": func() error { return svc.RequestDeletion(missing) },
		"approve": func() error { return svc.ApproveDeletion(missing) },
		"deny":    func() error { return svc.DenyDeletion(missing) },
		"quantity": func() error {
			_, err := svc.ChangeQuantity(missing, 1)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, ErrLineNotFound) {
				t.Fatalf("expected ErrLineNotFound, got: %v", err)
			}
			if after := svc.Snapshot(); len(after.Lines) != len(before.Lines) || after.Lines[0].Quantity != 1 {
				t.Errorf("cart changed: %+v", after.Lines)
			}
		})
	}
}

func TestChangeQuantity_Floor(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	id := mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)

	line, err := svc.ChangeQuantity(id, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Quantity != 1 {
		t.Errorf("quantity: got %d, want 1", line.Quantity)
	}
	line, _ = svc.ChangeQuantity(id, 4)
	if line.Quantity != 5 {
		t.Errorf("quantity: got %d, want 5", line.Quantity)
	}
}

func TestDeletionApproval(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	keep := mustAdd(t, svc, caesarSalad, pricing.Selection{}, 2)
	target := mustAdd(t, svc, grilledSalmon, pricing.Selection{}, 1)

	svc.RequestDeletion(target)
	snap := svc.Snapshot()
	if snap.PendingCount != 1 || snap.ActiveCount != 1 {
		t.Fatalf("counts: active %d pending %d", snap.ActiveCount, snap.PendingCount)
	}
	if !snap.Totals.Subtotal.Equal(dec("25.98")) {
		t.Errorf("pending line counted: subtotal %s", snap.Totals.Subtotal)
	}
	if d := svc.Dashboard(); d.PendingApprovals != 1 || d.PendingOrders != 1 {
		t.Errorf("dashboard: got %+v", d)
	}

	if err := svc.DenyDeletion(target); err != nil {
		t.Fatalf("deny: %v", err)
	}
	if svc.Snapshot().PendingCount != 0 {
		t.Error("deny left line pending")
	}

	svc.RequestDeletion(target)
	if err := svc.ApproveDeletion(target); err != nil {
		t.Fatalf("approve: %v", err)
	}
	snap = svc.Snapshot()
	if len(snap.Lines) != 1 || snap.Lines[0].ID != keep {
		t.Errorf("lines after approve: %+v", snap.Lines)
	}
}

// --- Checkout ---

func TestPlaceOrder_ClearsCartAndContext(t *testing.T) {
	var opened bills.Order
	book := &mockBillBook{
		openFn: func(o bills.Order) (bills.Bill, error) {
			opened = o
			return bills.Bill{Number: "ORD-013"}, nil
		},
	}
	svc := newTestService(t, book)
	svc.SelectRoom(room102)
	mustAdd(t, svc, grilledSalmon, pricing.Selection{}, 1)
	pending := mustAdd(t, svc, caesarSalad, pricing.Selection{}, 2)
	svc.RequestDeletion(pending)

	placed, err := svc.PlaceOrder(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if placed.Number != "ORD-013" {
		t.Errorf("number: got %s", placed.Number)
	}
	if len(placed.Lines) != 1 || !placed.Totals.Subtotal.Equal(dec("28.99")) {
		t.Errorf("placed: got %+v", placed)
	}
	if opened.RoomID != room102 || len(opened.Items) != 1 || opened.Items[0].Name != "Grilled Salmon" {
		t.Errorf("bill order: got %+v", opened)
	}

	snap := svc.Snapshot()
	if len(snap.Lines) != 0 || snap.Context.IsSet() || snap.State != enum.OrderStateIdle {
		t.Errorf("terminal not reset: %+v", snap)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	if _, err := svc.PlaceOrder(ctx); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got: %v", err)
	}

	id := mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)
	svc.RequestDeletion(id)
	if _, err := svc.PlaceOrder(ctx); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("only pending lines: expected ErrEmptyCart, got: %v", err)
	}
}

func TestPlaceOrder_ContextClearedAfterAdding(t *testing.T) {
	opened := false
	book := &mockBillBook{
		openFn: func(o bills.Order) (bills.Bill, error) {
			opened = true
			return bills.Bill{Number: "ORD-099"}, nil
		},
	}
	svc := newTestService(t, book)
	svc.SetGuestName("Bob")
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)
	svc.SetGuestName("")

	if _, err := svc.PlaceOrder(ctx); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got: %v", err)
	}
	if opened {
		t.Error("bill opened without a room or guest")
	}
	if snap := svc.Snapshot(); len(snap.Lines) != 1 {
		t.Errorf("cart changed: %d lines", len(snap.Lines))
	}
}

func TestPlaceOrder_BookFailureKeepsCart(t *testing.T) {
	book := &mockBillBook{
		openFn: func(o bills.Order) (bills.Bill, error) {
			return bills.Bill{}, errors.New("book closed")
		},
	}
	svc := newTestService(t, book)
	svc.SetGuestName("Ann")
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)

	if _, err := svc.PlaceOrder(ctx); err == nil {
		t.Fatal("expected error")
	}
	snap := svc.Snapshot()
	if len(snap.Lines) != 1 || snap.Context.GuestName != "Ann" {
		t.Errorf("state changed on failure: %+v", snap)
	}
}

func TestPlaceOrder_LocalNumbering(t *testing.T) {
	svc := newTestService(t, nil)
	for _, want := range []string{"ORD-001", "ORD-002"} {
		svc.SetGuestName("Ann")
		mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)
		placed, err := svc.PlaceOrder(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if placed.Number != want {
			t.Errorf("got %s, want %s", placed.Number, want)
		}
	}
}

func TestPlaceOrder_IntoSeededBook(t *testing.T) {
	book := bills.Seeded()
	svc := newTestService(t, book)
	svc.SelectRoom(room101)
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)

	placed, err := svc.PlaceOrder(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if placed.Number != "ORD-003" {
		t.Errorf("room 101 order should join ORD-003, got %s", placed.Number)
	}
	bill, _ := book.Get("ORD-003")
	if len(bill.Items) != 5 {
		t.Errorf("bill items: got %d, want 5", len(bill.Items))
	}
}

func TestCancelOrder(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SelectRoom(room102)
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)

	if err := svc.CancelOrder(ctx, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got: %v", err)
	}
	if len(svc.Snapshot().Lines) != 1 {
		t.Fatal("unconfirmed cancel cleared the cart")
	}

	if err := svc.CancelOrder(ctx, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := svc.Snapshot()
	if len(snap.Lines) != 0 {
		t.Error("cart not cleared")
	}
	if snap.Context.Room == nil || snap.Context.Room.ID != room102 || snap.State != enum.OrderStateContextSet {
		t.Errorf("context not retained: %+v", snap)
	}
}

// --- Observation ---

func TestState(t *testing.T) {
	svc := newTestService(t, nil)
	if got := svc.State(); got != enum.OrderStateIdle {
		t.Errorf("got %s, want idle", got)
	}
	svc.SetGuestName("Ann")
	if got := svc.State(); got != enum.OrderStateContextSet {
		t.Errorf("got %s, want context_set", got)
	}
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)
	if got := svc.State(); got != enum.OrderStateBuilding {
		t.Errorf("got %s, want building", got)
	}
}

func TestSubscribe(t *testing.T) {
	svc := newTestService(t, nil)
	var got []Snapshot
	unsubscribe := svc.Subscribe(func(s Snapshot) { got = append(got, s) })

	svc.SetGuestName("Ann")
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)
	unsubscribe()
	mustAdd(t, svc, caesarSalad, pricing.Selection{}, 1)

	if len(got) != 2 {
		t.Fatalf("notifications: got %d, want 2", len(got))
	}
	if got[1].State != enum.OrderStateBuilding || len(got[1].Lines) != 1 {
		t.Errorf("second snapshot: %+v", got[1])
	}
}

func TestSubscribe_VersionsInOrder(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")

	var mu sync.Mutex
	var versions []uint64
	svc.Subscribe(func(s Snapshot) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.AddItem(caesarSalad, pricing.Selection{}, "", 1)
		}()
	}
	wg.Wait()

	if len(versions) != 20 {
		t.Fatalf("notifications: got %d, want 20", len(versions))
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] != versions[i-1]+1 {
			t.Fatalf("out of order: %v", versions)
		}
	}
	if got := svc.Snapshot().Version; got != versions[len(versions)-1] {
		t.Errorf("snapshot version %d, last notified %d", got, versions[len(versions)-1])
	}
}

func TestSnapshot_LinePriceUsesCapturedModifiers(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetGuestName("Ann")
	mustAdd(t, svc, grilledSalmon, pricing.Selection{Additions: []string{"Bacon", "Not On Menu"}}, 2)

	line := svc.Snapshot().Lines[0]
	// (28.99 + 3.99 + 0) * 2
	if !line.LinePrice.Equal(dec("65.96")) {
		t.Errorf("line price: got %s, want 65.96", line.LinePrice)
	}
	if !line.LinePrice.Equal(pricing.LineTotal(line.Price, line.Modifiers, line.Quantity)) {
		t.Error("line price not derived from the line's modifiers")
	}
}

func TestSubscriberMayReadState(t *testing.T) {
	svc := newTestService(t, nil)
	var state string
	svc.Subscribe(func(Snapshot) { state = svc.State() })

	svc.SetGuestName("Ann")
	if state != enum.OrderStateContextSet {
		t.Errorf("got %q", state)
	}
}

func TestDashboard(t *testing.T) {
	book := &mockBillBook{revenueFn: func() decimal.Decimal { return dec("30690") }}
	svc := newTestService(t, book)

	d := svc.Dashboard()
	if d.OccupiedRooms != 2 || d.AvailableRooms != 7 || d.UnpaidBills != 2 {
		t.Errorf("rooms: got %+v", d)
	}
	if !d.Revenue.Equal(dec("30690")) {
		t.Errorf("revenue: got %s", d.Revenue)
	}
}
