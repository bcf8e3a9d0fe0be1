package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/cart"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/kiwari-pos/terminal/internal/notify"
	"github.com/kiwari-pos/terminal/internal/pricing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrNoContext    = errors.New("please select a room or guest to start an order")
	ErrItemNotFound = errors.New("menu item not found")
	ErrRoomNotFound = errors.New("room not found")
	ErrLineNotFound = errors.New("order line not found")
	ErrEmptyCart    = errors.New("order has no active lines")
	ErrNotConfirmed = errors.New("cancelling an order must be confirmed")
)

// BillBook receives placed orders and knows the takings so far.
// Satisfied by *bills.Book; narrow interface for testability.
type BillBook interface {
	Open(o bills.Order) (bills.Bill, error)
	Revenue() decimal.Decimal
}

// LineView is a cart line with its display price, additions included.
type LineView struct {
	cart.Line
	LinePrice decimal.Decimal `json:"line_price"`
}

// Snapshot is the full observable state of the terminal's current order.
type Snapshot struct {
	Version      uint64         `json:"version"`
	State        string         `json:"state"`
	Context      OrderContext   `json:"context"`
	Lines        []LineView     `json:"lines"`
	Pending      []LineView     `json:"pending"`
	ActiveCount  int            `json:"active_count"`
	PendingCount int            `json:"pending_count"`
	Totals       pricing.Totals `json:"totals"`
}

// PlacedOrder is what leaves the terminal when an order is placed.
type PlacedOrder struct {
	Number   string         `json:"order_number"`
	Context  OrderContext   `json:"context"`
	Lines    []cart.Line    `json:"lines"`
	Totals   pricing.Totals `json:"totals"`
	PlacedAt time.Time      `json:"placed_at"`
}

// Dashboard is the at-a-glance summary for the floor.
type Dashboard struct {
	OccupiedRooms    int             `json:"occupied_rooms"`
	AvailableRooms   int             `json:"available_rooms"`
	PendingOrders    int             `json:"pending_orders"`
	UnpaidBills      int             `json:"unpaid_bills"`
	PendingApprovals int             `json:"pending_approvals"`
	Revenue          decimal.Decimal `json:"revenue"`
}

// OrderService owns the context selector and the cart of one terminal.
// Every intent is applied under a single lock and, when it changed
// something, announced to subscribers after the lock is released.
type OrderService struct {
	catalog *catalog.Catalog
	book    BillBook
	now     func() time.Time

	mu       sync.Mutex
	selector contextSelector
	cart     *cart.Cart
	seq      int
	version  uint64

	// notifyMu is taken before mu is released so snapshots reach
	// subscribers in version order.
	notifyMu  sync.Mutex
	listeners notify.Listeners[Snapshot]
}

// NewOrderService creates an OrderService. book may be nil, in which case
// placed orders are numbered locally and not recorded anywhere.
func NewOrderService(cat *catalog.Catalog, book BillBook) *OrderService {
	return &OrderService{
		catalog: cat,
		book:    book,
		now:     time.Now,
		cart:    cart.New(),
		seq:     1,
	}
}

// Subscribe registers fn for every state change and returns a function that
// unsubscribes it. Snapshots arrive in Version order. fn may read the
// service but must not change it.
func (s *OrderService) Subscribe(fn func(Snapshot)) func() {
	return s.listeners.Subscribe(fn)
}

// AddItem adds a new line for a menu item. It is rejected with ErrNoContext
// while neither a room nor a guest is selected.
func (s *OrderService) AddItem(itemID int, sel pricing.Selection, note string, quantity int) (cart.Line, error) {
	var line cart.Line
	err := s.mutate(func() error {
		if !s.selector.current.IsSet() {
			return ErrNoContext
		}
		item, ok := s.catalog.Item(itemID)
		if !ok {
			return ErrItemNotFound
		}
		mods, err := pricing.BuildModifiers(s.catalog, sel)
		if err != nil {
			return err
		}
		id := s.cart.Add(item, mods, note, quantity)
		line, _ = s.cart.Line(id)
		return nil
	})
	return line, err
}

// EditItem replaces the configuration of an existing line.
func (s *OrderService) EditItem(lineID uuid.UUID, sel pricing.Selection, note string, quantity int) (cart.Line, error) {
	var line cart.Line
	err := s.mutate(func() error {
		if _, ok := s.cart.Line(lineID); !ok {
			return ErrLineNotFound
		}
		mods, err := pricing.BuildModifiers(s.catalog, sel)
		if err != nil {
			return err
		}
		s.cart.Edit(lineID, mods, note, quantity)
		line, _ = s.cart.Line(lineID)
		return nil
	})
	return line, err
}

// ChangeQuantity adjusts a line's quantity by delta, never below 1.
func (s *OrderService) ChangeQuantity(lineID uuid.UUID, delta int) (cart.Line, error) {
	var line cart.Line
	err := s.mutate(func() error {
		if !s.cart.ChangeQuantity(lineID, delta) {
			return ErrLineNotFound
		}
		line, _ = s.cart.Line(lineID)
		return nil
	})
	return line, err
}

func (s *OrderService) RemoveLine(lineID uuid.UUID) error {
	return s.lineOp(lineID, s.cart.Remove)
}

func (s *OrderService) RequestDeletion(lineID uuid.UUID) error {
	return s.lineOp(lineID, s.cart.RequestDeletion)
}

func (s *OrderService) ApproveDeletion(lineID uuid.UUID) error {
	return s.lineOp(lineID, s.cart.ApproveDeletion)
}

func (s *OrderService) DenyDeletion(lineID uuid.UUID) error {
	return s.lineOp(lineID, s.cart.DenyDeletion)
}

func (s *OrderService) lineOp(lineID uuid.UUID, op func(uuid.UUID) bool) error {
	return s.mutate(func() error {
		if !op(lineID) {
			return ErrLineNotFound
		}
		return nil
	})
}

// SelectRoom makes a room the order context. Selecting a room that carries
// no open order starts a fresh cart.
func (s *OrderService) SelectRoom(roomID int) error {
	return s.mutate(func() error {
		room, ok := s.catalog.Room(roomID)
		if !ok {
			return ErrRoomNotFound
		}
		if s.selector.selectRoom(room) {
			s.cart.Clear()
		}
		return nil
	})
}

// SetGuestName switches the context to a walk-in guest. An empty name only
// clears the guest.
func (s *OrderService) SetGuestName(name string) {
	s.mutate(func() error {
		s.selector.setGuestName(name)
		return nil
	})
}

// PlaceOrder sends the active lines off and resets the terminal: both the
// cart and the context are cleared. Without active lines or without a room
// or guest there is nothing to place.
func (s *OrderService) PlaceOrder(ctx context.Context) (*PlacedOrder, error) {
	var placed *PlacedOrder
	err := s.mutate(func() error {
		active := s.cart.ActiveLines()
		if len(active) == 0 || !s.selector.current.IsSet() {
			return ErrEmptyCart
		}

		order := &PlacedOrder{
			Context:  s.selector.current.clone(),
			Lines:    active,
			Totals:   s.cart.Totals(),
			PlacedAt: s.now(),
		}
		if s.book != nil {
			bill, err := s.book.Open(toBillOrder(order))
			if err != nil {
				return err
			}
			order.Number = bill.Number
		} else {
			order.Number = bills.FormatOrderNumber(s.seq)
			s.seq++
		}

		s.cart.Clear()
		s.selector.reset()
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("order_number", placed.Number).
		Int("lines", len(placed.Lines)).
		Str("total", placed.Totals.Total.StringFixed(2)).
		Msg("order placed")
	return placed, nil
}

// CancelOrder empties the cart once the cashier has confirmed. The selected
// room or guest stays.
func (s *OrderService) CancelOrder(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	var dropped int
	err := s.mutate(func() error {
		dropped = s.cart.Len()
		s.cart.Clear()
		return nil
	})
	if err == nil {
		zerolog.Ctx(ctx).Info().Int("lines", dropped).Msg("order cancelled")
	}
	return err
}

// State derives the order state from context and cart.
func (s *OrderService) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *OrderService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Dashboard summarizes rooms, the current order and the takings.
func (s *OrderService) Dashboard() Dashboard {
	counts := s.catalog.RoomCounts()
	d := Dashboard{
		OccupiedRooms:  counts.Occupied,
		AvailableRooms: counts.Available,
		UnpaidBills:    s.catalog.RoomsWithOrders(),
		Revenue:        decimal.Zero,
	}
	if s.book != nil {
		d.Revenue = s.book.Revenue()
	}

	s.mu.Lock()
	d.PendingOrders = len(s.cart.ActiveLines())
	d.PendingApprovals = len(s.cart.PendingLines())
	s.mu.Unlock()
	return d
}

// mutate runs fn under the lock and notifies subscribers when fn succeeded.
func (s *OrderService) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.version++
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.listeners.Notify(snap)
	s.notifyMu.Unlock()
	return nil
}

func (s *OrderService) stateLocked() string {
	switch {
	case s.cart.Len() > 0:
		return enum.OrderStateBuilding
	case s.selector.current.IsSet():
		return enum.OrderStateContextSet
	default:
		return enum.OrderStateIdle
	}
}

func (s *OrderService) snapshotLocked() Snapshot {
	lines := s.cart.Lines()
	snap := Snapshot{
		Version: s.version,
		State:   s.stateLocked(),
		Context: s.selector.current.clone(),
		Lines:   make([]LineView, 0, len(lines)),
		Pending: []LineView{},
		Totals:  s.cart.Totals(),
	}
	for _, l := range lines {
		view := LineView{Line: l, LinePrice: pricing.LineTotal(l.Price, l.Modifiers, l.Quantity)}
		snap.Lines = append(snap.Lines, view)
		if l.Pending() {
			snap.Pending = append(snap.Pending, view)
		}
	}
	snap.PendingCount = len(snap.Pending)
	snap.ActiveCount = len(snap.Lines) - snap.PendingCount
	return snap
}

func toBillOrder(o *PlacedOrder) bills.Order {
	out := bills.Order{At: o.PlacedAt, GuestName: o.Context.GuestName}
	if o.Context.Room != nil {
		out.RoomID = o.Context.Room.ID
	}
	for _, l := range o.Lines {
		out.Items = append(out.Items, bills.Item{Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	return out
}
