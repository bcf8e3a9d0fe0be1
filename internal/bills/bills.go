// Package bills keeps the open table bills and the paid bill history.
package bills

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/kiwari-pos/terminal/internal/notify"
	"github.com/kiwari-pos/terminal/internal/pricing"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	ErrBillNotFound = errors.New("bill not found")
	ErrEmptyOrder   = errors.New("order has no items")
	ErrInvalidDate  = errors.New("date must be YYYY-MM-DD")
	ErrInvalidBill  = errors.New("invalid bill")
	ErrBillChanged  = errors.New("bill changed since it was quoted")
)

// Change kinds published to subscribers.
const (
	ChangeOpened  = "opened"
	ChangeUpdated = "updated"
	ChangeSettled = "settled"
)

type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Bill is an open tab. RoomID is zero for walk-in guests.
type Bill struct {
	Number    string `json:"order_number"`
	RoomID    int    `json:"room_id,omitempty"`
	GuestName string `json:"guest_name"`
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
	Items     []Item `json:"items"`
}

func (b Bill) Totals() pricing.Totals {
	amounts := make([]pricing.Amount, len(b.Items))
	for i, it := range b.Items {
		amounts[i] = pricing.Amount{Price: it.Price, Quantity: it.Quantity}
	}
	return pricing.TotalsFor(amounts)
}

// Label names the bill the way receipts and history do.
func (b Bill) Label() string {
	if b.RoomID != 0 {
		return fmt.Sprintf("Room %d", b.RoomID)
	}
	return b.GuestName
}

// Order is a placed order handed to the book.
type Order struct {
	RoomID    int
	GuestName string
	Items     []Item
	At        time.Time
}

// Entry is a settled bill.
type Entry struct {
	ID            string          `json:"id"`
	Number        string          `json:"order_number,omitempty"`
	Table         string          `json:"table"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	PaidAt        time.Time       `json:"paid_at"`
}

// Day is one date group of the history, newest entry first.
type Day struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

type Change struct {
	Kind string `json:"kind"`
	Bill Bill   `json:"bill"`
}

// Book is safe for concurrent use.
type Book struct {
	mu        sync.Mutex
	open      []Bill
	history   []Entry
	nextOrder int
	nextItem  int

	listeners notify.Listeners[Change]
}

// NewBook creates a book from existing open bills and history. Order
// numbers continue after the highest ORD-nnn among the open bills.
func NewBook(open []Bill, history []Entry) (*Book, error) {
	b := &Book{nextOrder: 1, nextItem: 1}
	seen := make(map[string]bool, len(open))
	for i, bill := range open {
		if bill.Number == "" || seen[bill.Number] {
			return nil, fmt.Errorf("bill[%d] %q: %w", i, bill.Number, ErrInvalidBill)
		}
		seen[bill.Number] = true
		if n, ok := parseOrderNumber(bill.Number); ok && n >= b.nextOrder {
			b.nextOrder = n + 1
		}
		for _, it := range bill.Items {
			if n, err := strconv.Atoi(it.ID); err == nil && n >= b.nextItem {
				b.nextItem = n + 1
			}
		}
		b.open = append(b.open, cloneBill(bill))
	}
	b.history = append(b.history, history...)
	return b, nil
}

// FormatOrderNumber renders n as ORD-001.
func FormatOrderNumber(n int) string {
	return fmt.Sprintf("ORD-%03d", n)
}

func parseOrderNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "ORD-"))
	if err != nil || !strings.HasPrefix(s, "ORD-") {
		return 0, false
	}
	return n, true
}

// Open records a placed order. An order for a room that already has an open
// bill is appended to that bill; anything else opens a new dining bill.
func (b *Book) Open(o Order) (Bill, error) {
	if len(o.Items) == 0 {
		return Bill{}, ErrEmptyOrder
	}

	b.mu.Lock()
	kind := ChangeOpened
	idx := -1
	if o.RoomID != 0 {
		idx = b.indexByRoom(o.RoomID)
	}
	if idx < 0 {
		b.open = append(b.open, Bill{
			Number:    FormatOrderNumber(b.nextOrder),
			RoomID:    o.RoomID,
			GuestName: o.GuestName,
			Status:    enum.BillStatusDining,
			StartTime: o.At.Format("15:04"),
		})
		b.nextOrder++
		idx = len(b.open) - 1
	} else {
		kind = ChangeUpdated
	}
	for _, it := range o.Items {
		it.ID = strconv.Itoa(b.nextItem)
		b.nextItem++
		b.open[idx].Items = append(b.open[idx].Items, it)
	}
	bill := cloneBill(b.open[idx])
	b.mu.Unlock()

	b.listeners.Notify(Change{Kind: kind, Bill: bill})
	return bill, nil
}

// List returns the open bills in the order they were opened.
func (b *Book) List() []Bill {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Bill, len(b.open))
	for i, bill := range b.open {
		out[i] = cloneBill(bill)
	}
	return out
}

func (b *Book) Get(number string) (Bill, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexByNumber(number)
	if i < 0 {
		return Bill{}, ErrBillNotFound
	}
	return cloneBill(b.open[i]), nil
}

// Settle closes an open bill and records it in the history. total is the
// amount the payment was taken for; a bill whose total no longer matches is
// left open and ErrBillChanged is returned.
func (b *Book) Settle(number, method string, total decimal.Decimal, at time.Time) (Entry, error) {
	if !enum.IsPaymentMethod(method) {
		return Entry{}, fmt.Errorf("payment_method %q: %w", method, ErrInvalidBill)
	}

	b.mu.Lock()
	i := b.indexByNumber(number)
	if i < 0 {
		b.mu.Unlock()
		return Entry{}, ErrBillNotFound
	}
	bill := b.open[i]
	totals := bill.Totals()
	if !totals.Total.Equal(total) {
		b.mu.Unlock()
		return Entry{}, fmt.Errorf("%s: %w", number, ErrBillChanged)
	}
	entry := Entry{
		ID:            shortID(),
		Number:        bill.Number,
		Table:         bill.Label(),
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		PaymentMethod: method,
		Status:        enum.BillStatusPaid,
		PaidAt:        at,
	}
	b.open = append(b.open[:i], b.open[i+1:]...)
	b.history = append(b.history, entry)
	b.mu.Unlock()

	b.listeners.Notify(Change{Kind: ChangeSettled, Bill: bill})
	return entry, nil
}

// History returns paid bills newest first. A non-empty date (YYYY-MM-DD)
// keeps only the bills paid on that day.
func (b *Book) History(date string) ([]Entry, error) {
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, ErrInvalidDate
		}
	}

	b.mu.Lock()
	out := make([]Entry, 0, len(b.history))
	for _, e := range b.history {
		if date == "" || e.PaidAt.Format(dateLayout) == date {
			out = append(out, e)
		}
	}
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}

// HistoryByDate groups the history by day, most recent day first.
func (b *Book) HistoryByDate() []Day {
	entries, _ := b.History("")
	var days []Day
	for _, e := range entries {
		d := e.PaidAt.Format(dateLayout)
		if len(days) == 0 || days[len(days)-1].Date != d {
			days = append(days, Day{Date: d})
		}
		days[len(days)-1].Entries = append(days[len(days)-1].Entries, e)
	}
	return days
}

// Revenue sums the totals of all paid bills.
func (b *Book) Revenue() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	sum := decimal.Zero
	for _, e := range b.history {
		sum = sum.Add(e.Total)
	}
	return sum
}

// Subscribe registers fn for every opened, updated or settled bill.
func (b *Book) Subscribe(fn func(Change)) func() {
	return b.listeners.Subscribe(fn)
}

func (b *Book) indexByNumber(number string) int {
	for i := range b.open {
		if b.open[i].Number == number {
			return i
		}
	}
	return -1
}

func (b *Book) indexByRoom(roomID int) int {
	for i := range b.open {
		if b.open[i].RoomID == roomID {
			return i
		}
	}
	return -1
}

func cloneBill(b Bill) Bill {
	b.Items = append([]Item(nil), b.Items...)
	return b
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
