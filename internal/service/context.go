package service

import (
	"strings"

	"github.com/kiwari-pos/terminal/internal/catalog"
)

// OrderContext is who the order is for: a room, a walk-in guest, or nobody
// yet. Room and GuestName are never both set.
type OrderContext struct {
	Room      *catalog.Room `json:"room,omitempty"`
	GuestName string        `json:"guest_name,omitempty"`
}

// IsSet reports whether a room or a guest is selected.
func (c OrderContext) IsSet() bool {
	return c.Room != nil || c.GuestName != ""
}

func (c OrderContext) clone() OrderContext {
	if c.Room != nil {
		r := *c.Room
		c.Room = &r
	}
	return c
}

// contextSelector enforces room/guest exclusivity. Not safe for concurrent
// use; OrderService serializes access.
type contextSelector struct {
	current OrderContext
}

// selectRoom makes room the context and reports whether the cart must be
// cleared: a room without an open order starts a fresh cart.
func (s *contextSelector) selectRoom(room catalog.Room) (clearCart bool) {
	s.current = OrderContext{Room: &room}
	return !room.HasOrder
}

// setGuestName switches to a walk-in guest. An empty name only clears the
// guest field and leaves a selected room alone.
func (s *contextSelector) setGuestName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.current.GuestName = ""
		return
	}
	s.current = OrderContext{GuestName: name}
}

func (s *contextSelector) reset() {
	s.current = OrderContext{}
}
