// Package cart holds the order lines of the order being built on a terminal.
//
// A Cart is a plain state container: it is not safe for concurrent use and
// never fails. Operations addressing a line id that is not present are
// no-ops and report false.
package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/kiwari-pos/terminal/internal/pricing"
)

// Line is one independently configured order line. The same menu item can
// appear on several lines; ID is the only key used to address a line.
type Line struct {
	catalog.MenuItem
	ID             uuid.UUID          `json:"line_id"`
	Quantity       int                `json:"quantity"`
	Modifiers      []pricing.Modifier `json:"modifiers"`
	Note           string             `json:"note,omitempty"`
	DeletionStatus string             `json:"deletion_status"`
}

// Pending reports whether the line awaits deletion approval.
func (l Line) Pending() bool {
	return l.DeletionStatus == enum.DeletionPending
}

type Cart struct {
	lines []Line
	newID func() uuid.UUID
}

// New creates an empty cart that ids lines with uuid.New.
func New() *Cart {
	return NewWithIDs(uuid.New)
}

// NewWithIDs creates an empty cart using newID to id new lines.
func NewWithIDs(newID func() uuid.UUID) *Cart {
	return &Cart{newID: newID}
}

// Add appends a new line and returns its id. Lines are never merged, even
// when an identical configuration is already present. Quantities below 1
// are raised to 1.
func (c *Cart) Add(item catalog.MenuItem, mods []pricing.Modifier, note string, quantity int) uuid.UUID {
	id := c.newID()
	c.lines = append(c.lines, Line{
		MenuItem:       item,
		ID:             id,
		Quantity:       floorQuantity(quantity),
		Modifiers:      cloneModifiers(mods),
		Note:           strings.TrimSpace(note),
		DeletionStatus: enum.DeletionNone,
	})
	return id
}

// Edit replaces the configuration of the line with the given id. The line
// keeps its id, its position, its menu item and its deletion status.
func (c *Cart) Edit(id uuid.UUID, mods []pricing.Modifier, note string, quantity int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.lines[i] = Line{
		MenuItem:       c.lines[i].MenuItem,
		ID:             id,
		Quantity:       floorQuantity(quantity),
		Modifiers:      cloneModifiers(mods),
		Note:           strings.TrimSpace(note),
		DeletionStatus: c.lines[i].DeletionStatus,
	}
	return true
}

// ChangeQuantity adds delta to the line's quantity. A result below 1 leaves
// the line untouched; removal only happens through Remove.
func (c *Cart) ChangeQuantity(id uuid.UUID, delta int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if q := c.lines[i].Quantity + delta; q > 0 {
		c.lines[i].Quantity = q
	}
	return true
}

// Remove deletes the line without any approval step.
func (c *Cart) Remove(id uuid.UUID) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// RequestDeletion marks the line as pending approval. Pending lines drop out
// of ActiveLines and the totals until approved or denied.
func (c *Cart) RequestDeletion(id uuid.UUID) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.lines[i].DeletionStatus = enum.DeletionPending
	return true
}

// ApproveDeletion removes the line.
func (c *Cart) ApproveDeletion(id uuid.UUID) bool {
	return c.Remove(id)
}

// DenyDeletion puts the line back to DeletionNone. Quantity, modifiers and
// note are untouched.
func (c *Cart) DenyDeletion(id uuid.UUID) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.lines[i].DeletionStatus = enum.DeletionNone
	return true
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Line returns a copy of the line with the given id.
func (c *Cart) Line(id uuid.UUID) (Line, bool) {
	i := c.index(id)
	if i < 0 {
		return Line{}, false
	}
	return cloneLine(c.lines[i]), true
}

// Lines returns copies of all lines in insertion order.
func (c *Cart) Lines() []Line {
	return c.filter(func(Line) bool { return true })
}

// ActiveLines returns the lines not pending deletion.
func (c *Cart) ActiveLines() []Line {
	return c.filter(func(l Line) bool { return !l.Pending() })
}

// PendingLines returns the lines awaiting deletion approval.
func (c *Cart) PendingLines() []Line {
	return c.filter(Line.Pending)
}

// Totals computes subtotal, tax and total over the active lines, pricing
// each line at its menu price × quantity.
func (c *Cart) Totals() pricing.Totals {
	active := c.ActiveLines()
	amounts := make([]pricing.Amount, len(active))
	for i, l := range active {
		amounts[i] = pricing.Amount{Price: l.Price, Quantity: l.Quantity}
	}
	return pricing.TotalsFor(amounts)
}

func (c *Cart) index(id uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) filter(keep func(Line) bool) []Line {
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		if keep(l) {
			out = append(out, cloneLine(l))
		}
	}
	return out
}

func floorQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func cloneModifiers(mods []pricing.Modifier) []pricing.Modifier {
	if mods == nil {
		return []pricing.Modifier{}
	}
	return append([]pricing.Modifier(nil), mods...)
}

func cloneLine(l Line) Line {
	l.Modifiers = cloneModifiers(l.Modifiers)
	return l
}
