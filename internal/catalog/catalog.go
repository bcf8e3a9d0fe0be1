package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned while building a catalog.
var (
	ErrDuplicateItem     = errors.New("duplicate menu item id")
	ErrDuplicateRoom     = errors.New("duplicate room id")
	ErrDuplicateModifier = errors.New("duplicate modifier category")
	ErrInvalidCategory   = errors.New("invalid menu category")
	ErrInvalidRoomStatus = errors.New("invalid room status")
	ErrInvalidSelection  = errors.New("invalid modifier selection type")
	ErrNegativePrice     = errors.New("price must be >= 0")
	ErrInvalidSeats      = errors.New("seats must be > 0")
	ErrEmptyName         = errors.New("name is required")
)

type MenuItem struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

type ModifierOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// UnmarshalJSON accepts either a bare option name or a {"name","price"} object.
func (o *ModifierOption) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*o = ModifierOption{Name: name, Price: decimal.Zero}
		return nil
	}
	type plain ModifierOption
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = ModifierOption(p)
	return nil
}

type ModifierCategory struct {
	Key     string           `json:"key"`
	Name    string           `json:"name"`
	Type    string           `json:"type"`
	Options []ModifierOption `json:"options"`
}

type Room struct {
	ID       int    `json:"id"`
	Seats    int    `json:"seats"`
	Status   string `json:"status"`
	HasOrder bool   `json:"has_order"`
}

// RoomCounts summarizes rooms by availability.
type RoomCounts struct {
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

// Catalog is the read-only menu, room and modifier data a terminal works
// against. It is built once and never mutated; every accessor returns copies.
type Catalog struct {
	items     []MenuItem
	rooms     []Room
	modifiers []ModifierCategory

	itemIdx     map[int]int
	roomIdx     map[int]int
	modifierIdx map[string]int
}

type catalogFile struct {
	Items     []MenuItem         `json:"items"`
	Rooms     []Room             `json:"rooms"`
	Modifiers []ModifierCategory `json:"modifiers"`
}

// New validates the given data and builds a Catalog from a private copy of it.
func New(items []MenuItem, rooms []Room, modifiers []ModifierCategory) (*Catalog, error) {
	c := &Catalog{
		items:       make([]MenuItem, len(items)),
		rooms:       make([]Room, len(rooms)),
		modifiers:   make([]ModifierCategory, len(modifiers)),
		itemIdx:     make(map[int]int, len(items)),
		roomIdx:     make(map[int]int, len(rooms)),
		modifierIdx: make(map[string]int, len(modifiers)),
	}

	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrEmptyName)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrNegativePrice)
		}
		if !enum.IsMenuCategory(item.Category) {
			return nil, fmt.Errorf("items[%d] %q: %w", i, item.Category, ErrInvalidCategory)
		}
		if _, dup := c.itemIdx[item.ID]; dup {
			return nil, fmt.Errorf("items[%d] id %d: %w", i, item.ID, ErrDuplicateItem)
		}
		c.items[i] = item
		c.itemIdx[item.ID] = i
	}

	for i, room := range rooms {
		if room.Seats <= 0 {
			return nil, fmt.Errorf("rooms[%d]: %w", i, ErrInvalidSeats)
		}
		if !enum.IsRoomStatus(room.Status) {
			return nil, fmt.Errorf("rooms[%d] %q: %w", i, room.Status, ErrInvalidRoomStatus)
		}
		if _, dup := c.roomIdx[room.ID]; dup {
			return nil, fmt.Errorf("rooms[%d] id %d: %w", i, room.ID, ErrDuplicateRoom)
		}
		c.rooms[i] = room
		c.roomIdx[room.ID] = i
	}

	for i, mc := range modifiers {
		if strings.TrimSpace(mc.Name) == "" {
			return nil, fmt.Errorf("modifiers[%d]: %w", i, ErrEmptyName)
		}
		if mc.Type != enum.SelectionSingle && mc.Type != enum.SelectionMulti {
			return nil, fmt.Errorf("modifiers[%d] %q: %w", i, mc.Type, ErrInvalidSelection)
		}
		if _, dup := c.modifierIdx[mc.Name]; dup {
			return nil, fmt.Errorf("modifiers[%d] %q: %w", i, mc.Name, ErrDuplicateModifier)
		}
		opts := make([]ModifierOption, len(mc.Options))
		for j, opt := range mc.Options {
			if strings.TrimSpace(opt.Name) == "" {
				return nil, fmt.Errorf("modifiers[%d].options[%d]: %w", i, j, ErrEmptyName)
			}
			if opt.Price.IsNegative() {
				return nil, fmt.Errorf("modifiers[%d].options[%d]: %w", i, j, ErrNegativePrice)
			}
			opts[j] = opt
		}
		mc.Options = opts
		if mc.Key == "" {
			mc.Key = strings.ToLower(mc.Name)
		}
		c.modifiers[i] = mc
		c.modifierIdx[mc.Name] = i
	}

	return c, nil
}

// Load reads a catalog from a JSON file with top-level "items", "rooms" and
// "modifiers" arrays.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Items, f.Rooms, f.Modifiers)
}

func (c *Catalog) Items() []MenuItem {
	out := make([]MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Rooms() []Room {
	out := make([]Room, len(c.rooms))
	copy(out, c.rooms)
	return out
}

func (c *Catalog) Modifiers() []ModifierCategory {
	out := make([]ModifierCategory, len(c.modifiers))
	for i, mc := range c.modifiers {
		mc.Options = append([]ModifierOption(nil), mc.Options...)
		out[i] = mc
	}
	return out
}

func (c *Catalog) Item(id int) (MenuItem, bool) {
	i, ok := c.itemIdx[id]
	if !ok {
		return MenuItem{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Room(id int) (Room, bool) {
	i, ok := c.roomIdx[id]
	if !ok {
		return Room{}, false
	}
	return c.rooms[i], true
}

func (c *Catalog) ModifierCategory(name string) (ModifierCategory, bool) {
	i, ok := c.modifierIdx[name]
	if !ok {
		return ModifierCategory{}, false
	}
	mc := c.modifiers[i]
	mc.Options = append([]ModifierOption(nil), mc.Options...)
	return mc, true
}

// OptionPrice looks up the additive price of an option within a modifier
// category. The second result is false when either name is unknown.
func (c *Catalog) OptionPrice(category, option string) (decimal.Decimal, bool) {
	i, ok := c.modifierIdx[category]
	if !ok {
		return decimal.Zero, false
	}
	for _, opt := range c.modifiers[i].Options {
		if opt.Name == option {
			return opt.Price, true
		}
	}
	return decimal.Zero, false
}

// FilterItems returns the items matching both the category and the search
// query. CategoryAll (or "") matches every item. The query matches a
// case-insensitive substring of the name or a substring of the numeric id.
func (c *Catalog) FilterItems(category, query string) []MenuItem {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]MenuItem, 0, len(c.items))
	for _, item := range c.items {
		if category != "" && category != enum.CategoryAll && item.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strconv.Itoa(item.ID), q) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FilterRooms matches the query against the room number and its status.
func (c *Catalog) FilterRooms(query string) []Room {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		if q != "" &&
			!strings.Contains(strconv.Itoa(room.ID), q) &&
			!strings.Contains(strings.ToLower(room.Status), q) {
			continue
		}
		out = append(out, room)
	}
	return out
}

func (c *Catalog) RoomCounts() RoomCounts {
	var rc RoomCounts
	for _, room := range c.rooms {
		switch room.Status {
		case enum.RoomStatusAvailable:
			rc.Available++
		case enum.RoomStatusOccupied:
			rc.Occupied++
		}
	}
	return rc
}

// RoomsWithOrders counts rooms currently carrying an open order.
func (c *Catalog) RoomsWithOrders() int {
	n := 0
	for _, room := range c.rooms {
		if room.HasOrder {
			n++
		}
	}
	return n
}
