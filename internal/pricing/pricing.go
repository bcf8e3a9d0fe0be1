// Package pricing derives line prices and order totals from catalog prices.
// Everything here is a pure function of its arguments.
package pricing

import (
	"errors"
	"fmt"

	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

// TaxRate is the flat service tax applied to every subtotal.
var TaxRate = decimal.RequireFromString("0.10")

// Dialog defaults for the single-choice categories.
const (
	DefaultSize        = "Medium"
	DefaultTemperature = "Medium"
)

var ErrUnknownOption = errors.New("unknown modifier option")

// Modifier is a chosen option attached to an order line. Price is captured
// when the option is selected and never looked up again.
type Modifier struct {
	Category string          `json:"category"`
	Option   string          `json:"option"`
	Price    decimal.Decimal `json:"price"`
}

// Selection is what a cashier picks in the customization dialog.
type Selection struct {
	Size        string
	Temperature string
	Additions   []string
}

// Totals are always derived from lines, never stored.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Amount is a unit price and a quantity.
type Amount struct {
	Price    decimal.Decimal
	Quantity int
}

// ComputeLinePrice returns (base + Σ addition prices) × quantity. Addition
// names missing from the catalog contribute zero. Size and temperature carry
// no price.
func ComputeLinePrice(cat *catalog.Catalog, base decimal.Decimal, additions []string, quantity int) decimal.Decimal {
	unit := base
	for _, name := range additions {
		if p, ok := cat.OptionPrice(enum.ModifierAdditions, name); ok {
			unit = unit.Add(p)
		}
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// LineTotal prices a line from its captured modifier prices.
func LineTotal(base decimal.Decimal, mods []Modifier, quantity int) decimal.Decimal {
	unit := base
	for _, m := range mods {
		unit = unit.Add(m.Price)
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// BuildModifiers turns a selection into the modifier list stored on a line:
// size, temperature, then one entry per addition in selection order.
// Empty single-choice values fall back to the dialog defaults.
func BuildModifiers(cat *catalog.Catalog, sel Selection) ([]Modifier, error) {
	size := sel.Size
	if size == "" {
		size = DefaultSize
	}
	temp := sel.Temperature
	if temp == "" {
		temp = DefaultTemperature
	}

	mods := make([]Modifier, 0, 2+len(sel.Additions))
	for _, single := range []struct{ category, option string }{
		{enum.ModifierSize, size},
		{enum.ModifierTemperature, temp},
	} {
		if _, ok := cat.OptionPrice(single.category, single.option); !ok {
			return nil, fmt.Errorf("%s %q: %w", single.category, single.option, ErrUnknownOption)
		}
		mods = append(mods, Modifier{Category: single.category, Option: single.option, Price: decimal.Zero})
	}

	seen := make(map[string]bool, len(sel.Additions))
	for _, name := range sel.Additions {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, _ := cat.OptionPrice(enum.ModifierAdditions, name)
		mods = append(mods, Modifier{Category: enum.ModifierAdditions, Option: name, Price: p})
	}
	return mods, nil
}

// SelectionFromModifiers recovers the dialog state from a line's modifiers,
// for re-editing.
func SelectionFromModifiers(mods []Modifier) Selection {
	sel := Selection{Size: DefaultSize, Temperature: DefaultTemperature}
	for _, m := range mods {
		switch m.Category {
		case enum.ModifierSize:
			sel.Size = m.Option
		case enum.ModifierTemperature:
			sel.Temperature = m.Option
		case enum.ModifierAdditions:
			sel.Additions = append(sel.Additions, m.Option)
		}
	}
	return sel
}

// ComputeTotals applies TaxRate to a subtotal.
func ComputeTotals(subtotal decimal.Decimal) Totals {
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// TotalsFor sums price × quantity over amounts and applies tax.
func TotalsFor(amounts []Amount) Totals {
	subtotal := decimal.Zero
	for _, a := range amounts {
		subtotal = subtotal.Add(a.Price.Mul(decimal.NewFromInt(int64(a.Quantity))))
	}
	return ComputeTotals(subtotal)
}
