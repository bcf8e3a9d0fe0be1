package catalog

import (
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func named(names ...string) []ModifierOption {
	out := make([]ModifierOption, len(names))
	for i, n := range names {
		out[i] = ModifierOption{Name: n, Price: decimal.Zero}
	}
	return out
}

var defaultItems = []MenuItem{
	{ID: 1, Name: "Caesar Salad", Price: price("12.99"), Category: enum.CategorySalads},
	{ID: 2, Name: "Grilled Salmon", Price: price("28.99"), Category: enum.CategoryMains},
	{ID: 3, Name: "Beef Tenderloin", Price: price("42.99"), Category: enum.CategoryMains},
	{ID: 4, Name: "Lobster Bisque", Price: price("16.99"), Category: enum.CategoryAppetizers},
	{ID: 5, Name: "Truffle Fries", Price: price("9.99"), Category: enum.CategoryAppetizers},
	{ID: 6, Name: "Caprese Salad", Price: price("14.99"), Category: enum.CategorySalads},
	{ID: 7, Name: "Filet Mignon", Price: price("48.99"), Category: enum.CategoryMains},
	{ID: 8, Name: "Red Wine", Price: price("18.99"), Category: enum.CategoryDrinks},
	{ID: 9, Name: "Martini", Price: price("15.99"), Category: enum.CategoryDrinks},
	{ID: 10, Name: "Tiramisu", Price: price("11.99"), Category: enum.CategoryDesserts},
	{ID: 11, Name: "Crème Brûlée", Price: price("12.99"), Category: enum.CategoryDesserts},
	{ID: 12, Name: "Choco Lava Cake", Price: price("13.99"), Category: enum.CategoryDesserts},
	{ID: 13, Name: "Sparkling Water", Price: price("6.99"), Category: enum.CategoryDrinks},
	{ID: 14, Name: "Bruschetta", Price: price("11.50"), Category: enum.CategoryAppetizers},
	{ID: 15, Name: "Cheesecake", Price: price("10.99"), Category: enum.CategoryDesserts},
}

var defaultRooms = []Room{
	{ID: 101, Seats: 2, Status: enum.RoomStatusOccupied, HasOrder: true},
	{ID: 102, Seats: 2, Status: enum.RoomStatusAvailable},
	{ID: 103, Seats: 4, Status: enum.RoomStatusCleaning},
	{ID: 104, Seats: 4, Status: enum.RoomStatusAvailable},
	{ID: 201, Seats: 4, Status: enum.RoomStatusOccupied, HasOrder: true},
	{ID: 202, Seats: 4, Status: enum.RoomStatusAvailable},
	{ID: 203, Seats: 6, Status: enum.RoomStatusReserved},
	{ID: 204, Seats: 6, Status: enum.RoomStatusAvailable},
	{ID: 301, Seats: 2, Status: enum.RoomStatusAvailable},
	{ID: 302, Seats: 8, Status: enum.RoomStatusAvailable},
	{ID: 303, Seats: 8, Status: enum.RoomStatusAvailable},
	{ID: 401, Seats: 12, Status: enum.RoomStatusReserved},
}

var defaultModifiers = []ModifierCategory{
	{
		Key:     "size",
		Name:    enum.ModifierSize,
		Type:    enum.SelectionSingle,
		Options: named("Small", "Medium", "Large"),
	},
	{
		Key:     "temperature",
		Name:    enum.ModifierTemperature,
		Type:    enum.SelectionSingle,
		Options: named("Rare", "Medium Rare", "Medium", "Well Done"),
	},
	{
		Key:  "additions",
		Name: enum.ModifierAdditions,
		Type: enum.SelectionMulti,
		Options: []ModifierOption{
			{Name: "Extra Cheese", Price: price("2.99")},
			{Name: "Bacon", Price: price("3.99")},
			{Name: "Avocado", Price: price("4.99")},
			{Name: "Fried Egg", Price: price("1.99")},
		},
	},
}

// Default returns the built-in house catalog.
func Default() *Catalog {
	c, err := New(defaultItems, defaultRooms, defaultModifiers)
	if err != nil {
		panic("catalog: invalid default data: " + err.Error())
	}
	return c
}
