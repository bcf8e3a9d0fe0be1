package bills

import (
	"time"

	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(id, name string, qty int, price string) Item {
	return Item{ID: id, Name: name, Quantity: qty, Price: d(price)}
}

// SeedBills are the tabs open when the terminal starts.
func SeedBills() []Bill {
	return []Bill{
		{Number: "ORD-003", RoomID: 101, GuestName: "Chriss", Status: enum.BillStatusUnpaid, StartTime: "19:30", Items: []Item{
			item("1", "Grilled Salmon", 1, "28.99"),
			item("2", "Beef Tenderloin", 1, "42.99"),
			item("3", "Red Wine", 1, "18.99"),
			item("4", "Tiramisu", 1, "11.99"),
		}},
		{Number: "ORD-007", RoomID: 104, GuestName: "Walk-in", Status: enum.BillStatusDining, StartTime: "20:15", Items: []Item{
			item("5", "Caesar Salad", 2, "12.99"),
			item("6", "Sparkling Water", 2, "6.99"),
		}},
		{Number: "ORD-012", RoomID: 201, GuestName: "Smith Family", Status: enum.BillStatusDining, StartTime: "19:45", Items: []Item{
			item("7", "Lobster Bisque", 2, "16.99"),
			item("8", "Filet Mignon", 2, "48.99"),
			item("9", "Martini", 2, "15.99"),
		}},
		{Number: "ORD-004", RoomID: 203, GuestName: "VIP - John", Status: enum.BillStatusUnpaid, StartTime: "18:00", Items: []Item{
			item("10", "Truffle Fries", 1, "9.99"),
			item("11", "Burger", 1, "18.50"),
			item("12", "Beer", 3, "7.50"),
		}},
		{Number: "ORD-009", RoomID: 302, GuestName: "Couple", Status: enum.BillStatusDining, StartTime: "20:30", Items: []Item{
			item("13", "Choco Lava Cake", 2, "13.99"),
			item("14", "Coffee", 2, "4.50"),
		}},
	}
}

// SeedHistory is the paid history shown before any bill is settled.
func SeedHistory() []Entry {
	entry := func(id, table, subtotal, tax, total, method string, at time.Time) Entry {
		return Entry{ID: id, Table: table, Subtotal: d(subtotal), Tax: d(tax), Total: d(total),
			PaymentMethod: method, Status: enum.BillStatusPaid, PaidAt: at}
	}
	return []Entry{
		entry("6F6D97", "Table 7", "7700.00", "770.00", "8470.00", enum.PaymentMethodCard, time.Date(2025, 12, 17, 21, 56, 50, 0, time.UTC)),
		entry("5A2B11", "Table 2", "3200.00", "320.00", "3520.00", enum.PaymentMethodCash, time.Date(2025, 12, 17, 20, 15, 30, 0, time.UTC)),
		entry("9C3D44", "Table 12", "12500.00", "1250.00", "13750.00", enum.PaymentMethodCard, time.Date(2025, 12, 16, 22, 30, 0, 0, time.UTC)),
		entry("1E8F92", "Table 5", "4500.00", "450.00", "4950.00", enum.PaymentMethodCash, time.Date(2025, 12, 16, 19, 45, 10, 0, time.UTC)),
	}
}

// Seeded returns a book preloaded with SeedBills and SeedHistory.
func Seeded() *Book {
	b, err := NewBook(SeedBills(), SeedHistory())
	if err != nil {
		panic("bills: invalid seed data: " + err.Error())
	}
	return b
}
