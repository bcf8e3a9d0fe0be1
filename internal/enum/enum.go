package enum

// ── Group A: Catalog labels ──

const (
	CategoryAll        = "All"
	CategoryAppetizers = "Appetizers"
	CategorySalads     = "Salads"
	CategoryMains      = "Mains"
	CategoryDrinks     = "Drinks"
	CategoryDesserts   = "Desserts"
)

const (
	RoomStatusAvailable = "available"
	RoomStatusOccupied  = "occupied"
	RoomStatusReserved  = "reserved"
	RoomStatusCleaning  = "cleaning"
)

const (
	SelectionSingle = "single"
	SelectionMulti  = "multi"
)

const (
	ModifierSize        = "Size"
	ModifierTemperature = "Temperature"
	ModifierAdditions   = "Additions"
)

// ── Group B: State machines ──

const (
	DeletionNone    = "none"
	DeletionPending = "pending"
)

const (
	OrderStateIdle       = "idle"
	OrderStateContextSet = "context_set"
	OrderStateBuilding   = "building"
)

const (
	BillStatusDining = "dining"
	BillStatusUnpaid = "unpaid"
	BillStatusPaid   = "paid"
)

// ── Group C: Payment ──

const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

// IsMenuCategory reports whether s is a category a real menu item can carry.
// "All" is a filter pseudo-category and is rejected.
func IsMenuCategory(s string) bool {
	switch s {
	case CategoryAppetizers, CategorySalads, CategoryMains, CategoryDrinks, CategoryDesserts:
		return true
	}
	return false
}

func IsRoomStatus(s string) bool {
	switch s {
	case RoomStatusAvailable, RoomStatusOccupied, RoomStatusReserved, RoomStatusCleaning:
		return true
	}
	return false
}

func IsPaymentMethod(s string) bool {
	return s == PaymentMethodCash || s == PaymentMethodCard
}
