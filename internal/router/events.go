package router

import (
	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/handler"
	"github.com/kiwari-pos/terminal/internal/service"
	"github.com/kiwari-pos/terminal/internal/ws"
	"github.com/rs/zerolog"
)

// WS event types.
const (
	EventSessionUpdated = "session.updated"
	EventBillOpened     = "bill.opened"
	EventBillUpdated    = "bill.updated"
	EventBillSettled    = "bill.settled"
)

var billEventTypes = map[string]string{
	bills.ChangeOpened:  EventBillOpened,
	bills.ChangeUpdated: EventBillUpdated,
	bills.ChangeSettled: EventBillSettled,
}

// PublishEvents forwards order and bill changes to the hub topics. The
// returned function detaches both subscriptions.
func PublishEvents(logger zerolog.Logger, hub *ws.Hub, orders *service.OrderService, book *bills.Book) func() {
	unsubOrders := orders.Subscribe(func(s service.Snapshot) {
		if err := hub.Publish(ws.TopicSession, EventSessionUpdated, handler.SessionBody(s)); err != nil {
			logger.Error().Err(err).Msg("publish session event")
		}
	})
	unsubBills := book.Subscribe(func(c bills.Change) {
		if err := hub.Publish(ws.TopicBills, billEventTypes[c.Kind], handler.BillBody(c.Bill)); err != nil {
			logger.Error().Err(err).Msg("publish bill event")
		}
	})
	return func() {
		unsubOrders()
		unsubBills()
	}
}
