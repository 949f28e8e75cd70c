package models

// OrderStatus enumerates every state an order can be in. All status
// validation goes through the transition table below; handlers must never
// compare raw strings.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusAssigned       OrderStatus = "assigned"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusPickedUp       OrderStatus = "picked_up"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// orderTransitions is the single source of truth for the order state
// machine. assigned and accepted can fall back to ready when a partner
// rejects or backs out.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPlaced:         {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:          {OrderStatusAssigned, OrderStatusCancelled},
	OrderStatusAssigned:       {OrderStatusAccepted, OrderStatusReady, OrderStatusCancelled},
	OrderStatusAccepted:       {OrderStatusPickedUp, OrderStatusReady, OrderStatusCancelled},
	OrderStatusPickedUp:       {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

// AllOrderStatuses returns every valid status in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPlaced,
		OrderStatusConfirmed,
		OrderStatusPreparing,
		OrderStatusReady,
		OrderStatusAssigned,
		OrderStatusAccepted,
		OrderStatusPickedUp,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}
