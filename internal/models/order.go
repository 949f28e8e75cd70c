package models

import "time"

type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	CustomerID        string          `json:"customer_id"`
	VendorID          string          `json:"vendor_id"`
	DeliveryPartnerID string          `json:"delivery_partner_id,omitempty"` // empty until assigned
	Items             []OrderItem     `json:"items"`
	TotalAmount       float64         `json:"total_amount"` // fixed at creation, never recomputed
	PaymentMethod     string          `json:"payment_method"`
	Status            OrderStatus     `json:"status"`
	CustomerDetails   ContactSnapshot `json:"customer_details"`
	VendorDetails     ContactSnapshot `json:"vendor_details"`
	DeliveryAddress   Address         `json:"delivery_address"`
	DeliveryDetails   DeliveryDetails `json:"delivery_details"`
	Timestamps        OrderTimestamps `json:"timestamps"`
	Rating            *OrderRating    `json:"rating,omitempty"`
	Version           int64           `json:"version"` // bumped on every write
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderItem carries name and price snapshots so later menu edits never
// change historical orders.
type OrderItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
}

// ContactSnapshot is the point-in-time copy of a party's contact details.
type ContactSnapshot struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// Address is a delivery destination. Pincode drives partner matching.
type Address struct {
	HouseNo  string `json:"house_no,omitempty"`
	Street   string `json:"street"`
	Landmark string `json:"landmark,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// DeliveryDetails tracks the currently bound partner (if any) and the full
// rejection history for the order. PartnerID empty means unassigned.
// AssignedAt/AcceptedAt refresh on every new assignment; the first-entry
// record lives in OrderTimestamps.
type DeliveryDetails struct {
	PartnerID       string            `json:"partner_id,omitempty"`
	PartnerName     string            `json:"partner_name,omitempty"`
	PartnerPhone    string            `json:"partner_phone,omitempty"`
	DeliveryFee     float64           `json:"delivery_fee"`
	PartnerEarnings float64           `json:"partner_earnings"`
	DistanceKm      float64           `json:"distance_km"`
	AssignedAt      *time.Time        `json:"assigned_at,omitempty"`
	AcceptedAt      *time.Time        `json:"accepted_at,omitempty"`
	Rejections      []RejectionRecord `json:"rejections,omitempty"`
}

type RejectionRecord struct {
	PartnerID  string    `json:"partner_id"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
}

// OrderTimestamps records the instant each status was first entered.
// Fields are write-once: re-entering a status via reject/reassign never
// overwrites the original stamp.
type OrderTimestamps struct {
	PlacedAt         *time.Time `json:"placed_at,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	PreparingAt      *time.Time `json:"preparing_at,omitempty"`
	ReadyAt          *time.Time `json:"ready_at,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt       *time.Time `json:"picked_up_at,omitempty"`
	OutForDeliveryAt *time.Time `json:"out_for_delivery_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

// Stamp records t for status unless that status was already entered once.
func (ts *OrderTimestamps) Stamp(status OrderStatus, t time.Time) {
	slot := ts.slot(status)
	if slot != nil && *slot == nil {
		stamped := t
		*slot = &stamped
	}
}

// At returns the first-entry time for status, or nil if never entered.
func (ts *OrderTimestamps) At(status OrderStatus) *time.Time {
	slot := ts.slot(status)
	if slot == nil {
		return nil
	}
	return *slot
}

func (ts *OrderTimestamps) slot(status OrderStatus) **time.Time {
	switch status {
	case OrderStatusPlaced:
		return &ts.PlacedAt
	case OrderStatusConfirmed:
		return &ts.ConfirmedAt
	case OrderStatusPreparing:
		return &ts.PreparingAt
	case OrderStatusReady:
		return &ts.ReadyAt
	case OrderStatusAssigned:
		return &ts.AssignedAt
	case OrderStatusAccepted:
		return &ts.AcceptedAt
	case OrderStatusPickedUp:
		return &ts.PickedUpAt
	case OrderStatusOutForDelivery:
		return &ts.OutForDeliveryAt
	case OrderStatusDelivered:
		return &ts.DeliveredAt
	case OrderStatusCancelled:
		return &ts.CancelledAt
	}
	return nil
}

// OrderRating is optional post-delivery feedback, 1-5 per category.
type OrderRating struct {
	FoodRating     int       `json:"food_rating"`
	DeliveryRating int       `json:"delivery_rating"`
	OverallRating  int       `json:"overall_rating"`
	Comment        string    `json:"comment,omitempty"`
	RatedAt        time.Time `json:"rated_at"`
}

// Assigned reports whether a partner is currently bound to the order.
func (o *Order) Assigned() bool {
	return o.DeliveryDetails.PartnerID != ""
}

// HasRejectedBefore reports whether partnerID already rejected this order.
func (o *Order) HasRejectedBefore(partnerID string) bool {
	for _, r := range o.DeliveryDetails.Rejections {
		if r.PartnerID == partnerID {
			return true
		}
	}
	return false
}
