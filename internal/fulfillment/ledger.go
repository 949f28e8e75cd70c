package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories"
	"github.com/google/uuid"
	"github.com/lucsky/cuid"
)

// OrderItemInput is one line of a checkout. Name and unit price are the
// caller's snapshots of the menu at checkout time.
type OrderItemInput struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerID      string                 `json:"customer_id"`
	VendorID        string                 `json:"vendor_id"`
	Items           []OrderItemInput       `json:"items"`
	PaymentMethod   string                 `json:"payment_method"`
	CustomerDetails models.ContactSnapshot `json:"customer_details"`
	DeliveryAddress models.Address         `json:"delivery_address"`
	DistanceKm      float64                `json:"distance_km"`
}

// CreateOrder records a paid checkout as a placed order. The item
// snapshots and the total are fixed here and never recomputed from live
// menu data.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	vendor, err := s.vendors.GetByID(ctx, input.VendorID)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	var total float64
	for _, in := range input.Items {
		if in.Quantity < 1 {
			return nil, fmt.Errorf("item %q: quantity must be at least 1", in.Name)
		}
		subtotal := roundPaise(in.UnitPrice * float64(in.Quantity))
		items = append(items, models.OrderItem{
			MenuItemID: in.MenuItemID,
			Name:       in.Name,
			UnitPrice:  in.UnitPrice,
			Quantity:   in.Quantity,
			Subtotal:   subtotal,
		})
		total = roundPaise(total + subtotal)
	}

	at := s.now()
	order := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     s.generateOrderNumber(),
		CustomerID:      input.CustomerID,
		VendorID:        input.VendorID,
		Items:           items,
		TotalAmount:     total,
		PaymentMethod:   input.PaymentMethod,
		Status:          models.OrderStatusPlaced,
		CustomerDetails: input.CustomerDetails,
		VendorDetails: models.ContactSnapshot{
			Name:    vendor.Name,
			Phone:   vendor.Phone,
			Pincode: vendor.Address.Pincode,
		},
		DeliveryAddress: input.DeliveryAddress,
		DeliveryDetails: models.DeliveryDetails{DistanceKm: input.DistanceKm},
		Version:         1,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	order.Timestamps.Stamp(models.OrderStatusPlaced, at)

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"order_number": order.OrderNumber,
		"vendor_id":    order.VendorID,
		"total_amount": order.TotalAmount,
	}).Info("order placed")
	s.emitStatus(order, "")
	return order, nil
}

// TransitionStatus applies one step of the state machine; vendor- and
// system-driven transitions go through here. Binding a partner requires
// AssignPartner; releasing a bound partner requires PartnerReject.
func (s *Service) TransitionStatus(ctx context.Context, orderID string, target models.OrderStatus, actor string) (*models.Order, error) {
	if !target.Valid() {
		return nil, models.InvalidTransitionError("", target)
	}
	if target == models.OrderStatusAssigned {
		return nil, models.AssignmentRejectedError("partner assignment must go through assignPartner")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, models.InvalidTransitionError(order.Status, target)
	}
	if target == models.OrderStatusReady && order.Assigned() {
		// Returning to the pool must record the rejection and clear the
		// partner snapshot; only PartnerReject does both.
		return nil, models.AssignmentRejectedError("releasing an assigned order must go through partnerReject")
	}

	updated, err := s.orders.TransitionStatus(ctx, orderID, order.Status, target, s.now())
	if errors.Is(err, repositories.ErrStatusConflict) {
		// Another writer moved the order first; report the pair that is
		// now illegal.
		current, readErr := s.orders.GetByID(ctx, orderID)
		if readErr != nil {
			return nil, readErr
		}
		return nil, models.InvalidTransitionError(current.Status, target)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"order_number": updated.OrderNumber,
		"status":       updated.Status,
		"actor":        actor,
	}).Info("order status updated")

	s.settleTerminal(ctx, updated)
	s.emitStatus(updated, "")
	return updated, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

// ListVendorOrders returns a vendor's orders, optionally filtered by
// status ("" matches all).
func (s *Service) ListVendorOrders(ctx context.Context, vendorID string, status models.OrderStatus) ([]*models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return s.orders.ListByVendor(ctx, vendorID, status)
}

// ListReadyOrders returns the assignable pool.
func (s *Service) ListReadyOrders(ctx context.Context) ([]*models.Order, error) {
	return s.orders.ListReady(ctx)
}

func (s *Service) ListPartnerOrders(ctx context.Context, partnerID string) ([]*models.Order, error) {
	return s.orders.ListByPartner(ctx, partnerID)
}

// RateOrder records post-delivery feedback and folds the delivery rating
// into the partner's running average.
func (s *Service) RateOrder(ctx context.Context, orderID string, rating models.OrderRating) (*models.Order, error) {
	for _, value := range []int{rating.FoodRating, rating.DeliveryRating, rating.OverallRating} {
		if value < 1 || value > 5 {
			return nil, fmt.Errorf("ratings must be between 1 and 5")
		}
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, models.InvalidTransitionError(order.Status, models.OrderStatusDelivered)
	}
	rating.RatedAt = s.now()
	updated, err := s.orders.SetRating(ctx, orderID, rating)
	if errors.Is(err, repositories.ErrStatusConflict) {
		return nil, fmt.Errorf("order %s is already rated", order.OrderNumber)
	}
	if err != nil {
		return nil, err
	}
	if updated.Assigned() {
		if _, err := s.partners.AddRating(ctx, updated.DeliveryDetails.PartnerID, rating.DeliveryRating); err != nil {
			s.log.WithError(err).Warn("failed to update partner rating")
		}
	}
	return updated, nil
}

// settleTerminal performs the partner-side bookkeeping after a terminal
// transition. The order write has already committed; credits are keyed by
// order id so a replay (here or from the backfill command) is a no-op.
func (s *Service) settleTerminal(ctx context.Context, order *models.Order) {
	if !order.Assigned() {
		return
	}
	partnerID := order.DeliveryDetails.PartnerID
	var err error
	switch order.Status {
	case models.OrderStatusDelivered:
		_, err = s.partners.CreditDelivery(ctx, partnerID, order.ID, order.DeliveryDetails.PartnerEarnings, s.now())
	case models.OrderStatusCancelled:
		_, err = s.partners.CreditCancellation(ctx, partnerID, order.ID, s.now())
	default:
		return
	}
	if err != nil {
		s.log.WithError(err).WithFields(map[string]interface{}{
			"order_number": order.OrderNumber,
			"partner_id":   partnerID,
		}).Warn("partner settlement failed; backfill will retry")
	}
}

// ResettleDelivered replays the idempotent settlement for every delivered
// order; onOrder is called once per scanned order for progress reporting.
// Returns the number of credits that actually landed.
func (s *Service) ResettleDelivered(ctx context.Context, onOrder func()) (int, error) {
	orders, err := s.orders.ListDelivered(ctx, "", "", zeroTime, zeroTime)
	if err != nil {
		return 0, err
	}
	credited := 0
	for _, order := range orders {
		if onOrder != nil {
			onOrder()
		}
		if !order.Assigned() || order.Timestamps.DeliveredAt == nil {
			continue
		}
		done, err := s.partners.CreditDelivery(ctx, order.DeliveryDetails.PartnerID, order.ID,
			order.DeliveryDetails.PartnerEarnings, *order.Timestamps.DeliveredAt)
		if err != nil {
			return credited, err
		}
		if done {
			credited++
		}
	}
	return credited, nil
}

func (s *Service) generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s", s.now().Format("20060102"), strings.ToUpper(cuid.Slug()))
}

func roundPaise(amount float64) float64 {
	return math.Round(amount*100) / 100
}
