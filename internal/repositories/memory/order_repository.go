package memory

import (
	"context"
	"time"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories"
)

type OrderRepository struct {
	store *Store
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, order := range r.store.orders {
		if order.OrderNumber == number {
			return cloneOrder(order), nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID string, status models.OrderStatus) ([]*models.Order, error) {
	return r.filter(func(o *models.Order) bool {
		return o.VendorID == vendorID && (status == "" || o.Status == status)
	}), nil
}

func (r *OrderRepository) ListByPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	return r.filter(func(o *models.Order) bool {
		return o.DeliveryDetails.PartnerID == partnerID
	}), nil
}

func (r *OrderRepository) ListReady(ctx context.Context) ([]*models.Order, error) {
	return r.filter(func(o *models.Order) bool {
		return o.Status == models.OrderStatusReady && !o.Assigned()
	}), nil
}

func (r *OrderRepository) ListDelivered(ctx context.Context, vendorID, partnerID string, from, to time.Time) ([]*models.Order, error) {
	return r.filter(func(o *models.Order) bool {
		if o.Status != models.OrderStatusDelivered || o.Timestamps.DeliveredAt == nil {
			return false
		}
		if vendorID != "" && o.VendorID != vendorID {
			return false
		}
		if partnerID != "" && o.DeliveryDetails.PartnerID != partnerID {
			return false
		}
		at := *o.Timestamps.DeliveredAt
		if !from.IsZero() && at.Before(from) {
			return false
		}
		if !to.IsZero() && !at.Before(to) {
			return false
		}
		return true
	}), nil
}

func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.Status != from {
		return nil, repositories.ErrStatusConflict
	}
	// A bound partner comes off only through RejectAssignment.
	if to == models.OrderStatusReady && order.Assigned() {
		return nil, repositories.ErrStatusConflict
	}
	order.Status = to
	order.Timestamps.Stamp(to, at)
	touch(order, at)
	return cloneOrder(order), nil
}

func (r *OrderRepository) AssignPartner(ctx context.Context, orderID string, partner *models.DeliveryPartner, fee, earnings, distanceKm float64, at time.Time) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.Assigned() || order.Status == models.OrderStatusAssigned {
		return nil, models.ErrAlreadyAssigned
	}
	if order.Status != models.OrderStatusReady {
		return nil, repositories.ErrStatusConflict
	}
	order.Status = models.OrderStatusAssigned
	order.DeliveryPartnerID = partner.ID
	order.DeliveryDetails.PartnerID = partner.ID
	order.DeliveryDetails.PartnerName = partner.FullName
	order.DeliveryDetails.PartnerPhone = partner.MobileNo
	order.DeliveryDetails.DeliveryFee = fee
	order.DeliveryDetails.PartnerEarnings = earnings
	order.DeliveryDetails.DistanceKm = distanceKm
	order.DeliveryDetails.AssignedAt = cloneTime(&at)
	order.DeliveryDetails.AcceptedAt = nil
	order.Timestamps.Stamp(models.OrderStatusAssigned, at)
	touch(order, at)
	return cloneOrder(order), nil
}

func (r *OrderRepository) AcceptAssignment(ctx context.Context, orderID, partnerID string, at time.Time) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.DeliveryDetails.PartnerID != partnerID {
		return nil, models.ErrNotAssignedToYou
	}
	if order.Status != models.OrderStatusAssigned {
		return nil, repositories.ErrStatusConflict
	}
	order.Status = models.OrderStatusAccepted
	order.DeliveryDetails.AcceptedAt = cloneTime(&at)
	order.Timestamps.Stamp(models.OrderStatusAccepted, at)
	touch(order, at)
	return cloneOrder(order), nil
}

func (r *OrderRepository) RejectAssignment(ctx context.Context, orderID, partnerID string, rejection models.RejectionRecord) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.DeliveryDetails.PartnerID != partnerID {
		return nil, models.ErrNotAssignedToYou
	}
	if order.Status != models.OrderStatusAssigned && order.Status != models.OrderStatusAccepted {
		return nil, repositories.ErrStatusConflict
	}
	order.Status = models.OrderStatusReady
	order.DeliveryPartnerID = ""
	order.DeliveryDetails.PartnerID = ""
	order.DeliveryDetails.PartnerName = ""
	order.DeliveryDetails.PartnerPhone = ""
	order.DeliveryDetails.AssignedAt = nil
	order.DeliveryDetails.AcceptedAt = nil
	order.DeliveryDetails.Rejections = append(order.DeliveryDetails.Rejections, rejection)
	order.Timestamps.Stamp(models.OrderStatusReady, rejection.RejectedAt)
	touch(order, rejection.RejectedAt)
	return cloneOrder(order), nil
}

func (r *OrderRepository) AdvanceByPartner(ctx context.Context, orderID, partnerID string, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.DeliveryDetails.PartnerID != partnerID {
		return nil, models.ErrNotAssignedToYou
	}
	if order.Status != from {
		return nil, repositories.ErrStatusConflict
	}
	order.Status = to
	order.Timestamps.Stamp(to, at)
	touch(order, at)
	return cloneOrder(order), nil
}

func (r *OrderRepository) SetRating(ctx context.Context, orderID string, rating models.OrderRating) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.Rating != nil {
		return nil, repositories.ErrStatusConflict
	}
	stored := rating
	order.Rating = &stored
	touch(order, rating.RatedAt)
	return cloneOrder(order), nil
}

func (r *OrderRepository) filter(keep func(*models.Order) bool) []*models.Order {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.Order
	for _, order := range r.store.orders {
		if keep(order) {
			out = append(out, cloneOrder(order))
		}
	}
	sortOrdersByCreated(out)
	return out
}

func touch(order *models.Order, at time.Time) {
	order.Version++
	order.UpdatedAt = at
}
