// Package memory implements the repository interfaces on process-local
// maps. It backs the dev storage mode and the concurrency tests: every
// conditional-write rule the postgres implementation enforces in SQL is
// enforced here under one mutex, so both backends present the same
// contract.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/chowkart/chowkart/internal/models"
)

type Store struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	partners map[string]*models.DeliveryPartner
	vendors  map[string]*models.Vendor
	credits  map[string]string // order id -> credit kind
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[string]*models.Order),
		partners: make(map[string]*models.DeliveryPartner),
		vendors:  make(map[string]*models.Vendor),
		credits:  make(map[string]string),
	}
}

// Orders returns the order repository view of the store.
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{store: s}
}

// Partners returns the delivery-partner repository view of the store.
func (s *Store) Partners() *DeliveryPartnerRepository {
	return &DeliveryPartnerRepository{store: s}
}

// Vendors returns the vendor repository view of the store.
func (s *Store) Vendors() *VendorRepository {
	return &VendorRepository{store: s}
}

func cloneOrder(o *models.Order) *models.Order {
	clone := *o
	clone.Items = append([]models.OrderItem(nil), o.Items...)
	clone.DeliveryDetails.Rejections = append([]models.RejectionRecord(nil), o.DeliveryDetails.Rejections...)
	clone.DeliveryDetails.AssignedAt = cloneTime(o.DeliveryDetails.AssignedAt)
	clone.DeliveryDetails.AcceptedAt = cloneTime(o.DeliveryDetails.AcceptedAt)
	clone.Timestamps = cloneTimestamps(o.Timestamps)
	if o.Rating != nil {
		rating := *o.Rating
		clone.Rating = &rating
	}
	return &clone
}

func clonePartner(p *models.DeliveryPartner) *models.DeliveryPartner {
	clone := *p
	clone.DeliveryZones = append([]string(nil), p.DeliveryZones...)
	clone.VerificationHistory = append([]models.VerificationRecord(nil), p.VerificationHistory...)
	if p.WorkingHours != nil {
		clone.WorkingHours = make(map[string]models.DaySchedule, len(p.WorkingHours))
		for day, schedule := range p.WorkingHours {
			clone.WorkingHours[day] = schedule
		}
	}
	return &clone
}

func cloneVendor(v *models.Vendor) *models.Vendor {
	clone := *v
	clone.DeliveryPincodes = append([]string(nil), v.DeliveryPincodes...)
	return &clone
}

func cloneTimestamps(ts models.OrderTimestamps) models.OrderTimestamps {
	return models.OrderTimestamps{
		PlacedAt:         cloneTime(ts.PlacedAt),
		ConfirmedAt:      cloneTime(ts.ConfirmedAt),
		PreparingAt:      cloneTime(ts.PreparingAt),
		ReadyAt:          cloneTime(ts.ReadyAt),
		AssignedAt:       cloneTime(ts.AssignedAt),
		AcceptedAt:       cloneTime(ts.AcceptedAt),
		PickedUpAt:       cloneTime(ts.PickedUpAt),
		OutForDeliveryAt: cloneTime(ts.OutForDeliveryAt),
		DeliveredAt:      cloneTime(ts.DeliveredAt),
		CancelledAt:      cloneTime(ts.CancelledAt),
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func sortOrdersByCreated(orders []*models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
