package fulfillment_test

import (
	"context"
	"testing"
	"time"

	"github.com/chowkart/chowkart/internal/factories"
	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories/memory"
)

var (
	partnerFactory factories.DeliveryPartnerFactory
	vendorFactory  factories.VendorFactory
	orderFactory   factories.OrderFactory
)

func newTestService(t *testing.T) (*fulfillment.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := fulfillment.NewService(store.Orders(), store.Partners(), store.Vendors(), nil, nil, nil)
	return svc, store
}

func seedVendor(t *testing.T, store *memory.Store, pincodes ...string) *models.Vendor {
	t.Helper()
	vendor := vendorFactory.CreateVendor(pincodes...)
	if err := store.Vendors().Create(context.Background(), vendor); err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	return vendor
}

func seedPartner(t *testing.T, store *memory.Store, zones ...string) *models.DeliveryPartner {
	t.Helper()
	partner := partnerFactory.CreateDeliveryPartner(zones...)
	if err := store.Partners().Create(context.Background(), partner); err != nil {
		t.Fatalf("seed partner: %v", err)
	}
	return partner
}

func placeOrder(t *testing.T, svc *fulfillment.Service, vendor *models.Vendor) *models.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), orderFactory.CreateOrderInput(vendor))
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}

// readyOrder walks a fresh order to the ready state.
func readyOrder(t *testing.T, svc *fulfillment.Service, vendor *models.Vendor) *models.Order {
	t.Helper()
	order := placeOrder(t, svc, vendor)
	var err error
	for _, status := range []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
	} {
		order, err = svc.TransitionStatus(context.Background(), order.ID, status, "vendor")
		if err != nil {
			t.Fatalf("advance to %s: %v", status, err)
		}
	}
	return order
}

// deliverOrder walks an assigned order through to delivered.
func deliverOrder(t *testing.T, svc *fulfillment.Service, orderID, partnerID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.PartnerAccept(ctx, orderID, partnerID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	var order *models.Order
	var err error
	for _, status := range []models.OrderStatus{
		models.OrderStatusPickedUp,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
	} {
		order, err = svc.PartnerAdvance(ctx, orderID, partnerID, status)
		if err != nil {
			t.Fatalf("advance to %s: %v", status, err)
		}
	}
	return order
}

func profileWithZones(zones []string) fulfillment.ProfileUpdate {
	return fulfillment.ProfileUpdate{DeliveryZones: zones}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
