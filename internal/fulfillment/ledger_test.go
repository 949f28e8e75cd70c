package fulfillment_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
)

func TestCreateOrder_SnapshotsItemsAndTotal(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")

	order, err := svc.CreateOrder(context.Background(), fulfillment.CreateOrderInput{
		CustomerID:    "cust-1",
		VendorID:      vendor.ID,
		PaymentMethod: "upi",
		Items: []fulfillment.OrderItemInput{
			{MenuItemID: "m1", Name: "Paneer Butter Masala", UnitPrice: 85, Quantity: 2},
			{MenuItemID: "m2", Name: "Butter Naan", UnitPrice: 67, Quantity: 1},
		},
		DeliveryAddress: models.Address{Street: "MG Road", City: "New Delhi", State: "Delhi", Pincode: "110001"},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.TotalAmount != 237 {
		t.Errorf("TotalAmount = %v, want 237", order.TotalAmount)
	}
	if order.Items[0].Subtotal != 170 || order.Items[1].Subtotal != 67 {
		t.Errorf("subtotals = %v, %v; want 170, 67", order.Items[0].Subtotal, order.Items[1].Subtotal)
	}
	if order.Status != models.OrderStatusPlaced {
		t.Errorf("Status = %s, want placed", order.Status)
	}
	if order.Timestamps.PlacedAt == nil {
		t.Error("PlacedAt not stamped")
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Errorf("OrderNumber = %q, want ORD- prefix", order.OrderNumber)
	}
	if order.VendorDetails.Name != vendor.Name {
		t.Errorf("VendorDetails.Name = %q, want %q", order.VendorDetails.Name, vendor.Name)
	}
}

func TestCreateOrder_RejectsBadInput(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store)

	t.Run("no items", func(t *testing.T) {
		_, err := svc.CreateOrder(context.Background(), fulfillment.CreateOrderInput{VendorID: vendor.ID})
		if err == nil {
			t.Fatal("expected error for empty order")
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := svc.CreateOrder(context.Background(), fulfillment.CreateOrderInput{
			VendorID: vendor.ID,
			Items:    []fulfillment.OrderItemInput{{Name: "Dal Makhani", UnitPrice: 120, Quantity: 0}},
		})
		if err == nil {
			t.Fatal("expected error for zero quantity")
		}
	})

	t.Run("unknown vendor", func(t *testing.T) {
		_, err := svc.CreateOrder(context.Background(), fulfillment.CreateOrderInput{
			VendorID: "nope",
			Items:    []fulfillment.OrderItemInput{{Name: "Veg Thali", UnitPrice: 150, Quantity: 1}},
		})
		if !errors.Is(err, models.ErrVendorNotFound) {
			t.Fatalf("err = %v, want ErrVendorNotFound", err)
		}
	})
}

func TestTransitionStatus_FollowsStateMachine(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store)
	ctx := context.Background()

	order := placeOrder(t, svc, vendor)

	if _, err := svc.TransitionStatus(ctx, order.ID, models.OrderStatusReady, "vendor"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("placed -> ready: err = %v, want ErrInvalidTransition", err)
	}

	updated, err := svc.TransitionStatus(ctx, order.ID, models.OrderStatusConfirmed, "vendor")
	if err != nil {
		t.Fatalf("placed -> confirmed: %v", err)
	}
	if updated.Status != models.OrderStatusConfirmed {
		t.Errorf("Status = %s, want confirmed", updated.Status)
	}
	if updated.Timestamps.ConfirmedAt == nil {
		t.Error("ConfirmedAt not stamped")
	}

	if _, err := svc.TransitionStatus(ctx, order.ID, models.OrderStatusAssigned, "vendor"); !errors.Is(err, models.ErrAssignmentRejected) {
		t.Fatalf("direct transition to assigned: err = %v, want ErrAssignmentRejected", err)
	}
}

func TestTransitionStatus_KeepsBoundPartnerOffTheGenericPath(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	other := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Releasing the partner records a rejection and clears the snapshot;
	// the generic path does neither, so it must refuse.
	if _, err := svc.TransitionStatus(ctx, order.ID, models.OrderStatusReady, "vendor"); !errors.Is(err, models.ErrAssignmentRejected) {
		t.Fatalf("assigned -> ready via TransitionStatus: err = %v, want ErrAssignmentRejected", err)
	}

	if _, err := svc.PartnerAccept(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.TransitionStatus(ctx, order.ID, models.OrderStatusReady, "vendor"); !errors.Is(err, models.ErrAssignmentRejected) {
		t.Fatalf("accepted -> ready via TransitionStatus: err = %v, want ErrAssignmentRejected", err)
	}

	current, err := svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if current.Status != models.OrderStatusAccepted || !current.Assigned() {
		t.Fatalf("order = %s/%q, want accepted with partner bound", current.Status, current.DeliveryDetails.PartnerID)
	}

	// PartnerReject is the sanctioned release; the order rejoins the pool
	// and stays assignable.
	if _, err := svc.PartnerReject(ctx, order.ID, partner.ID, "vehicle breakdown"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	pool, err := svc.ListReadyOrders(ctx)
	if err != nil {
		t.Fatalf("ListReadyOrders: %v", err)
	}
	if len(pool) != 1 || pool[0].ID != order.ID {
		t.Fatalf("ready pool = %d orders, want the released order", len(pool))
	}
	reassigned, err := svc.AssignPartner(ctx, order.ID, other.ID)
	if err != nil {
		t.Fatalf("reassign after release: %v", err)
	}
	if reassigned.DeliveryDetails.PartnerID != other.ID {
		t.Errorf("PartnerID = %q, want %q", reassigned.DeliveryDetails.PartnerID, other.ID)
	}
}

func TestTransitionStatus_TerminalIsFinal(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store)
	ctx := context.Background()

	order := placeOrder(t, svc, vendor)
	if _, err := svc.TransitionStatus(ctx, order.ID, models.OrderStatusCancelled, "customer"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.TransitionStatus(ctx, order.ID, models.OrderStatusConfirmed, "vendor"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("transition out of cancelled: err = %v, want ErrInvalidTransition", err)
	}
}

func TestFullDeliveryPath_StampsEveryTimestamp(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	final := deliverOrder(t, svc, order.ID, partner.ID)

	if final.Status != models.OrderStatusDelivered {
		t.Fatalf("Status = %s, want delivered", final.Status)
	}
	for _, status := range []models.OrderStatus{
		models.OrderStatusPlaced,
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusAssigned,
		models.OrderStatusAccepted,
		models.OrderStatusPickedUp,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
	} {
		if final.Timestamps.At(status) == nil {
			t.Errorf("timestamp for %s not stamped", status)
		}
	}

	// Delivery settles the partner's counters exactly once.
	settled, err := store.Partners().GetByID(ctx, partner.ID)
	if err != nil {
		t.Fatalf("reload partner: %v", err)
	}
	if settled.Stats.Lifetime.CompletedDeliveries != 1 {
		t.Errorf("CompletedDeliveries = %d, want 1", settled.Stats.Lifetime.CompletedDeliveries)
	}
	if settled.Stats.Lifetime.TotalEarnings != final.DeliveryDetails.PartnerEarnings {
		t.Errorf("TotalEarnings = %v, want %v", settled.Stats.Lifetime.TotalEarnings, final.DeliveryDetails.PartnerEarnings)
	}
}

func TestRateOrder(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	if _, err := svc.RateOrder(ctx, order.ID, models.OrderRating{FoodRating: 5, DeliveryRating: 5, OverallRating: 5}); err == nil {
		t.Fatal("rating before delivery should fail")
	}

	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	deliverOrder(t, svc, order.ID, partner.ID)

	rated, err := svc.RateOrder(ctx, order.ID, models.OrderRating{FoodRating: 4, DeliveryRating: 5, OverallRating: 4, Comment: "quick"})
	if err != nil {
		t.Fatalf("RateOrder: %v", err)
	}
	if rated.Rating == nil || rated.Rating.DeliveryRating != 5 {
		t.Fatalf("Rating = %+v, want delivery rating 5", rated.Rating)
	}

	if _, err := svc.RateOrder(ctx, order.ID, models.OrderRating{FoodRating: 1, DeliveryRating: 1, OverallRating: 1}); err == nil {
		t.Fatal("second rating should fail")
	}

	reloaded, err := store.Partners().GetByID(ctx, partner.ID)
	if err != nil {
		t.Fatalf("reload partner: %v", err)
	}
	if reloaded.Rating.TotalRatings != 1 || reloaded.Rating.Average != 5 {
		t.Errorf("partner rating = %+v, want one 5-star rating", reloaded.Rating)
	}
}

func TestResettleDelivered_IsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	deliverOrder(t, svc, order.ID, partner.ID)

	// The delivery already credited the partner; a replay changes nothing.
	scanned := 0
	credited, err := svc.ResettleDelivered(ctx, func() { scanned++ })
	if err != nil {
		t.Fatalf("ResettleDelivered: %v", err)
	}
	if scanned != 1 {
		t.Errorf("scanned = %d, want 1", scanned)
	}
	if credited != 0 {
		t.Errorf("credited = %d, want 0 (already settled)", credited)
	}

	reloaded, _ := store.Partners().GetByID(ctx, partner.ID)
	if reloaded.Stats.Lifetime.CompletedDeliveries != 1 {
		t.Errorf("CompletedDeliveries = %d, want 1", reloaded.Stats.Lifetime.CompletedDeliveries)
	}
}
