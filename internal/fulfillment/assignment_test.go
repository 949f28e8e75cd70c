package fulfillment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
)

func TestFeePolicy_Quote(t *testing.T) {
	policy := fulfillment.DefaultFeePolicy()

	cases := []struct {
		name       string
		distanceKm float64
		wantFee    float64
		wantShare  float64
	}{
		{"unknown distance", 0, 25, 20},
		{"within included distance", 4.2, 25, 20},
		{"exactly included distance", 5, 25, 20},
		{"partial extra km does not count", 5.9, 25, 20},
		{"one full extra km", 6.5, 30, 25},
		{"eight km", 8, 40, 35},
		{"twelve km", 12, 60, 55},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, share := policy.Quote(tc.distanceKm)
			if fee != tc.wantFee || share != tc.wantShare {
				t.Errorf("Quote(%v) = (%v, %v), want (%v, %v)", tc.distanceKm, fee, share, tc.wantFee, tc.wantShare)
			}
		})
	}
}

func TestFeePolicyFromConfig_TakesKnobsVerbatim(t *testing.T) {
	// A free-delivery promotion sets the base fee to zero on purpose; the
	// remaining knobs must survive untouched.
	policy := fulfillment.FeePolicyFromConfig(&models.Config{
		BaseDeliveryFee:    0,
		BasePartnerShare:   15,
		PerKmSurcharge:     5,
		IncludedDistanceKm: 5,
		PlatformMargin:     5,
	})

	if fee, share := policy.Quote(3); fee != 0 || share != 15 {
		t.Errorf("Quote(3) = (%v, %v), want (0, 15)", fee, share)
	}
	if fee, share := policy.Quote(8); fee != 15 || share != 10 {
		t.Errorf("Quote(8) = (%v, %v), want (15, 10)", fee, share)
	}
}

func TestAssignPartner_BindsPartnerAndPricesDelivery(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	assigned, err := svc.AssignPartner(ctx, order.ID, partner.ID)
	if err != nil {
		t.Fatalf("AssignPartner: %v", err)
	}

	if assigned.Status != models.OrderStatusAssigned {
		t.Errorf("Status = %s, want assigned", assigned.Status)
	}
	if assigned.DeliveryDetails.PartnerID != partner.ID {
		t.Errorf("PartnerID = %q, want %q", assigned.DeliveryDetails.PartnerID, partner.ID)
	}
	if assigned.DeliveryDetails.PartnerName != partner.FullName {
		t.Errorf("PartnerName = %q, want %q", assigned.DeliveryDetails.PartnerName, partner.FullName)
	}
	if assigned.DeliveryDetails.DeliveryFee == 0 || assigned.DeliveryDetails.PartnerEarnings == 0 {
		t.Errorf("fee/earnings not priced: %+v", assigned.DeliveryDetails)
	}
	if assigned.DeliveryDetails.AssignedAt == nil {
		t.Error("AssignedAt not set")
	}
}

func TestAssignPartner_Preconditions(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	ctx := context.Background()

	t.Run("order not ready", func(t *testing.T) {
		partner := seedPartner(t, store, "110001")
		order := placeOrder(t, svc, vendor)
		_, err := svc.AssignPartner(ctx, order.ID, partner.ID)
		if !errors.Is(err, models.ErrAssignmentRejected) {
			t.Fatalf("err = %v, want ErrAssignmentRejected", err)
		}
	})

	t.Run("partner not verified", func(t *testing.T) {
		pending := partnerFactory.CreateDeliveryPartner("110001")
		pending.VerificationStatus = models.VerificationPending
		if err := store.Partners().Create(ctx, pending); err != nil {
			t.Fatal(err)
		}
		order := readyOrder(t, svc, vendor)
		_, err := svc.AssignPartner(ctx, order.ID, pending.ID)
		if !errors.Is(err, models.ErrAssignmentRejected) {
			t.Fatalf("err = %v, want ErrAssignmentRejected", err)
		}
	})

	t.Run("partner off duty", func(t *testing.T) {
		partner := seedPartner(t, store, "110001")
		if _, err := svc.SetAvailability(ctx, partner.ID, false); err != nil {
			t.Fatal(err)
		}
		order := readyOrder(t, svc, vendor)
		_, err := svc.AssignPartner(ctx, order.ID, partner.ID)
		if !errors.Is(err, models.ErrAssignmentRejected) {
			t.Fatalf("err = %v, want ErrAssignmentRejected", err)
		}
	})

	t.Run("zone mismatch", func(t *testing.T) {
		partner := seedPartner(t, store, "560001")
		order := readyOrder(t, svc, vendor)
		_, err := svc.AssignPartner(ctx, order.ID, partner.ID)
		if !errors.Is(err, models.ErrAssignmentRejected) {
			t.Fatalf("err = %v, want ErrAssignmentRejected", err)
		}
	})

	t.Run("already assigned", func(t *testing.T) {
		first := seedPartner(t, store, "110001")
		second := seedPartner(t, store, "110001")
		order := readyOrder(t, svc, vendor)
		if _, err := svc.AssignPartner(ctx, order.ID, first.ID); err != nil {
			t.Fatal(err)
		}
		_, err := svc.AssignPartner(ctx, order.ID, second.ID)
		if !errors.Is(err, models.ErrAlreadyAssigned) {
			t.Fatalf("err = %v, want ErrAlreadyAssigned", err)
		}
	})
}

func TestAssignPartner_ConcurrentAssignersOneWinner(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	first := seedPartner(t, store, "110001")
	second := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, partnerID := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, partnerID string) {
			defer wg.Done()
			_, results[i] = svc.AssignPartner(ctx, order.ID, partnerID)
		}(i, partnerID)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, models.ErrAlreadyAssigned), errors.Is(err, models.ErrAssignmentRejected):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins = %d, losses = %d; want exactly one of each", wins, losses)
	}

	final, err := store.Orders().GetByID(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != models.OrderStatusAssigned || !final.Assigned() {
		t.Fatalf("final order: status %s, partner %q", final.Status, final.DeliveryDetails.PartnerID)
	}
}

func TestPartnerReject_ReturnsOrderToReadyPool(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	rejected, err := svc.PartnerReject(ctx, order.ID, partner.ID, "vehicle breakdown")
	if err != nil {
		t.Fatalf("PartnerReject: %v", err)
	}

	if rejected.Status != models.OrderStatusReady {
		t.Errorf("Status = %s, want ready", rejected.Status)
	}
	if rejected.Assigned() || rejected.DeliveryPartnerID != "" {
		t.Errorf("partner snapshot not cleared: %+v", rejected.DeliveryDetails)
	}
	if len(rejected.DeliveryDetails.Rejections) != 1 {
		t.Fatalf("Rejections = %d, want 1", len(rejected.DeliveryDetails.Rejections))
	}
	rec := rejected.DeliveryDetails.Rejections[0]
	if rec.PartnerID != partner.ID || rec.Reason != "vehicle breakdown" {
		t.Errorf("rejection record = %+v", rec)
	}

	// The order is assignable again, including to the same partner.
	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("reassign after rejection: %v", err)
	}
}

func TestPartnerAccept_GuardsBoundPartner(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	other := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := svc.PartnerAccept(ctx, order.ID, other.ID); !errors.Is(err, models.ErrNotAssignedToYou) {
		t.Fatalf("accept by stranger: err = %v, want ErrNotAssignedToYou", err)
	}

	accepted, err := svc.PartnerAccept(ctx, order.ID, partner.ID)
	if err != nil {
		t.Fatalf("PartnerAccept: %v", err)
	}
	if accepted.Status != models.OrderStatusAccepted {
		t.Errorf("Status = %s, want accepted", accepted.Status)
	}
	if accepted.DeliveryDetails.AcceptedAt == nil {
		t.Error("AcceptedAt not set")
	}
}

func TestPartnerAdvance_Guards(t *testing.T) {
	svc, store := newTestService(t)
	vendor := seedVendor(t, store, "110001")
	partner := seedPartner(t, store, "110001")
	other := seedPartner(t, store, "110001")
	ctx := context.Background()

	order := readyOrder(t, svc, vendor)
	if _, err := svc.AssignPartner(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.PartnerAccept(ctx, order.ID, partner.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := svc.PartnerAdvance(ctx, order.ID, other.ID, models.OrderStatusPickedUp); !errors.Is(err, models.ErrNotAssignedToYou) {
		t.Fatalf("advance by stranger: err = %v, want ErrNotAssignedToYou", err)
	}
	if _, err := svc.PartnerAdvance(ctx, order.ID, partner.ID, models.OrderStatusDelivered); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("skip to delivered: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.PartnerAdvance(ctx, order.ID, partner.ID, models.OrderStatusConfirmed); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("advance to non-delivery status: err = %v, want ErrInvalidTransition", err)
	}

	advanced, err := svc.PartnerAdvance(ctx, order.ID, partner.ID, models.OrderStatusPickedUp)
	if err != nil {
		t.Fatalf("PartnerAdvance: %v", err)
	}
	if advanced.Status != models.OrderStatusPickedUp {
		t.Errorf("Status = %s, want picked_up", advanced.Status)
	}
}

func TestAutoAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("skips prior rejectors", func(t *testing.T) {
		svc, store := newTestService(t)
		vendor := seedVendor(t, store, "110001")
		rejector := seedPartner(t, store, "110001")
		fallback := seedPartner(t, store, "110001")

		order := readyOrder(t, svc, vendor)
		if _, err := svc.AssignPartner(ctx, order.ID, rejector.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.PartnerReject(ctx, order.ID, rejector.ID, "too far"); err != nil {
			t.Fatal(err)
		}

		assigned, err := svc.AutoAssign(ctx, order.ID)
		if err != nil {
			t.Fatalf("AutoAssign: %v", err)
		}
		if assigned.DeliveryDetails.PartnerID != fallback.ID {
			t.Errorf("assigned to %q, want fallback %q", assigned.DeliveryDetails.PartnerID, fallback.ID)
		}
	})

	t.Run("no eligible partner", func(t *testing.T) {
		svc, store := newTestService(t)
		vendor := seedVendor(t, store, "110001")
		seedPartner(t, store, "560001")

		order := readyOrder(t, svc, vendor)
		_, err := svc.AutoAssign(ctx, order.ID)
		if !errors.Is(err, models.ErrAssignmentRejected) {
			t.Fatalf("err = %v, want ErrAssignmentRejected", err)
		}
	})
}
