package fulfillment_test

import (
	"context"
	"testing"

	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
)

func TestRegisterPartner_StartsEmptyWithDefaultHours(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	partner, err := svc.RegisterPartner(ctx, "user-1")
	if err != nil {
		t.Fatalf("RegisterPartner: %v", err)
	}

	if partner.VerificationStatus != models.VerificationPending {
		t.Errorf("VerificationStatus = %s, want pending", partner.VerificationStatus)
	}
	if partner.IsAvailable {
		t.Error("new partner should start off duty")
	}
	if len(partner.WorkingHours) != 7 {
		t.Fatalf("WorkingHours has %d days, want 7", len(partner.WorkingHours))
	}
	monday := partner.WorkingHours["monday"]
	if !monday.IsWorking || monday.StartTime != "09:00" || monday.EndTime != "22:00" {
		t.Errorf("monday schedule = %+v, want default 09:00-22:00", monday)
	}
}

func TestProfileCompletion(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("sparse profile", func(t *testing.T) {
		partner := &models.DeliveryPartner{
			FullName: "Ravi Kumar",
			MobileNo: "9876543210",
		}
		report := svc.ProfileCompletion(partner)
		// 2 of 13 leaf fields, no working hours, no zones: 2/15.
		if report.Percent != 13 {
			t.Errorf("Percent = %v, want 13", report.Percent)
		}
		if report.IsComplete {
			t.Error("sparse profile must not be complete")
		}
		if len(report.Missing) != 13 {
			t.Errorf("Missing has %d entries, want 13", len(report.Missing))
		}
	})

	t.Run("full profile", func(t *testing.T) {
		partner := partnerFactory.CreateDeliveryPartner("110001")
		report := svc.ProfileCompletion(partner)
		if report.Percent != 100 {
			t.Errorf("Percent = %v, want 100", report.Percent)
		}
		if !report.IsComplete {
			t.Error("full profile must be complete")
		}
		if len(report.Missing) != 0 {
			t.Errorf("Missing = %v, want none", report.Missing)
		}
	})

	t.Run("alternate mobile is not required", func(t *testing.T) {
		partner := partnerFactory.CreateDeliveryPartner("110001")
		partner.AlternateMobileNo = ""
		report := svc.ProfileCompletion(partner)
		if report.Percent != 100 {
			t.Errorf("Percent = %v, want 100 without alternate mobile", report.Percent)
		}
	})
}

func TestUpdatePartnerProfile_PartialUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	partner, err := svc.RegisterPartner(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	name := "Sunita Devi"
	zones := []string{"110001", "110002"}
	updated, report, err := svc.UpdatePartnerProfile(ctx, partner.ID, fulfillment.ProfileUpdate{
		FullName:      &name,
		DeliveryZones: zones,
	})
	if err != nil {
		t.Fatalf("UpdatePartnerProfile: %v", err)
	}

	if updated.FullName != name {
		t.Errorf("FullName = %q, want %q", updated.FullName, name)
	}
	if len(updated.DeliveryZones) != 2 {
		t.Errorf("DeliveryZones = %v", updated.DeliveryZones)
	}
	if report.IsComplete {
		t.Error("profile with one field and zones must not be complete")
	}

	// Untouched fields survive the partial update.
	if len(updated.WorkingHours) != 7 {
		t.Errorf("WorkingHours lost: %d days", len(updated.WorkingHours))
	}
}

func TestUpdatePartnerProfile_FillsMissingWorkingHours(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	partner, err := svc.RegisterPartner(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	// A partial schedule keeps the custom day and backfills the rest.
	custom := map[string]models.DaySchedule{
		"sunday": {IsWorking: false, StartTime: "10:00", EndTime: "16:00"},
	}
	updated, _, err := svc.UpdatePartnerProfile(ctx, partner.ID, fulfillment.ProfileUpdate{WorkingHours: custom})
	if err != nil {
		t.Fatalf("UpdatePartnerProfile: %v", err)
	}

	if len(updated.WorkingHours) != 7 {
		t.Fatalf("WorkingHours has %d days, want 7", len(updated.WorkingHours))
	}
	sunday := updated.WorkingHours["sunday"]
	if sunday.IsWorking || sunday.StartTime != "10:00" {
		t.Errorf("sunday = %+v, custom entry overwritten", sunday)
	}
	tuesday := updated.WorkingHours["tuesday"]
	if !tuesday.IsWorking || tuesday.StartTime != "09:00" {
		t.Errorf("tuesday = %+v, want default shift", tuesday)
	}
}

func TestSetAvailability_IsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	partner, err := svc.RegisterPartner(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		updated, err := svc.SetAvailability(ctx, partner.ID, true)
		if err != nil {
			t.Fatalf("SetAvailability: %v", err)
		}
		if !updated.IsAvailable {
			t.Fatal("partner should be available")
		}
	}

	updated, err := svc.SetAvailability(ctx, partner.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if updated.IsAvailable {
		t.Fatal("partner should be off duty")
	}
}
