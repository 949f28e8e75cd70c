package factories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"

	"github.com/chowkart/chowkart/internal/models"
)

var fake = faker.New()

// Delhi-area pincodes used across fixtures so partner zones and vendor
// coverage can be made to overlap (or not) deliberately.
var Pincodes = []string{"110001", "110002", "110003", "110016", "110017", "110019"}

type DeliveryPartnerFactory struct{}

// CreateDeliveryPartner returns a fully filled, approved, available
// partner serving the given zones. Tests that need a pending or partial
// profile blank out fields afterwards.
func (df *DeliveryPartnerFactory) CreateDeliveryPartner(zones ...string) *models.DeliveryPartner {
	if len(zones) == 0 {
		zones = []string{Pincodes[0]}
	}

	hours := make(map[string]models.DaySchedule, 7)
	for _, day := range models.Weekdays() {
		hours[day] = models.DaySchedule{IsWorking: true, StartTime: "09:00", EndTime: "22:00"}
	}

	joined := fake.Time().TimeBetween(time.Now().AddDate(-1, 0, 0), time.Now())
	return &models.DeliveryPartner{
		ID:       uuid.New().String(),
		UserID:   uuid.New().String(),
		FullName: fake.Person().Name(),
		MobileNo: fake.Phone().Number(),
		Address: models.Address{
			HouseNo: fake.Address().BuildingNumber(),
			Street:  fake.Address().StreetName(),
			City:    "New Delhi",
			State:   "Delhi",
			Pincode: zones[0],
		},
		Vehicle: models.VehicleDetails{
			Type:      fake.RandomStringElement([]string{"bike", "scooter", "bicycle"}),
			Number:    fmt.Sprintf("DL%dSAB%d", fake.IntBetween(1, 9), fake.IntBetween(1000, 9999)),
			LicenseNo: fmt.Sprintf("DL-%d", fake.IntBetween(1000000000, 1999999999)),
		},
		Bank: models.BankDetails{
			AccountHolder: fake.Person().Name(),
			AccountNumber: fmt.Sprintf("%d", fake.IntBetween(100000000, 999999999)),
			IFSCCode:      fmt.Sprintf("HDFC0%d", fake.IntBetween(100000, 999999)),
			BankName:      "HDFC Bank",
		},
		WorkingHours:       hours,
		DeliveryZones:      zones,
		IsAvailable:        true,
		VerificationStatus: models.VerificationApproved,
		JoinedAt:           joined,
		UpdatedAt:          joined,
	}
}
