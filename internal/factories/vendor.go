package factories

import (
	"time"

	"github.com/google/uuid"

	"github.com/chowkart/chowkart/internal/models"
)

type VendorFactory struct{}

// CreateVendor returns a vendor delivering to the given pincodes.
func (vf *VendorFactory) CreateVendor(pincodes ...string) *models.Vendor {
	if len(pincodes) == 0 {
		pincodes = []string{Pincodes[0]}
	}

	return &models.Vendor{
		ID:    uuid.New().String(),
		Name:  fake.Company().Name(),
		Phone: fake.Phone().Number(),
		Address: models.Address{
			Street:  fake.Address().StreetName(),
			City:    "New Delhi",
			State:   "Delhi",
			Pincode: pincodes[0],
		},
		DeliveryPincodes: pincodes,
		CreatedAt:        time.Now(),
	}
}
