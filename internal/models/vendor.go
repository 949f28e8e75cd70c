package models

import "time"

// Vendor is the restaurant-side party. Only the fields the fulfillment
// core needs: identity, contact snapshot source and coverage pincodes.
type Vendor struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone,omitempty"`
	Address          Address   `json:"address"`
	DeliveryPincodes []string  `json:"delivery_pincodes"`
	CreatedAt        time.Time `json:"created_at"`
}

// CoversAnyZone reports whether any of the given zones overlaps the
// vendor's delivery pincodes.
func (v *Vendor) CoversAnyZone(zones []string) bool {
	for _, zone := range zones {
		for _, pin := range v.DeliveryPincodes {
			if zone == pin {
				return true
			}
		}
	}
	return false
}
