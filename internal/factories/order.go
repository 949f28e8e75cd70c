package factories

import (
	"github.com/google/uuid"

	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
)

var menuItems = []string{
	"Paneer Butter Masala", "Chicken Biryani", "Masala Dosa",
	"Chole Bhature", "Veg Thali", "Butter Naan", "Dal Makhani",
}

type OrderFactory struct{}

// CreateOrderInput returns a checkout for the vendor, delivered to the
// vendor's first pincode.
func (of *OrderFactory) CreateOrderInput(vendor *models.Vendor) fulfillment.CreateOrderInput {
	count := fake.IntBetween(1, 3)
	items := make([]fulfillment.OrderItemInput, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, fulfillment.OrderItemInput{
			MenuItemID: uuid.New().String(),
			Name:       fake.RandomStringElement(menuItems),
			UnitPrice:  float64(fake.IntBetween(40, 350)),
			Quantity:   fake.IntBetween(1, 3),
		})
	}

	return fulfillment.CreateOrderInput{
		CustomerID:    uuid.New().String(),
		VendorID:      vendor.ID,
		Items:         items,
		PaymentMethod: fake.RandomStringElement([]string{"upi", "card", "cod"}),
		CustomerDetails: models.ContactSnapshot{
			Name:  fake.Person().Name(),
			Phone: fake.Phone().Number(),
		},
		DeliveryAddress: models.Address{
			HouseNo: fake.Address().BuildingNumber(),
			Street:  fake.Address().StreetName(),
			City:    "New Delhi",
			State:   "Delhi",
			Pincode: vendor.DeliveryPincodes[0],
		},
		DistanceKm: float64(fake.IntBetween(1, 9)),
	}
}
