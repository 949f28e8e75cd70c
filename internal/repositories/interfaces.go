package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/chowkart/chowkart/internal/models"
)

// ErrStatusConflict is returned by conditional order writes when the row
// was no longer in the expected source status. Callers translate it into
// the right domain error for the operation that lost the race.
var ErrStatusConflict = errors.New("order status changed concurrently")

// OrderRepository persists the order aggregate. Every mutating method is a
// single conditional write against the backing store: the expected source
// state is part of the WHERE clause, so two writers can never interleave
// a read-validate-write cycle.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	ListByVendor(ctx context.Context, vendorID string, status models.OrderStatus) ([]*models.Order, error)
	ListByPartner(ctx context.Context, partnerID string) ([]*models.Order, error)
	ListReady(ctx context.Context) ([]*models.Order, error)

	// ListDelivered returns delivered orders filtered by vendor and/or
	// partner (empty string matches all) whose delivery fell in [from, to).
	// Zero times disable the window.
	ListDelivered(ctx context.Context, vendorID, partnerID string, from, to time.Time) ([]*models.Order, error)

	// TransitionStatus moves the order from exactly `from` to `to`,
	// stamping the first-entry timestamp for `to`. Fails with
	// ErrStatusConflict when the order is no longer in `from`.
	TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, at time.Time) (*models.Order, error)

	// AssignPartner binds the partner to a ready, unassigned order and
	// moves it to assigned in one conditional write. A lost race yields
	// models.ErrAlreadyAssigned.
	AssignPartner(ctx context.Context, orderID string, partner *models.DeliveryPartner, fee, earnings, distanceKm float64, at time.Time) (*models.Order, error)

	// AcceptAssignment moves assigned -> accepted, guarded on the bound
	// partner. A different partner gets models.ErrNotAssignedToYou.
	AcceptAssignment(ctx context.Context, orderID, partnerID string, at time.Time) (*models.Order, error)

	// RejectAssignment appends the rejection record, clears the partner
	// snapshot and returns the order to ready, all in one write.
	RejectAssignment(ctx context.Context, orderID, partnerID string, rejection models.RejectionRecord) (*models.Order, error)

	// AdvanceByPartner is TransitionStatus guarded on the bound partner,
	// used for the picked_up / out_for_delivery / delivered legs.
	AdvanceByPartner(ctx context.Context, orderID, partnerID string, from, to models.OrderStatus, at time.Time) (*models.Order, error)

	SetRating(ctx context.Context, orderID string, rating models.OrderRating) (*models.Order, error)
}

// DeliveryPartnerRepository persists partner profiles, verification
// history and delivery counters.
type DeliveryPartnerRepository interface {
	Create(ctx context.Context, partner *models.DeliveryPartner) error
	GetByID(ctx context.Context, id string) (*models.DeliveryPartner, error)
	GetAll(ctx context.Context) ([]*models.DeliveryPartner, error)

	// ListAssignable returns available, approved partners whose zones
	// include the given pincode.
	ListAssignable(ctx context.Context, pincode string) ([]*models.DeliveryPartner, error)

	Update(ctx context.Context, partner *models.DeliveryPartner) error
	SetAvailability(ctx context.Context, id string, available bool) (*models.DeliveryPartner, error)

	// AppendVerification adds one decision to the history and sets the
	// partner's verification status.
	AppendVerification(ctx context.Context, id string, rec models.VerificationRecord, status models.VerificationStatus) (*models.DeliveryPartner, error)

	// CreditDelivery adds a completed delivery and its earnings to the
	// partner's counters, keyed by order id. Replays return false and
	// change nothing.
	CreditDelivery(ctx context.Context, partnerID, orderID string, earnings float64, at time.Time) (bool, error)

	// CreditCancellation bumps the cancelled counter, keyed by order id
	// with the same replay guard.
	CreditCancellation(ctx context.Context, partnerID, orderID string, at time.Time) (bool, error)

	// AddRating folds one 1-5 delivery rating into the running average.
	AddRating(ctx context.Context, partnerID string, rating int) (*models.DeliveryPartner, error)
}

type VendorRepository interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
	GetAll(ctx context.Context) ([]*models.Vendor, error)
}
