package memory

import (
	"context"
	"sort"
	"time"

	"github.com/chowkart/chowkart/internal/models"
)

type DeliveryPartnerRepository struct {
	store *Store
}

func (r *DeliveryPartnerRepository) Create(ctx context.Context, partner *models.DeliveryPartner) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.partners[partner.ID] = clonePartner(partner)
	return nil
}

func (r *DeliveryPartnerRepository) GetByID(ctx context.Context, id string) (*models.DeliveryPartner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	partner, ok := r.store.partners[id]
	if !ok {
		return nil, models.ErrPartnerNotFound
	}
	return clonePartner(partner), nil
}

func (r *DeliveryPartnerRepository) GetAll(ctx context.Context) ([]*models.DeliveryPartner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*models.DeliveryPartner, 0, len(r.store.partners))
	for _, partner := range r.store.partners {
		out = append(out, clonePartner(partner))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *DeliveryPartnerRepository) ListAssignable(ctx context.Context, pincode string) ([]*models.DeliveryPartner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.DeliveryPartner
	for _, partner := range r.store.partners {
		if partner.IsAvailable && partner.IsVerified() && partner.ServesPincode(pincode) {
			out = append(out, clonePartner(partner))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating.Average > out[j].Rating.Average })
	return out, nil
}

func (r *DeliveryPartnerRepository) Update(ctx context.Context, partner *models.DeliveryPartner) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.partners[partner.ID]
	if !ok {
		return models.ErrPartnerNotFound
	}
	updated := clonePartner(partner)
	// Verification and counters are owned by their dedicated operations.
	updated.VerificationStatus = existing.VerificationStatus
	updated.VerificationHistory = existing.VerificationHistory
	updated.Stats = existing.Stats
	updated.Rating = existing.Rating
	updated.UpdatedAt = time.Now()
	r.store.partners[partner.ID] = updated
	return nil
}

func (r *DeliveryPartnerRepository) SetAvailability(ctx context.Context, id string, available bool) (*models.DeliveryPartner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	partner, ok := r.store.partners[id]
	if !ok {
		return nil, models.ErrPartnerNotFound
	}
	partner.IsAvailable = available
	partner.UpdatedAt = time.Now()
	return clonePartner(partner), nil
}

func (r *DeliveryPartnerRepository) AppendVerification(ctx context.Context, id string, rec models.VerificationRecord, status models.VerificationStatus) (*models.DeliveryPartner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	partner, ok := r.store.partners[id]
	if !ok {
		return nil, models.ErrPartnerNotFound
	}
	partner.VerificationHistory = append(partner.VerificationHistory, rec)
	partner.VerificationStatus = status
	partner.UpdatedAt = rec.DecidedAt
	return clonePartner(partner), nil
}

func (r *DeliveryPartnerRepository) CreditDelivery(ctx context.Context, partnerID, orderID string, earnings float64, at time.Time) (bool, error) {
	return r.credit(partnerID, orderID, "delivery", earnings, at)
}

func (r *DeliveryPartnerRepository) CreditCancellation(ctx context.Context, partnerID, orderID string, at time.Time) (bool, error) {
	return r.credit(partnerID, orderID, "cancellation", 0, at)
}

func (r *DeliveryPartnerRepository) credit(partnerID, orderID, kind string, earnings float64, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	partner, ok := r.store.partners[partnerID]
	if !ok {
		return false, models.ErrPartnerNotFound
	}
	if _, done := r.store.credits[orderID]; done {
		return false, nil
	}
	r.store.credits[orderID] = kind

	monthKey := at.Format("2006-01")
	if partner.Stats.MonthKey != monthKey {
		partner.Stats.CurrentMonth = models.StatBucket{}
		partner.Stats.MonthKey = monthKey
	}
	if kind == "delivery" {
		partner.Stats.Lifetime.CompletedDeliveries++
		partner.Stats.Lifetime.TotalEarnings += earnings
		partner.Stats.CurrentMonth.CompletedDeliveries++
		partner.Stats.CurrentMonth.TotalEarnings += earnings
	} else {
		partner.Stats.Lifetime.CancelledDeliveries++
		partner.Stats.CurrentMonth.CancelledDeliveries++
	}
	partner.UpdatedAt = at
	return true, nil
}

func (r *DeliveryPartnerRepository) AddRating(ctx context.Context, partnerID string, rating int) (*models.DeliveryPartner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	partner, ok := r.store.partners[partnerID]
	if !ok {
		return nil, models.ErrPartnerNotFound
	}
	total := partner.Rating.Average*float64(partner.Rating.TotalRatings) + float64(rating)
	partner.Rating.TotalRatings++
	partner.Rating.Average = total / float64(partner.Rating.TotalRatings)
	partner.UpdatedAt = time.Now()
	return clonePartner(partner), nil
}
