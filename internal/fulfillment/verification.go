package fulfillment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/chowkart/chowkart/internal/models"
)

// CanVerify reports whether the vendor is allowed to decide on the
// partner. A vendor may only review partners whose delivery zones
// overlap the vendor's own pincodes; a partner with no zones declared
// is not eligible for review at all.
func (s *Service) CanVerify(vendor *models.Vendor, partner *models.DeliveryPartner) bool {
	if len(partner.DeliveryZones) == 0 {
		return false
	}
	return vendor.CoversAnyZone(partner.DeliveryZones)
}

// DecideVerification records one vendor decision on a partner. The
// action is normalized ("approve" and "approved" both mean approval),
// appended to the partner's history, and the partner's verification
// status follows the latest entry. Re-deciding is always allowed; a
// rejection after an approval simply appends.
func (s *Service) DecideVerification(ctx context.Context, vendorID, partnerID, action, reason string) (*models.DeliveryPartner, error) {
	normalized, err := normalizeVerificationAction(action)
	if err != nil {
		return nil, err
	}

	vendor, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	partner, err := s.partners.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if !s.CanVerify(vendor, partner) {
		return nil, fmt.Errorf("vendor %s cannot verify partner %s: %w", vendorID, partnerID, models.ErrCoverageMismatch)
	}

	rec := models.VerificationRecord{
		VendorID:   vendor.ID,
		VendorName: vendor.Name,
		Action:     normalized,
		Reason:     reason,
		DecidedAt:  s.now(),
	}

	status := models.VerificationApproved
	if normalized == models.VerificationActionRejected {
		status = models.VerificationRejected
	}

	updated, err := s.partners.AppendVerification(ctx, partnerID, rec, status)
	if err != nil {
		return nil, fmt.Errorf("failed to record verification decision: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"vendor_id":  vendorID,
		"partner_id": partnerID,
		"action":     normalized,
	}).Info("verification decision recorded")

	return updated, nil
}

func normalizeVerificationAction(action string) (models.VerificationAction, error) {
	switch action {
	case "approve", "approved":
		return models.VerificationActionApproved, nil
	case "reject", "rejected":
		return models.VerificationActionRejected, nil
	default:
		return "", fmt.Errorf("unknown verification action %q", action)
	}
}
