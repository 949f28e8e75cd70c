package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories"
)

// AssignPartner binds a ready order to the partner. Preconditions are
// checked here for a precise rejection reason, but the binding itself is
// a single conditional write in the repository, so a concurrent assigner
// cannot slip in between the check and the write: the loser of that race
// sees ErrAlreadyAssigned.
func (s *Service) AssignPartner(ctx context.Context, orderID, partnerID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	partner, err := s.partners.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusAssigned || order.Assigned() {
		return nil, models.ErrAlreadyAssigned
	}
	if order.Status != models.OrderStatusReady {
		return nil, models.AssignmentRejectedError(
			fmt.Sprintf("order is %s, not ready", order.Status))
	}
	if !partner.IsVerified() {
		return nil, models.AssignmentRejectedError("partner is not verified")
	}
	if !partner.IsAvailable {
		return nil, models.AssignmentRejectedError("partner is not available")
	}
	if !partner.ServesPincode(order.DeliveryAddress.Pincode) {
		return nil, models.AssignmentRejectedError(
			fmt.Sprintf("partner does not cover pincode %s", order.DeliveryAddress.Pincode))
	}

	fee, share := s.fees.Quote(order.DeliveryDetails.DistanceKm)
	updated, err := s.orders.AssignPartner(ctx, orderID, partner, fee, share, order.DeliveryDetails.DistanceKm, s.now())
	if errors.Is(err, repositories.ErrStatusConflict) {
		return nil, models.AssignmentRejectedError("order is no longer ready")
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"order_number": updated.OrderNumber,
		"partner_id":   partner.ID,
		"delivery_fee": fee,
	}).Info("partner assigned")
	s.emitStatus(updated, "")
	return updated, nil
}

// AutoAssign offers the order to the best eligible partner. Partners who
// already rejected this order are skipped as a matching policy; a vendor
// can still assign them manually.
func (s *Service) AutoAssign(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusReady {
		return nil, models.AssignmentRejectedError(
			fmt.Sprintf("order is %s, not ready", order.Status))
	}

	candidates, err := s.partners.ListAssignable(ctx, order.DeliveryAddress.Pincode)
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		if order.HasRejectedBefore(candidate.ID) {
			continue
		}
		updated, err := s.AssignPartner(ctx, orderID, candidate.ID)
		if errors.Is(err, models.ErrAlreadyAssigned) {
			// Someone else bound the order while we were matching.
			return nil, err
		}
		if errors.Is(err, models.ErrAssignmentRejected) {
			// Candidate went off duty between listing and binding.
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, models.AssignmentRejectedError(
		fmt.Sprintf("no eligible partner for pincode %s", order.DeliveryAddress.Pincode))
}

// PartnerAccept confirms the assignment: assigned -> accepted.
func (s *Service) PartnerAccept(ctx context.Context, orderID, partnerID string) (*models.Order, error) {
	updated, err := s.orders.AcceptAssignment(ctx, orderID, partnerID, s.now())
	if errors.Is(err, repositories.ErrStatusConflict) {
		current, readErr := s.orders.GetByID(ctx, orderID)
		if readErr != nil {
			return nil, readErr
		}
		return nil, models.InvalidTransitionError(current.Status, models.OrderStatusAccepted)
	}
	if err != nil {
		return nil, err
	}
	s.log.WithFields(map[string]interface{}{
		"order_number": updated.OrderNumber,
		"partner_id":   partnerID,
	}).Info("partner accepted order")
	s.emitStatus(updated, "")
	return updated, nil
}

// PartnerReject returns the order to the ready pool, recording the
// rejection. Works from assigned, and from accepted when a partner backs
// out before pickup.
func (s *Service) PartnerReject(ctx context.Context, orderID, partnerID, reason string) (*models.Order, error) {
	rejection := models.RejectionRecord{
		PartnerID:  partnerID,
		Reason:     reason,
		RejectedAt: s.now(),
	}
	updated, err := s.orders.RejectAssignment(ctx, orderID, partnerID, rejection)
	if errors.Is(err, repositories.ErrStatusConflict) {
		current, readErr := s.orders.GetByID(ctx, orderID)
		if readErr != nil {
			return nil, readErr
		}
		return nil, models.InvalidTransitionError(current.Status, models.OrderStatusReady)
	}
	if err != nil {
		return nil, err
	}
	s.log.WithFields(map[string]interface{}{
		"order_number": updated.OrderNumber,
		"partner_id":   partnerID,
		"reason":       reason,
	}).Info("partner rejected order")
	s.emitStatus(updated, reason)
	return updated, nil
}

// PartnerAdvance moves the order along the delivery legs: picked_up,
// out_for_delivery, delivered. Only the bound partner may advance.
func (s *Service) PartnerAdvance(ctx context.Context, orderID, partnerID string, next models.OrderStatus) (*models.Order, error) {
	switch next {
	case models.OrderStatusPickedUp, models.OrderStatusOutForDelivery, models.OrderStatusDelivered:
	default:
		return nil, models.InvalidTransitionError("", next)
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryDetails.PartnerID != partnerID {
		return nil, models.ErrNotAssignedToYou
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, models.InvalidTransitionError(order.Status, next)
	}

	updated, err := s.orders.AdvanceByPartner(ctx, orderID, partnerID, order.Status, next, s.now())
	if errors.Is(err, repositories.ErrStatusConflict) {
		current, readErr := s.orders.GetByID(ctx, orderID)
		if readErr != nil {
			return nil, readErr
		}
		return nil, models.InvalidTransitionError(current.Status, next)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"order_number": updated.OrderNumber,
		"partner_id":   partnerID,
		"status":       updated.Status,
	}).Info("delivery advanced")

	s.settleTerminal(ctx, updated)
	s.emitStatus(updated, "")
	return updated, nil
}
