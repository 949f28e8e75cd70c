package models

import (
	"errors"
	"fmt"
)

// Domain errors. All are expected, recoverable-by-caller conditions; the
// service wraps them with context and callers match with errors.Is.
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAssignmentRejected = errors.New("assignment rejected")
	ErrAlreadyAssigned    = errors.New("order already assigned to another partner")
	ErrNotAssignedToYou   = errors.New("order is not assigned to this partner")
	ErrCoverageMismatch   = errors.New("partner delivery zones do not overlap vendor pincodes")

	ErrOrderNotFound   = errors.New("order not found")
	ErrPartnerNotFound = errors.New("delivery partner not found")
	ErrVendorNotFound  = errors.New("vendor not found")
)

// InvalidTransitionError reports the exact illegal pair.
func InvalidTransitionError(from, to OrderStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// AssignmentRejectedError names the precondition that failed.
func AssignmentRejectedError(reason string) error {
	return fmt.Errorf("%w: %s", ErrAssignmentRejected, reason)
}
