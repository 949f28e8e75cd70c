package models

import "time"

// VerificationStatus is the partner's current review state. A partner is
// matchable only while approved.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationInReview VerificationStatus = "in_review"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationAction is a normalized vendor decision.
type VerificationAction string

const (
	VerificationActionApproved VerificationAction = "approved"
	VerificationActionRejected VerificationAction = "rejected"
)

type DeliveryPartner struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	FullName            string                 `json:"full_name"`
	MobileNo            string                 `json:"mobile_no"`
	AlternateMobileNo   string                 `json:"alternate_mobile_no,omitempty"`
	Address             Address                `json:"address"`
	Vehicle             VehicleDetails         `json:"vehicle"`
	Bank                BankDetails            `json:"bank"`
	WorkingHours        map[string]DaySchedule `json:"working_hours"`  // one entry per weekday, always populated
	DeliveryZones       []string               `json:"delivery_zones"` // pincodes the partner serves
	IsAvailable         bool                   `json:"is_available"`   // on/off duty, independent of verification
	VerificationStatus  VerificationStatus     `json:"verification_status"`
	VerificationHistory []VerificationRecord   `json:"verification_history,omitempty"` // append-only audit trail
	Stats               DeliveryStats          `json:"stats"`
	Rating              PartnerRating          `json:"rating"`
	JoinedAt            time.Time              `json:"joined_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

type VehicleDetails struct {
	Type      string `json:"type,omitempty"`
	Number    string `json:"number,omitempty"`
	LicenseNo string `json:"license_no,omitempty"`
}

type BankDetails struct {
	AccountHolder string `json:"account_holder,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IFSCCode      string `json:"ifsc_code,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
}

type DaySchedule struct {
	IsWorking bool   `json:"is_working"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// VerificationRecord is one vendor decision. The history keeps every
// record ever made; the "current decision" is derived from the last entry.
type VerificationRecord struct {
	VendorID   string             `json:"vendor_id"`
	VendorName string             `json:"vendor_name"`
	Action     VerificationAction `json:"action"`
	Reason     string             `json:"reason,omitempty"`
	DecidedAt  time.Time          `json:"decided_at"`
}

// StatBucket holds delivery counters for one accounting window.
type StatBucket struct {
	CompletedDeliveries int     `json:"completed_deliveries"`
	CancelledDeliveries int     `json:"cancelled_deliveries"`
	TotalEarnings       float64 `json:"total_earnings"`
}

// DeliveryStats tracks lifetime and current-month counters. MonthKey
// ("2006-01") marks which month CurrentMonth belongs to so a new month
// starts from zero.
type DeliveryStats struct {
	Lifetime     StatBucket `json:"lifetime"`
	CurrentMonth StatBucket `json:"current_month"`
	MonthKey     string     `json:"month_key,omitempty"`
}

type PartnerRating struct {
	Average      float64 `json:"average"`
	TotalRatings int     `json:"total_ratings"`
}

// IsVerified reports whether the partner may receive assignments.
func (p *DeliveryPartner) IsVerified() bool {
	return p.VerificationStatus == VerificationApproved
}

// CurrentDecision returns the most recent verification decision, derived
// from the append-only history. Nil when no vendor has decided yet.
func (p *DeliveryPartner) CurrentDecision() *VerificationRecord {
	if len(p.VerificationHistory) == 0 {
		return nil
	}
	rec := p.VerificationHistory[len(p.VerificationHistory)-1]
	return &rec
}

// VerifiedBy returns the current approval snapshot, or nil if the latest
// decision was not an approval.
func (p *DeliveryPartner) VerifiedBy() *VerificationRecord {
	if rec := p.CurrentDecision(); rec != nil && rec.Action == VerificationActionApproved {
		return rec
	}
	return nil
}

// RejectedBy returns the current rejection snapshot, or nil if the latest
// decision was not a rejection.
func (p *DeliveryPartner) RejectedBy() *VerificationRecord {
	if rec := p.CurrentDecision(); rec != nil && rec.Action == VerificationActionRejected {
		return rec
	}
	return nil
}

// ServesPincode reports whether pincode is in the partner's zones.
func (p *DeliveryPartner) ServesPincode(pincode string) bool {
	for _, zone := range p.DeliveryZones {
		if zone == pincode {
			return true
		}
	}
	return false
}

// Weekdays lists schedule keys in calendar order.
func Weekdays() []string {
	return []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
}
