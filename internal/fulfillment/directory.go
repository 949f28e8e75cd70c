package fulfillment

import (
	"context"
	"math"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/google/uuid"
)

// ProfileUpdate is a partial update: nil fields are left untouched.
type ProfileUpdate struct {
	FullName          *string                       `json:"full_name,omitempty"`
	MobileNo          *string                       `json:"mobile_no,omitempty"`
	AlternateMobileNo *string                       `json:"alternate_mobile_no,omitempty"`
	Address           *models.Address               `json:"address,omitempty"`
	Vehicle           *models.VehicleDetails        `json:"vehicle,omitempty"`
	Bank              *models.BankDetails           `json:"bank,omitempty"`
	WorkingHours      map[string]models.DaySchedule `json:"working_hours,omitempty"`
	DeliveryZones     []string                      `json:"delivery_zones,omitempty"`
}

// CompletionReport tells a partner how much of the profile is filled and
// what is missing.
type CompletionReport struct {
	Percent    float64  `json:"percent"`
	Missing    []string `json:"missing,omitempty"`
	IsComplete bool     `json:"is_complete"`
}

// RegisterPartner creates an empty partner profile for a user account.
// Working hours start fully populated with the default shift.
func (s *Service) RegisterPartner(ctx context.Context, userID string) (*models.DeliveryPartner, error) {
	at := s.now()
	partner := &models.DeliveryPartner{
		ID:                 uuid.New().String(),
		UserID:             userID,
		WorkingHours:       s.defaultWorkingHours(),
		VerificationStatus: models.VerificationPending,
		JoinedAt:           at,
		UpdatedAt:          at,
	}
	if err := s.partners.Create(ctx, partner); err != nil {
		return nil, err
	}
	s.log.WithField("partner_id", partner.ID).Info("delivery partner registered")
	return partner, nil
}

func (s *Service) GetPartner(ctx context.Context, partnerID string) (*models.DeliveryPartner, error) {
	return s.partners.GetByID(ctx, partnerID)
}

// UpdatePartnerProfile applies a partial profile update and returns the
// partner with a fresh completion report. Missing working-hours entries
// are filled with the default shift on every touch.
func (s *Service) UpdatePartnerProfile(ctx context.Context, partnerID string, update ProfileUpdate) (*models.DeliveryPartner, *CompletionReport, error) {
	partner, err := s.partners.GetByID(ctx, partnerID)
	if err != nil {
		return nil, nil, err
	}

	if update.FullName != nil {
		partner.FullName = *update.FullName
	}
	if update.MobileNo != nil {
		partner.MobileNo = *update.MobileNo
	}
	if update.AlternateMobileNo != nil {
		partner.AlternateMobileNo = *update.AlternateMobileNo
	}
	if update.Address != nil {
		partner.Address = *update.Address
	}
	if update.Vehicle != nil {
		partner.Vehicle = *update.Vehicle
	}
	if update.Bank != nil {
		partner.Bank = *update.Bank
	}
	if update.WorkingHours != nil {
		partner.WorkingHours = update.WorkingHours
	}
	if update.DeliveryZones != nil {
		partner.DeliveryZones = update.DeliveryZones
	}
	s.initializeWorkingHours(partner)

	if err := s.partners.Update(ctx, partner); err != nil {
		return nil, nil, err
	}
	updated, err := s.partners.GetByID(ctx, partnerID)
	if err != nil {
		return nil, nil, err
	}
	report := s.ProfileCompletion(updated)
	return updated, &report, nil
}

// SetAvailability flips the on/off-duty flag. Idempotent, and independent
// of verification: an unverified partner can go on duty but will not be
// matched.
func (s *Service) SetAvailability(ctx context.Context, partnerID string, available bool) (*models.DeliveryPartner, error) {
	partner, err := s.partners.SetAvailability(ctx, partnerID, available)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(map[string]interface{}{
		"partner_id":   partnerID,
		"is_available": available,
	}).Info("partner availability updated")
	return partner, nil
}

// profileFields lists the 13 required leaf fields with their labels.
func profileFields(p *models.DeliveryPartner) []struct {
	label string
	value string
} {
	return []struct {
		label string
		value string
	}{
		{"full name", p.FullName},
		{"mobile number", p.MobileNo},
		{"street", p.Address.Street},
		{"city", p.Address.City},
		{"state", p.Address.State},
		{"pincode", p.Address.Pincode},
		{"vehicle type", p.Vehicle.Type},
		{"vehicle number", p.Vehicle.Number},
		{"driving license", p.Vehicle.LicenseNo},
		{"account holder name", p.Bank.AccountHolder},
		{"account number", p.Bank.AccountNumber},
		{"IFSC code", p.Bank.IFSCCode},
		{"bank name", p.Bank.BankName},
	}
}

// ProfileCompletion scores the 13 required leaf fields plus two bonus
// checks (working hours populated, at least one delivery zone) over a
// denominator of 15.
func (s *Service) ProfileCompletion(partner *models.DeliveryPartner) CompletionReport {
	filled := 0
	var missing []string
	for _, field := range profileFields(partner) {
		if field.value != "" {
			filled++
		} else {
			missing = append(missing, field.label)
		}
	}

	if workingHoursPopulated(partner.WorkingHours) {
		filled++
	} else {
		missing = append(missing, "working hours")
	}
	if len(partner.DeliveryZones) > 0 {
		filled++
	} else {
		missing = append(missing, "delivery zones")
	}

	percent := math.Round(float64(filled) / 15 * 100)
	threshold := s.cfg.CompletionThreshold
	if threshold == 0 {
		threshold = 90
	}
	return CompletionReport{
		Percent:    percent,
		Missing:    missing,
		IsComplete: percent >= threshold,
	}
}

// initializeWorkingHours fills any missing weekday with the default
// shift. Idempotent: days already present are untouched.
func (s *Service) initializeWorkingHours(partner *models.DeliveryPartner) {
	if partner.WorkingHours == nil {
		partner.WorkingHours = make(map[string]models.DaySchedule, 7)
	}
	start, end := s.defaultShift()
	for _, day := range models.Weekdays() {
		if _, ok := partner.WorkingHours[day]; !ok {
			partner.WorkingHours[day] = models.DaySchedule{
				IsWorking: true,
				StartTime: start,
				EndTime:   end,
			}
		}
	}
}

func (s *Service) defaultWorkingHours() map[string]models.DaySchedule {
	hours := make(map[string]models.DaySchedule, 7)
	start, end := s.defaultShift()
	for _, day := range models.Weekdays() {
		hours[day] = models.DaySchedule{IsWorking: true, StartTime: start, EndTime: end}
	}
	return hours
}

func (s *Service) defaultShift() (string, string) {
	start, end := s.cfg.DefaultShiftStart, s.cfg.DefaultShiftEnd
	if start == "" {
		start = "09:00"
	}
	if end == "" {
		end = "22:00"
	}
	return start, end
}

func workingHoursPopulated(hours map[string]models.DaySchedule) bool {
	for _, day := range models.Weekdays() {
		if _, ok := hours[day]; !ok {
			return false
		}
	}
	return true
}
