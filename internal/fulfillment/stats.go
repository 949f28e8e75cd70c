package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// StatsWindow selects the time range a rollup covers.
type StatsWindow string

const (
	WindowToday StatsWindow = "today"
	WindowWeek  StatsWindow = "week"
	WindowAll   StatsWindow = "all"
)

// StatsReport is a read-only rollup over delivered orders. Earnings is
// the partner share for partner reports and the order total for vendor
// reports.
type StatsReport struct {
	SubjectID  string      `json:"subject_id"`
	Window     StatsWindow `json:"window"`
	From       *time.Time  `json:"from,omitempty"`
	To         *time.Time  `json:"to,omitempty"`
	Deliveries int         `json:"deliveries"`
	Earnings   float64     `json:"earnings"`
}

var zeroTime time.Time

// GetPartnerStats sums delivered orders and partner earnings for one
// partner over the window. Recomputed from the ledger on every call.
func (s *Service) GetPartnerStats(ctx context.Context, partnerID string, window StatsWindow) (*StatsReport, error) {
	if _, err := s.partners.GetByID(ctx, partnerID); err != nil {
		return nil, err
	}
	from, to, err := s.windowBounds(window)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListDelivered(ctx, "", partnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to scan delivered orders: %w", err)
	}

	report := newStatsReport(partnerID, window, from, to)
	for _, order := range orders {
		report.Deliveries++
		report.Earnings = roundPaise(report.Earnings + order.DeliveryDetails.PartnerEarnings)
	}
	return report, nil
}

// GetVendorStats sums delivered orders and gross order value for one
// vendor over the window.
func (s *Service) GetVendorStats(ctx context.Context, vendorID string, window StatsWindow) (*StatsReport, error) {
	if _, err := s.vendors.GetByID(ctx, vendorID); err != nil {
		return nil, err
	}
	from, to, err := s.windowBounds(window)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListDelivered(ctx, vendorID, "", from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to scan delivered orders: %w", err)
	}

	report := newStatsReport(vendorID, window, from, to)
	for _, order := range orders {
		report.Deliveries++
		report.Earnings = roundPaise(report.Earnings + order.TotalAmount)
	}
	return report, nil
}

// windowBounds resolves a window name to [from, to). "all" returns zero
// times, which the repositories treat as unbounded. Weeks start Monday.
func (s *Service) windowBounds(window StatsWindow) (time.Time, time.Time, error) {
	cfg := &now.Config{WeekStartDay: time.Monday}
	calendar := cfg.With(s.now())

	switch window {
	case WindowToday:
		return calendar.BeginningOfDay(), calendar.EndOfDay(), nil
	case WindowWeek:
		return calendar.BeginningOfWeek(), calendar.EndOfWeek(), nil
	case WindowAll, "":
		return zeroTime, zeroTime, nil
	default:
		return zeroTime, zeroTime, fmt.Errorf("unknown stats window %q", window)
	}
}

func newStatsReport(subjectID string, window StatsWindow, from, to time.Time) *StatsReport {
	report := &StatsReport{SubjectID: subjectID, Window: window}
	if window == "" {
		report.Window = WindowAll
	}
	if !from.IsZero() {
		report.From = &from
		report.To = &to
	}
	return report
}
