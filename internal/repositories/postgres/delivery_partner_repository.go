package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeliveryPartnerRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryPartnerRepository(pool *pgxpool.Pool) *DeliveryPartnerRepository {
	return &DeliveryPartnerRepository{pool: pool}
}

const partnerColumns = `
    id, user_id, full_name, mobile_no, alternate_mobile_no,
    address, vehicle, bank, working_hours, delivery_zones,
    is_available, verification_status,
    rating_average, rating_count,
    lifetime_completed, lifetime_cancelled, lifetime_earnings,
    month_completed, month_cancelled, month_earnings, month_key,
    joined_at, updated_at
`

func (r *DeliveryPartnerRepository) Create(ctx context.Context, partner *models.DeliveryPartner) error {
	address, vehicle, bank, hours, err := marshalPartnerDocs(partner)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO delivery_partners (
            id, user_id, full_name, mobile_no, alternate_mobile_no,
            address, vehicle, bank, working_hours, delivery_zones,
            is_available, verification_status, joined_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
    `
	_, err = r.pool.Exec(ctx, query,
		partner.ID,
		partner.UserID,
		partner.FullName,
		partner.MobileNo,
		partner.AlternateMobileNo,
		address,
		vehicle,
		bank,
		hours,
		partner.DeliveryZones,
		partner.IsAvailable,
		partner.VerificationStatus,
		partner.JoinedAt,
	)
	return err
}

func (r *DeliveryPartnerRepository) GetByID(ctx context.Context, id string) (*models.DeliveryPartner, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+partnerColumns+" FROM delivery_partners WHERE id = $1", id)
	partner, err := scanPartner(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadHistory(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (r *DeliveryPartnerRepository) GetAll(ctx context.Context) ([]*models.DeliveryPartner, error) {
	return r.list(ctx, "SELECT "+partnerColumns+" FROM delivery_partners ORDER BY joined_at")
}

func (r *DeliveryPartnerRepository) ListAssignable(ctx context.Context, pincode string) ([]*models.DeliveryPartner, error) {
	query := "SELECT " + partnerColumns + `
        FROM delivery_partners
        WHERE is_available
          AND verification_status = $1
          AND $2 = ANY(delivery_zones)
        ORDER BY rating_average DESC
    `
	return r.list(ctx, query, models.VerificationApproved, pincode)
}

func (r *DeliveryPartnerRepository) Update(ctx context.Context, partner *models.DeliveryPartner) error {
	address, vehicle, bank, hours, err := marshalPartnerDocs(partner)
	if err != nil {
		return err
	}
	query := `
        UPDATE delivery_partners SET
            full_name = $2,
            mobile_no = $3,
            alternate_mobile_no = $4,
            address = $5,
            vehicle = $6,
            bank = $7,
            working_hours = $8,
            delivery_zones = $9,
            updated_at = $10
        WHERE id = $1
    `
	tag, err := r.pool.Exec(ctx, query,
		partner.ID,
		partner.FullName,
		partner.MobileNo,
		partner.AlternateMobileNo,
		address,
		vehicle,
		bank,
		hours,
		partner.DeliveryZones,
		time.Now(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPartnerNotFound
	}
	return nil
}

func (r *DeliveryPartnerRepository) SetAvailability(ctx context.Context, id string, available bool) (*models.DeliveryPartner, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE delivery_partners SET is_available = $2, updated_at = $3 WHERE id = $1
    `, id, available, time.Now())
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrPartnerNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *DeliveryPartnerRepository) AppendVerification(ctx context.Context, id string, rec models.VerificationRecord, status models.VerificationStatus) (*models.DeliveryPartner, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE delivery_partners SET verification_status = $2, updated_at = $3 WHERE id = $1
    `, id, status, rec.DecidedAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrPartnerNotFound
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO partner_verifications (partner_id, vendor_id, vendor_name, action, reason, decided_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, id, rec.VendorID, rec.VendorName, rec.Action, rec.Reason, rec.DecidedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *DeliveryPartnerRepository) CreditDelivery(ctx context.Context, partnerID, orderID string, earnings float64, at time.Time) (bool, error) {
	return r.credit(ctx, partnerID, orderID, "delivery", earnings, at)
}

func (r *DeliveryPartnerRepository) CreditCancellation(ctx context.Context, partnerID, orderID string, at time.Time) (bool, error) {
	return r.credit(ctx, partnerID, orderID, "cancellation", 0, at)
}

// credit records the order's contribution to the partner's counters. The
// insert into partner_order_credits is the replay guard: an order id that
// already contributed is a no-op for both tables.
func (r *DeliveryPartnerRepository) credit(ctx context.Context, partnerID, orderID, kind string, amount float64, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        INSERT INTO partner_order_credits (order_id, partner_id, kind, amount, credited_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (order_id) DO NOTHING
    `, orderID, partnerID, kind, amount, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	monthKey := at.Format("2006-01")
	var query string
	if kind == "delivery" {
		query = `
            UPDATE delivery_partners SET
                lifetime_completed = lifetime_completed + 1,
                lifetime_earnings = lifetime_earnings + $2,
                month_completed = CASE WHEN month_key = $3 THEN month_completed + 1 ELSE 1 END,
                month_cancelled = CASE WHEN month_key = $3 THEN month_cancelled ELSE 0 END,
                month_earnings = CASE WHEN month_key = $3 THEN month_earnings + $2 ELSE $2 END,
                month_key = $3,
                updated_at = $4
            WHERE id = $1
        `
	} else {
		query = `
            UPDATE delivery_partners SET
                lifetime_cancelled = lifetime_cancelled + 1,
                month_completed = CASE WHEN month_key = $3 THEN month_completed ELSE 0 END,
                month_cancelled = CASE WHEN month_key = $3 THEN month_cancelled + 1 ELSE 1 END,
                month_earnings = CASE WHEN month_key = $3 THEN month_earnings + $2 ELSE $2 END,
                month_key = $3,
                updated_at = $4
            WHERE id = $1
        `
	}
	if _, err := tx.Exec(ctx, query, partnerID, amount, monthKey, at); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *DeliveryPartnerRepository) AddRating(ctx context.Context, partnerID string, rating int) (*models.DeliveryPartner, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE delivery_partners SET
            rating_average = (rating_average * rating_count + $2) / (rating_count + 1),
            rating_count = rating_count + 1,
            updated_at = $3
        WHERE id = $1
    `, partnerID, rating, time.Now())
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrPartnerNotFound
	}
	return r.GetByID(ctx, partnerID)
}

func (r *DeliveryPartnerRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.DeliveryPartner, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []*models.DeliveryPartner
	for rows.Next() {
		partner, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, partner := range partners {
		if err := r.loadHistory(ctx, partner); err != nil {
			return nil, err
		}
	}
	return partners, nil
}

func (r *DeliveryPartnerRepository) loadHistory(ctx context.Context, partner *models.DeliveryPartner) error {
	rows, err := r.pool.Query(ctx, `
        SELECT vendor_id, vendor_name, action, reason, decided_at
        FROM partner_verifications
        WHERE partner_id = $1
        ORDER BY decided_at, id
    `, partner.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.VerificationRecord
		if err := rows.Scan(&rec.VendorID, &rec.VendorName, &rec.Action, &rec.Reason, &rec.DecidedAt); err != nil {
			return err
		}
		partner.VerificationHistory = append(partner.VerificationHistory, rec)
	}
	return rows.Err()
}

func marshalPartnerDocs(partner *models.DeliveryPartner) (address, vehicle, bank, hours []byte, err error) {
	if address, err = json.Marshal(partner.Address); err != nil {
		return
	}
	if vehicle, err = json.Marshal(partner.Vehicle); err != nil {
		return
	}
	if bank, err = json.Marshal(partner.Bank); err != nil {
		return
	}
	hours, err = json.Marshal(partner.WorkingHours)
	return
}

func scanPartner(row pgx.Row) (*models.DeliveryPartner, error) {
	partner := &models.DeliveryPartner{}
	var address, vehicle, bank, hours []byte
	err := row.Scan(
		&partner.ID,
		&partner.UserID,
		&partner.FullName,
		&partner.MobileNo,
		&partner.AlternateMobileNo,
		&address,
		&vehicle,
		&bank,
		&hours,
		&partner.DeliveryZones,
		&partner.IsAvailable,
		&partner.VerificationStatus,
		&partner.Rating.Average,
		&partner.Rating.TotalRatings,
		&partner.Stats.Lifetime.CompletedDeliveries,
		&partner.Stats.Lifetime.CancelledDeliveries,
		&partner.Stats.Lifetime.TotalEarnings,
		&partner.Stats.CurrentMonth.CompletedDeliveries,
		&partner.Stats.CurrentMonth.CancelledDeliveries,
		&partner.Stats.CurrentMonth.TotalEarnings,
		&partner.Stats.MonthKey,
		&partner.JoinedAt,
		&partner.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &partner.Address); err != nil {
			return nil, err
		}
	}
	if len(vehicle) > 0 {
		if err := json.Unmarshal(vehicle, &partner.Vehicle); err != nil {
			return nil, err
		}
	}
	if len(bank) > 0 {
		if err := json.Unmarshal(bank, &partner.Bank); err != nil {
			return nil, err
		}
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &partner.WorkingHours); err != nil {
			return nil, err
		}
	}
	return partner, nil
}
