package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `
    id, order_number, customer_id, vendor_id, delivery_partner_id,
    total_amount, payment_method, status,
    customer_details, vendor_details, delivery_address,
    partner_name, partner_phone, delivery_fee, partner_earnings, distance_km,
    last_assigned_at, last_accepted_at,
    placed_at, confirmed_at, preparing_at, ready_at, assigned_at, accepted_at,
    picked_up_at, out_for_delivery_at, delivered_at, cancelled_at,
    rating, version, created_at, updated_at
`

// timestampColumn maps a status to its first-entry column. Values are
// fixed identifiers, safe to splice into SQL.
var timestampColumn = map[models.OrderStatus]string{
	models.OrderStatusPlaced:         "placed_at",
	models.OrderStatusConfirmed:      "confirmed_at",
	models.OrderStatusPreparing:      "preparing_at",
	models.OrderStatusReady:          "ready_at",
	models.OrderStatusAssigned:       "assigned_at",
	models.OrderStatusAccepted:       "accepted_at",
	models.OrderStatusPickedUp:       "picked_up_at",
	models.OrderStatusOutForDelivery: "out_for_delivery_at",
	models.OrderStatusDelivered:      "delivered_at",
	models.OrderStatusCancelled:      "cancelled_at",
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	customerDetails, err := json.Marshal(order.CustomerDetails)
	if err != nil {
		return err
	}
	vendorDetails, err := json.Marshal(order.VendorDetails)
	if err != nil {
		return err
	}
	address, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO orders (
            id, order_number, customer_id, vendor_id,
            total_amount, payment_method, status,
            customer_details, vendor_details, delivery_address,
            distance_km, placed_at, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
    `
	_, err = tx.Exec(ctx, query,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.VendorID,
		order.TotalAmount,
		order.PaymentMethod,
		order.Status,
		customerDetails,
		vendorDetails,
		address,
		order.DeliveryDetails.DistanceKm,
		order.Timestamps.PlacedAt,
		order.CreatedAt,
	)
	if err != nil {
		return err
	}

	itemQuery := `
        INSERT INTO order_items (order_id, position, menu_item_id, name, unit_price, quantity, subtotal)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	for i, item := range order.Items {
		if _, err = tx.Exec(ctx, itemQuery,
			order.ID, i, item.MenuItemID, item.Name, item.UnitPrice, item.Quantity, item.Subtotal,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.getOne(ctx, "id", id)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.getOne(ctx, "order_number", number)
}

func (r *OrderRepository) getOne(ctx context.Context, column, value string) (*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE %s = $1", orderColumns, column)
	row := r.pool.QueryRow(ctx, query, value)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID string, status models.OrderStatus) ([]*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE vendor_id = $1", orderColumns)
	args := []interface{}{vendorID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	return r.list(ctx, query, args...)
}

func (r *OrderRepository) ListByPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM orders WHERE delivery_partner_id = $1 ORDER BY created_at DESC",
		orderColumns,
	)
	return r.list(ctx, query, partnerID)
}

func (r *OrderRepository) ListReady(ctx context.Context) ([]*models.Order, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM orders WHERE status = $1 AND delivery_partner_id IS NULL ORDER BY ready_at",
		orderColumns,
	)
	return r.list(ctx, query, models.OrderStatusReady)
}

func (r *OrderRepository) ListDelivered(ctx context.Context, vendorID, partnerID string, from, to time.Time) ([]*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE status = $1", orderColumns)
	args := []interface{}{models.OrderStatusDelivered}
	if vendorID != "" {
		args = append(args, vendorID)
		query += fmt.Sprintf(" AND vendor_id = $%d", len(args))
	}
	if partnerID != "" {
		args = append(args, partnerID)
		query += fmt.Sprintf(" AND delivery_partner_id = $%d", len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND delivered_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND delivered_at < $%d", len(args))
	}
	query += " ORDER BY delivered_at"
	return r.list(ctx, query, args...)
}

func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	col := timestampColumn[to]
	query := fmt.Sprintf(`
        UPDATE orders SET
            status = $3,
            %s = COALESCE(%s, $4),
            version = version + 1,
            updated_at = $4
        WHERE id = $1 AND status = $2
    `, col, col)
	// A bound partner comes off only through RejectAssignment.
	if to == models.OrderStatusReady {
		query += " AND delivery_partner_id IS NULL"
	}

	tag, err := r.pool.Exec(ctx, query, orderID, from, to, at)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.conflictFor(ctx, orderID, "")
	}
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepository) AssignPartner(ctx context.Context, orderID string, partner *models.DeliveryPartner, fee, earnings, distanceKm float64, at time.Time) (*models.Order, error) {
	query := `
        UPDATE orders SET
            delivery_partner_id = $2,
            partner_name = $3,
            partner_phone = $4,
            delivery_fee = $5,
            partner_earnings = $6,
            distance_km = $7,
            status = $8,
            last_assigned_at = $9,
            last_accepted_at = NULL,
            assigned_at = COALESCE(assigned_at, $9),
            version = version + 1,
            updated_at = $9
        WHERE id = $1 AND status = $10 AND delivery_partner_id IS NULL
    `
	tag, err := r.pool.Exec(ctx, query,
		orderID,
		partner.ID,
		partner.FullName,
		partner.MobileNo,
		fee,
		earnings,
		distanceKm,
		models.OrderStatusAssigned,
		at,
		models.OrderStatusReady,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		current, err := r.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current.Assigned() || current.Status == models.OrderStatusAssigned {
			return nil, models.ErrAlreadyAssigned
		}
		return nil, repositories.ErrStatusConflict
	}
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepository) AcceptAssignment(ctx context.Context, orderID, partnerID string, at time.Time) (*models.Order, error) {
	query := `
        UPDATE orders SET
            status = $3,
            accepted_at = COALESCE(accepted_at, $4),
            last_accepted_at = $4,
            version = version + 1,
            updated_at = $4
        WHERE id = $1 AND status = $5 AND delivery_partner_id = $2
    `
	tag, err := r.pool.Exec(ctx, query,
		orderID, partnerID, models.OrderStatusAccepted, at, models.OrderStatusAssigned,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.conflictFor(ctx, orderID, partnerID)
	}
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepository) RejectAssignment(ctx context.Context, orderID, partnerID string, rejection models.RejectionRecord) (*models.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE orders SET
            status = $3,
            delivery_partner_id = NULL,
            partner_name = NULL,
            partner_phone = NULL,
            last_assigned_at = NULL,
            last_accepted_at = NULL,
            ready_at = COALESCE(ready_at, $4),
            version = version + 1,
            updated_at = $4
        WHERE id = $1 AND delivery_partner_id = $2 AND status = ANY($5)
    `
	tag, err := tx.Exec(ctx, query,
		orderID,
		partnerID,
		models.OrderStatusReady,
		rejection.RejectedAt,
		[]string{string(models.OrderStatusAssigned), string(models.OrderStatusAccepted)},
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.conflictFor(ctx, orderID, partnerID)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO order_rejections (order_id, partner_id, reason, rejected_at)
        VALUES ($1, $2, $3, $4)
    `, orderID, rejection.PartnerID, rejection.Reason, rejection.RejectedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepository) AdvanceByPartner(ctx context.Context, orderID, partnerID string, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	col := timestampColumn[to]
	query := fmt.Sprintf(`
        UPDATE orders SET
            status = $4,
            %s = COALESCE(%s, $5),
            version = version + 1,
            updated_at = $5
        WHERE id = $1 AND delivery_partner_id = $2 AND status = $3
    `, col, col)

	tag, err := r.pool.Exec(ctx, query, orderID, partnerID, from, to, at)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.conflictFor(ctx, orderID, partnerID)
	}
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepository) SetRating(ctx context.Context, orderID string, rating models.OrderRating) (*models.Order, error) {
	payload, err := json.Marshal(rating)
	if err != nil {
		return nil, err
	}
	tag, err := r.pool.Exec(ctx, `
        UPDATE orders SET rating = $2, version = version + 1, updated_at = $3
        WHERE id = $1 AND rating IS NULL
    `, orderID, payload, rating.RatedAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.conflictFor(ctx, orderID, "")
	}
	return r.GetByID(ctx, orderID)
}

// conflictFor re-reads the order after a zero-row conditional write and
// picks the domain error the caller should see.
func (r *OrderRepository) conflictFor(ctx context.Context, orderID, partnerID string) error {
	current, err := r.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if partnerID != "" && current.DeliveryDetails.PartnerID != partnerID {
		return models.ErrNotAssignedToYou
	}
	return repositories.ErrStatusConflict
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadChildren fills items and rejection records for the given orders with
// one query per child table.
func (r *OrderRepository) loadChildren(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}

	itemRows, err := r.pool.Query(ctx, `
        SELECT order_id, menu_item_id, name, unit_price, quantity, subtotal
        FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position
    `, ids)
	if err != nil {
		return err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID string
		var item models.OrderItem
		if err := itemRows.Scan(&orderID, &item.MenuItemID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return err
		}
		byID[orderID].Items = append(byID[orderID].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	rejRows, err := r.pool.Query(ctx, `
        SELECT order_id, partner_id, reason, rejected_at
        FROM order_rejections WHERE order_id = ANY($1) ORDER BY order_id, rejected_at, id
    `, ids)
	if err != nil {
		return err
	}
	defer rejRows.Close()
	for rejRows.Next() {
		var orderID string
		var rec models.RejectionRecord
		if err := rejRows.Scan(&orderID, &rec.PartnerID, &rec.Reason, &rec.RejectedAt); err != nil {
			return err
		}
		byID[orderID].DeliveryDetails.Rejections = append(byID[orderID].DeliveryDetails.Rejections, rec)
	}
	return rejRows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	order := &models.Order{}
	var (
		partnerID, partnerName, partnerPhone    *string
		customerDetails, vendorDetails, address []byte
		rating                                  []byte
	)
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.VendorID,
		&partnerID,
		&order.TotalAmount,
		&order.PaymentMethod,
		&order.Status,
		&customerDetails,
		&vendorDetails,
		&address,
		&partnerName,
		&partnerPhone,
		&order.DeliveryDetails.DeliveryFee,
		&order.DeliveryDetails.PartnerEarnings,
		&order.DeliveryDetails.DistanceKm,
		&order.DeliveryDetails.AssignedAt,
		&order.DeliveryDetails.AcceptedAt,
		&order.Timestamps.PlacedAt,
		&order.Timestamps.ConfirmedAt,
		&order.Timestamps.PreparingAt,
		&order.Timestamps.ReadyAt,
		&order.Timestamps.AssignedAt,
		&order.Timestamps.AcceptedAt,
		&order.Timestamps.PickedUpAt,
		&order.Timestamps.OutForDeliveryAt,
		&order.Timestamps.DeliveredAt,
		&order.Timestamps.CancelledAt,
		&rating,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if partnerID != nil {
		order.DeliveryPartnerID = *partnerID
		order.DeliveryDetails.PartnerID = *partnerID
	}
	if partnerName != nil {
		order.DeliveryDetails.PartnerName = *partnerName
	}
	if partnerPhone != nil {
		order.DeliveryDetails.PartnerPhone = *partnerPhone
	}
	if len(customerDetails) > 0 {
		if err := json.Unmarshal(customerDetails, &order.CustomerDetails); err != nil {
			return nil, err
		}
	}
	if len(vendorDetails) > 0 {
		if err := json.Unmarshal(vendorDetails, &order.VendorDetails); err != nil {
			return nil, err
		}
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &order.DeliveryAddress); err != nil {
			return nil, err
		}
	}
	if len(rating) > 0 {
		order.Rating = &models.OrderRating{}
		if err := json.Unmarshal(rating, order.Rating); err != nil {
			return nil, err
		}
	}
	return order, nil
}
