package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VendorRepository struct {
	pool *pgxpool.Pool
}

func NewVendorRepository(pool *pgxpool.Pool) *VendorRepository {
	return &VendorRepository{pool: pool}
}

func (r *VendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	address, err := json.Marshal(vendor.Address)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
        INSERT INTO vendors (id, name, phone, address, delivery_pincodes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, vendor.ID, vendor.Name, vendor.Phone, address, vendor.DeliveryPincodes, vendor.CreatedAt)
	return err
}

func (r *VendorRepository) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, name, phone, address, delivery_pincodes, created_at
        FROM vendors WHERE id = $1
    `, id)
	vendor, err := scanVendor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrVendorNotFound
	}
	return vendor, err
}

func (r *VendorRepository) GetAll(ctx context.Context) ([]*models.Vendor, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, phone, address, delivery_pincodes, created_at
        FROM vendors ORDER BY created_at
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []*models.Vendor
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, vendor)
	}
	return vendors, rows.Err()
}

func scanVendor(row pgx.Row) (*models.Vendor, error) {
	vendor := &models.Vendor{}
	var address []byte
	err := row.Scan(&vendor.ID, &vendor.Name, &vendor.Phone, &address, &vendor.DeliveryPincodes, &vendor.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &vendor.Address); err != nil {
			return nil, err
		}
	}
	return vendor, nil
}
