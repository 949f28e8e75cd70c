package memory

import (
	"context"
	"sort"

	"github.com/chowkart/chowkart/internal/models"
)

type VendorRepository struct {
	store *Store
}

func (r *VendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.vendors[vendor.ID] = cloneVendor(vendor)
	return nil
}

func (r *VendorRepository) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	vendor, ok := r.store.vendors[id]
	if !ok {
		return nil, models.ErrVendorNotFound
	}
	return cloneVendor(vendor), nil
}

func (r *VendorRepository) GetAll(ctx context.Context) ([]*models.Vendor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*models.Vendor, 0, len(r.store.vendors))
	for _, vendor := range r.store.vendors {
		out = append(out, cloneVendor(vendor))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
