package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
)

// CatalogRepository reads vendors and their menu items.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

var _ services.Catalog = (*CatalogRepository)(nil)

func (r *CatalogRepository) Vendor(ctx context.Context, id uint) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).Take(&v, id).Error
	return found(&v, err, "find vendor")
}

func (r *CatalogRepository) Item(ctx context.Context, id uint) (*models.MenuItem, error) {
	var m models.MenuItem
	err := r.db.WithContext(ctx).Take(&m, id).Error
	return found(&m, err, "find menu item")
}

func (r *CatalogRepository) VendorsByID(ctx context.Context, ids []uint) (map[uint]models.Vendor, error) {
	out := make(map[uint]models.Vendor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Vendor
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: vendors by id: %w", err)
	}
	for _, v := range rows {
		out[v.ID] = v
	}
	return out, nil
}

func (r *CatalogRepository) ItemsByID(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	out := make(map[uint]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.MenuItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: menu items by id: %w", err)
	}
	for _, m := range rows {
		out[m.ID] = m
	}
	return out, nil
}

func (r *CatalogRepository) ActiveVendors(ctx context.Context) ([]models.Vendor, error) {
	var rows []models.Vendor
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: active vendors: %w", err)
	}
	return rows, nil
}

func (r *CatalogRepository) ActiveItems(ctx context.Context, vendorID uint) ([]models.MenuItem, error) {
	var rows []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND is_active = ?", vendorID, true).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: active menu items: %w", err)
	}
	return rows, nil
}
