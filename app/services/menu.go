package services

import (
	"context"
	"fmt"

	"github.com/webdiner/webdiner/app/models"
)

// VendorMenu is one vendor and the items it serves on a given date.
type VendorMenu struct {
	Vendor models.Vendor     `json:"vendor"`
	Items  []models.MenuItem `json:"items"`
}

// MenuService lists what can be ordered on a date.
type MenuService struct {
	catalog  Catalog
	calendar *Calendar
}

func NewMenuService(catalog Catalog, calendar *Calendar) *MenuService {
	return &MenuService{catalog: catalog, calendar: calendar}
}

func (s *MenuService) Vendors(ctx context.Context) ([]models.Vendor, error) {
	vendors, err := s.catalog.ActiveVendors(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return vendors, nil
}

// ForDate returns active vendors with their active items served on date.
// vendorID narrows the result to one vendor. Vendors with nothing on the
// menu that day are left out.
func (s *MenuService) ForDate(ctx context.Context, vendorID *uint, date models.Date) ([]VendorMenu, error) {
	ok, err := s.calendar.IsOrderable(ctx, date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDateBlocked, date)
	}

	var vendors []models.Vendor
	if vendorID != nil {
		v, err := s.catalog.Vendor(ctx, *vendorID)
		if err != nil {
			return nil, storageErr(err)
		}
		if v == nil || !v.IsActive {
			return nil, fmt.Errorf("%w: %d", ErrVendorNotFound, *vendorID)
		}
		vendors = []models.Vendor{*v}
	} else if vendors, err = s.catalog.ActiveVendors(ctx); err != nil {
		return nil, storageErr(err)
	}

	out := []VendorMenu{}
	for _, v := range vendors {
		items, err := s.catalog.ActiveItems(ctx, v.ID)
		if err != nil {
			return nil, storageErr(err)
		}
		served := []models.MenuItem{}
		for _, it := range items {
			if it.ServedOn(date) {
				served = append(served, it)
			}
		}
		if len(served) > 0 || vendorID != nil {
			out = append(out, VendorMenu{Vendor: v, Items: served})
		}
	}
	return out, nil
}
