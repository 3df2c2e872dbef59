package services

import (
	"context"
	"fmt"

	"github.com/webdiner/webdiner/app/models"
)

// Availability resolves a (vendor, item, date) selection against the catalog.
type Availability struct {
	catalog Catalog
}

func NewAvailability(catalog Catalog) *Availability {
	return &Availability{catalog: catalog}
}

// Resolve returns the menu item if vendorID is active, itemID is an active
// item of that vendor, and the item is served on date's weekday.
func (a *Availability) Resolve(ctx context.Context, vendorID, itemID uint, date models.Date) (*models.MenuItem, error) {
	vendor, err := a.catalog.Vendor(ctx, vendorID)
	if err != nil {
		return nil, storageErr(err)
	}
	if vendor == nil || !vendor.IsActive {
		return nil, fmt.Errorf("%w: %d", ErrVendorNotFound, vendorID)
	}
	item, err := a.catalog.Item(ctx, itemID)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := Check(vendor, item, date); err != nil {
		return nil, err
	}
	return item, nil
}

// Check is the pure form of Resolve over already-fetched rows. A nil
// vendor or item means the row does not exist.
func Check(vendor *models.Vendor, item *models.MenuItem, date models.Date) error {
	if vendor == nil || !vendor.IsActive {
		return ErrVendorNotFound
	}
	if item == nil || !item.IsActive || item.VendorID != vendor.ID {
		return ErrItemNotFound
	}
	if !item.ServedOn(date) {
		return fmt.Errorf("%w: %s is served on weekday %d, %s is weekday %d",
			ErrWeekdayUnavailable, item.Name, *item.Weekday, date, date.MondayIndex())
	}
	return nil
}
