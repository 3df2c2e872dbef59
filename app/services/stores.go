package services

import (
	"context"
	"time"

	"github.com/webdiner/webdiner/app/models"
)

// OrderStore persists orders. Lookups return (nil, nil) when nothing matches.
type OrderStore interface {
	// Transaction runs fn against a store bound to one database transaction.
	// A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx OrderStore) error) error

	FindByUserDate(ctx context.Context, userID uint, date models.Date) (*models.Order, error)
	FindForUser(ctx context.Context, userID, orderID uint) (*models.Order, error)
	DatesTaken(ctx context.Context, userID uint, dates []models.Date) (map[models.Date]bool, error)
	Create(ctx context.Context, o *models.Order) error
	CreateBatch(ctx context.Context, orders []*models.Order) error
	Delete(ctx context.Context, id uint) error
	// Upsert writes o keyed on (user_id, order_date) and reloads it.
	Upsert(ctx context.Context, o *models.Order) error
	ForDate(ctx context.Context, date models.Date) ([]models.Order, error)
	ForUser(ctx context.Context, userID uint) ([]models.Order, error)
}

// Catalog looks up vendors and menu items, active or not. Single lookups
// return (nil, nil) when the row does not exist.
type Catalog interface {
	Vendor(ctx context.Context, id uint) (*models.Vendor, error)
	Item(ctx context.Context, id uint) (*models.MenuItem, error)
	VendorsByID(ctx context.Context, ids []uint) (map[uint]models.Vendor, error)
	ItemsByID(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error)
	ActiveVendors(ctx context.Context) ([]models.Vendor, error)
	ActiveItems(ctx context.Context, vendorID uint) ([]models.MenuItem, error)
}

// SpecialDayStore holds per-date overrides of the weekend rule.
type SpecialDayStore interface {
	ForDate(ctx context.Context, date models.Date) (*models.SpecialDay, error)
	ForDates(ctx context.Context, dates []models.Date) (map[models.Date]models.SpecialDay, error)
	List(ctx context.Context, from, to *models.Date) ([]models.SpecialDay, error)
	Upsert(ctx context.Context, sd *models.SpecialDay) error
	Delete(ctx context.Context, date models.Date) (bool, error)
}

// Directory is the employee roster.
type Directory interface {
	// ActiveEmployees is sorted by employee code.
	ActiveEmployees(ctx context.Context) ([]models.User, error)
	Employee(ctx context.Context, id uint) (*models.User, error)
	EmployeesByID(ctx context.Context, ids []uint) (map[uint]models.User, error)
	DepartmentNames(ctx context.Context) (map[uint]string, error)
}

// UserStore manages login accounts.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmployeeCode(ctx context.Context, code string) (*models.User, error)
	// FindAnyByEmployeeCode also returns soft-deleted users.
	FindAnyByEmployeeCode(ctx context.Context, code string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.User, error)
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
