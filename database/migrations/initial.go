package migrations

import (
	"gorm.io/gorm"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_departments_table", &CreateDepartmentsTable{})
	migration.Register("20260101000001_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000002_create_vendors_table", &CreateVendorsTable{})
	migration.Register("20260101000003_create_vendor_menu_items_table", &CreateVendorMenuItemsTable{})
	migration.Register("20260101000004_create_special_days_table", &CreateSpecialDaysTable{})
	migration.Register("20260101000005_create_orders_table", &CreateOrdersTable{})
}

// -------- 0000: departments --------

type CreateDepartmentsTable struct{}

func (m *CreateDepartmentsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Department{})
}

func (m *CreateDepartmentsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Department{})
}

// -------- 0001: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.User{})
}

// -------- 0002: vendors --------

type CreateVendorsTable struct{}

func (m *CreateVendorsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Vendor{})
}

func (m *CreateVendorsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Vendor{})
}

// -------- 0003: vendor menu items --------

type CreateVendorMenuItemsTable struct{}

func (m *CreateVendorMenuItemsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.MenuItem{})
}

func (m *CreateVendorMenuItemsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.MenuItem{})
}

// -------- 0004: special days --------

type CreateSpecialDaysTable struct{}

func (m *CreateSpecialDaysTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.SpecialDay{})
}

func (m *CreateSpecialDaysTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.SpecialDay{})
}

// -------- 0005: orders --------

// The (user_id, order_date) unique index is what makes duplicate
// admission impossible under concurrency.
type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Order{})
}
