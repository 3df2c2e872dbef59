package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices go out as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const DefaultVendorColor = "#3B82F6"

type Vendor struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Color       string         `gorm:"size:20;not null;default:#3B82F6" json:"color"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// MenuItem belongs to exactly one vendor. A nil Weekday means the item is
// served every weekday; otherwise 0..4 is Monday..Friday.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	VendorID    uint            `gorm:"not null;index" json:"vendor_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"size:500" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Weekday     *int            `json:"weekday"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (MenuItem) TableName() string { return "vendor_menu_items" }

// ServedOn reports whether the item's weekday window admits d.
func (m MenuItem) ServedOn(d Date) bool {
	return m.Weekday == nil || *m.Weekday == d.MondayIndex()
}

// SpecialDay overrides the default weekend rule for one date.
type SpecialDay struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        Date      `gorm:"not null;uniqueIndex" json:"date"`
	IsHoliday   bool      `gorm:"not null" json:"is_holiday"`
	Description string    `gorm:"size:200" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
