package models

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusNoOrder   OrderStatus = "NoOrder"
	// StatusCancelled is never written: cancellation removes the row.
	StatusCancelled OrderStatus = "Cancelled"
)

// Order is one employee's meal decision for one date. (UserID, OrderDate)
// is unique at the storage layer.
type Order struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	UserID           uint        `gorm:"not null;uniqueIndex:idx_orders_user_date,priority:1" json:"user_id"`
	OrderDate        Date        `gorm:"not null;uniqueIndex:idx_orders_user_date,priority:2;index" json:"order_date"`
	VendorID         *uint       `gorm:"index" json:"vendor_id"`
	VendorMenuItemID *uint       `gorm:"index" json:"vendor_menu_item_id"`
	Status           OrderStatus `gorm:"size:20;not null;default:Pending" json:"status"`
	Items            *string     `gorm:"size:500" json:"items,omitempty"` // legacy free-text selection
	CreatedAt        time.Time   `gorm:"<-:create;autoCreateTime" json:"created_at"`
}

// HasSelection reports whether the order names a vendor and an item.
func (o Order) HasSelection() bool {
	return o.VendorID != nil && o.VendorMenuItemID != nil
}
