package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
)

// OrderRepository handles database operations for Order.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

var _ services.OrderStore = (*OrderRepository)(nil)

// Transaction runs fn inside a database transaction.
func (r *OrderRepository) Transaction(ctx context.Context, fn func(tx services.OrderStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&OrderRepository{db: tx})
	})
}

func (r *OrderRepository) FindByUserDate(ctx context.Context, userID uint, date models.Date) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("user_id = ? AND order_date = ?", userID, date).Take(&o).Error
	return found(&o, err, "find order by date")
}

func (r *OrderRepository) FindForUser(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID).Take(&o).Error
	return found(&o, err, "find order")
}

// DatesTaken reports which of dates already carry an order for userID.
func (r *OrderRepository) DatesTaken(ctx context.Context, userID uint, dates []models.Date) (map[models.Date]bool, error) {
	taken := make(map[models.Date]bool)
	if len(dates) == 0 {
		return taken, nil
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Select("order_date").
		Where("user_id = ? AND order_date IN ?", userID, dates).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: dates taken: %w", err)
	}
	for _, o := range rows {
		taken[o.OrderDate] = true
	}
	return taken, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("repositories: create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) CreateBatch(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(orders).Error; err != nil {
		return fmt.Errorf("repositories: create orders: %w", err)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Order{}, id).Error; err != nil {
		return fmt.Errorf("repositories: delete order %d: %w", id, err)
	}
	return nil
}

// Upsert inserts o or, when (user_id, order_date) already exists, replaces
// its selection, status and items in the same statement. created_at is
// left untouched on update.
func (r *OrderRepository) Upsert(ctx context.Context, o *models.Order) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "order_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"vendor_id", "vendor_menu_item_id", "status", "items"}),
	}).Create(o).Error
	if err != nil {
		return fmt.Errorf("repositories: upsert order: %w", err)
	}
	// The returned id is unreliable on conflict for some dialects.
	var stored models.Order
	if err := db.Where("user_id = ? AND order_date = ?", o.UserID, o.OrderDate).Take(&stored).Error; err != nil {
		return fmt.Errorf("repositories: reload order: %w", err)
	}
	*o = stored
	return nil
}

func (r *OrderRepository) ForDate(ctx context.Context, date models.Date) ([]models.Order, error) {
	var rows []models.Order
	if err := r.db.WithContext(ctx).Where("order_date = ?", date).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: orders for date: %w", err)
	}
	return rows, nil
}

// ForUser lists userID's orders, newest date first.
func (r *OrderRepository) ForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var rows []models.Order
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("order_date desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: orders for user: %w", err)
	}
	return rows, nil
}

// found turns gorm's not-found into (nil, nil).
func found[T any](row *T, err error, op string) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: %s: %w", op, err)
	}
	return row, nil
}
