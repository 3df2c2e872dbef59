package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
)

// SpecialDayRepository stores holiday and make-up workday overrides.
type SpecialDayRepository struct {
	db *gorm.DB
}

func NewSpecialDayRepository(db *gorm.DB) *SpecialDayRepository {
	return &SpecialDayRepository{db: db}
}

var _ services.SpecialDayStore = (*SpecialDayRepository)(nil)

func (r *SpecialDayRepository) ForDate(ctx context.Context, date models.Date) (*models.SpecialDay, error) {
	var sd models.SpecialDay
	err := r.db.WithContext(ctx).Where("date = ?", date).Take(&sd).Error
	return found(&sd, err, "find special day")
}

func (r *SpecialDayRepository) ForDates(ctx context.Context, dates []models.Date) (map[models.Date]models.SpecialDay, error) {
	out := make(map[models.Date]models.SpecialDay)
	if len(dates) == 0 {
		return out, nil
	}
	var rows []models.SpecialDay
	if err := r.db.WithContext(ctx).Where("date IN ?", dates).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: special days for dates: %w", err)
	}
	for _, sd := range rows {
		out[sd.Date] = sd
	}
	return out, nil
}

// List returns overrides ordered by date; nil bounds are open.
func (r *SpecialDayRepository) List(ctx context.Context, from, to *models.Date) ([]models.SpecialDay, error) {
	q := r.db.WithContext(ctx).Order("date")
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}
	var rows []models.SpecialDay
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: list special days: %w", err)
	}
	return rows, nil
}

// Upsert creates the override for sd.Date or replaces the existing one.
func (r *SpecialDayRepository) Upsert(ctx context.Context, sd *models.SpecialDay) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_holiday", "description"}),
	}).Create(sd).Error
	if err != nil {
		return fmt.Errorf("repositories: upsert special day: %w", err)
	}
	var stored models.SpecialDay
	if err := db.Where("date = ?", sd.Date).Take(&stored).Error; err != nil {
		return fmt.Errorf("repositories: reload special day: %w", err)
	}
	*sd = stored
	return nil
}

func (r *SpecialDayRepository) Delete(ctx context.Context, date models.Date) (bool, error) {
	res := r.db.WithContext(ctx).Where("date = ?", date).Delete(&models.SpecialDay{})
	if res.Error != nil {
		return false, fmt.Errorf("repositories: delete special day: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
