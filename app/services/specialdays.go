package services

import (
	"context"
	"fmt"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/logger"
)

// SpecialDayService maintains holiday and make-up workday overrides.
type SpecialDayService struct {
	store SpecialDayStore
	gate  Gate
}

func NewSpecialDayService(store SpecialDayStore) *SpecialDayService {
	return &SpecialDayService{store: store}
}

// List returns overrides between from and to inclusive; nil bounds are open.
func (s *SpecialDayService) List(ctx context.Context, from, to *models.Date) ([]models.SpecialDay, error) {
	rows, err := s.store.List(ctx, from, to)
	if err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

// Upsert marks date as a holiday (isHoliday) or a workday.
func (s *SpecialDayService) Upsert(ctx context.Context, actor models.Principal, date models.Date, isHoliday bool, description string) (*models.SpecialDay, error) {
	if err := s.gate.RequireAdmin(actor); err != nil {
		return nil, err
	}
	sd := &models.SpecialDay{Date: date, IsHoliday: isHoliday, Description: description}
	if err := s.store.Upsert(ctx, sd); err != nil {
		return nil, storageErr(err)
	}
	logger.WithCtx(ctx).Info("special day saved", "date", date.String(), "holiday", isHoliday, "by", actor.ID)
	return sd, nil
}

func (s *SpecialDayService) Delete(ctx context.Context, actor models.Principal, date models.Date) error {
	if err := s.gate.RequireAdmin(actor); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, date)
	if err != nil {
		return storageErr(err)
	}
	if !ok {
		return fmt.Errorf("%w: special day %s", ErrNotFound, date)
	}
	return nil
}
