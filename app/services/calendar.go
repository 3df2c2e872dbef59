package services

import (
	"context"
	"fmt"
	"time"

	"github.com/webdiner/webdiner/app/models"
)

// Calendar decides which dates accept orders and whether the same-day
// cutoff has passed.
type Calendar struct {
	special SpecialDayStore
	loc     *time.Location
	cutoff  time.Duration // offset from local midnight
}

func NewCalendar(special SpecialDayStore, loc *time.Location, cutoff time.Duration) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{special: special, loc: loc, cutoff: cutoff}
}

// Location is the zone "today" is computed in.
func (c *Calendar) Location() *time.Location { return c.loc }

// Today is the calendar day of now in the configured zone.
func (c *Calendar) Today(now time.Time) models.Date {
	return models.DateOf(now.In(c.loc))
}

// IsOrderable applies the special-day override for date, falling back to
// the weekend rule.
func (c *Calendar) IsOrderable(ctx context.Context, date models.Date) (bool, error) {
	sd, err := c.special.ForDate(ctx, date)
	if err != nil {
		return false, storageErr(err)
	}
	return Orderable(date, sd), nil
}

// Orderable is IsOrderable over an already-fetched override (nil if none).
func Orderable(date models.Date, sd *models.SpecialDay) bool {
	if sd != nil {
		return !sd.IsHoliday
	}
	return !date.IsWeekend()
}

// CheckCutoff rejects past dates and same-day orders after the cutoff.
func (c *Calendar) CheckCutoff(date models.Date, now time.Time) error {
	local := now.In(c.loc)
	today := models.DateOf(local)
	switch {
	case date.Before(today):
		return fmt.Errorf("%w: %s", ErrPastDate, date)
	case date == today && sinceMidnight(local) > c.cutoff:
		return fmt.Errorf("%w: %s after %s", ErrCutoffPassed, date, clock(c.cutoff))
	}
	return nil
}

func sinceMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	return t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
