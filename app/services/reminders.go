package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/logger"
	"github.com/webdiner/webdiner/pkg/metrics"
	"github.com/webdiner/webdiner/pkg/notification"
	"github.com/webdiner/webdiner/pkg/workerpool"
)

// ReminderService nudges employees who have not ordered for a date.
type ReminderService struct {
	aggregation *Aggregation
	channels    notification.Set
	workers     int
}

func NewReminderService(aggregation *Aggregation, channels notification.Set, workers int) *ReminderService {
	if workers <= 0 {
		workers = 4
	}
	return &ReminderService{aggregation: aggregation, channels: channels, workers: workers}
}

// Send notifies everyone Missing(date) returns through every direct
// channel, then posts one digest to the broadcast channels. It returns the
// number of employees at least one direct channel reached.
func (s *ReminderService) Send(ctx context.Context, date models.Date) (int, error) {
	missing, err := s.aggregation.Missing(ctx, date)
	if err != nil {
		return 0, err
	}
	log := logger.WithCtx(ctx)
	if len(missing) == 0 {
		log.Info("reminders: everyone has ordered", "date", date.String())
		return 0, nil
	}

	subject := fmt.Sprintf("Lunch order reminder for %s", date)
	errs := workerpool.ForEach(ctx, s.workers, missing, func(ctx context.Context, m MissingEmployee) error {
		return s.remind(ctx, m, subject, date)
	})

	sent := 0
	for i, err := range errs {
		if err == nil {
			sent++
			continue
		}
		log.Warn("reminders: not delivered", "employee_id", missing[i].EmployeeID, "error", err)
	}

	if len(s.channels.Broadcast) > 0 {
		body := digest(date, missing)
		for _, b := range s.channels.Broadcast {
			status := "sent"
			if err := b.Broadcast(ctx, subject, body); err != nil {
				status = "failed"
				log.Warn("reminders: digest failed", "channel", b.Channel(), "error", err)
			}
			metrics.RemindersSent.WithLabelValues(b.Channel(), status).Inc()
		}
	}

	log.Info("reminders: done", "date", date.String(), "missing", len(missing), "sent", sent)
	return sent, nil
}

// remind succeeds when at least one direct channel delivered.
func (s *ReminderService) remind(ctx context.Context, m MissingEmployee, subject string, date models.Date) error {
	if len(s.channels.Direct) == 0 {
		return errors.New("reminders: no direct channel configured")
	}
	msg := notification.Message{
		To: notification.Recipient{
			UserID:     m.UserID,
			EmployeeID: m.EmployeeID,
			Name:       m.Name,
			Email:      m.Email,
		},
		Subject: subject,
		Body: fmt.Sprintf("Hi %s,\n\nYou have not placed a lunch order for %s yet. "+
			"Please pick a meal, or choose \"no order\", before the cutoff.\n", m.Name, date),
	}

	var errs []error
	delivered := false
	for _, n := range s.channels.Direct {
		err := n.Send(ctx, msg)
		switch {
		case err == nil:
			delivered = true
			metrics.RemindersSent.WithLabelValues(n.Channel(), "sent").Inc()
		case errors.Is(err, notification.ErrNoAddress):
			metrics.RemindersSent.WithLabelValues(n.Channel(), "skipped").Inc()
			errs = append(errs, err)
		default:
			metrics.RemindersSent.WithLabelValues(n.Channel(), "failed").Inc()
			errs = append(errs, err)
		}
	}
	if delivered {
		return nil
	}
	return errors.Join(errs...)
}

func digest(date models.Date, missing []MissingEmployee) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d people have not ordered lunch for %s:\n", len(missing), date)
	for _, m := range missing {
		fmt.Fprintf(&b, "• %s %s\n", m.EmployeeID, m.Name)
	}
	return b.String()
}
