// Package notification delivers lunch reminders.
//
// Direct channels ("log", "mail") receive one message per recipient;
// broadcast channels ("slack") receive a single digest per run.
//
//	set, err := notification.Open(config.NotifyDriver())
//	err = set.Direct[0].Send(ctx, notification.Message{To: r, Subject: s, Body: b})
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/webdiner/webdiner/config"
	"github.com/webdiner/webdiner/pkg/logger"
)

// Recipient is the person a direct message is addressed to.
type Recipient struct {
	UserID     uint
	EmployeeID string
	Name       string
	Email      string
}

// Message is one direct notification.
type Message struct {
	To      Recipient
	Subject string
	Body    string
}

// Notifier sends direct messages.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, m Message) error
}

// Broadcaster posts one message to a shared channel.
type Broadcaster interface {
	Channel() string
	Broadcast(ctx context.Context, subject, body string) error
}

// ErrNoAddress is returned when a direct channel has nowhere to deliver.
var ErrNoAddress = errors.New("notification: recipient has no address for this channel")

// Set is the configured delivery channels.
type Set struct {
	Direct    []Notifier
	Broadcast []Broadcaster
}

// Open builds the channels named in drivers (default "log").
func Open(drivers []string) (Set, error) {
	if len(drivers) == 0 {
		drivers = []string{"log"}
	}
	var set Set
	for _, d := range drivers {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "log":
			set.Direct = append(set.Direct, LogNotifier{})
		case "mail", "smtp":
			set.Direct = append(set.Direct, NewMail(SMTPConfig{
				Host:     config.SMTPHost(),
				Port:     config.SMTPPort(),
				Username: config.SMTPUser(),
				Password: config.SMTPPassword(),
				From:     config.SMTPFrom(),
			}))
		case "slack":
			hook := config.SlackWebhook()
			if hook == "" {
				return Set{}, errors.New("notification: NOTIFY_DRIVER includes slack but SLACK_WEBHOOK is empty")
			}
			set.Broadcast = append(set.Broadcast, NewSlack(hook, 5*time.Second))
		default:
			return Set{}, fmt.Errorf("notification: unknown driver %q (supported: log, mail, slack)", d)
		}
	}
	return set, nil
}

// LogNotifier writes the message to the structured log.
type LogNotifier struct{}

func (LogNotifier) Channel() string { return "log" }

func (LogNotifier) Send(ctx context.Context, m Message) error {
	logger.WithCtx(ctx).Info("reminder",
		"user_id", m.To.UserID,
		"employee_id", m.To.EmployeeID,
		"subject", m.Subject,
	)
	return nil
}

// Recorder keeps messages in memory; used by tests and dry runs. It is
// safe for concurrent Send calls.
type Recorder struct {
	Sent       []Message
	Broadcasts []string
	Fail       func(Message) error

	mu sync.Mutex
}

func (r *Recorder) Channel() string { return "recorder" }

func (r *Recorder) Send(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		if err := r.Fail(m); err != nil {
			return err
		}
	}
	r.Sent = append(r.Sent, m)
	return nil
}

func (r *Recorder) Broadcast(_ context.Context, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Broadcasts = append(r.Broadcasts, subject+"\n"+body)
	return nil
}
