// Package events publishes order lifecycle events after a successful commit.
//
// Drivers:
//   - "log"   — structured log line per event (default)
//   - "kafka" — JSON message on KAFKA_TOPIC, keyed by order
//   - "amqp"  — JSON message on the AMQP_EXCHANGE topic exchange, routed by type
//   - "mongo" — durable audit document in the order_events collection
//
// Several drivers may be combined; Open returns a Multi that fans out to all
// of them:
//
//	pub, err := events.Open(ctx, config.EventsDriver())
//	defer pub.Close()
//	pub.Publish(ctx, events.New(events.OrderCreated, order.ID, order.UserID))
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webdiner/webdiner/config"
	"github.com/webdiner/webdiner/pkg/logger"
)

type Type string

const (
	OrderCreated           Type = "order.created"
	OrderCancelled         Type = "order.cancelled"
	OrderOverridden        Type = "order.overridden"
	OrderOverrideCancelled Type = "order.override_cancelled"
)

// Event is the wire and audit shape of an order mutation.
type Event struct {
	ID         string    `json:"id" bson:"_id"`
	Type       Type      `json:"type" bson:"type"`
	OrderID    uint      `json:"order_id" bson:"order_id"`
	UserID     uint      `json:"user_id" bson:"user_id"`
	ActorID    uint      `json:"actor_id" bson:"actor_id"`
	Date       string    `json:"date" bson:"date"`
	Status     string    `json:"status,omitempty" bson:"status,omitempty"`
	VendorID   *uint     `json:"vendor_id,omitempty" bson:"vendor_id,omitempty"`
	ItemID     *uint     `json:"item_id,omitempty" bson:"item_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
}

// New stamps an event with a fresh ID and the current time.
func New(t Type, orderID, userID uint) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OrderID:    orderID,
		UserID:     userID,
		ActorID:    userID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to one sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Open builds the publisher set named by drivers. An empty list means "log".
func Open(ctx context.Context, drivers []string) (Publisher, error) {
	if len(drivers) == 0 {
		drivers = []string{"log"}
	}

	var out Multi
	for _, d := range drivers {
		var (
			p   Publisher
			err error
		)
		switch strings.ToLower(d) {
		case "log":
			p = LogPublisher{}
		case "kafka":
			p, err = NewKafka(config.KafkaBrokers(), config.KafkaTopic())
		case "amqp", "rabbitmq":
			p, err = DialAMQP(config.AMQPURL(), config.AMQPExchange())
		case "mongo", "mongodb":
			p, err = DialMongo(ctx, config.MongoURI(), config.MongoDatabase())
		default:
			err = fmt.Errorf("events: unknown driver %q", d)
		}
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out = append(out, p)
	}

	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

// ─── Multi ────────────────────────────────────────────────────────────────────

// Multi publishes to every member and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ─── Log ──────────────────────────────────────────────────────────────────────

type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	logger.WithCtx(ctx).Info("event",
		"event_id", e.ID,
		"type", string(e.Type),
		"order_id", e.OrderID,
		"user_id", e.UserID,
		"actor_id", e.ActorID,
		"date", e.Date,
		"status", e.Status,
	)
	return nil
}

func (LogPublisher) Close() error { return nil }

// ─── Recorder ─────────────────────────────────────────────────────────────────

// Recorder keeps events in memory. Useful in tests and as a null sink.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the type of each recorded event in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
