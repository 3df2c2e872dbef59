package events

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "order_events"

// MongoPublisher keeps every event as an audit document. Cancellations hard
// delete the order row, so this collection is the durable trail.
type MongoPublisher struct {
	client *mongo.Client
	col    *mongo.Collection
}

func DialMongo(ctx context.Context, uri, database string) (*MongoPublisher, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(10))
	if err != nil {
		return nil, fmt.Errorf("events/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("events/mongo: ping: %w", err)
	}

	col := client.Database(database).Collection(mongoCollection)
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}},
	})

	return &MongoPublisher{client: client, col: col}, nil
}

func (p *MongoPublisher) Publish(ctx context.Context, e Event) error {
	if _, err := p.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("events/mongo: insert %s: %w", e.Type, err)
	}
	return nil
}

func (p *MongoPublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.client.Disconnect(ctx)
}
