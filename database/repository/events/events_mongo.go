package eventsRepo

import (
	"context"
	"fmt"
	"time"

	"voctnow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventRepo is an append-only journal of booking transitions.
type MongoEventRepo struct {
	coll *mongo.Collection
}

func NewMongoEventRepo(db *mongo.Database) (*MongoEventRepo, error) {
	repo := &MongoEventRepo{coll: db.Collection("booking_events")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, fmt.Errorf("failed to create booking event indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoEventRepo) Append(ctx context.Context, event *models.BookingEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append booking event: %w", err)
	}
	return nil
}

// ListByBooking returns the history of one booking, oldest first.
func (r *MongoEventRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.BookingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.BookingEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode booking events: %w", err)
	}
	return events, nil
}
