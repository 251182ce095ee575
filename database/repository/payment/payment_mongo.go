package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"voctnow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPaymentRepo keeps one record per payment attempt.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

func NewMongoPaymentRepo(db *mongo.Database) (*MongoPaymentRepo, error) {
	repo := &MongoPaymentRepo{coll: db.Collection("payments")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoPaymentRepo) Create(ctx context.Context, rec *models.PaymentRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to store payment record: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to update payment %s: %w", id, err)
	}
	return nil
}
