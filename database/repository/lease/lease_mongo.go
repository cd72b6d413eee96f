package leaseRepo

import (
	"context"
	"fmt"
	"time"

	"tidybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLeaseRepo implements LeaseRepository using MongoDB. The unique index on
// (booking_date, start_time) is what turns Insert into an atomic
// insert-if-absent.
type MongoLeaseRepo struct {
	coll *mongo.Collection
}

// NewMongoLeaseRepo creates a new LeaseRepository backed by MongoDB.
func NewMongoLeaseRepo(db *mongo.Database) LeaseRepository {
	repo := &MongoLeaseRepo{coll: db.Collection("slot_leases")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create lease indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoLeaseRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_date", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_slot"),
		},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetName("expiry_idx")},
	})
	if err != nil {
		return fmt.Errorf("failed to create lease indexes: %w", err)
	}
	return nil
}

func (r *MongoLeaseRepo) Find(ctx context.Context, date, startTime string) (*models.TimeSlotLease, error) {
	var lease models.TimeSlotLease
	err := r.coll.FindOne(ctx, bson.M{"booking_date": date, "start_time": startTime}).Decode(&lease)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch lease %s %s: %w", date, startTime, err)
	}
	return &lease, nil
}

func (r *MongoLeaseRepo) Insert(ctx context.Context, lease models.TimeSlotLease) error {
	if _, err := r.coll.InsertOne(ctx, lease); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateLease
		}
		return fmt.Errorf("failed to insert lease %s %s: %w", lease.BookingDate, lease.StartTime, err)
	}
	return nil
}

func (r *MongoLeaseRepo) Renew(ctx context.Context, date, startTime, ownerID string, expiresAt time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"booking_date": date, "start_time": startTime, "owner_id": ownerID},
		bson.M{"$set": bson.M{"expires_at": expiresAt}})
	if err != nil {
		return fmt.Errorf("failed to renew lease %s %s: %w", date, startTime, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("lease %s %s not held by %s", date, startTime, ownerID)
	}
	return nil
}

func (r *MongoLeaseRepo) Delete(ctx context.Context, date, startTime string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"booking_date": date, "start_time": startTime}); err != nil {
		return fmt.Errorf("failed to delete lease %s %s: %w", date, startTime, err)
	}
	return nil
}

func (r *MongoLeaseRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired leases: %w", err)
	}
	return res.DeletedCount, nil
}
