package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"tidybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a new BookingRepository backed by MongoDB.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create booking indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_date", Value: 1}, {Key: "start_time", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"booking_date": date})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings for %s: %w", date, err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) ListByRange(ctx context.Context, startDate, endDate string) ([]models.Booking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"booking_date": bson.M{"$gte": startDate, "$lte": endDate},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings %s..%s: %w", startDate, endDate, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings %s..%s: %w", startDate, endDate, err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) SetSyncStatus(ctx context.Context, id, status, calendarEvent string) error {
	set := bson.M{"sync_status": status}
	if calendarEvent != "" {
		set["calendar_event"] = calendarEvent
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to set sync status for booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s not found", id)
	}
	return nil
}
