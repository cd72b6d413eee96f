package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"tidybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	serviceColl  *mongo.Collection
	faqColl      *mongo.Collection
	hoursColl    *mongo.Collection
	settingsColl *mongo.Collection
}

// NewMongoCatalogRepo creates a new CatalogRepository backed by MongoDB.
func NewMongoCatalogRepo(db *mongo.Database) CatalogRepository {
	repo := &MongoCatalogRepo{
		serviceColl:  db.Collection("services"),
		faqColl:      db.Collection("faqs"),
		hoursColl:    db.Collection("business_hours"),
		settingsColl: db.Collection("integration_settings"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create catalog indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoCatalogRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	_, err := r.serviceColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create service indexes: %w", err)
	}
	_, err = r.faqColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create faq indexes: %w", err)
	}
	return nil
}

func (r *MongoCatalogRepo) ListServices(ctx context.Context) ([]models.Service, error) {
	cursor, err := r.serviceColl.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []models.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return services, nil
}

func (r *MongoCatalogRepo) GetServiceByID(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := r.serviceColl.FindOne(ctx, bson.M{"id": id, "active": true}).Decode(&svc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch service %s: %w", id, err)
	}
	return &svc, nil
}

func (r *MongoCatalogRepo) ListFAQs(ctx context.Context) ([]models.FAQ, error) {
	cursor, err := r.faqColl.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	defer cursor.Close(ctx)

	var faqs []models.FAQ
	if err := cursor.All(ctx, &faqs); err != nil {
		return nil, fmt.Errorf("failed to decode faqs: %w", err)
	}
	return faqs, nil
}

func (r *MongoCatalogRepo) GetBusinessHours(ctx context.Context) ([]models.BusinessHours, error) {
	cursor, err := r.hoursColl.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch business hours: %w", err)
	}
	defer cursor.Close(ctx)

	var hours []models.BusinessHours
	if err := cursor.All(ctx, &hours); err != nil {
		return nil, fmt.Errorf("failed to decode business hours: %w", err)
	}
	return hours, nil
}

func (r *MongoCatalogRepo) GetIntegrationSettings(ctx context.Context) (*models.IntegrationSettings, error) {
	var settings models.IntegrationSettings
	if err := r.settingsColl.FindOne(ctx, bson.M{}).Decode(&settings); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch integration settings: %w", err)
	}
	return &settings, nil
}
