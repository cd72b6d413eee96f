package catalogRepo

import (
	"context"

	"tidybook/models"
)

// CatalogRepository exposes the read side of the admin-managed catalog:
// services, FAQs, business hours and integration settings.
type CatalogRepository interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	GetServiceByID(ctx context.Context, id string) (*models.Service, error) // (nil, nil) when absent
	ListFAQs(ctx context.Context) ([]models.FAQ, error)
	GetBusinessHours(ctx context.Context) ([]models.BusinessHours, error)
	GetIntegrationSettings(ctx context.Context) (*models.IntegrationSettings, error)
}
