package providerRepo

import (
	"context"
	"fmt"

	"voctnow/models"
)

// ErrNotFound is returned when no provider matches the requested id.
var ErrNotFound = fmt.Errorf("provider %w", models.ErrRecordNotFound)

// ProviderRepository defines methods for provider data access.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// FindCandidates returns available, verified providers in insertion order.
	FindCandidates(ctx context.Context, filter models.CandidateFilter) ([]models.Provider, error)
	// Create inserts a new provider record.
	Create(ctx context.Context, provider *models.Provider) error
	// SetAvailability toggles whether the provider accepts new offers.
	SetAvailability(ctx context.Context, id string, available bool) error
}
