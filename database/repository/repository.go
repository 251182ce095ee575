package repository

import (
	"fmt"

	bookingRepo "voctnow/database/repository/booking"
	eventsRepo "voctnow/database/repository/events"
	paymentRepo "voctnow/database/repository/payment"
	providerRepo "voctnow/database/repository/provider"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces.
type BookingRepository = bookingRepo.BookingRepository

type ProviderRepository = providerRepo.ProviderRepository

// Repositories bundles every Mongo-backed store the service uses.
type Repositories struct {
	Bookings  *bookingRepo.MongoBookingRepo
	Providers *providerRepo.MongoProviderRepo
	Events    *eventsRepo.MongoEventRepo
	Payments  *paymentRepo.MongoPaymentRepo
}

// NewMongoRepositories opens every collection on db and ensures its indexes.
func NewMongoRepositories(db *mongo.Database) (*Repositories, error) {
	bookings, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		return nil, fmt.Errorf("booking repository: %w", err)
	}
	providers, err := providerRepo.NewMongoProviderRepo(db)
	if err != nil {
		return nil, fmt.Errorf("provider repository: %w", err)
	}
	events, err := eventsRepo.NewMongoEventRepo(db)
	if err != nil {
		return nil, fmt.Errorf("event repository: %w", err)
	}
	payments, err := paymentRepo.NewMongoPaymentRepo(db)
	if err != nil {
		return nil, fmt.Errorf("payment repository: %w", err)
	}
	return &Repositories{
		Bookings:  bookings,
		Providers: providers,
		Events:    events,
		Payments:  payments,
	}, nil
}
