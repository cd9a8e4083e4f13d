package repository

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
)

// FlightRepository defines the interface for flight storage
type FlightRepository interface {
	FindByKey(ctx context.Context, key entity.FlightKey) (*entity.Flight, error)
	// Create returns ErrConflict if the key is already registered
	Create(ctx context.Context, flight *entity.Flight) error
	UpdateStatus(ctx context.Context, key entity.FlightKey, status entity.StatusCode) error
	// ListKeys returns registered flight keys in registration order
	ListKeys(ctx context.Context) ([]entity.FlightKey, error)
}
