package repository

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
)

// AirlineRepository defines the interface for airline membership storage
type AirlineRepository interface {
	FindByIdentity(ctx context.Context, id entity.Identity) (*entity.Airline, error)
	// Create stores a new airline and assigns its membership Seq.
	// Returns ErrConflict if the identity already exists.
	Create(ctx context.Context, airline *entity.Airline) error
	MarkPaid(ctx context.Context, id entity.Identity) error
	// ListRegistered returns identities in membership order
	ListRegistered(ctx context.Context) ([]entity.Identity, error)
}
