package repository

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
)

// InsuranceRepository defines the interface for per-flight policy lists
type InsuranceRepository interface {
	// Append adds a policy to the end of the flight's list and assigns its Seq
	Append(ctx context.Context, policy *entity.InsurancePolicy) error
	// ListByFlight returns policies in insertion order
	ListByFlight(ctx context.Context, key entity.FlightKey) ([]*entity.InsurancePolicy, error)
	CountByFlight(ctx context.Context, key entity.FlightKey) (int, error)
	MarkCredited(ctx context.Context, key entity.FlightKey, seq int64) error
}
