package repository

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
)

// BalanceRepository defines the interface for passenger pending balances
type BalanceRepository interface {
	// Pending returns 0 for identities that were never credited
	Pending(ctx context.Context, id entity.Identity) (int64, error)
	SetPending(ctx context.Context, id entity.Identity, amount int64) error
}
