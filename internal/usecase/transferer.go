package usecase

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
)

// Transferer hands withdrawn funds to a passenger. Implementations may call
// back into the Ledger with the ctx they receive; such calls run inside the
// withdrawal that triggered them.
type Transferer interface {
	Transfer(ctx context.Context, to entity.Identity, amount int64) error
}

// TransferFunc adapts a function to the Transferer interface
type TransferFunc func(ctx context.Context, to entity.Identity, amount int64) error

// Transfer calls f(ctx, to, amount)
func (f TransferFunc) Transfer(ctx context.Context, to entity.Identity, amount int64) error {
	return f(ctx, to, amount)
}
