package usecase

import (
	"context"
	"strconv"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/pkg/ledgererr"
)

// Fund accepts a deposit from anyone. It leaves the ledger state untouched
// and is accepted while the ledger is paused.
func (l *Ledger) Fund(ctx context.Context, caller entity.Identity, amount int64) error {
	const op = "fund"
	caller = normalize(caller)

	return l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if amount <= 0 {
			return ledgererr.Invalid(op, "amount must be positive")
		}
		f.emit(entity.EventFunded, map[string]string{
			"amount": strconv.FormatInt(amount, 10),
		})
		return nil
	})
}
