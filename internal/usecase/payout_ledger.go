package usecase

import (
	"context"
	"fmt"
	"strconv"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
	"flightsurety-ledger/pkg/ledgererr"
)

// GetPending returns the amount owed to passenger
func (l *Ledger) GetPending(ctx context.Context, passenger entity.Identity) (int64, error) {
	passenger = normalize(passenger)
	var pending int64
	err := l.view(ctx, "getPending", func(ctx context.Context, st repository.Stores) error {
		var err error
		pending, err = st.Balances().Pending(ctx, passenger)
		return err
	})
	return pending, err
}

// Withdraw pays out passenger's whole pending balance and returns the amount.
//
// The balance is zeroed before the transfer is attempted. A call made by the
// Transferer back into Withdraw for the same passenger therefore sees a zero
// balance and is rejected. A failed transfer rolls back the zeroing.
func (l *Ledger) Withdraw(ctx context.Context, caller, passenger entity.Identity) (int64, error) {
	const op = "withdraw"
	caller, passenger = normalize(caller), normalize(passenger)

	var amount int64
	err := l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if err := l.check(ctx, op, f, requireOperational, requireAuthorized); err != nil {
			return err
		}
		if err := requireIdentity(op, "passenger", passenger); err != nil {
			return err
		}

		balances := f.stores.Balances()
		pending, err := balances.Pending(ctx, passenger)
		if err != nil {
			return fmt.Errorf("failed to load pending balance: %w", err)
		}
		if pending <= 0 {
			return ledgererr.Invalid(op, "passenger %s has no pending balance", passenger)
		}

		if err := balances.SetPending(ctx, passenger, 0); err != nil {
			return fmt.Errorf("failed to zero pending balance: %w", err)
		}
		if err := l.transferer.Transfer(ctx, passenger, pending); err != nil {
			return ledgererr.Wrap(err, ledgererr.KindTransfer, op, "payout transfer failed")
		}

		amount = pending
		f.emit(entity.EventAccountWithdrawn, map[string]string{
			"passenger": string(passenger),
			"amount":    strconv.FormatInt(pending, 10),
		})
		f.afterCommit(func() { l.metrics.AddWithdrawn(pending) })
		return nil
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}
