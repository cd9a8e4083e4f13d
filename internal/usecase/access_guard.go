package usecase

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
)

// Authorize adds id to the set of callers allowed to mutate the ledger
func (l *Ledger) Authorize(ctx context.Context, caller, id entity.Identity) error {
	return l.setAuthorized(ctx, "authorize", caller, id, true)
}

// Deauthorize removes id from the set of authorized callers
func (l *Ledger) Deauthorize(ctx context.Context, caller, id entity.Identity) error {
	return l.setAuthorized(ctx, "deauthorize", caller, id, false)
}

func (l *Ledger) setAuthorized(ctx context.Context, op string, caller, id entity.Identity, authorized bool) error {
	caller, id = normalize(caller), normalize(id)
	return l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if err := l.check(ctx, op, f, requireOperational, l.requireOwner); err != nil {
			return err
		}
		if err := requireIdentity(op, "identity", id); err != nil {
			return err
		}

		access := f.stores.Access()
		current, err := access.IsAuthorized(ctx, id)
		if err != nil {
			return err
		}
		if current == authorized {
			return nil
		}
		if err := access.SetAuthorized(ctx, id, authorized); err != nil {
			return err
		}

		eventType := entity.EventCallerAuthorized
		if !authorized {
			eventType = entity.EventCallerDeauthorized
		}
		f.emit(eventType, map[string]string{"identity": string(id)})
		return nil
	})
}

// IsAuthorized reports whether id may call mutating operations
func (l *Ledger) IsAuthorized(ctx context.Context, id entity.Identity) (bool, error) {
	id = normalize(id)
	var authorized bool
	err := l.view(ctx, "isAuthorized", func(ctx context.Context, st repository.Stores) error {
		var err error
		authorized, err = st.Access().IsAuthorized(ctx, id)
		return err
	})
	return authorized, err
}
