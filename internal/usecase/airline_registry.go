package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
	"flightsurety-ledger/pkg/ledgererr"
)

// RegisterAirline adds a new, unpaid airline to the membership list
func (l *Ledger) RegisterAirline(ctx context.Context, caller entity.Identity, name string, id entity.Identity) (bool, error) {
	const op = "registerAirline"
	caller, id = normalize(caller), normalize(id)

	err := l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if err := l.check(ctx, op, f, requireOperational, requireAuthorized); err != nil {
			return err
		}
		if err := requireIdentity(op, "airline", id); err != nil {
			return err
		}
		return l.createAirline(ctx, f, name, id)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) createAirline(ctx context.Context, f *frame, name string, id entity.Identity) error {
	airline := &entity.Airline{
		Identity:   id,
		Name:       name,
		Registered: true,
	}
	err := f.stores.Airlines().Create(ctx, airline)
	if errors.Is(err, repository.ErrConflict) {
		return ledgererr.Invalid("registerAirline", "airline %s is already registered", id)
	}
	if err != nil {
		return fmt.Errorf("failed to create airline: %w", err)
	}

	f.emit(entity.EventAirlineRegistered, map[string]string{
		"airline": string(id),
		"name":    name,
		"seq":     strconv.FormatInt(airline.Seq, 10),
	})
	return nil
}

// MarkAirlinePaid records that a registered airline has paid its dues.
// Marking an already paid airline succeeds without effect.
func (l *Ledger) MarkAirlinePaid(ctx context.Context, caller, id entity.Identity) error {
	const op = "markAirlinePaid"
	caller, id = normalize(caller), normalize(id)

	return l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if err := l.check(ctx, op, f, requireOperational, requireAuthorized); err != nil {
			return err
		}
		if err := requireIdentity(op, "airline", id); err != nil {
			return err
		}

		airlines := f.stores.Airlines()
		airline, err := airlines.FindByIdentity(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ledgererr.Invalid(op, "airline %s is not registered", id)
		}
		if err != nil {
			return fmt.Errorf("failed to load airline: %w", err)
		}
		if airline.Paid {
			return nil
		}

		if err := airlines.MarkPaid(ctx, id); err != nil {
			return fmt.Errorf("failed to mark airline paid: %w", err)
		}
		f.emit(entity.EventAirlinePaid, map[string]string{"airline": string(id)})
		return nil
	})
}

// GetAirline returns the airline record for id
func (l *Ledger) GetAirline(ctx context.Context, id entity.Identity) (*entity.Airline, error) {
	const op = "getAirline"
	id = normalize(id)

	var airline *entity.Airline
	err := l.view(ctx, op, func(ctx context.Context, st repository.Stores) error {
		var err error
		airline, err = st.Airlines().FindByIdentity(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ledgererr.NotFound(op, "airline %s is not registered", id)
		}
		return err
	})
	return airline, err
}

// IsRegisteredAirline reports whether id is a registered airline
func (l *Ledger) IsRegisteredAirline(ctx context.Context, id entity.Identity) (bool, error) {
	airline, err := l.lookupAirline(ctx, "isRegisteredAirline", id)
	if err != nil || airline == nil {
		return false, err
	}
	return airline.Registered, nil
}

// IsPaidAirline reports whether id is an airline that has paid
func (l *Ledger) IsPaidAirline(ctx context.Context, id entity.Identity) (bool, error) {
	airline, err := l.lookupAirline(ctx, "isPaidAirline", id)
	if err != nil || airline == nil {
		return false, err
	}
	return airline.Paid, nil
}

// GetAirlineName returns the airline's name, or "" if it is unknown
func (l *Ledger) GetAirlineName(ctx context.Context, id entity.Identity) (string, error) {
	airline, err := l.lookupAirline(ctx, "getAirlineName", id)
	if err != nil || airline == nil {
		return "", err
	}
	return airline.Name, nil
}

// IsAirline is IsRegisteredAirline restricted to authorized callers
func (l *Ledger) IsAirline(ctx context.Context, caller, id entity.Identity) (bool, error) {
	const op = "isAirline"
	caller, id = normalize(caller), normalize(id)

	var registered bool
	err := l.view(ctx, op, func(ctx context.Context, st repository.Stores) error {
		if err := requireAuthorized(ctx, op, &frame{stores: st, caller: caller}); err != nil {
			return err
		}
		airline, err := st.Airlines().FindByIdentity(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		registered = airline.Registered
		return nil
	})
	return registered, err
}

// ListRegisteredAirlines returns airline identities in membership order
func (l *Ledger) ListRegisteredAirlines(ctx context.Context) ([]entity.Identity, error) {
	var ids []entity.Identity
	err := l.view(ctx, "listRegisteredAirlines", func(ctx context.Context, st repository.Stores) error {
		var err error
		ids, err = st.Airlines().ListRegistered(ctx)
		return err
	})
	return ids, err
}

// lookupAirline returns nil without error for unknown airlines
func (l *Ledger) lookupAirline(ctx context.Context, op string, id entity.Identity) (*entity.Airline, error) {
	id = normalize(id)
	var airline *entity.Airline
	err := l.view(ctx, op, func(ctx context.Context, st repository.Stores) error {
		var err error
		airline, err = st.Airlines().FindByIdentity(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			airline = nil
			return nil
		}
		return err
	})
	return airline, err
}
