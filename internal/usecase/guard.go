package usecase

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/pkg/ledgererr"
)

// guard is one precondition of an operation. Guards run in order before any
// write and the first failure aborts the call.
type guard func(ctx context.Context, op string, f *frame) error

func (l *Ledger) check(ctx context.Context, op string, f *frame, guards ...guard) error {
	for _, g := range guards {
		if err := g(ctx, op, f); err != nil {
			return err
		}
	}
	return nil
}

func requireOperational(ctx context.Context, op string, f *frame) error {
	operational, err := f.stores.Access().IsOperational(ctx)
	if err != nil {
		return err
	}
	if !operational {
		return ledgererr.Operational(op)
	}
	return nil
}

func requireAuthorized(ctx context.Context, op string, f *frame) error {
	authorized, err := f.stores.Access().IsAuthorized(ctx, f.caller)
	if err != nil {
		return err
	}
	if !authorized {
		return ledgererr.Unauthorized(op, string(f.caller), "authorized")
	}
	return nil
}

// requireOwner compares identities directly; the owner does not need to be
// in the authorization set
func (l *Ledger) requireOwner(_ context.Context, op string, f *frame) error {
	if f.caller.IsZero() || f.caller != l.cfg.Owner {
		return ledgererr.Unauthorized(op, string(f.caller), "the owner")
	}
	return nil
}

// requireVoter admits the owner, and authorized callers once more than one
// vote is needed
func (l *Ledger) requireVoter(ctx context.Context, op string, f *frame) error {
	if err := l.requireOwner(ctx, op, f); err == nil || l.cfg.VoteThreshold <= 1 {
		return err
	}
	authorized, err := f.stores.Access().IsAuthorized(ctx, f.caller)
	if err != nil {
		return err
	}
	if !authorized {
		return ledgererr.Unauthorized(op, string(f.caller), "the owner or an authorized caller")
	}
	return nil
}

func requireIdentity(op, field string, id entity.Identity) error {
	if id.IsZero() {
		return ledgererr.Invalid(op, "%s must be a non-zero identity", field)
	}
	return nil
}
