package usecase

import (
	"context"
	"errors"
	"strconv"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
	"flightsurety-ledger/pkg/ledgererr"
)

// IsOperational reports whether mutating operations are currently accepted
func (l *Ledger) IsOperational(ctx context.Context) (bool, error) {
	var operational bool
	err := l.view(ctx, "isOperational", func(ctx context.Context, st repository.Stores) error {
		var err error
		operational, err = st.Access().IsOperational(ctx)
		return err
	})
	return operational, err
}

// SetOperationalStatus casts caller's vote for mode. The mode is applied when
// the configured number of distinct voters agree. It reports whether the
// mode was applied by this vote. This is the only mutation that still runs
// while the ledger is paused.
func (l *Ledger) SetOperationalStatus(ctx context.Context, caller entity.Identity, mode bool) (bool, error) {
	const op = "setOperationalStatus"
	caller = normalize(caller)

	var applied bool
	err := l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		applied = false
		if err := l.check(ctx, op, f, l.requireVoter); err != nil {
			return err
		}

		access := f.stores.Access()
		round, err := access.VotingRound(ctx)
		if err != nil {
			return err
		}

		ok, err := round.Cast(caller, mode, l.cfg.VoteThreshold)
		switch {
		case errors.Is(err, entity.ErrDuplicateVote), errors.Is(err, entity.ErrConflictingVote):
			return ledgererr.Wrap(err, ledgererr.KindValidation, op, "vote rejected")
		case err != nil:
			return err
		}
		if err := access.SaveVotingRound(ctx, round); err != nil {
			return err
		}
		if !ok {
			l.logger.Info("Operational vote recorded", "caller", caller, "mode", mode, "votes", len(round.Voters), "threshold", l.cfg.VoteThreshold)
			return nil
		}

		previous, err := access.IsOperational(ctx)
		if err != nil {
			return err
		}
		if err := access.SetOperational(ctx, mode); err != nil {
			return err
		}
		applied = true
		f.emit(entity.EventOperationalStatusChanged, map[string]string{
			"operational": strconv.FormatBool(mode),
			"previous":    strconv.FormatBool(previous),
		})
		return nil
	})
	return applied, err
}
