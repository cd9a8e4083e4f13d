package repository

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
)

// AccessRepository defines the interface for the authorization set, the
// operational flag and the pending operational vote
type AccessRepository interface {
	IsAuthorized(ctx context.Context, id entity.Identity) (bool, error)
	SetAuthorized(ctx context.Context, id entity.Identity, authorized bool) error
	IsOperational(ctx context.Context) (bool, error)
	SetOperational(ctx context.Context, mode bool) error
	VotingRound(ctx context.Context) (*entity.VotingRound, error)
	SaveVotingRound(ctx context.Context, round *entity.VotingRound) error
}
