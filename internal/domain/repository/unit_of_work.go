package repository

import "context"

// Stores is the set of repositories bound to one transaction
type Stores interface {
	Airlines() AirlineRepository
	Flights() FlightRepository
	Insurance() InsuranceRepository
	Balances() BalanceRepository
	Access() AccessRepository

	// Nested runs fn inside a savepoint of the current transaction. If fn
	// fails only the writes made by fn are undone.
	Nested(ctx context.Context, fn func(Stores) error) error
}

// UnitOfWork runs a function against transactional stores. If fn returns an
// error none of its writes persist.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(Stores) error) error
}
