package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
	"flightsurety-ledger/pkg/ledgererr"
)

// BuyInsurance sells passenger cover on a flight whose status is still unknown
func (l *Ledger) BuyInsurance(ctx context.Context, caller entity.Identity, key entity.FlightKey, passenger entity.Identity, amount, multiplier int64) error {
	const op = "buyInsurance"
	caller, passenger = normalize(caller), normalize(passenger)

	return l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if err := l.check(ctx, op, f, requireOperational, requireAuthorized); err != nil {
			return err
		}
		if err := requireIdentity(op, "passenger", passenger); err != nil {
			return err
		}
		if amount <= 0 {
			return ledgererr.Invalid(op, "amount must be positive")
		}
		if multiplier <= 0 {
			return ledgererr.Invalid(op, "multiplier must be positive")
		}

		flight, err := f.stores.Flights().FindByKey(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return ledgererr.Invalid(op, "flight %s is not registered", key)
		}
		if err != nil {
			return fmt.Errorf("failed to load flight: %w", err)
		}
		if flight.Status != entity.StatusUnknown {
			return ledgererr.Invalid(op, "flight %s already has status %s", key, flight.Status)
		}

		insurance := f.stores.Insurance()
		policies, err := insurance.ListByFlight(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to load policies: %w", err)
		}
		if findPolicy(policies, passenger) != nil {
			return ledgererr.Invalid(op, "passenger %s is already insured on flight %s", passenger, key)
		}
		if limit := l.cfg.MaxPoliciesPerFlight; limit > 0 && len(policies) >= limit {
			return ledgererr.Invalid(op, "flight %s has reached its limit of %d policies", key, limit)
		}

		policy := &entity.InsurancePolicy{
			FlightKey:  key,
			Passenger:  passenger,
			Amount:     amount,
			Multiplier: multiplier,
		}
		if err := insurance.Append(ctx, policy); err != nil {
			return fmt.Errorf("failed to store policy: %w", err)
		}

		f.emit(entity.EventInsurancePurchased, map[string]string{
			"flightKey":  string(key),
			"passenger":  string(passenger),
			"amount":     strconv.FormatInt(amount, 10),
			"multiplier": strconv.FormatInt(multiplier, 10),
		})
		return nil
	})
}

// IsInsured reports whether passenger holds a policy on the flight
func (l *Ledger) IsInsured(ctx context.Context, key entity.FlightKey, passenger entity.Identity) (bool, error) {
	passenger = normalize(passenger)
	var insured bool
	err := l.view(ctx, "isInsured", func(ctx context.Context, st repository.Stores) error {
		policies, err := st.Insurance().ListByFlight(ctx, key)
		if err != nil {
			return err
		}
		insured = findPolicy(policies, passenger) != nil
		return nil
	})
	return insured, err
}

// GetPolicy returns passenger's policy on the flight
func (l *Ledger) GetPolicy(ctx context.Context, key entity.FlightKey, passenger entity.Identity) (*entity.InsurancePolicy, error) {
	const op = "getPolicy"
	passenger = normalize(passenger)
	var policy *entity.InsurancePolicy
	err := l.view(ctx, op, func(ctx context.Context, st repository.Stores) error {
		policies, err := st.Insurance().ListByFlight(ctx, key)
		if err != nil {
			return err
		}
		if policy = findPolicy(policies, passenger); policy == nil {
			return ledgererr.NotFound(op, "passenger %s is not insured on flight %s", passenger, key)
		}
		return nil
	})
	return policy, err
}

func findPolicy(policies []*entity.InsurancePolicy, passenger entity.Identity) *entity.InsurancePolicy {
	for _, p := range policies {
		if p.Passenger == passenger {
			return p
		}
	}
	return nil
}

// creditInsurees moves the payout of every uncredited policy on the flight
// into the passenger's pending balance, in purchase order. Credited policies
// are skipped, so repeated calls never pay twice.
func (l *Ledger) creditInsurees(ctx context.Context, f *frame, key entity.FlightKey) error {
	const op = "creditInsurees"
	insurance := f.stores.Insurance()
	balances := f.stores.Balances()

	policies, err := insurance.ListByFlight(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	var total int64
	for _, p := range policies {
		if p.Credited {
			continue
		}

		payout, err := p.Payout()
		if err != nil {
			return ledgererr.Wrap(err, ledgererr.KindValidation, op, "cannot credit passenger "+string(p.Passenger))
		}
		pending, err := balances.Pending(ctx, p.Passenger)
		if err != nil {
			return fmt.Errorf("failed to load pending balance: %w", err)
		}
		if pending > math.MaxInt64-payout {
			return ledgererr.Invalid(op, "pending balance of %s would overflow", p.Passenger)
		}

		if err := insurance.MarkCredited(ctx, key, p.Seq); err != nil {
			return fmt.Errorf("failed to mark policy credited: %w", err)
		}
		if err := balances.SetPending(ctx, p.Passenger, pending+payout); err != nil {
			return fmt.Errorf("failed to credit pending balance: %w", err)
		}

		total += payout
		f.emit(entity.EventInsureeCredited, map[string]string{
			"flightKey": string(key),
			"passenger": string(p.Passenger),
			"amount":    strconv.FormatInt(payout, 10),
		})
	}

	f.afterCommit(func() { l.metrics.AddCredited(total) })
	return nil
}
