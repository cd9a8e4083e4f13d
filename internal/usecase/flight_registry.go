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

// FlightRegistration describes a flight offered by a paid airline
type FlightRegistration struct {
	Airline       entity.Identity
	Designator    string
	Origin        string
	Destination   string
	ScheduledTime int64

	// Key is optional. When set it must equal the key derived from
	// Airline, Designator and ScheduledTime.
	Key entity.FlightKey
}

// RegisterFlight records a new flight with an Unknown status and returns its key
func (l *Ledger) RegisterFlight(ctx context.Context, caller entity.Identity, reg FlightRegistration) (entity.FlightKey, error) {
	const op = "registerFlight"
	caller = normalize(caller)
	reg.Airline = normalize(reg.Airline)
	reg.Designator = entity.NormalizeDesignator(reg.Designator)

	key := entity.NewFlightKey(reg.Airline, reg.Designator, reg.ScheduledTime)
	err := l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if err := l.check(ctx, op, f, requireOperational, requireAuthorized); err != nil {
			return err
		}
		if err := requireIdentity(op, "airline", reg.Airline); err != nil {
			return err
		}
		if reg.Designator == "" {
			return ledgererr.Invalid(op, "designator is required")
		}
		if reg.Key != "" {
			supplied, err := entity.ParseFlightKey(string(reg.Key))
			if err != nil {
				return ledgererr.Wrap(err, ledgererr.KindValidation, op, "invalid flight key")
			}
			if supplied != key {
				return ledgererr.Invalid(op, "flight key %s does not match airline, designator and scheduled time", supplied)
			}
		}

		airline, err := f.stores.Airlines().FindByIdentity(ctx, reg.Airline)
		if errors.Is(err, repository.ErrNotFound) {
			return ledgererr.Invalid(op, "airline %s is not registered", reg.Airline)
		}
		if err != nil {
			return fmt.Errorf("failed to load airline: %w", err)
		}
		if !airline.Paid {
			return ledgererr.Invalid(op, "airline %s has not paid", reg.Airline)
		}

		flight := &entity.Flight{
			Key:           key,
			Designator:    reg.Designator,
			Registered:    true,
			Status:        entity.StatusUnknown,
			ScheduledTime: reg.ScheduledTime,
			Airline:       reg.Airline,
			Origin:        reg.Origin,
			Destination:   reg.Destination,
		}
		err = f.stores.Flights().Create(ctx, flight)
		if errors.Is(err, repository.ErrConflict) {
			return ledgererr.Invalid(op, "flight %s is already registered", key)
		}
		if err != nil {
			return fmt.Errorf("failed to create flight: %w", err)
		}

		f.emit(entity.EventFlightRegistered, map[string]string{
			"flightKey":     string(key),
			"airline":       string(reg.Airline),
			"designator":    reg.Designator,
			"scheduledTime": strconv.FormatInt(reg.ScheduledTime, 10),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// GetFlight returns the flight registered under key
func (l *Ledger) GetFlight(ctx context.Context, key entity.FlightKey) (*entity.Flight, error) {
	const op = "getFlight"
	var flight *entity.Flight
	err := l.view(ctx, op, func(ctx context.Context, st repository.Stores) error {
		var err error
		flight, err = st.Flights().FindByKey(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return ledgererr.NotFound(op, "flight %s is not registered", key)
		}
		return err
	})
	return flight, err
}

// IsRegisteredFlight reports whether key belongs to a registered flight
func (l *Ledger) IsRegisteredFlight(ctx context.Context, key entity.FlightKey) (bool, error) {
	flight, err := l.GetFlight(ctx, key)
	if ledgererr.Is(err, ledgererr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return flight.Registered, nil
}

// ListFlights returns registered flight keys in registration order
func (l *Ledger) ListFlights(ctx context.Context) ([]entity.FlightKey, error) {
	var keys []entity.FlightKey
	err := l.view(ctx, "listFlights", func(ctx context.Context, st repository.Stores) error {
		var err error
		keys, err = st.Flights().ListKeys(ctx)
		return err
	})
	return keys, err
}
