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

// StatusReport is an oracle observation of a flight's outcome
type StatusReport struct {
	Airline       entity.Identity
	Designator    string
	ScheduledTime int64
	Status        entity.StatusCode
}

// ProcessFlightStatus applies the first reported status of a flight. When
// the flight is late because of the airline every insured passenger is
// credited. Reports for flights that already have a status change nothing.
func (l *Ledger) ProcessFlightStatus(ctx context.Context, caller entity.Identity, report StatusReport) error {
	const op = "processFlightStatus"
	caller = normalize(caller)
	report.Airline = normalize(report.Airline)
	report.Designator = entity.NormalizeDesignator(report.Designator)

	return l.execute(ctx, op, caller, func(ctx context.Context, f *frame) error {
		if err := l.check(ctx, op, f, requireOperational, requireAuthorized); err != nil {
			return err
		}
		if !report.Status.IsValid() || report.Status == entity.StatusUnknown {
			return ledgererr.Invalid(op, "status %s cannot be reported", report.Status)
		}

		key := entity.NewFlightKey(report.Airline, report.Designator, report.ScheduledTime)
		flights := f.stores.Flights()
		flight, err := flights.FindByKey(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return ledgererr.Invalid(op, "flight %s is not registered", key)
		}
		if err != nil {
			return fmt.Errorf("failed to load flight: %w", err)
		}
		if flight.Status != entity.StatusUnknown {
			l.logger.Debug("Ignoring status report for settled flight", "flightKey", key, "status", flight.Status, "reported", report.Status)
			return nil
		}

		if err := flights.UpdateStatus(ctx, key, report.Status); err != nil {
			return fmt.Errorf("failed to update flight status: %w", err)
		}
		f.emit(entity.EventFlightStatusUpdated, map[string]string{
			"flightKey":  string(key),
			"status":     report.Status.String(),
			"statusCode": strconv.Itoa(int(report.Status)),
		})

		if report.Status == entity.StatusLateAirline {
			return l.creditInsurees(ctx, f, key)
		}
		return nil
	})
}
