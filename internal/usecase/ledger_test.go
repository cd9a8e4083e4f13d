package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/interface/repository"
	"flightsurety-ledger/pkg/ledgererr"
	"flightsurety-ledger/pkg/logger"
	"flightsurety-ledger/pkg/metrics"
)

const (
	owner      entity.Identity = "0x00000000000000000000000000000000000000aa"
	airlineA   entity.Identity = "0x00000000000000000000000000000000000000a1"
	airlineB   entity.Identity = "0x00000000000000000000000000000000000000a2"
	oracle     entity.Identity = "0x00000000000000000000000000000000000000c1"
	stranger   entity.Identity = "0x00000000000000000000000000000000000000ee"
	passengerP entity.Identity = "0x00000000000000000000000000000000000000b1"
	passengerQ entity.Identity = "0x00000000000000000000000000000000000000b2"

	scheduled int64 = 1700000000
)

// recordingTransferer records completed transfers and runs an optional hook
// before each one
type recordingTransferer struct {
	hook      func(ctx context.Context, to entity.Identity, amount int64) error
	transfers []int64
}

func (t *recordingTransferer) Transfer(ctx context.Context, to entity.Identity, amount int64) error {
	if t.hook != nil {
		if err := t.hook(ctx, to, amount); err != nil {
			return err
		}
	}
	t.transfers = append(t.transfers, amount)
	return nil
}

func (t *recordingTransferer) total() int64 {
	var sum int64
	for _, a := range t.transfers {
		sum += a
	}
	return sum
}

type failingEventRepository struct{}

func (failingEventRepository) Append(context.Context, []entity.Event) error {
	return errors.New("event store unavailable")
}

func (failingEventRepository) ListRecent(context.Context, int) ([]entity.Event, error) {
	return nil, errors.New("event store unavailable")
}

type LedgerSuite struct {
	suite.Suite
	ctx        context.Context
	store      *repository.MemoryStore
	events     *repository.MemoryEventRepository
	transferer *recordingTransferer
	metrics    *metrics.Metrics
	ledger     *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = s.newLedger(LedgerConfig{
		Owner:            owner,
		FirstAirline:     airlineA,
		FirstAirlineName: "First Air",
		VoteThreshold:    1,
	})
	s.Require().NoError(s.ledger.Bootstrap(s.ctx))
	s.Require().NoError(s.ledger.Authorize(s.ctx, owner, oracle))
}

func (s *LedgerSuite) newLedger(cfg LedgerConfig) *Ledger {
	s.store = repository.NewMemoryStore()
	s.events = repository.NewMemoryEventRepository()
	s.transferer = &recordingTransferer{}
	s.metrics = metrics.NewMetrics("test", prometheus.NewRegistry())

	l, err := NewLedger(cfg, s.store, s.events, s.transferer, s.metrics, logger.NewNop())
	s.Require().NoError(err)
	return l
}

func (s *LedgerSuite) requireKind(err error, kind ledgererr.Kind) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(kind, ledgererr.KindOf(err), "unexpected error: %v", err)
}

func (s *LedgerSuite) eventTypes() []entity.EventType {
	events, err := s.ledger.ListEvents(s.ctx, 0)
	s.Require().NoError(err)
	types := make([]entity.EventType, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		types = append(types, events[i].Type)
	}
	return types
}

func (s *LedgerSuite) eventCount() int {
	events, err := s.ledger.ListEvents(s.ctx, 0)
	s.Require().NoError(err)
	return len(events)
}

// paidFlight marks airlineA paid and registers AA100
func (s *LedgerSuite) paidFlight() entity.FlightKey {
	s.Require().NoError(s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineA))
	key, err := s.ledger.RegisterFlight(s.ctx, oracle, FlightRegistration{
		Airline:       airlineA,
		Designator:    "AA100",
		Origin:        "JFK",
		Destination:   "LAX",
		ScheduledTime: scheduled,
	})
	s.Require().NoError(err)
	return key
}

func (s *LedgerSuite) reportStatus(status entity.StatusCode) error {
	return s.ledger.ProcessFlightStatus(s.ctx, oracle, StatusReport{
		Airline:       airlineA,
		Designator:    "AA100",
		ScheduledTime: scheduled,
		Status:        status,
	})
}

func (s *LedgerSuite) TestNewLedgerRequiresOwner() {
	_, err := NewLedger(LedgerConfig{}, repository.NewMemoryStore(), repository.NewMemoryEventRepository(), &recordingTransferer{}, nil, logger.NewNop())
	s.Error(err)
}

func (s *LedgerSuite) TestBootstrap() {
	s.Run("seeds first airline unpaid and authorizes owner", func() {
		registered, err := s.ledger.IsRegisteredAirline(s.ctx, airlineA)
		s.Require().NoError(err)
		s.True(registered)

		paid, err := s.ledger.IsPaidAirline(s.ctx, airlineA)
		s.Require().NoError(err)
		s.False(paid)

		name, err := s.ledger.GetAirlineName(s.ctx, airlineA)
		s.Require().NoError(err)
		s.Equal("First Air", name)

		authorized, err := s.ledger.IsAuthorized(s.ctx, owner)
		s.Require().NoError(err)
		s.True(authorized)
	})

	s.Run("is idempotent", func() {
		before := s.eventCount()
		s.Require().NoError(s.ledger.Bootstrap(s.ctx))
		s.Equal(before, s.eventCount())

		ids, err := s.ledger.ListRegisteredAirlines(s.ctx)
		s.Require().NoError(err)
		s.Equal([]entity.Identity{airlineA}, ids)
	})
}

// TestScenario walks an airline from registration to a passenger payout.
func (s *LedgerSuite) TestScenario() {
	s.Require().NoError(s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineA))

	key, err := s.ledger.RegisterFlight(s.ctx, oracle, FlightRegistration{
		Airline:       airlineA,
		Designator:    "AA100",
		Origin:        "JFK",
		Destination:   "LAX",
		ScheduledTime: scheduled,
		Key:           entity.NewFlightKey(airlineA, "AA100", scheduled),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))
	s.Require().NoError(s.reportStatus(entity.StatusLateAirline))

	pending, err := s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), pending)

	amount, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), amount)
	s.Equal([]int64{150}, s.transferer.transfers)

	pending, err = s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Zero(pending)

	_, err = s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.requireKind(err, ledgererr.KindValidation)

	s.Equal([]entity.EventType{
		entity.EventCallerAuthorized,
		entity.EventAirlineRegistered,
		entity.EventCallerAuthorized,
		entity.EventAirlinePaid,
		entity.EventFlightRegistered,
		entity.EventInsurancePurchased,
		entity.EventFlightStatusUpdated,
		entity.EventInsureeCredited,
		entity.EventAccountWithdrawn,
	}, s.eventTypes())

	s.Equal(float64(150), testutil.ToFloat64(s.metrics.CreditedAmount))
	s.Equal(float64(150), testutil.ToFloat64(s.metrics.WithdrawnAmount))
}

func (s *LedgerSuite) TestMarkAirlinePaid() {
	s.Run("is monotonic and repeat calls are no-ops", func() {
		s.Require().NoError(s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineA))
		before := s.eventCount()

		s.Require().NoError(s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineA))
		s.Equal(before, s.eventCount())

		paid, err := s.ledger.IsPaidAirline(s.ctx, airlineA)
		s.Require().NoError(err)
		s.True(paid)
	})

	s.Run("requires a registered airline", func() {
		s.requireKind(s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineB), ledgererr.KindValidation)
	})

	s.Run("requires an authorized caller", func() {
		s.requireKind(s.ledger.MarkAirlinePaid(s.ctx, stranger, airlineA), ledgererr.KindAuthorization)
	})
}

func (s *LedgerSuite) TestRegisterAirline() {
	ok, err := s.ledger.RegisterAirline(s.ctx, oracle, "Second Air", airlineB)
	s.Require().NoError(err)
	s.True(ok)

	s.Run("rejects duplicates", func() {
		ok, err := s.ledger.RegisterAirline(s.ctx, oracle, "Second Air", airlineB)
		s.requireKind(err, ledgererr.KindValidation)
		s.False(ok)
	})

	s.Run("rejects the zero identity", func() {
		_, err := s.ledger.RegisterAirline(s.ctx, oracle, "Nobody", "0x0000000000000000000000000000000000000000")
		s.requireKind(err, ledgererr.KindValidation)
	})

	s.Run("rejects unauthorized callers", func() {
		_, err := s.ledger.RegisterAirline(s.ctx, stranger, "Third Air", "0x00000000000000000000000000000000000000a3")
		s.requireKind(err, ledgererr.KindAuthorization)
	})

	s.Run("keeps membership order", func() {
		ids, err := s.ledger.ListRegisteredAirlines(s.ctx)
		s.Require().NoError(err)
		s.Equal([]entity.Identity{airlineA, airlineB}, ids)
	})

	s.Run("normalizes identities", func() {
		registered, err := s.ledger.IsRegisteredAirline(s.ctx, "0x00000000000000000000000000000000000000A2")
		s.Require().NoError(err)
		s.True(registered)
	})
}

func (s *LedgerSuite) TestIsAirlineRequiresAuthorization() {
	ok, err := s.ledger.IsAirline(s.ctx, oracle, airlineA)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.ledger.IsAirline(s.ctx, oracle, airlineB)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.ledger.IsAirline(s.ctx, stranger, airlineA)
	s.requireKind(err, ledgererr.KindAuthorization)
}

func (s *LedgerSuite) TestRegisterFlight() {
	reg := FlightRegistration{Airline: airlineA, Designator: "AA100", Origin: "JFK", Destination: "LAX", ScheduledTime: scheduled}

	s.Run("fails while the airline is unpaid", func() {
		_, err := s.ledger.RegisterFlight(s.ctx, oracle, reg)
		s.requireKind(err, ledgererr.KindValidation)
	})

	s.Require().NoError(s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineA))

	s.Run("rejects a key that does not match the flight", func() {
		bad := reg
		bad.Key = entity.NewFlightKey(airlineA, "AA101", scheduled)
		_, err := s.ledger.RegisterFlight(s.ctx, oracle, bad)
		s.requireKind(err, ledgererr.KindValidation)

		bad.Key = "not-a-key"
		_, err = s.ledger.RegisterFlight(s.ctx, oracle, bad)
		s.requireKind(err, ledgererr.KindValidation)
	})

	s.Run("succeeds once the airline has paid", func() {
		key, err := s.ledger.RegisterFlight(s.ctx, oracle, reg)
		s.Require().NoError(err)
		s.Equal(entity.NewFlightKey(airlineA, "AA100", scheduled), key)

		flight, err := s.ledger.GetFlight(s.ctx, key)
		s.Require().NoError(err)
		s.Equal(entity.StatusUnknown, flight.Status)
		s.Equal("JFK", flight.Origin)

		registered, err := s.ledger.IsRegisteredFlight(s.ctx, key)
		s.Require().NoError(err)
		s.True(registered)
	})

	s.Run("rejects a duplicate key", func() {
		_, err := s.ledger.RegisterFlight(s.ctx, oracle, reg)
		s.requireKind(err, ledgererr.KindValidation)
	})

	s.Run("unknown flights are not found", func() {
		_, err := s.ledger.GetFlight(s.ctx, entity.NewFlightKey(airlineA, "ZZ1", scheduled))
		s.requireKind(err, ledgererr.KindNotFound)

		registered, err := s.ledger.IsRegisteredFlight(s.ctx, entity.NewFlightKey(airlineA, "ZZ1", scheduled))
		s.Require().NoError(err)
		s.False(registered)
	})
}

func (s *LedgerSuite) TestBuyInsurance() {
	key := s.paidFlight()

	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))

	insured, err := s.ledger.IsInsured(s.ctx, key, passengerP)
	s.Require().NoError(err)
	s.True(insured)

	insured, err = s.ledger.IsInsured(s.ctx, key, passengerQ)
	s.Require().NoError(err)
	s.False(insured)

	testCases := []struct {
		name       string
		key        entity.FlightKey
		passenger  entity.Identity
		amount     int64
		multiplier int64
	}{
		{name: "unregistered flight", key: entity.NewFlightKey(airlineA, "ZZ1", scheduled), passenger: passengerQ, amount: 10, multiplier: 150},
		{name: "zero amount", key: key, passenger: passengerQ, amount: 0, multiplier: 150},
		{name: "zero multiplier", key: key, passenger: passengerQ, amount: 10, multiplier: 0},
		{name: "zero passenger", key: key, passenger: "", amount: 10, multiplier: 150},
		{name: "duplicate passenger", key: key, passenger: passengerP, amount: 10, multiplier: 150},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := s.ledger.BuyInsurance(s.ctx, oracle, tc.key, tc.passenger, tc.amount, tc.multiplier)
			s.requireKind(err, ledgererr.KindValidation)
		})
	}

	s.Run("closed once the flight has a status", func() {
		s.Require().NoError(s.reportStatus(entity.StatusOnTime))
		err := s.ledger.BuyInsurance(s.ctx, oracle, key, passengerQ, 10, 150)
		s.requireKind(err, ledgererr.KindValidation)
	})
}

func (s *LedgerSuite) TestPolicyCapPerFlight() {
	s.ledger = s.newLedger(LedgerConfig{Owner: owner, FirstAirline: airlineA, MaxPoliciesPerFlight: 1})
	s.Require().NoError(s.ledger.Bootstrap(s.ctx))
	s.Require().NoError(s.ledger.Authorize(s.ctx, owner, oracle))
	key := s.paidFlight()

	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 10, 150))
	err := s.ledger.BuyInsurance(s.ctx, oracle, key, passengerQ, 10, 150)
	s.requireKind(err, ledgererr.KindValidation)
}

func (s *LedgerSuite) TestProcessFlightStatus() {
	key := s.paidFlight()
	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))
	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerQ, 10, 133))

	s.Run("rejects unknown or unreportable codes", func() {
		s.requireKind(s.reportStatus(entity.StatusUnknown), ledgererr.KindValidation)
		s.requireKind(s.reportStatus(entity.StatusCode(7)), ledgererr.KindValidation)
	})

	s.Run("rejects unregistered flights", func() {
		err := s.ledger.ProcessFlightStatus(s.ctx, oracle, StatusReport{Airline: airlineA, Designator: "ZZ1", ScheduledTime: scheduled, Status: entity.StatusOnTime})
		s.requireKind(err, ledgererr.KindValidation)
	})

	s.Run("late airline credits every policy with truncation", func() {
		s.Require().NoError(s.reportStatus(entity.StatusLateAirline))

		p, err := s.ledger.GetPending(s.ctx, passengerP)
		s.Require().NoError(err)
		s.Equal(int64(150), p)

		q, err := s.ledger.GetPending(s.ctx, passengerQ)
		s.Require().NoError(err)
		s.Equal(int64(13), q)

		policy, err := s.ledger.GetPolicy(s.ctx, key, passengerQ)
		s.Require().NoError(err)
		s.True(policy.Credited)
	})

	s.Run("second report changes nothing", func() {
		before := s.eventCount()
		s.Require().NoError(s.reportStatus(entity.StatusLateAirline))
		s.Require().NoError(s.reportStatus(entity.StatusOnTime))
		s.Equal(before, s.eventCount())

		flight, err := s.ledger.GetFlight(s.ctx, key)
		s.Require().NoError(err)
		s.Equal(entity.StatusLateAirline, flight.Status)

		p, err := s.ledger.GetPending(s.ctx, passengerP)
		s.Require().NoError(err)
		s.Equal(int64(150), p)
	})

	s.Equal(float64(163), testutil.ToFloat64(s.metrics.CreditedAmount))
}

func (s *LedgerSuite) TestPaddedDesignatorSharesKey() {
	s.Require().NoError(s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineA))

	key, err := s.ledger.RegisterFlight(s.ctx, oracle, FlightRegistration{
		Airline:       airlineA,
		Designator:    "AA100 ",
		ScheduledTime: scheduled,
		Key:           entity.NewFlightKey(airlineA, "AA100 ", scheduled),
	})
	s.Require().NoError(err)
	s.Equal(entity.NewFlightKey(airlineA, "AA100", scheduled), key)

	flight, err := s.ledger.GetFlight(s.ctx, key)
	s.Require().NoError(err)
	s.Equal("AA100", flight.Designator)

	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))
	s.Require().NoError(s.ledger.ProcessFlightStatus(s.ctx, oracle, StatusReport{
		Airline:       airlineA,
		Designator:    "AA100 ",
		ScheduledTime: scheduled,
		Status:        entity.StatusLateAirline,
	}))

	p, err := s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), p)
}

func (s *LedgerSuite) TestOtherDelaysDoNotCredit() {
	key := s.paidFlight()
	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))
	s.Require().NoError(s.reportStatus(entity.StatusLateWeather))

	p, err := s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Zero(p)
}

func (s *LedgerSuite) TestCreditInsureesIsIdempotent() {
	key := s.paidFlight()
	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))

	credit := func() error {
		return s.ledger.execute(s.ctx, "creditInsurees", oracle, func(ctx context.Context, f *frame) error {
			return s.ledger.creditInsurees(ctx, f, key)
		})
	}
	s.Require().NoError(credit())
	s.Require().NoError(credit())

	p, err := s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), p)
}

func (s *LedgerSuite) TestWithdraw() {
	s.Run("fails with no pending balance", func() {
		_, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
		s.requireKind(err, ledgererr.KindValidation)

		p, err := s.ledger.GetPending(s.ctx, passengerP)
		s.Require().NoError(err)
		s.Zero(p)
	})

	s.Run("requires an authorized caller", func() {
		_, err := s.ledger.Withdraw(s.ctx, stranger, passengerP)
		s.requireKind(err, ledgererr.KindAuthorization)
	})
}

func (s *LedgerSuite) creditP() {
	key := s.paidFlight()
	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))
	s.Require().NoError(s.reportStatus(entity.StatusLateAirline))
}

// TestReentrantWithdrawIsRejected re-enters Withdraw from inside the transfer
// and swallows the nested failure, as a hostile recipient would.
func (s *LedgerSuite) TestReentrantWithdrawIsRejected() {
	s.creditP()

	var nestedErr error
	var seenPending int64 = -1
	s.transferer.hook = func(ctx context.Context, to entity.Identity, amount int64) error {
		seenPending, _ = s.ledger.GetPending(ctx, to)
		_, nestedErr = s.ledger.Withdraw(ctx, oracle, to)
		return nil
	}

	amount, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), amount)

	s.Zero(seenPending)
	s.Equal(ledgererr.KindValidation, ledgererr.KindOf(nestedErr))
	s.Equal(int64(150), s.transferer.total())

	p, err := s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Zero(p)
}

// TestReentrantFailurePropagates returns the nested failure from the transfer,
// which aborts the whole withdrawal.
func (s *LedgerSuite) TestReentrantFailurePropagates() {
	s.creditP()
	before := s.eventCount()

	s.transferer.hook = func(ctx context.Context, to entity.Identity, amount int64) error {
		_, err := s.ledger.Withdraw(ctx, oracle, to)
		return err
	}

	_, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.requireKind(err, ledgererr.KindTransfer)

	p, err := s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), p)
	s.Empty(s.transferer.transfers)
	s.Equal(before, s.eventCount())
}

func (s *LedgerSuite) TestTransferFailureRollsBack() {
	s.creditP()
	before := s.eventCount()

	s.transferer.hook = func(context.Context, entity.Identity, int64) error {
		return errors.New("payout gateway unavailable")
	}

	_, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.requireKind(err, ledgererr.KindTransfer)

	p, err := s.ledger.GetPending(s.ctx, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), p)
	s.Equal(before, s.eventCount())
	s.Zero(testutil.ToFloat64(s.metrics.WithdrawnAmount))

	s.transferer.hook = nil
	amount, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.Require().NoError(err)
	s.Equal(int64(150), amount)
}

// TestNestedEventsFollowOutcome checks that events of a nested call are only
// published when the enclosing call commits.
func (s *LedgerSuite) TestNestedEventsFollowOutcome() {
	s.creditP()

	s.transferer.hook = func(ctx context.Context, to entity.Identity, amount int64) error {
		if _, err := s.ledger.RegisterAirline(ctx, oracle, "Nested Air", airlineB); err != nil {
			return err
		}
		return errors.New("payout gateway unavailable")
	}
	_, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.requireKind(err, ledgererr.KindTransfer)

	registered, err := s.ledger.IsRegisteredAirline(s.ctx, airlineB)
	s.Require().NoError(err)
	s.False(registered)
	s.NotContains(s.eventTypes(), entity.EventAccountWithdrawn)

	s.transferer.hook = func(ctx context.Context, to entity.Identity, amount int64) error {
		_, err := s.ledger.RegisterAirline(ctx, oracle, "Nested Air", airlineB)
		return err
	}
	_, err = s.ledger.Withdraw(s.ctx, oracle, passengerP)
	s.Require().NoError(err)

	types := s.eventTypes()
	s.Equal([]entity.EventType{entity.EventAirlineRegistered, entity.EventAccountWithdrawn}, types[len(types)-2:])
}

func (s *LedgerSuite) TestOperationalPause() {
	key := s.paidFlight()
	s.Require().NoError(s.ledger.BuyInsurance(s.ctx, oracle, key, passengerP, 100, 150))

	applied, err := s.ledger.SetOperationalStatus(s.ctx, owner, false)
	s.Require().NoError(err)
	s.True(applied)

	operational, err := s.ledger.IsOperational(s.ctx)
	s.Require().NoError(err)
	s.False(operational)

	mutations := map[string]func() error{
		"authorize":   func() error { return s.ledger.Authorize(s.ctx, owner, stranger) },
		"deauthorize": func() error { return s.ledger.Deauthorize(s.ctx, owner, oracle) },
		"registerAirline": func() error {
			_, err := s.ledger.RegisterAirline(s.ctx, oracle, "Second Air", airlineB)
			return err
		},
		"markAirlinePaid": func() error { return s.ledger.MarkAirlinePaid(s.ctx, oracle, airlineA) },
		"registerFlight": func() error {
			_, err := s.ledger.RegisterFlight(s.ctx, oracle, FlightRegistration{Airline: airlineA, Designator: "AA200", ScheduledTime: scheduled})
			return err
		},
		"buyInsurance":        func() error { return s.ledger.BuyInsurance(s.ctx, oracle, key, passengerQ, 10, 150) },
		"processFlightStatus": func() error { return s.reportStatus(entity.StatusLateAirline) },
		"withdraw": func() error {
			_, err := s.ledger.Withdraw(s.ctx, oracle, passengerP)
			return err
		},
	}
	for name, call := range mutations {
		s.Run(name, func() {
			s.requireKind(call(), ledgererr.KindOperational)
		})
	}

	s.Run("reads and funding still work", func() {
		_, err := s.ledger.GetFlight(s.ctx, key)
		s.NoError(err)
		s.NoError(s.ledger.Fund(s.ctx, stranger, 5))
	})

	applied, err = s.ledger.SetOperationalStatus(s.ctx, owner, true)
	s.Require().NoError(err)
	s.True(applied)
	s.Require().NoError(s.reportStatus(entity.StatusLateAirline))
}

func (s *LedgerSuite) TestOwnerOnlyOperations() {
	_, err := s.ledger.SetOperationalStatus(s.ctx, oracle, false)
	s.requireKind(err, ledgererr.KindAuthorization)

	s.requireKind(s.ledger.Authorize(s.ctx, oracle, stranger), ledgererr.KindAuthorization)
	s.requireKind(s.ledger.Deauthorize(s.ctx, stranger, oracle), ledgererr.KindAuthorization)
	s.requireKind(s.ledger.Authorize(s.ctx, owner, ""), ledgererr.KindValidation)

	s.Require().NoError(s.ledger.Deauthorize(s.ctx, owner, oracle))
	authorized, err := s.ledger.IsAuthorized(s.ctx, oracle)
	s.Require().NoError(err)
	s.False(authorized)

	_, err = s.ledger.RegisterAirline(s.ctx, oracle, "Second Air", airlineB)
	s.requireKind(err, ledgererr.KindAuthorization)
}

func (s *LedgerSuite) TestVotingThreshold() {
	s.ledger = s.newLedger(LedgerConfig{Owner: owner, VoteThreshold: 2})
	s.Require().NoError(s.ledger.Bootstrap(s.ctx))
	s.Require().NoError(s.ledger.Authorize(s.ctx, owner, oracle))

	applied, err := s.ledger.SetOperationalStatus(s.ctx, owner, false)
	s.Require().NoError(err)
	s.False(applied)

	_, err = s.ledger.SetOperationalStatus(s.ctx, owner, false)
	s.requireKind(err, ledgererr.KindValidation)

	_, err = s.ledger.SetOperationalStatus(s.ctx, oracle, true)
	s.requireKind(err, ledgererr.KindValidation)

	_, err = s.ledger.SetOperationalStatus(s.ctx, stranger, false)
	s.requireKind(err, ledgererr.KindAuthorization)

	operational, err := s.ledger.IsOperational(s.ctx)
	s.Require().NoError(err)
	s.True(operational)

	applied, err = s.ledger.SetOperationalStatus(s.ctx, oracle, false)
	s.Require().NoError(err)
	s.True(applied)

	operational, err = s.ledger.IsOperational(s.ctx)
	s.Require().NoError(err)
	s.False(operational)

	// The round starts over after a toggle
	applied, err = s.ledger.SetOperationalStatus(s.ctx, owner, true)
	s.Require().NoError(err)
	s.False(applied)
}

func (s *LedgerSuite) TestFund() {
	s.Require().NoError(s.ledger.Fund(s.ctx, "", 25))
	s.requireKind(s.ledger.Fund(s.ctx, stranger, 0), ledgererr.KindValidation)

	events, err := s.ledger.ListEvents(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(entity.EventFunded, events[0].Type)
	s.Equal("25", events[0].Attributes["amount"])
}

func (s *LedgerSuite) TestPublishFailureDoesNotFailCall() {
	l, err := NewLedger(LedgerConfig{Owner: owner}, repository.NewMemoryStore(), failingEventRepository{}, &recordingTransferer{}, s.metrics, logger.NewNop())
	s.Require().NoError(err)

	s.Require().NoError(l.Bootstrap(s.ctx))
	authorized, err := l.IsAuthorized(s.ctx, owner)
	s.Require().NoError(err)
	s.True(authorized)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.EventPublishFails))
}

func (s *LedgerSuite) TestRejectionsAreCounted() {
	_, err := s.ledger.Withdraw(s.ctx, stranger, passengerP)
	s.requireKind(err, ledgererr.KindAuthorization)

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RejectionsTotal.WithLabelValues("withdraw", "authorization")))
}
