package repository

import (
	"context"
	"sync"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
)

// MemoryStore is an in-process implementation of repository.UnitOfWork.
// Writes inside a transaction are recorded in an undo journal which is
// replayed backwards when the transaction or a savepoint fails.
type MemoryStore struct {
	mu sync.Mutex

	airlines     map[entity.Identity]*entity.Airline
	airlineOrder []entity.Identity

	flights     map[entity.FlightKey]*entity.Flight
	flightOrder []entity.FlightKey

	policies  map[entity.FlightKey][]*entity.InsurancePolicy
	policySeq int64

	pending     map[entity.Identity]int64
	authorized  map[entity.Identity]bool
	operational bool
	round       entity.VotingRound

	journal []func()
}

// NewMemoryStore creates an empty, operational store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		airlines:    make(map[entity.Identity]*entity.Airline),
		flights:     make(map[entity.FlightKey]*entity.Flight),
		policies:    make(map[entity.FlightKey][]*entity.InsurancePolicy),
		pending:     make(map[entity.Identity]int64),
		authorized:  make(map[entity.Identity]bool),
		operational: true,
	}
}

// RunInTx runs fn with exclusive access to the store
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(repository.Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = s.journal[:0]
	defer func() {
		if p := recover(); p != nil {
			s.rollback(0)
			panic(p)
		}
		if err != nil {
			s.rollback(0)
		}
		s.journal = s.journal[:0]
	}()

	return fn(memoryTx{s: s})
}

func (s *MemoryStore) record(undo func()) {
	s.journal = append(s.journal, undo)
}

func (s *MemoryStore) rollback(mark int) {
	for i := len(s.journal) - 1; i >= mark; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:mark]
}

// memoryTx is the transactional view handed to RunInTx callbacks
type memoryTx struct {
	s *MemoryStore
}

func (t memoryTx) Airlines() repository.AirlineRepository { return memoryAirlines(t) }
func (t memoryTx) Flights() repository.FlightRepository { return memoryFlights(t) }
func (t memoryTx) Insurance() repository.InsuranceRepository { return memoryInsurance(t) }
func (t memoryTx) Balances() repository.BalanceRepository { return memoryBalances(t) }
func (t memoryTx) Access() repository.AccessRepository { return memoryAccess(t) }

func (t memoryTx) Nested(ctx context.Context, fn func(repository.Stores) error) (err error) {
	mark := len(t.s.journal)
	defer func() {
		if p := recover(); p != nil {
			t.s.rollback(mark)
			panic(p)
		}
		if err != nil {
			t.s.rollback(mark)
		}
	}()
	return fn(t)
}

type memoryAirlines memoryTx

func (r memoryAirlines) FindByIdentity(_ context.Context, id entity.Identity) (*entity.Airline, error) {
	a, ok := r.s.airlines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memoryAirlines) Create(_ context.Context, airline *entity.Airline) error {
	s := r.s
	if _, ok := s.airlines[airline.Identity]; ok {
		return repository.ErrConflict
	}

	n := len(s.airlineOrder)
	airline.Seq = int64(n + 1)
	cp := *airline
	s.airlines[airline.Identity] = &cp
	s.airlineOrder = append(s.airlineOrder, airline.Identity)

	s.record(func() {
		delete(s.airlines, cp.Identity)
		s.airlineOrder = s.airlineOrder[:n]
	})
	return nil
}

func (r memoryAirlines) MarkPaid(_ context.Context, id entity.Identity) error {
	a, ok := r.s.airlines[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := a.Paid
	a.Paid = true
	r.s.record(func() { a.Paid = prev })
	return nil
}

func (r memoryAirlines) ListRegistered(_ context.Context) ([]entity.Identity, error) {
	out := make([]entity.Identity, 0, len(r.s.airlineOrder))
	for _, id := range r.s.airlineOrder {
		if r.s.airlines[id].Registered {
			out = append(out, id)
		}
	}
	return out, nil
}

type memoryFlights memoryTx

func (r memoryFlights) FindByKey(_ context.Context, key entity.FlightKey) (*entity.Flight, error) {
	f, ok := r.s.flights[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r memoryFlights) Create(_ context.Context, flight *entity.Flight) error {
	s := r.s
	if _, ok := s.flights[flight.Key]; ok {
		return repository.ErrConflict
	}

	n := len(s.flightOrder)
	cp := *flight
	s.flights[flight.Key] = &cp
	s.flightOrder = append(s.flightOrder, flight.Key)

	s.record(func() {
		delete(s.flights, cp.Key)
		s.flightOrder = s.flightOrder[:n]
	})
	return nil
}

func (r memoryFlights) UpdateStatus(_ context.Context, key entity.FlightKey, status entity.StatusCode) error {
	f, ok := r.s.flights[key]
	if !ok {
		return repository.ErrNotFound
	}
	prev := f.Status
	f.Status = status
	r.s.record(func() { f.Status = prev })
	return nil
}

func (r memoryFlights) ListKeys(_ context.Context) ([]entity.FlightKey, error) {
	out := make([]entity.FlightKey, len(r.s.flightOrder))
	copy(out, r.s.flightOrder)
	return out, nil
}

type memoryInsurance memoryTx

func (r memoryInsurance) Append(_ context.Context, policy *entity.InsurancePolicy) error {
	s := r.s
	list := s.policies[policy.FlightKey]
	n := len(list)
	prevSeq := s.policySeq

	s.policySeq++
	policy.Seq = s.policySeq
	cp := *policy
	s.policies[policy.FlightKey] = append(list, &cp)

	s.record(func() {
		if n == 0 {
			delete(s.policies, cp.FlightKey)
		} else {
			s.policies[cp.FlightKey] = s.policies[cp.FlightKey][:n]
		}
		s.policySeq = prevSeq
	})
	return nil
}

func (r memoryInsurance) ListByFlight(_ context.Context, key entity.FlightKey) ([]*entity.InsurancePolicy, error) {
	list := r.s.policies[key]
	out := make([]*entity.InsurancePolicy, 0, len(list))
	for _, p := range list {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r memoryInsurance) CountByFlight(_ context.Context, key entity.FlightKey) (int, error) {
	return len(r.s.policies[key]), nil
}

func (r memoryInsurance) MarkCredited(_ context.Context, key entity.FlightKey, seq int64) error {
	for _, p := range r.s.policies[key] {
		if p.Seq != seq {
			continue
		}
		prev := p.Credited
		p.Credited = true
		r.s.record(func() { p.Credited = prev })
		return nil
	}
	return repository.ErrNotFound
}

type memoryBalances memoryTx

func (r memoryBalances) Pending(_ context.Context, id entity.Identity) (int64, error) {
	return r.s.pending[id], nil
}

func (r memoryBalances) SetPending(_ context.Context, id entity.Identity, amount int64) error {
	s := r.s
	prev, existed := s.pending[id]
	s.pending[id] = amount
	s.record(func() {
		if existed {
			s.pending[id] = prev
		} else {
			delete(s.pending, id)
		}
	})
	return nil
}

type memoryAccess memoryTx

func (r memoryAccess) IsAuthorized(_ context.Context, id entity.Identity) (bool, error) {
	return r.s.authorized[id], nil
}

func (r memoryAccess) SetAuthorized(_ context.Context, id entity.Identity, authorized bool) error {
	s := r.s
	prev := s.authorized[id]
	if authorized {
		s.authorized[id] = true
	} else {
		delete(s.authorized, id)
	}
	s.record(func() {
		if prev {
			s.authorized[id] = true
		} else {
			delete(s.authorized, id)
		}
	})
	return nil
}

func (r memoryAccess) IsOperational(_ context.Context) (bool, error) {
	return r.s.operational, nil
}

func (r memoryAccess) SetOperational(_ context.Context, mode bool) error {
	s := r.s
	prev := s.operational
	s.operational = mode
	s.record(func() { s.operational = prev })
	return nil
}

func (r memoryAccess) VotingRound(_ context.Context) (*entity.VotingRound, error) {
	round := entity.VotingRound{
		Mode:   r.s.round.Mode,
		Voters: append([]entity.Identity(nil), r.s.round.Voters...),
	}
	return &round, nil
}

func (r memoryAccess) SaveVotingRound(_ context.Context, round *entity.VotingRound) error {
	s := r.s
	prev := s.round
	s.round = entity.VotingRound{
		Mode:   round.Mode,
		Voters: append([]entity.Identity(nil), round.Voters...),
	}
	s.record(func() { s.round = prev })
	return nil
}
