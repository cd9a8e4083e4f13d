package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
	"flightsurety-ledger/pkg/ledgererr"
	"flightsurety-ledger/pkg/logger"
	"flightsurety-ledger/pkg/metrics"
)

// LedgerConfig holds the construction-time settings of a Ledger
type LedgerConfig struct {
	Owner            entity.Identity
	FirstAirline     entity.Identity
	FirstAirlineName string

	// VoteThreshold is the number of distinct votes needed to change the
	// operational mode. Values below 1 behave as 1.
	VoteThreshold int

	// MaxPoliciesPerFlight bounds the crediting walk. 0 means unbounded.
	MaxPoliciesPerFlight int
}

// Ledger is the single entry point for every ledger operation. Top-level
// calls are serialized and each runs in its own transaction; either all of
// its writes commit or none do.
type Ledger struct {
	cfg        LedgerConfig
	uow        repository.UnitOfWork
	events     repository.EventRepository
	transferer Transferer
	metrics    *metrics.Metrics
	logger     logger.Logger

	mu sync.Mutex
}

// NewLedger creates a new ledger
func NewLedger(
	cfg LedgerConfig,
	uow repository.UnitOfWork,
	events repository.EventRepository,
	transferer Transferer,
	metrics *metrics.Metrics,
	logger logger.Logger,
) (*Ledger, error) {
	cfg.Owner = normalize(cfg.Owner)
	cfg.FirstAirline = normalize(cfg.FirstAirline)
	if cfg.Owner.IsZero() {
		return nil, errors.New("ledger owner identity is required")
	}
	if uow == nil || events == nil || transferer == nil {
		return nil, errors.New("ledger requires a store, an event log and a transferer")
	}
	if cfg.VoteThreshold < 1 {
		cfg.VoteThreshold = 1
	}
	if cfg.MaxPoliciesPerFlight < 0 {
		cfg.MaxPoliciesPerFlight = 0
	}

	return &Ledger{
		cfg:        cfg,
		uow:        uow,
		events:     events,
		transferer: transferer,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// Owner returns the identity allowed to manage callers and the operational flag
func (l *Ledger) Owner() entity.Identity {
	return l.cfg.Owner
}

// frame is the state of one call in progress. Nested frames belong to calls
// made re-entrantly from inside another call with the same context.
type frame struct {
	stores   repository.Stores
	caller   entity.Identity
	events   []entity.Event
	onCommit []func()
	done     atomic.Bool
}

type frameKey struct {
	l *Ledger
}

func (f *frame) emit(eventType entity.EventType, attrs map[string]string) {
	f.events = append(f.events, entity.NewEvent(eventType, f.caller, attrs))
}

func (f *frame) afterCommit(fn func()) {
	f.onCommit = append(f.onCommit, fn)
}

func (l *Ledger) activeFrame(ctx context.Context) *frame {
	f, ok := ctx.Value(frameKey{l}).(*frame)
	if !ok || f.done.Load() {
		return nil
	}
	return f
}

// execute runs a mutating operation. A call made while another call of this
// ledger is active on ctx runs as a savepoint of that call instead of
// waiting for the executor.
func (l *Ledger) execute(ctx context.Context, op string, caller entity.Identity, fn func(ctx context.Context, f *frame) error) (err error) {
	started := time.Now()
	defer func() {
		l.metrics.ObserveOperation(op, started, err)
		if err != nil {
			l.logger.Warn("Ledger operation rejected", "operation", op, "caller", caller, "kind", ledgererr.KindOf(err), "error", err)
		}
	}()

	if parent := l.activeFrame(ctx); parent != nil {
		return l.executeNested(ctx, op, caller, parent, fn)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f := &frame{caller: caller}
	err = l.uow.RunInTx(ctx, func(st repository.Stores) error {
		f.stores = st
		return fn(context.WithValue(ctx, frameKey{l}, f), f)
	})
	f.done.Store(true)
	if err != nil {
		return ledgererr.Internal(op, err)
	}

	for _, hook := range f.onCommit {
		hook()
	}
	l.publish(ctx, op, f.events)
	l.logger.Debug("Ledger operation committed", "operation", op, "caller", caller, "events", len(f.events))
	return nil
}

func (l *Ledger) executeNested(ctx context.Context, op string, caller entity.Identity, parent *frame, fn func(ctx context.Context, f *frame) error) error {
	child := &frame{caller: caller}
	err := parent.stores.Nested(ctx, func(st repository.Stores) error {
		child.stores = st
		return fn(context.WithValue(ctx, frameKey{l}, child), child)
	})
	child.done.Store(true)
	if err != nil {
		return ledgererr.Internal(op, err)
	}

	// Surfaces only if the enclosing call commits
	parent.events = append(parent.events, child.events...)
	parent.onCommit = append(parent.onCommit, child.onCommit...)
	return nil
}

// view runs a read-only query, joining the active call if there is one
func (l *Ledger) view(ctx context.Context, op string, fn func(ctx context.Context, st repository.Stores) error) error {
	if f := l.activeFrame(ctx); f != nil {
		return ledgererr.Internal(op, fn(ctx, f.stores))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.uow.RunInTx(ctx, func(st repository.Stores) error {
		return fn(ctx, st)
	})
	return ledgererr.Internal(op, err)
}

// publish appends committed events to the event log. The ledger state is
// already committed, so a failure here is logged and counted only.
func (l *Ledger) publish(ctx context.Context, op string, events []entity.Event) {
	if len(events) == 0 {
		return
	}
	if err := l.events.Append(context.WithoutCancel(ctx), events); err != nil {
		l.metrics.PublishFailed()
		l.logger.Error("Failed to publish ledger events", "operation", op, "count", len(events), "error", err)
		return
	}
	for _, e := range events {
		l.logger.Info("Ledger event", "type", e.Type, "id", e.ID, "caller", e.Caller, "attributes", e.Attributes)
	}
}

// Bootstrap authorizes the owner and seeds the first airline. It is safe to
// call on every start.
func (l *Ledger) Bootstrap(ctx context.Context) error {
	return l.execute(ctx, "bootstrap", l.cfg.Owner, func(ctx context.Context, f *frame) error {
		access := f.stores.Access()
		authorized, err := access.IsAuthorized(ctx, l.cfg.Owner)
		if err != nil {
			return err
		}
		if !authorized {
			if err := access.SetAuthorized(ctx, l.cfg.Owner, true); err != nil {
				return err
			}
			f.emit(entity.EventCallerAuthorized, map[string]string{"identity": string(l.cfg.Owner)})
		}

		if l.cfg.FirstAirline.IsZero() {
			return nil
		}
		_, err = f.stores.Airlines().FindByIdentity(ctx, l.cfg.FirstAirline)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return l.createAirline(ctx, f, l.cfg.FirstAirlineName, l.cfg.FirstAirline)
	})
}

// ListEvents returns up to limit committed events, newest first
func (l *Ledger) ListEvents(ctx context.Context, limit int) ([]entity.Event, error) {
	events, err := l.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, ledgererr.Internal("listEvents", err)
	}
	return events, nil
}

func normalize(id entity.Identity) entity.Identity {
	return entity.ParseIdentity(string(id))
}
