package repository

import (
	"context"
	"errors"
	"fmt"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerLockKey is the advisory lock that serializes ledger transactions
// across service instances sharing one database
const ledgerLockKey int64 = 0x4c454447455231

// GormStore implements repository.UnitOfWork on PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM backed ledger store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ repository.UnitOfWork = (*GormStore)(nil)

// Migrate creates the ledger tables and the settings row
func (s *GormStore) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&Airlines{},
		&Flights{},
		&InsurancePolicies{},
		&PendingBalances{},
		&AuthorizedCallers{},
		&LedgerSettings{},
		&OperationalVotes{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate ledger tables: %w", err)
	}

	var settings LedgerSettings
	err = s.db.WithContext(ctx).
		Where(LedgerSettings{ID: settingsRowID}).
		Attrs(LedgerSettings{Operational: true}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return fmt.Errorf("failed to seed ledger settings: %w", err)
	}
	return nil
}

// RunInTx runs fn inside a database transaction holding the ledger lock
func (s *GormStore) RunInTx(ctx context.Context, fn func(repository.Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", ledgerLockKey).Error; err != nil {
				return fmt.Errorf("failed to acquire ledger lock: %w", err)
			}
		}
		return fn(gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) Airlines() repository.AirlineRepository { return gormAirlines(t) }
func (t gormTx) Flights() repository.FlightRepository { return gormFlights(t) }
func (t gormTx) Insurance() repository.InsuranceRepository { return gormInsurance(t) }
func (t gormTx) Balances() repository.BalanceRepository { return gormBalances(t) }
func (t gormTx) Access() repository.AccessRepository { return gormAccess(t) }

// Nested uses a SAVEPOINT; GORM rolls back to it when fn fails
func (t gormTx) Nested(ctx context.Context, fn func(repository.Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

type gormAirlines gormTx

func (r gormAirlines) FindByIdentity(ctx context.Context, id entity.Identity) (*entity.Airline, error) {
	var airline Airlines
	result := r.db.WithContext(ctx).Where("identity = ?", string(id)).First(&airline)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}

	// Convert GORM model to domain entity
	return &entity.Airline{
		Identity:   entity.Identity(airline.Identity),
		Name:       airline.Name,
		Paid:       airline.Paid,
		Registered: airline.Registered,
		Seq:        airline.Seq,
	}, nil
}

func (r gormAirlines) Create(ctx context.Context, airline *entity.Airline) error {
	if _, err := r.FindByIdentity(ctx, airline.Identity); err == nil {
		return repository.ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	var maxSeq int64
	if err := r.db.WithContext(ctx).Model(&Airlines{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return fmt.Errorf("failed to read airline sequence: %w", err)
	}

	model := Airlines{
		Identity:   string(airline.Identity),
		Name:       airline.Name,
		Paid:       airline.Paid,
		Registered: airline.Registered,
		Seq:        maxSeq + 1,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrConflict
		}
		return err
	}

	airline.Seq = model.Seq
	return nil
}

func (r gormAirlines) MarkPaid(ctx context.Context, id entity.Identity) error {
	result := r.db.WithContext(ctx).Model(&Airlines{}).Where("identity = ?", string(id)).Update("paid", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r gormAirlines) ListRegistered(ctx context.Context) ([]entity.Identity, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Airlines{}).
		Where("registered = ?", true).
		Order("seq").
		Pluck("identity", &ids).Error
	if err != nil {
		return nil, err
	}

	out := make([]entity.Identity, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Identity(id))
	}
	return out, nil
}

type gormFlights gormTx

func (r gormFlights) FindByKey(ctx context.Context, key entity.FlightKey) (*entity.Flight, error) {
	var flight Flights
	result := r.db.WithContext(ctx).Where("flight_key = ?", string(key)).First(&flight)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}

	return &entity.Flight{
		Key:           entity.FlightKey(flight.Key),
		Designator:    flight.Designator,
		Registered:    flight.Registered,
		Status:        entity.StatusCode(flight.Status),
		ScheduledTime: flight.ScheduledTime,
		Airline:       entity.Identity(flight.Airline),
		Origin:        flight.Origin,
		Destination:   flight.Destination,
	}, nil
}

func (r gormFlights) Create(ctx context.Context, flight *entity.Flight) error {
	if _, err := r.FindByKey(ctx, flight.Key); err == nil {
		return repository.ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	var maxSeq int64
	if err := r.db.WithContext(ctx).Model(&Flights{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return fmt.Errorf("failed to read flight sequence: %w", err)
	}

	model := Flights{
		Key:           string(flight.Key),
		Designator:    flight.Designator,
		Registered:    flight.Registered,
		Status:        uint8(flight.Status),
		ScheduledTime: flight.ScheduledTime,
		Airline:       string(flight.Airline),
		Origin:        flight.Origin,
		Destination:   flight.Destination,
		Seq:           maxSeq + 1,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func (r gormFlights) UpdateStatus(ctx context.Context, key entity.FlightKey, status entity.StatusCode) error {
	result := r.db.WithContext(ctx).Model(&Flights{}).Where("flight_key = ?", string(key)).Update("status_code", uint8(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r gormFlights) ListKeys(ctx context.Context) ([]entity.FlightKey, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&Flights{}).Order("seq").Pluck("flight_key", &keys).Error; err != nil {
		return nil, err
	}

	out := make([]entity.FlightKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, entity.FlightKey(k))
	}
	return out, nil
}

type gormInsurance gormTx

func (r gormInsurance) Append(ctx context.Context, policy *entity.InsurancePolicy) error {
	model := InsurancePolicies{
		FlightKey:  string(policy.FlightKey),
		Passenger:  string(policy.Passenger),
		Amount:     policy.Amount,
		Multiplier: policy.Multiplier,
		Credited:   policy.Credited,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrConflict
		}
		return err
	}

	policy.Seq = model.ID
	return nil
}

func (r gormInsurance) ListByFlight(ctx context.Context, key entity.FlightKey) ([]*entity.InsurancePolicy, error) {
	var models []InsurancePolicies
	if err := r.db.WithContext(ctx).Where("flight_key = ?", string(key)).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	// Convert to domain entities
	policies := make([]*entity.InsurancePolicy, 0, len(models))
	for _, m := range models {
		policies = append(policies, &entity.InsurancePolicy{
			FlightKey:  entity.FlightKey(m.FlightKey),
			Seq:        m.ID,
			Passenger:  entity.Identity(m.Passenger),
			Amount:     m.Amount,
			Multiplier: m.Multiplier,
			Credited:   m.Credited,
		})
	}
	return policies, nil
}

func (r gormInsurance) CountByFlight(ctx context.Context, key entity.FlightKey) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&InsurancePolicies{}).Where("flight_key = ?", string(key)).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r gormInsurance) MarkCredited(ctx context.Context, key entity.FlightKey, seq int64) error {
	result := r.db.WithContext(ctx).Model(&InsurancePolicies{}).
		Where("flight_key = ? AND id = ?", string(key), seq).
		Update("credited", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type gormBalances gormTx

func (r gormBalances) Pending(ctx context.Context, id entity.Identity) (int64, error) {
	var balance PendingBalances
	err := r.db.WithContext(ctx).Where("identity = ?", string(id)).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Amount, nil
}

func (r gormBalances) SetPending(ctx context.Context, id entity.Identity, amount int64) error {
	balance := PendingBalances{Identity: string(id), Amount: amount}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&balance).Error
}

type gormAccess gormTx

func (r gormAccess) IsAuthorized(ctx context.Context, id entity.Identity) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&AuthorizedCallers{}).Where("identity = ?", string(id)).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r gormAccess) SetAuthorized(ctx context.Context, id entity.Identity, authorized bool) error {
	if !authorized {
		return r.db.WithContext(ctx).Where("identity = ?", string(id)).Delete(&AuthorizedCallers{}).Error
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&AuthorizedCallers{Identity: string(id)}).Error
}

func (r gormAccess) settings(ctx context.Context) (*LedgerSettings, error) {
	var settings LedgerSettings
	if err := r.db.WithContext(ctx).First(&settings, settingsRowID).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger settings: %w", err)
	}
	return &settings, nil
}

func (r gormAccess) IsOperational(ctx context.Context) (bool, error) {
	settings, err := r.settings(ctx)
	if err != nil {
		return false, err
	}
	return settings.Operational, nil
}

func (r gormAccess) SetOperational(ctx context.Context, mode bool) error {
	return r.db.WithContext(ctx).Model(&LedgerSettings{}).Where("id = ?", settingsRowID).Update("operational", mode).Error
}

func (r gormAccess) VotingRound(ctx context.Context) (*entity.VotingRound, error) {
	settings, err := r.settings(ctx)
	if err != nil {
		return nil, err
	}

	var votes []OperationalVotes
	if err := r.db.WithContext(ctx).Order("seq").Find(&votes).Error; err != nil {
		return nil, err
	}

	round := &entity.VotingRound{Mode: settings.RoundMode}
	for _, v := range votes {
		round.Voters = append(round.Voters, entity.Identity(v.Identity))
	}
	return round, nil
}

func (r gormAccess) SaveVotingRound(ctx context.Context, round *entity.VotingRound) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("1 = 1").Delete(&OperationalVotes{}).Error; err != nil {
		return err
	}
	for i, v := range round.Voters {
		if err := db.Create(&OperationalVotes{Identity: string(v), Seq: i}).Error; err != nil {
			return err
		}
	}
	return db.Model(&LedgerSettings{}).Where("id = ?", settingsRowID).Update("round_mode", round.Mode).Error
}
