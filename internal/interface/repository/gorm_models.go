package repository

import "time"

const settingsRowID = 1

// Airlines GORM model for database mapping
type Airlines struct {
	Identity   string `gorm:"column:identity;primaryKey"`
	Name       string `gorm:"column:name"`
	Paid       bool   `gorm:"column:paid"`
	Registered bool   `gorm:"column:registered"`
	Seq        int64  `gorm:"column:seq;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName overrides the default table name
func (Airlines) TableName() string {
	return "ledger_airlines"
}

// Flights GORM model for database mapping
type Flights struct {
	Key           string `gorm:"column:flight_key;primaryKey"`
	Designator    string `gorm:"column:designator"`
	Registered    bool   `gorm:"column:registered"`
	Status        uint8  `gorm:"column:status_code"`
	ScheduledTime int64  `gorm:"column:scheduled_time"`
	Airline       string `gorm:"column:airline;index"`
	Origin        string `gorm:"column:origin"`
	Destination   string `gorm:"column:destination"`
	Seq           int64  `gorm:"column:seq;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName overrides the default table name
func (Flights) TableName() string {
	return "ledger_flights"
}

// InsurancePolicies GORM model for database mapping. The auto-increment ID
// doubles as the crediting traversal order.
type InsurancePolicies struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	FlightKey  string `gorm:"column:flight_key;uniqueIndex:idx_policy_flight_passenger"`
	Passenger  string `gorm:"column:passenger;uniqueIndex:idx_policy_flight_passenger"`
	Amount     int64  `gorm:"column:amount"`
	Multiplier int64  `gorm:"column:multiplier"`
	Credited   bool   `gorm:"column:credited"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName overrides the default table name
func (InsurancePolicies) TableName() string {
	return "ledger_insurance_policies"
}

// PendingBalances GORM model for database mapping
type PendingBalances struct {
	Identity  string `gorm:"column:identity;primaryKey"`
	Amount    int64  `gorm:"column:amount"`
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (PendingBalances) TableName() string {
	return "ledger_pending_balances"
}

// AuthorizedCallers GORM model for database mapping
type AuthorizedCallers struct {
	Identity  string `gorm:"column:identity;primaryKey"`
	CreatedAt time.Time
}

// TableName overrides the default table name
func (AuthorizedCallers) TableName() string {
	return "ledger_authorized_callers"
}

// LedgerSettings holds the single row of process-wide flags
type LedgerSettings struct {
	ID          uint `gorm:"primaryKey"`
	Operational bool `gorm:"column:operational"`
	RoundMode   bool `gorm:"column:round_mode"`
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (LedgerSettings) TableName() string {
	return "ledger_settings"
}

// OperationalVotes GORM model for the voters of the current round
type OperationalVotes struct {
	Identity string `gorm:"column:identity;primaryKey"`
	Seq      int    `gorm:"column:seq"`
}

// TableName overrides the default table name
func (OperationalVotes) TableName() string {
	return "ledger_operational_votes"
}
