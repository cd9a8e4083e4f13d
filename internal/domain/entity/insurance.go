package entity

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrPayoutOverflow is returned when a payout does not fit in an int64
var ErrPayoutOverflow = errors.New("payout exceeds representable amount")

var (
	percentBase = decimal.NewFromInt(100)
	maxAmount   = decimal.NewFromInt(math.MaxInt64)
)

// InsurancePolicy is a passenger's cover on one flight.
// Credited only ever moves from false to true.
type InsurancePolicy struct {
	FlightKey  FlightKey
	Seq        int64 // insertion order within the flight
	Passenger  Identity
	Amount     int64
	Multiplier int64 // percentage basis, 100 = 1.0x
	Credited   bool
}

// Payout is floor(Amount * Multiplier / 100), truncated rather than rounded
func (p InsurancePolicy) Payout() (int64, error) {
	v := decimal.NewFromInt(p.Amount).
		Mul(decimal.NewFromInt(p.Multiplier)).
		Div(percentBase).
		Truncate(0)
	if v.GreaterThan(maxAmount) || v.IsNegative() {
		return 0, ErrPayoutOverflow
	}
	return v.IntPart(), nil
}
