package entity

// Airline represents an airline member of the ledger.
// Registered and Paid only ever move from false to true.
type Airline struct {
	Identity   Identity
	Name       string
	Paid       bool
	Registered bool
	Seq        int64 // membership order
}
