package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a ledger notification
type EventType string

const (
	EventAirlineRegistered        EventType = "AIRLINE_REGISTERED"
	EventAirlinePaid              EventType = "AIRLINE_PAID"
	EventFlightRegistered         EventType = "FLIGHT_REGISTERED"
	EventInsurancePurchased       EventType = "INSURANCE_PURCHASED"
	EventFlightStatusUpdated      EventType = "FLIGHT_STATUS_UPDATED"
	EventInsureeCredited          EventType = "INSUREE_CREDITED"
	EventAccountWithdrawn         EventType = "ACCOUNT_WITHDRAWN"
	EventFunded                   EventType = "FUNDED"
	EventOperationalStatusChanged EventType = "OPERATIONAL_STATUS_CHANGED"
	EventCallerAuthorized         EventType = "CALLER_AUTHORIZED"
	EventCallerDeauthorized       EventType = "CALLER_DEAUTHORIZED"
)

// Event is a notification emitted by a committed ledger operation
type Event struct {
	ID         string            `json:"id" bson:"_id"`
	Type       EventType         `json:"type" bson:"type"`
	Caller     Identity          `json:"caller" bson:"caller"`
	Attributes map[string]string `json:"attributes,omitempty" bson:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurredAt" bson:"occurredAt"`
}

// NewEvent creates an event with a fresh ID
func NewEvent(eventType EventType, caller Identity, attrs map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Caller:     caller,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}
