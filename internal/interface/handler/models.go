package handler

import "flightsurety-ledger/internal/domain/entity"

// SetOperationalRequest is the body of PUT /v1/operational
type SetOperationalRequest struct {
	Operational *bool `json:"operational" validate:"required"`
}

// RegisterAirlineRequest is the body of POST /v1/airlines
type RegisterAirlineRequest struct {
	Identity string `json:"identity" validate:"required,max=66"`
	Name     string `json:"name" validate:"required,max=128"`
}

// RegisterFlightRequest is the body of POST /v1/flights
type RegisterFlightRequest struct {
	Airline       string `json:"airline" validate:"required,max=66"`
	Designator    string `json:"designator" validate:"required,max=16"`
	Origin        string `json:"origin" validate:"required,max=8"`
	Destination   string `json:"destination" validate:"required,max=8"`
	ScheduledTime int64  `json:"scheduledTime" validate:"required,gt=0"`
	FlightKey     string `json:"flightKey,omitempty" validate:"omitempty,len=66"`
}

// BuyInsuranceRequest is the body of POST /v1/flights/{key}/policies
type BuyInsuranceRequest struct {
	Passenger  string `json:"passenger" validate:"required,max=66"`
	Amount     int64  `json:"amount" validate:"gt=0"`
	Multiplier int64  `json:"multiplier" validate:"gt=0"`
}

// FlightStatusRequest is the body of POST /v1/flight-status
type FlightStatusRequest struct {
	Airline       string `json:"airline" validate:"required,max=66"`
	Designator    string `json:"designator" validate:"required,max=16"`
	ScheduledTime int64  `json:"scheduledTime" validate:"required,gt=0"`
	StatusCode    uint8  `json:"statusCode" validate:"oneof=10 20 30 40 50"`
}

// FundRequest is the body of POST /v1/fund
type FundRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

// AirlineResponse describes an airline
type AirlineResponse struct {
	Identity   entity.Identity `json:"identity"`
	Name       string          `json:"name"`
	Registered bool            `json:"registered"`
	Paid       bool            `json:"paid"`
}

// FlightResponse describes a flight
type FlightResponse struct {
	FlightKey     entity.FlightKey `json:"flightKey"`
	Airline       entity.Identity  `json:"airline"`
	Designator    string           `json:"designator"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	ScheduledTime int64            `json:"scheduledTime"`
	Registered    bool             `json:"registered"`
	Status        string           `json:"status"`
	StatusCode    uint8            `json:"statusCode"`
}

// PolicyResponse describes a passenger's cover on a flight
type PolicyResponse struct {
	FlightKey  entity.FlightKey `json:"flightKey"`
	Passenger  entity.Identity  `json:"passenger"`
	Insured    bool             `json:"insured"`
	Amount     int64            `json:"amount,omitempty"`
	Multiplier int64            `json:"multiplier,omitempty"`
	Credited   bool             `json:"credited"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func toAirlineResponse(a *entity.Airline) AirlineResponse {
	return AirlineResponse{
		Identity:   a.Identity,
		Name:       a.Name,
		Registered: a.Registered,
		Paid:       a.Paid,
	}
}

func toFlightResponse(f *entity.Flight) FlightResponse {
	return FlightResponse{
		FlightKey:     f.Key,
		Airline:       f.Airline,
		Designator:    f.Designator,
		Origin:        f.Origin,
		Destination:   f.Destination,
		ScheduledTime: f.ScheduledTime,
		Registered:    f.Registered,
		Status:        f.Status.String(),
		StatusCode:    uint8(f.Status),
	}
}
