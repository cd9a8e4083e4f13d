package entity

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

// StatusCode is the reported outcome of a flight
type StatusCode uint8

// Flight status codes
const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

var statusNames = map[StatusCode]string{
	StatusUnknown:       "UNKNOWN",
	StatusOnTime:        "ON_TIME",
	StatusLateAirline:   "LATE_AIRLINE",
	StatusLateWeather:   "LATE_WEATHER",
	StatusLateTechnical: "LATE_TECHNICAL",
	StatusLateOther:     "LATE_OTHER",
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_%d", uint8(s))
}

// IsValid reports whether s is one of the defined codes
func (s StatusCode) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// Flight represents a registered flight. Status leaves Unknown exactly once.
type Flight struct {
	Key           FlightKey
	Designator    string
	Registered    bool
	Status        StatusCode
	ScheduledTime int64 // unix seconds
	Airline       Identity
	Origin        string
	Destination   string
}

// FlightKey identifies a flight: a Keccak-256 digest rendered as 0x-prefixed hex
type FlightKey string

const flightKeyHexLen = 64

// NormalizeDesignator strips surrounding whitespace from a flight designator.
// NewFlightKey applies it, so padded and trimmed designators share a key.
func NormalizeDesignator(designator string) string {
	return strings.TrimSpace(designator)
}

// NewFlightKey derives the canonical key for (airline, designator, scheduledTime).
// Every string field is length-prefixed so distinct tuples never share an encoding.
func NewFlightKey(airline Identity, designator string, scheduledTime int64) FlightKey {
	h := sha3.NewLegacyKeccak256()
	writeField(h, []byte(ParseIdentity(string(airline))))
	writeField(h, []byte(NormalizeDesignator(designator)))

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(scheduledTime))
	h.Write(ts[:])

	return FlightKey("0x" + hex.EncodeToString(h.Sum(nil)))
}

func writeField(h hash.Hash, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	h.Write(n[:])
	h.Write(b)
}

// ParseFlightKey validates and normalizes an external key
func ParseFlightKey(s string) (FlightKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") || len(s) != 2+flightKeyHexLen {
		return "", fmt.Errorf("flight key must be 0x followed by %d hex characters", flightKeyHexLen)
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", fmt.Errorf("flight key is not hex: %w", err)
	}
	return FlightKey(s), nil
}

func (k FlightKey) String() string {
	return string(k)
}
