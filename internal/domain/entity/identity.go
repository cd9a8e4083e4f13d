package entity

import "strings"

// Identity is an account reference used as the key for airlines, passengers
// and callers
type Identity string

// ParseIdentity normalizes an external identity string
func ParseIdentity(s string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(s)))
}

// IsZero reports whether the identity is empty or the all-zero address
func (id Identity) IsZero() bool {
	s := strings.ToLower(strings.TrimSpace(string(id)))
	if s == "" {
		return true
	}
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	return strings.Trim(s[2:], "0") == ""
}

func (id Identity) String() string {
	return string(id)
}
