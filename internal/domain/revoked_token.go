package domain

import "time"

// RevokedToken is a credential that was invalidated before its natural expiry.
// Entries whose ExpiresAt has passed may be purged.
type RevokedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the entry is eligible for purge at now.
func (r RevokedToken) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
