package aaka

import (
	"fmt"
	"time"
)

// Config carries the per-principal settings described in §6's
// "Configuration" contract. It is built programmatically by the embedding
// application (there is no mandated file format — persistence generally,
// and configuration loading specifically, are out of scope for this
// module); the RC, MS, and U call sites each populate the fields relevant to
// their role and leave the rest at their zero value.
type Config struct {
	// ID is this principal's identity string (ID_u or ID_ms).
	ID string

	// KeyLength is the desired SessionKey length in bytes. Defaults to 32
	// when zero.
	KeyLength int

	// Threshold is the Shamir reconstruction threshold t. RC-only.
	Threshold int

	// PeerCount is the number of RC nodes n the master key is split across.
	// RC-only.
	PeerCount int

	// Skew overrides DefaultSkew for timestamp freshness checks. Zero means
	// DefaultSkew.
	Skew time.Duration
}

// keyLengthOrDefault returns c.KeyLength, defaulting to 32 bytes per §3.
func (c Config) keyLengthOrDefault() int {
	if c.KeyLength <= 0 {
		return 32
	}
	return c.KeyLength
}

// skewOrDefault returns c.Skew, defaulting to DefaultSkew.
func (c Config) skewOrDefault() time.Duration {
	if c.Skew <= 0 {
		return DefaultSkew
	}
	return c.Skew
}

// Validate checks the RC-only threshold/peer-count relationship required by
// §4.6: 1 <= t <= n.
func (c Config) Validate() error {
	if c.Threshold == 0 && c.PeerCount == 0 {
		return nil
	}
	if c.Threshold < 1 || c.Threshold > c.PeerCount {
		return fmt.Errorf("%w: threshold %d must satisfy 1 <= t <= n (n=%d)", ErrInvalidInput, c.Threshold, c.PeerCount)
	}
	return nil
}
