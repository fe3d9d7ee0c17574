package aaka

import "errors"

// Error kinds returned by the core. A failing check returns one of these,
// either directly or wrapped with fmt.Errorf("...: %w", Err...), so callers
// can match with errors.Is. The UnmarshalJSON methods return encoding/json's
// own error, not one of these, when the input is not valid JSON.
var (
	// ErrSerialization is returned when a group element or field element
	// cannot be encoded to its canonical compressed form.
	ErrSerialization = errors.New("aaka: serialization error")

	// ErrDeserialization is returned when a compressed point or field
	// element fails to decode, or when a wire payload is malformed.
	ErrDeserialization = errors.New("aaka: deserialization error")

	// ErrCrypto covers zero-valued random draws, an undefined modular
	// inverse, and a clock reading before the Unix epoch.
	ErrCrypto = errors.New("aaka: cryptographic error")

	// ErrInvalidTimestamp is returned when a message timestamp falls
	// outside the permitted clock-skew window.
	ErrInvalidTimestamp = errors.New("aaka: timestamp outside freshness window")

	// ErrSignatureVerificationFailed is returned by the server half when a
	// user's request signature does not verify.
	ErrSignatureVerificationFailed = errors.New("aaka: signature verification failed")

	// ErrServerResponseVerificationFailed is returned by the user half when
	// a server's response tag does not match the recomputed value.
	ErrServerResponseVerificationFailed = errors.New("aaka: server response verification failed")

	// ErrHash is returned when a KDF's counter-mode expansion loop is
	// exhausted before reaching the requested output length.
	ErrHash = errors.New("aaka: hash/KDF error")

	// ErrInvalidInput covers malformed shares, an insufficient quorum for
	// threshold reconstruction, and undersized anonymity payloads.
	ErrInvalidInput = errors.New("aaka: invalid input")
)
