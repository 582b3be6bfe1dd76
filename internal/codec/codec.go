// Package codec encrypts and decrypts commit hashes with the process-wide
// secret key. The ciphertext travels through a public chain, so it must be
// opaque to observers and tamper-evident for the agent.
package codec

import (
	"errors"
	"fmt"
)

// Scheme names accepted by New.
const (
	SchemeCryptr = "cryptr"
	SchemeAge    = "age"
)

// Codec is the CommitHashCodec contract. Both operations are pure with
// respect to the key the codec was built with.
type Codec interface {
	Encrypt(plainSHA string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// DecryptionError reports a ciphertext that is malformed or was not produced
// by Encrypt under the same key.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not decrypt commit hash: %s: %v", e.Reason, e.Err)
	}
	return "could not decrypt commit hash: " + e.Reason
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// IsDecryptionError reports whether err is, or wraps, a *DecryptionError.
func IsDecryptionError(err error) bool {
	var decErr *DecryptionError
	return errors.As(err, &decErr)
}

// ErrEmptyKey is returned when a codec is built without key material.
var ErrEmptyKey = errors.New("encryption key must not be empty")

// New builds the codec for scheme. An empty scheme selects cryptr.
func New(scheme, secret string) (Codec, error) {
	switch scheme {
	case SchemeCryptr, "":
		return NewCryptr(secret)
	case SchemeAge:
		return NewAge(secret)
	default:
		return nil, fmt.Errorf("unsupported codec scheme: %s", scheme)
	}
}
