package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Layout of a cryptr ciphertext before hex encoding:
// salt | iv | tag | encrypted.
const (
	cryptrSaltLength   = 64
	cryptrIVLength     = 16
	cryptrTagLength    = 16
	cryptrKeyLength    = 32
	cryptrIterations   = 100000
	cryptrHeaderLength = cryptrSaltLength + cryptrIVLength + cryptrTagLength
)

// Cryptr is an AES-256-GCM codec whose wire format matches the cryptr
// package used by the hash endpoint that issued the ciphertexts already
// recorded on chain. Every call derives a fresh key from a random salt.
type Cryptr struct {
	secret     []byte
	iterations int
}

// NewCryptr returns a cryptr codec keyed by secret.
func NewCryptr(secret string) (*Cryptr, error) {
	if secret == "" {
		return nil, ErrEmptyKey
	}
	return &Cryptr{secret: []byte(secret), iterations: cryptrIterations}, nil
}

func (c *Cryptr) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, c.iterations, cryptrKeyLength, sha512.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, cryptrIVLength)
}

// Encrypt seals plainSHA and returns the hex encoded ciphertext.
func (c *Cryptr) Encrypt(plainSHA string) (string, error) {
	header := make([]byte, cryptrSaltLength+cryptrIVLength)
	if _, err := rand.Read(header); err != nil {
		return "", fmt.Errorf("failed to generate salt and iv: %w", err)
	}
	salt, iv := header[:cryptrSaltLength], header[cryptrSaltLength:]

	aead, err := c.aead(salt)
	if err != nil {
		return "", fmt.Errorf("failed to initialise cipher: %w", err)
	}

	// GCM appends the tag; cryptr stores it ahead of the ciphertext.
	sealed := aead.Seal(nil, iv, []byte(plainSHA), nil)
	encrypted, tag := sealed[:len(sealed)-cryptrTagLength], sealed[len(sealed)-cryptrTagLength:]

	out := make([]byte, 0, cryptrHeaderLength+len(encrypted))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, encrypted...)
	return hex.EncodeToString(out), nil
}

// Decrypt opens a ciphertext produced by Encrypt under the same secret.
func (c *Cryptr) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", &DecryptionError{Reason: "ciphertext is not hex encoded", Err: err}
	}
	if len(raw) < cryptrHeaderLength {
		return "", &DecryptionError{Reason: fmt.Sprintf("ciphertext too short (%d bytes)", len(raw))}
	}

	salt := raw[:cryptrSaltLength]
	iv := raw[cryptrSaltLength : cryptrSaltLength+cryptrIVLength]
	tag := raw[cryptrSaltLength+cryptrIVLength : cryptrHeaderLength]
	encrypted := raw[cryptrHeaderLength:]

	aead, err := c.aead(salt)
	if err != nil {
		return "", &DecryptionError{Reason: "failed to initialise cipher", Err: err}
	}

	sealed := make([]byte, 0, len(encrypted)+len(tag))
	sealed = append(sealed, encrypted...)
	sealed = append(sealed, tag...)
	plain, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed", Err: err}
	}
	return string(plain), nil
}

var _ Codec = (*Cryptr)(nil)
