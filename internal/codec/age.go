package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"filippo.io/age"
)

// defaultAgeWorkFactor keeps scrypt fast enough to decrypt once per event.
const defaultAgeWorkFactor = 15

// Age is a passphrase codec built on age's scrypt recipient. Ciphertext is
// base64 encoded so it fits in a string event field.
type Age struct {
	passphrase string
	workFactor int
}

// NewAge returns an age codec keyed by passphrase.
func NewAge(passphrase string) (*Age, error) {
	if passphrase == "" {
		return nil, ErrEmptyKey
	}
	return &Age{passphrase: passphrase, workFactor: defaultAgeWorkFactor}, nil
}

// Encrypt seals plainSHA and returns the base64 encoded age file.
func (a *Age) Encrypt(plainSHA string) (string, error) {
	recipient, err := age.NewScryptRecipient(a.passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(a.workFactor)

	var buffer bytes.Buffer
	writer, err := age.Encrypt(&buffer, recipient)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, plainSHA); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buffer.Bytes()), nil
}

// Decrypt opens a ciphertext produced by Encrypt with the same passphrase.
func (a *Age) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", &DecryptionError{Reason: "ciphertext is not base64 encoded", Err: err}
	}

	identity, err := age.NewScryptIdentity(a.passphrase)
	if err != nil {
		return "", &DecryptionError{Reason: "creating scrypt identity", Err: err}
	}
	identity.SetMaxWorkFactor(a.workFactor)

	reader, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed", Err: err}
	}
	plain, err := io.ReadAll(reader)
	if err != nil {
		return "", &DecryptionError{Reason: "reading decrypted plaintext", Err: err}
	}
	return string(plain), nil
}

var _ Codec = (*Age)(nil)
