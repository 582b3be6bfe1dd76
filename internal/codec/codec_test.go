package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flipLastHexDigit(s string) string {
	last := s[len(s)-1]
	replacement := byte('0')
	if last == '0' {
		replacement = '1'
	}
	return s[:len(s)-1] + string(replacement)
}

func TestCryptr_RoundTrip(t *testing.T) {
	c, err := NewCryptr("process-secret")
	require.NoError(t, err)

	for _, sha := range []string{
		"abc123",
		"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b",
		"",
	} {
		ciphertext, err := c.Encrypt(sha)
		require.NoError(t, err)

		plain, err := c.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, sha, plain)
	}
}

func TestCryptr_CiphertextIsSaltedPerCall(t *testing.T) {
	c, err := NewCryptr("process-secret")
	require.NoError(t, err)

	first, err := c.Encrypt("abc123")
	require.NoError(t, err)
	second, err := c.Encrypt("abc123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "abc123")
	// salt + iv + tag + 6 plaintext bytes, hex encoded
	assert.Len(t, first, 2*(cryptrHeaderLength+6))
}

func TestCryptr_TamperedCiphertext(t *testing.T) {
	c, err := NewCryptr("process-secret")
	require.NoError(t, err)

	ciphertext, err := c.Encrypt("abc123")
	require.NoError(t, err)

	_, err = c.Decrypt(flipLastHexDigit(ciphertext))
	require.Error(t, err)
	assert.True(t, IsDecryptionError(err))
}

func TestCryptr_ForeignKey(t *testing.T) {
	issuer, err := NewCryptr("issuer-secret")
	require.NoError(t, err)
	agent, err := NewCryptr("agent-secret")
	require.NoError(t, err)

	ciphertext, err := issuer.Encrypt("abc123")
	require.NoError(t, err)

	plain, err := agent.Decrypt(ciphertext)
	require.Error(t, err)
	assert.Empty(t, plain)

	var decErr *DecryptionError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "authentication failed", decErr.Reason)
}

func TestCryptr_MalformedInput(t *testing.T) {
	c, err := NewCryptr("process-secret")
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"not hex", "zz-not-hex"},
		{"too short", strings.Repeat("ab", cryptrHeaderLength-1)},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.ciphertext)
			assert.True(t, IsDecryptionError(err), "got %v", err)
		})
	}
}

func TestAge_RoundTripAndForeignKey(t *testing.T) {
	c, err := NewAge("process-secret")
	require.NoError(t, err)

	ciphertext, err := c.Encrypt("def456")
	require.NoError(t, err)

	plain, err := c.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "def456", plain)

	other, err := NewAge("another-secret")
	require.NoError(t, err)
	_, err = other.Decrypt(ciphertext)
	assert.True(t, IsDecryptionError(err))

	_, err = c.Decrypt("%%%")
	assert.True(t, IsDecryptionError(err))
}

func TestNew(t *testing.T) {
	c, err := New("", "k")
	require.NoError(t, err)
	assert.IsType(t, &Cryptr{}, c)

	c, err = New(SchemeAge, "k")
	require.NoError(t, err)
	assert.IsType(t, &Age{}, c)

	_, err = New("rot13", "k")
	assert.Error(t, err)

	_, err = New(SchemeCryptr, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
