package crypto_test

import (
	"testing"

	"github.com/dom/timetrack/internal/common/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateToken(t *testing.T) {
	a, err := crypto.GenerateToken(crypto.SessionTokenSize)
	require.NoError(t, err)
	b, err := crypto.GenerateToken(crypto.SessionTokenSize)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)

	_, err = crypto.GenerateToken(0)
	assert.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	assert.Equal(t, crypto.FingerprintToken("abc"), crypto.FingerprintToken("abc"))
	assert.NotEqual(t, crypto.FingerprintToken("abc"), crypto.FingerprintToken("abd"))
	assert.NotEqual(t, "abc", crypto.FingerprintToken("abc"))
}

func TestBcryptHasher(t *testing.T) {
	h := &crypto.BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "hunter2"))
	assert.Error(t, h.Compare(hash, "hunter3"))
}
