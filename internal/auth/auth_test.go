package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHashPassword_Roundtrip tests hashing and verification
func TestHashPassword_Roundtrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

// TestHashPassword_UniqueSalts tests that equal passwords hash differently
func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "bcrypt should salt each hash")
}

// TestValidatePassword tests password strength rules
func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
}

// TestTokenManager_MintAndVerify tests the token roundtrip
func TestTokenManager_MintAndVerify(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	token, minted, err := manager.Mint("user-123", "driver")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, minted.ID, "minted claims should carry a token ID")

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "driver", claims.Role)
	assert.Equal(t, minted.ID, claims.ID)
}

// TestTokenManager_Expired tests that expired tokens are rejected
func TestTokenManager_Expired(t *testing.T) {
	manager := NewTokenManager("test-secret", -time.Minute)

	token, _, err := manager.Mint("user-123", "rider")
	require.NoError(t, err)

	_, err = manager.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestTokenManager_WrongSecret tests that tokens from another secret fail
func TestTokenManager_WrongSecret(t *testing.T) {
	minter := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, _, err := minter.Mint("user-123", "rider")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestTokenManager_Garbage tests that malformed tokens fail
func TestTokenManager_Garbage(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	_, err := manager.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
