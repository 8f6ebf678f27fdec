package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "mira@campus.edu", "Mira Osei", "test-secret")
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "mira@campus.edu", claims.Email)
	assert.Equal(t, "Mira Osei", claims.Name)
	assert.Equal(t, "smartfinder", claims.Issuer)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "mira@campus.edu", "Mira Osei", "test-secret")
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.Error(t, err)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := ValidateAccessToken("not.a.token", "test-secret")
	assert.Error(t, err)
}
