package jwt

import (
	"testing"
	"time"

	"tourmarket/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("test-secret", time.Hour)

	token, err := svc.GenerateToken(42, domain.RoleGuide)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleGuide, claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := New("secret-a", time.Hour).GenerateToken(1, domain.RoleTourist)
	require.NoError(t, err)

	_, err = New("secret-b", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	svc := New("test-secret", -time.Minute)

	token, err := svc.GenerateToken(1, domain.RoleTourist)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := New("test-secret", time.Hour).ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
