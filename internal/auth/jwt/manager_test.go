package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmstock/pharmstock-backend/internal/auth/jwt"
	"github.com/pharmstock/pharmstock-backend/pkg/config"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
)

func newManager(expiry time.Duration) *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret:       "test-secret-key-with-enough-entropy",
		AccessExpiry: expiry,
		Issuer:       "warehouse-service",
	})
}

func TestManager_GenerateAndValidate(t *testing.T) {
	manager := newManager(15 * time.Minute)

	token, err := manager.Generate(&jwt.UserInfo{
		ID:    42,
		Email: "seller@pharmacy.test",
		Name:  "Test Seller",
		Role:  "seller",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 5*time.Second)

	claims, err := manager.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "seller@pharmacy.test", claims.Email)
	assert.Equal(t, "Test Seller", claims.Name)
	assert.Equal(t, "seller", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "warehouse-service", claims.Issuer)
}

func TestManager_Validate_WrongSecret(t *testing.T) {
	manager := newManager(15 * time.Minute)

	token, err := manager.Generate(&jwt.UserInfo{ID: 1, Email: "a@b.test", Role: "seller"})
	require.NoError(t, err)

	other := jwt.NewManager(&config.JWTConfig{
		Secret:       "a-different-secret",
		AccessExpiry: 15 * time.Minute,
		Issuer:       "warehouse-service",
	})

	_, err = other.Validate(token.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestManager_Validate_Expired(t *testing.T) {
	manager := newManager(-1 * time.Minute)

	token, err := manager.Generate(&jwt.UserInfo{ID: 1, Email: "a@b.test", Role: "seller"})
	require.NoError(t, err)

	_, err = manager.Validate(token.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestManager_Validate_Garbage(t *testing.T) {
	manager := newManager(15 * time.Minute)

	_, err := manager.Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}
