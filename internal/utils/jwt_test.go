package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
)

func TestNewAccessToken(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Second)
	tok, err := NewAccessToken("k", model.Actor{ID: 3, Role: model.RoleManager, Level: 95}, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(15*time.Minute), tok.Exp, 2*time.Second)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("k"), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(3), claims["sub"])
	assert.Equal(t, "MANAGER", claims["role"])
	assert.Equal(t, float64(95), claims["level"])
	assert.NotContains(t, claims, "name")
}

func TestNewAccessToken_Rejects(t *testing.T) {
	_, err := NewAccessToken("", model.Actor{ID: 1}, 5)
	assert.Error(t, err)
	_, err = NewAccessToken("k", model.Actor{}, 5)
	assert.Error(t, err)
}
