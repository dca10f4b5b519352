package utils // package utils provides helper functions for token creation

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/room-booking/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
// Token holds the JWT string sent in the Authorization header.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for an actor.  The token
// carries the claims JWTAuth resolves into a model.Actor: sub, role, level
// and name, plus exp and iat.  Tokens are normally issued by the identity
// provider; the server only verifies them.
func NewAccessToken(secret string, a model.Actor, ttlMin int) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("empty signing secret")
	}
	if a.ID == 0 {
		return AccessToken{}, errors.New("actor id is required")
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   a.ID,
		"role":  a.Role,
		"level": a.Level,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	if a.Name != "" {
		claims["name"] = a.Name
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
