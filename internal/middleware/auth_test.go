package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

const testSecret = "test-secret"

func whoami(c echo.Context) error {
	a, ok := ActorFrom(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, a)
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serveRequest(e, req)
}

func serveRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func mustToken(t *testing.T, a model.Actor) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, a, 5)
	require.NoError(t, err)
	return tok.Token
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret))

	t.Run("valid token resolves the actor", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", mustToken(t, model.Actor{ID: 7, Role: "employee", Level: 10, Name: "Alice"}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":7,"role":"EMPLOYEE","level":10,"name":"Alice"}`, rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"unauthorized"`)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other", model.Actor{ID: 7}, 5)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", tok.Token).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "7",
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		raw, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", raw).Code)
	})

	t.Run("subject must be a positive id", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "nobody"})
		raw, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", raw).Code)
	})

	t.Run("string subject is accepted", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "12", "role": "ADMIN"})
		raw, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err)
		rec := serve(e, http.MethodGet, "/me", raw)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":12,"role":"ADMIN","level":0}`, rec.Body.String())
	})
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(testSecret), RequireAdmin())

	rec := serve(e, http.MethodGet, "/admin", mustToken(t, model.Actor{ID: 1, Role: model.RoleEmployee}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authorization"`)

	rec = serve(e, http.MethodGet, "/admin", mustToken(t, model.Actor{ID: 2, Role: model.RoleAdmin}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/admin", mustToken(t, model.Actor{ID: 3, Role: model.RoleManager, Level: model.AdminLevel}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func mustTokenFor(t *testing.T, id uint64) string {
	return mustToken(t, model.Actor{ID: id, Role: model.RoleEmployee})
}
