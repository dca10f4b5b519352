package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/service"
)

func TestParseInstant(t *testing.T) {
	got, err := parseInstant("2030-01-10T09:00:00+02:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 10, 7, 0, 0, 0, time.UTC), got)

	got, err = parseInstant("2030-01-10", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = parseInstant(" 2030-01-10 ", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 11, 0, 0, 0, 0, time.UTC), got)

	got, err = parseInstant("", true)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseInstant("10/01/2030", false)
	assert.Error(t, err)
}

func TestQueryHelpers(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?date_from=2030-01-10&date_to=bad&room_id=x", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	_, _, err := queryRange(c)
	assert.EqualError(t, err, "invalid date_to")
	_, err = queryUint(c, "room_id")
	assert.EqualError(t, err, "invalid room_id")
	n, err := queryUint(c, "absent")
	require.NoError(t, err)
	assert.Zero(t, n)

	c.SetParamNames("id")
	c.SetParamValues("0")
	_, err = pathID(c, "id")
	assert.Error(t, err)
}

func TestRespondError(t *testing.T) {
	e := echo.New()
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{service.ErrConflict, http.StatusConflict, `"error":"conflict"`},
		{service.ErrState, http.StatusUnprocessableEntity, `"error":"state"`},
		{service.ErrForbidden, http.StatusForbidden, `"error":"authorization"`},
		{errors.New("driver exploded"), http.StatusInternalServerError, `"error":"internal"`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, respondError(c, tc.err))
		assert.Equal(t, tc.status, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.body)
	}
}
