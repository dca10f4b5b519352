package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository/memory"
	"github.com/iliyamo/room-booking/internal/service"
	"github.com/iliyamo/room-booking/internal/utils"
)

const secret = "router-test-secret"

var (
	adminActor = model.Actor{ID: 100, Role: model.RoleAdmin, Name: "Facilities"}
	aliceActor = model.Actor{ID: 1, Role: model.RoleEmployee, Name: "Alice"}
	bobActor   = model.Actor{ID: 2, Role: model.RoleEmployee, Name: "Bob"}
)

type api struct {
	t      *testing.T
	e      *echo.Echo
	tokens map[uint64]string
	store  *memory.Store
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("db down") }

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.New()
	checker := service.NewConflictChecker()
	audit := service.NewAuditTrail(store)
	bookings := service.NewBookingService(store, checker, audit, nil, nil)
	queries := service.NewQueryService(store, audit, checker)
	catalog := service.NewRoomCatalog(store, nil)

	e := echo.New()
	RegisterRoutes(e, Handlers{
		Bookings: handler.NewBookingHandler(bookings, queries),
		Rooms:    handler.NewRoomHandler(catalog, queries),
		Admin:    handler.NewAdminHandler(service.NewApprovalWorkflow(bookings), queries, service.NewExporter(queries, audit)),
		Ready:    &handler.ReadyHandler{Store: store},
	}, secret, Middleware{})

	a := &api{t: t, e: e, tokens: map[uint64]string{}, store: store}
	for _, who := range []model.Actor{adminActor, aliceActor, bobActor} {
		tok, err := utils.NewAccessToken(secret, who, 30)
		require.NoError(t, err)
		a.tokens[who.ID] = tok.Token
	}
	return a
}

func (a *api) do(who model.Actor, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(bs)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if who.ID != 0 {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.tokens[who.ID])
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func (a *api) createRoom(code string, capacity int) uint64 {
	a.t.Helper()
	rec := a.do(adminActor, http.MethodPost, "/v1/admin/rooms", map[string]any{
		"code": code, "name": "Room " + code, "capacity": capacity,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var r model.Room
	decode(a.t, rec, &r)
	return r.ID
}

func (a *api) book(who model.Actor, roomID uint64, start, end string) *httptest.ResponseRecorder {
	return a.do(who, http.MethodPost, "/v1/bookings", map[string]any{
		"room_id":            roomID,
		"title":              "Design review",
		"start_time":         start,
		"end_time":           end,
		"expected_attendees": 3,
	})
}

func bookingID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var b model.Booking
	decode(t, rec, &b)
	return strconv.FormatUint(b.ID, 10)
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, kind, body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestProbes(t *testing.T) {
	a := newAPI(t)
	rec := a.do(model.Actor{}, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(model.Actor{}, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true,"checks":{"store":"ok","redis":"disabled"}}`, rec.Body.String())

	e := echo.New()
	RegisterRoutes(e, Handlers{Ready: &handler.ReadyHandler{Store: failingPinger{}}}, secret, Middleware{})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	room := a.createRoom("B2-101", 8)

	assert.Equal(t, http.StatusUnauthorized,
		a.book(model.Actor{}, room, "2030-01-10T09:00:00Z", "2030-01-10T10:00:00Z").Code)

	created := a.book(aliceActor, room, "2030-01-10T09:00:00Z", "2030-01-10T10:00:00Z")
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var b model.Booking
	decode(t, created, &b)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, model.PurposeMeeting, b.Purpose)
	id := strconv.FormatUint(b.ID, 10)

	assertError(t, a.book(bobActor, room, "2030-01-10T09:30:00Z", "2030-01-10T10:30:00Z"), http.StatusConflict, "conflict")
	assertError(t, a.book(bobActor, room, "2030-01-10T11:00:00Z", "2030-01-10T10:00:00Z"), http.StatusBadRequest, "validation")
	assertError(t, a.book(bobActor, 999, "2030-01-10T11:00:00Z", "2030-01-10T12:00:00Z"), http.StatusNotFound, "not_found")

	assertError(t, a.do(bobActor, http.MethodPost, "/v1/bookings/"+id+"/cancel", nil), http.StatusForbidden, "authorization")
	assertError(t, a.do(bobActor, http.MethodPost, "/v1/admin/bookings/"+id+"/approve", nil), http.StatusForbidden, "authorization")

	rec := a.do(adminActor, http.MethodPost, "/v1/admin/bookings/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &b)
	assert.Equal(t, model.StatusConfirmed, b.Status)

	title := "Renamed"
	assertError(t, a.do(aliceActor, http.MethodPatch, "/v1/bookings/"+id, map[string]any{"title": title}),
		http.StatusUnprocessableEntity, "state")
	assertError(t, a.do(adminActor, http.MethodPost, "/v1/admin/bookings/"+id+"/reject", map[string]any{"reason": "late"}),
		http.StatusUnprocessableEntity, "state")

	rec = a.do(aliceActor, http.MethodPost, "/v1/bookings/"+id+"/cancel", map[string]any{"reason": "moved online"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &b)
	assert.Equal(t, model.StatusCancelled, b.Status)
	assert.Equal(t, "moved online", b.CancelReason)

	rec = a.do(bobActor, http.MethodGet, "/v1/bookings/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Booking model.BookingView    `json:"booking"`
		History []model.HistoryEntry `json:"history"`
	}
	decode(t, rec, &detail)
	require.Len(t, detail.History, 3)
	assert.Equal(t, model.ActionCancelled, detail.History[2].Action)

	assertError(t, a.do(aliceActor, http.MethodGet, "/v1/bookings/abc", nil), http.StatusBadRequest, "validation")
	assertError(t, a.do(aliceActor, http.MethodGet, "/v1/bookings/4040", nil), http.StatusNotFound, "not_found")
}

func TestUpdatePendingOverHTTP(t *testing.T) {
	a := newAPI(t)
	room := a.createRoom("B2-101", 8)
	id := bookingID(t, a.book(aliceActor, room, "2030-01-10T09:00:00Z", "2030-01-10T10:00:00Z"))
	a.book(bobActor, room, "2030-01-10T11:00:00Z", "2030-01-10T12:00:00Z")

	rec := a.do(aliceActor, http.MethodPatch, "/v1/bookings/"+id, map[string]any{"end_time": "2030-01-10T11:30:00Z"})
	assertError(t, rec, http.StatusConflict, "conflict")

	rec = a.do(aliceActor, http.MethodPatch, "/v1/bookings/"+id, map[string]any{"title": "Retro", "end_time": "2030-01-10T11:00:00Z"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var b model.Booking
	decode(t, rec, &b)
	assert.Equal(t, "Retro", b.Title)
	assert.Equal(t, model.StatusPending, b.Status)
}

func TestAdminEndpoints(t *testing.T) {
	a := newAPI(t)
	room := a.createRoom("B2-101", 8)
	first := bookingID(t, a.book(aliceActor, room, "2030-01-10T09:00:00Z", "2030-01-10T10:00:00Z"))
	second := bookingID(t, a.book(bobActor, room, "2030-01-10T10:00:00Z", "2030-01-10T11:00:00Z"))

	rec := a.do(adminActor, http.MethodGet, "/v1/admin/bookings/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 2, list.Count)

	rec = a.do(adminActor, http.MethodPost, "/v1/admin/bookings/bulk-approve", map[string]any{
		"booking_ids": []any{json.Number(first), 9999, json.Number(second)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res service.BulkResult
	decode(t, rec, &res)
	assert.Equal(t, 2, res.ApprovedCount)
	require.Len(t, res.Results, 3)
	assert.Equal(t, service.OutcomeFailed, res.Results[1].Outcome)
	assert.Equal(t, service.KindNotFound, res.Results[1].Error)

	assertError(t, a.do(adminActor, http.MethodPost, "/v1/admin/bookings/bulk-approve", map[string]any{"booking_ids": []int{}}),
		http.StatusBadRequest, "validation")

	rec = a.do(adminActor, http.MethodPost, "/v1/admin/bookings/"+first+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(adminActor, http.MethodPost, "/v1/admin/bookings/"+first+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(adminActor, http.MethodGet, "/v1/admin/bookings/export?date_from=2030-01-10&date_to=2030-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "bookings_2030-01-10_2030-01-10.xlsx")
	assert.NotZero(t, rec.Body.Len())

	assert.Equal(t, http.StatusForbidden,
		a.do(aliceActor, http.MethodGet, "/v1/admin/bookings/export?date_from=2030-01-10&date_to=2030-01-10", nil).Code)
}

func TestRoomEndpoints(t *testing.T) {
	a := newAPI(t)
	big := a.createRoom("A1", 12)
	small := a.createRoom("A2", 2)
	ids := strconv.FormatUint(small, 10)

	assertError(t, a.do(adminActor, http.MethodPost, "/v1/admin/rooms", map[string]any{"code": "a1", "name": "dup"}),
		http.StatusConflict, "conflict")
	assert.Equal(t, http.StatusForbidden,
		a.do(aliceActor, http.MethodPost, "/v1/admin/rooms", map[string]any{"code": "Z9", "name": "z"}).Code)

	rec := a.do(aliceActor, http.MethodGet, "/v1/rooms?min_capacity=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rooms struct {
		Items []model.Room `json:"items"`
	}
	decode(t, rec, &rooms)
	require.Len(t, rooms.Items, 1)
	assert.Equal(t, big, rooms.Items[0].ID)

	rec = a.do(adminActor, http.MethodPost, "/v1/admin/rooms/"+ids+"/deactivate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(aliceActor, http.MethodGet, "/v1/rooms", nil)
	decode(t, rec, &rooms)
	assert.Len(t, rooms.Items, 1)
	rec = a.do(aliceActor, http.MethodGet, "/v1/rooms?active=false", nil)
	decode(t, rec, &rooms)
	assert.Len(t, rooms.Items, 2)

	assertError(t, a.book(aliceActor, small, "2030-01-10T09:00:00Z", "2030-01-10T10:00:00Z"), http.StatusBadRequest, "validation")

	a.book(aliceActor, big, "2030-01-10T09:00:00Z", "2030-01-10T10:00:00Z")
	bigID := strconv.FormatUint(big, 10)
	rec = a.do(bobActor, http.MethodGet, "/v1/rooms/"+bigID+"/availability?start_time=2030-01-10T09:30:00Z&end_time=2030-01-10T11:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var av service.Availability
	decode(t, rec, &av)
	assert.False(t, av.Available)
	assert.Len(t, av.Conflicts, 1)

	rec = a.do(bobActor, http.MethodGet, "/v1/calendar?date_from=2030-01-10&date_to=2030-01-11", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cal struct {
		Days []service.CalendarDay `json:"days"`
	}
	decode(t, rec, &cal)
	assert.Len(t, cal.Days, 2)
}
