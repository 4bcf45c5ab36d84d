package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// newContext builds an Echo context around a JSON request body.
func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealth(t *testing.T) {
	c, rec := newContext(t, http.MethodGet, "/healthz", "")
	require.NoError(t, Health(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestAssignInitialRejectsMissingFields(t *testing.T) {
	h := &AllocationHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/assignments", `{"event_id":1}`)
	require.NoError(t, h.AssignInitial(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "required")
}

func TestCancelRejectsBadBookingID(t *testing.T) {
	h := &AllocationHandler{}
	c, rec := newContext(t, http.MethodDelete, "/v1/assignments/abc", `{"reason":"x"}`)
	c.SetParamNames("booking_id")
	c.SetParamValues("abc")
	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelocateForceRequiresAdmin(t *testing.T) {
	h := &AllocationHandler{}
	body := `{"booking_id":100,"location":{"seat":{"layout_id":1,"number":5}},"reason":"vip","force":true}`
	c, rec := newContext(t, http.MethodPost, "/v1/relocations", body)
	c.Set("role", "STAFF")
	require.NoError(t, h.Relocate(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "ADMIN")
}

func TestRelocateRejectsMissingBooking(t *testing.T) {
	h := &AllocationHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/relocations", `{"reason":"x"}`)
	require.NoError(t, h.Relocate(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwapRejectsMissingBookings(t *testing.T) {
	h := &AllocationHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/relocations/swap", `{"booking_id":100,"reason":"x"}`)
	require.NoError(t, h.Swap(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRejectsBadParams(t *testing.T) {
	h := &AllocationHandler{}
	cases := []string{
		"/v1/relocations?event_id=abc",
		"/v1/relocations?actor_id=abc",
		"/v1/relocations?action=TELEPORT",
		"/v1/relocations?from=not-a-date",
		"/v1/relocations?limit=-1",
		"/v1/relocations?offset=x",
	}
	for _, target := range cases {
		c, rec := newContext(t, http.MethodGet, target, "")
		require.NoError(t, h.History(c))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestAvailabilityRequiresParams(t *testing.T) {
	h := &AllocationHandler{}
	c, rec := newContext(t, http.MethodGet, "/v1/availability", "")
	require.NoError(t, h.Availability(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(t, http.MethodGet, "/v1/availability?package_id=1", "")
	require.NoError(t, h.Availability(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "slot_date")
}

func TestSeatMapRejectsBadEventID(t *testing.T) {
	h := &SeatMapHandler{}
	c, rec := newContext(t, http.MethodGet, "/v1/events/abc/seatmap", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.SeatMap(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
