package handler // history handlers expose the relocation log to reporting tools

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// History handles GET /v1/relocations: a filtered, paginated feed over
// the relocation log, most recent first.  Supported query parameters:
// event_id, booking_code, actor_id, action, from, to (RFC 3339 or
// YYYY-MM-DD), limit and offset.  Reporting collaborators poll this
// endpoint with an offset cursor to export the full trail.
func (h *AllocationHandler) History(c echo.Context) error {
	var f model.AuditFilter
	var err error

	if s := c.QueryParam("event_id"); s != "" {
		if f.EventID, err = strconv.ParseUint(s, 10, 64); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
		}
	}
	f.BookingCode = c.QueryParam("booking_code")
	if s := c.QueryParam("actor_id"); s != "" {
		if f.ActorID, err = strconv.ParseUint(s, 10, 64); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid actor_id"})
		}
	}
	if s := c.QueryParam("action"); s != "" {
		if !model.ValidAction(s) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown action type"})
		}
		f.Action = s
	}
	if s := c.QueryParam("from"); s != "" {
		t, err := parseTimeParam(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		f.From = &t
	}
	if s := c.QueryParam("to"); s != "" {
		t, err := parseTimeParam(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to timestamp"})
		}
		f.To = &t
	}
	if s := c.QueryParam("limit"); s != "" {
		if f.Limit, err = strconv.Atoi(s); err != nil || f.Limit < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
	}
	if s := c.QueryParam("offset"); s != "" {
		if f.Offset, err = strconv.Atoi(s); err != nil || f.Offset < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offset"})
		}
	}

	entries, err := h.Engine.History(c.Request().Context(), f)
	if err != nil {
		return writeEngineError(c, err)
	}
	if entries == nil {
		entries = []model.RelocationLogEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"entries": entries,
		"count":   len(entries),
		"offset":  f.Offset,
	})
}

// parseTimeParam accepts RFC 3339 timestamps and bare dates.
func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
