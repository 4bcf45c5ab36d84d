package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-allocation/internal/allocation"
	"github.com/iliyamo/event-seat-allocation/internal/layout"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
)

// writeEngineError maps the allocation engine's typed errors onto HTTP
// responses.  Conflicts and capacity exhaustion are expected outcomes
// of the assignment workflow, not server faults: they return 409 with a
// structured body the admin UI renders as a decision prompt
// (swap / force / abort).
func writeEngineError(c echo.Context, err error) error {
	var verr *allocation.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "field": verr.Field, "message": verr.Message})
	}
	var lerr *layout.InvalidLayoutError
	if errors.As(err, &lerr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_layout", "field": lerr.Field, "message": lerr.Reason})
	}
	var conflict *allocation.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "occupant": conflict})
	}
	var capErr *allocation.CapacityError
	if errors.As(err, &capErr) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity_exceeded", "detail": capErr})
	}
	switch {
	case errors.Is(err, allocation.ErrSeatAssignmentDisabled),
		errors.Is(err, allocation.ErrRelocationDisabled):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrLayoutNotFound),
		errors.Is(err, repository.ErrPackageNotFound),
		errors.Is(err, repository.ErrSlotNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrAssignmentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("allocation error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
