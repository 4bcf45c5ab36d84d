package handler // handler package contains HTTP handlers for the allocation API

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-allocation/internal/allocation"
	"github.com/iliyamo/event-seat-allocation/internal/middleware"
	"github.com/iliyamo/event-seat-allocation/internal/model"
	"github.com/iliyamo/event-seat-allocation/internal/queue"
)

// EventPublisher pushes one AssignmentChangedEvent to the broker.  The
// occupancy change is already committed when the publisher runs, so a
// failure is logged and swallowed rather than surfaced to the client.
type EventPublisher func(ctx context.Context, ev queue.AssignmentChangedEvent) error

// AllocationHandler exposes the assignment lifecycle over HTTP: initial
// assignment, cancellation, availability and audit verification.
type AllocationHandler struct {
	Engine  *allocation.Engine
	Publish EventPublisher
}

// NewAllocationHandler wires the engine and broker publisher into a handler.
func NewAllocationHandler(engine *allocation.Engine, publish EventPublisher) *AllocationHandler {
	return &AllocationHandler{Engine: engine, Publish: publish}
}

// publishEntries fans the committed audit entries out to the broker in
// the background.
func (h *AllocationHandler) publishEntries(entries []model.RelocationLogEntry) {
	if h.Publish == nil {
		return
	}
	for i := range entries {
		ev := queue.FromLogEntry(&entries[i])
		go func() {
			if err := h.Publish(context.Background(), ev); err != nil {
				log.Printf("publish assignment.changed failed: %v", err)
			}
		}()
	}
}

// assignRequest is the JSON body for POST /v1/assignments.
type assignRequest struct {
	EventID   uint64              `json:"event_id"`
	PackageID uint64              `json:"package_id"`
	SlotDate  string              `json:"slot_date"`
	SlotID    uint64              `json:"slot_id"`
	BookingID uint64              `json:"booking_id"`
	Seat      *model.SeatLocation `json:"seat"`
}

// AssignInitial handles POST /v1/assignments: give a confirmed booking
// its first address.  Replaying the same request returns the existing
// assignment with 200 instead of 201.
func (h *AllocationHandler) AssignInitial(c echo.Context) error {
	var body assignRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EventID == 0 || body.PackageID == 0 || body.BookingID == 0 || body.SlotDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id, package_id, booking_id and slot_date are required"})
	}
	res, err := h.Engine.AssignInitial(c.Request().Context(), allocation.AssignInitialInput{
		EventID:   body.EventID,
		PackageID: body.PackageID,
		SlotDate:  body.SlotDate,
		SlotID:    body.SlotID,
		BookingID: body.BookingID,
		ActorID:   middleware.ActorID(c),
		Seat:      body.Seat,
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publishEntries(res.Entries)
	status := http.StatusCreated
	if len(res.Entries) == 0 {
		// idempotent replay: nothing was written
		status = http.StatusOK
	}
	return c.JSON(status, res.Assignment)
}

// Cancel handles DELETE /v1/assignments/:booking_id and releases the
// booking's address.  A reason is mandatory; it lands in the
// relocation log.
func (h *AllocationHandler) Cancel(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("booking_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking_id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Engine.Cancel(c.Request().Context(), allocation.CancelInput{
		BookingID: bookingID,
		ActorID:   middleware.ActorID(c),
		Reason:    body.Reason,
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publishEntries(res.Entries)
	return c.NoContent(http.StatusNoContent)
}

// Availability handles GET /v1/availability and reports the live
// occupant count against the effective capacity of a counter tuple.
// Query parameters: package_id, slot_date, slot_id (optional).
func (h *AllocationHandler) Availability(c echo.Context) error {
	packageID, err := strconv.ParseUint(c.QueryParam("package_id"), 10, 64)
	if err != nil || packageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package_id is required"})
	}
	slotDate := c.QueryParam("slot_date")
	if slotDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_date is required"})
	}
	var slotID uint64
	if s := c.QueryParam("slot_id"); s != "" {
		if slotID, err = strconv.ParseUint(s, 10, 64); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot_id"})
		}
	}
	current, capacity, err := h.Engine.Availability(c.Request().Context(), packageID, slotDate, slotID)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"package_id": packageID,
		"slot_date":  slotDate,
		"slot_id":    slotID,
		"current":    current,
		"capacity":   capacity,
		"remaining":  capacity - current,
	})
}

// VerifyBooking handles GET /v1/bookings/:id/verify: it replays the
// booking's relocation log and reports whether the derived address
// matches the occupancy table.
func (h *AllocationHandler) VerifyBooking(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	res, err := h.Engine.VerifyBooking(c.Request().Context(), bookingID)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
