package handler // relocation handlers: admin moves, swaps and evictions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-allocation/internal/allocation"
	"github.com/iliyamo/event-seat-allocation/internal/middleware"
	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// relocateRequest is the JSON body for POST /v1/relocations.  The
// location carries exactly one of "seat" or "counter"; omitting both
// unassigns the booking.  Context fields (event_id, package_id,
// slot_date, slot_id) are only required when the booking is currently
// unassigned.
type relocateRequest struct {
	BookingID uint64         `json:"booking_id"`
	Location  model.Location `json:"location"`
	Reason    string         `json:"reason"`
	Action    string         `json:"action"`
	Force     bool           `json:"force"`
	EventID   uint64         `json:"event_id"`
	PackageID uint64         `json:"package_id"`
	SlotDate  string         `json:"slot_date"`
	SlotID    uint64         `json:"slot_id"`
}

// Relocate handles POST /v1/relocations.  An occupied target returns
// 409 with the occupant's identity; the admin retries with "force" or
// an explicit SWAP action to resolve it.
func (h *AllocationHandler) Relocate(c echo.Context) error {
	var body relocateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id is required"})
	}
	if body.Force {
		// forced evictions displace another devotee; ADMIN only
		if role, _ := c.Get("role").(string); role != "ADMIN" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "force requires ADMIN role"})
		}
	}
	res, err := h.Engine.Relocate(c.Request().Context(), allocation.RelocateInput{
		BookingID: body.BookingID,
		Requested: body.Location,
		Reason:    body.Reason,
		Action:    body.Action,
		Force:     body.Force,
		ActorID:   middleware.ActorID(c),
		EventID:   body.EventID,
		PackageID: body.PackageID,
		SlotDate:  body.SlotDate,
		SlotID:    body.SlotID,
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publishEntries(res.Entries)
	return c.JSON(http.StatusOK, echo.Map{
		"assignment": res.Assignment,
		"entries":    res.Entries,
	})
}

// swapRequest is the JSON body for POST /v1/relocations/swap.
type swapRequest struct {
	BookingID      uint64 `json:"booking_id"`
	OtherBookingID uint64 `json:"other_booking_id"`
	Reason         string `json:"reason"`
}

// Swap handles POST /v1/relocations/swap: both bookings exchange their
// seats atomically and each gets a SWAP entry referencing the other.
func (h *AllocationHandler) Swap(c echo.Context) error {
	var body swapRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BookingID == 0 || body.OtherBookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id and other_booking_id are required"})
	}
	res, err := h.Engine.Swap(c.Request().Context(), allocation.SwapInput{
		BookingID:      body.BookingID,
		OtherBookingID: body.OtherBookingID,
		Reason:         body.Reason,
		ActorID:        middleware.ActorID(c),
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publishEntries(res.Entries)
	return c.JSON(http.StatusOK, echo.Map{
		"assignment": res.Assignment,
		"entries":    res.Entries,
	})
}
