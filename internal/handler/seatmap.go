package handler // seat map handler renders layout grids merged with live occupancy

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-allocation/internal/layout"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
)

// SeatMapHandler serves read-only grid views for the admin UI.  The
// grids are generated on demand from the layout dimensions and merged
// with the occupancy table; nothing about the grid itself is persisted.
// The route sits behind the Redis response cache because the same map
// is polled by every open admin screen.
type SeatMapHandler struct {
	Catalog *repository.CatalogRepo
	Store   *repository.AssignmentRepo
}

// NewSeatMapHandler constructs a SeatMapHandler.
func NewSeatMapHandler(catalog *repository.CatalogRepo, store *repository.AssignmentRepo) *SeatMapHandler {
	return &SeatMapHandler{Catalog: catalog, Store: store}
}

type seatCell struct {
	Row       uint32  `json:"row"`
	Column    uint32  `json:"column"`
	Number    uint32  `json:"number"`
	Label     string  `json:"label"`
	BookingID *uint64 `json:"booking_id,omitempty"`
}

type layoutMap struct {
	LayoutID uint64     `json:"layout_id"`
	Label    string     `json:"label"`
	Rows     uint32     `json:"rows"`
	Columns  uint32     `json:"columns"`
	Pattern  string     `json:"pattern"`
	Occupied int        `json:"occupied"`
	Total    int        `json:"total"`
	Cells    []seatCell `json:"cells"`
}

// SeatMap handles GET /v1/events/:id/seatmap and returns every layout
// of the event expanded into cells, each cell annotated with the
// booking that holds it (if any).
func (h *SeatMapHandler) SeatMap(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()

	event, err := h.Catalog.GetEvent(ctx, eventID)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !event.SeatAssignEnabled {
		return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "layouts": []layoutMap{}})
	}

	layouts, err := h.Catalog.ListLayoutsByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	maps := make([]layoutMap, 0, len(layouts))
	for i := range layouts {
		lay := &layouts[i]
		cells, err := layout.Generate(lay)
		if err != nil {
			return writeEngineError(c, err)
		}
		occupied, err := h.Store.OccupiedNumbers(ctx, eventID, lay.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		lm := layoutMap{
			LayoutID: lay.ID,
			Label:    lay.Label,
			Rows:     lay.RowCount,
			Columns:  lay.ColCount,
			Pattern:  lay.Pattern,
			Total:    len(cells),
			Occupied: len(occupied),
			Cells:    make([]seatCell, 0, len(cells)),
		}
		for _, cell := range cells {
			sc := seatCell{
				Row:    cell.Row,
				Column: cell.Column,
				Number: cell.Number,
				Label:  layout.SeatLabel(lay, cell.Number),
			}
			if bookingID, ok := occupied[cell.Number]; ok {
				b := bookingID
				sc.BookingID = &b
			}
			lm.Cells = append(lm.Cells, sc)
		}
		maps = append(maps, lm)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "layouts": maps})
}
