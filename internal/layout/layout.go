// Package layout expands a table's declared dimensions and numbering
// pattern into the ordered set of addressable cells.  It is a pure
// function of the layout parameters and never consults persisted
// occupancy: the generated cells are the universe of valid addresses
// the assignment store may be asked to occupy.
package layout

import (
	"fmt"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// Cell is one addressable position inside a generated grid.  Row and
// Column are 1-based; Number is the human-readable seat number derived
// from the layout's numbering pattern and start number.
type Cell struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
	Number uint32 `json:"number"`
}

// InvalidLayoutError reports malformed layout dimensions.  It is a
// configuration-time failure: a layout that fails here can never be
// booked against.
type InvalidLayoutError struct {
	Field  string
	Reason string
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("invalid layout: %s %s", e.Field, e.Reason)
}

// Generate expands the layout into its full ordered cell sequence.
// ROW_MAJOR numbers cells left-to-right then top-to-bottom; COLUMN_MAJOR
// top-to-bottom then left-to-right.  A zero start number defaults to 1.
// The result is deterministic: identical inputs always yield an
// identical, order-stable sequence of rows×columns distinct cells.
func Generate(l *model.TableLayout) ([]Cell, error) {
	if l.RowCount == 0 {
		return nil, &InvalidLayoutError{Field: "row_count", Reason: "must be positive"}
	}
	if l.ColCount == 0 {
		return nil, &InvalidLayoutError{Field: "col_count", Reason: "must be positive"}
	}
	start := l.StartNumber
	if start == 0 {
		start = 1
	}
	switch l.Pattern {
	case model.PatternRowMajor, model.PatternColumnMajor, "":
		// empty pattern falls through to the row-major default below
	default:
		return nil, &InvalidLayoutError{Field: "pattern", Reason: "must be ROW_MAJOR or COLUMN_MAJOR"}
	}

	cells := make([]Cell, 0, int(l.RowCount)*int(l.ColCount))
	n := start
	if l.Pattern == model.PatternColumnMajor {
		for c := uint32(1); c <= l.ColCount; c++ {
			for r := uint32(1); r <= l.RowCount; r++ {
				cells = append(cells, Cell{Row: r, Column: c, Number: n})
				n++
			}
		}
		return cells, nil
	}
	for r := uint32(1); r <= l.RowCount; r++ {
		for c := uint32(1); c <= l.ColCount; c++ {
			cells = append(cells, Cell{Row: r, Column: c, Number: n})
			n++
		}
	}
	return cells, nil
}

// Lookup returns the cell carrying the given seat number, or an error
// when the number falls outside the layout's numbering range.  It is
// used to resolve a requested seat number back to its grid position.
func Lookup(l *model.TableLayout, number uint32) (Cell, error) {
	cells, err := Generate(l)
	if err != nil {
		return Cell{}, err
	}
	for _, c := range cells {
		if c.Number == number {
			return c, nil
		}
	}
	return Cell{}, &InvalidLayoutError{Field: "number", Reason: fmt.Sprintf("%d not in layout %q", number, l.Label)}
}

// SeatLabel renders the human-readable label for a seat number within
// a layout, e.g. layout "A" seat 5 renders as "A-5".
func SeatLabel(l *model.TableLayout, number uint32) string {
	return fmt.Sprintf("%s-%d", l.Label, number)
}
