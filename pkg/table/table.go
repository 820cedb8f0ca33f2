// Package table assembles tract rows into the final coordinate table and
// persists it as CSV or into a SQLite store.
package table

import (
	"errors"
	"fmt"

	"tractcoords/internal/models"
)

// ErrUnknownTract is returned by Lookup when a tract name has no row.
var ErrUnknownTract = errors.New("unknown tract")

// Columns is the persisted schema: the tract name followed by the nine coordinates.
var Columns = append([]string{"roi"}, models.CoordinateColumns[:]...)

// Table is an ordered list of tract rows, one per tract.
type Table []models.TractRow

// Get returns the first row named roi.
func (t Table) Get(roi string) (models.TractRow, bool) {
	for _, r := range t {
		if r.ROI == roi {
			return r, true
		}
	}
	return models.TractRow{}, false
}

// Lookup is Get for callers that treat a missing tract as a contract violation.
func (t Table) Lookup(roi string) (models.TractRow, error) {
	r, ok := t.Get(roi)
	if !ok {
		return models.TractRow{}, fmt.Errorf("%w: %q", ErrUnknownTract, roi)
	}
	return r, nil
}

// Names returns the roi column in row order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, r := range t {
		names[i] = r.ROI
	}
	return names
}

// Assemble concatenates base rows followed by composite rows. It does not
// deduplicate; base and composite names never overlap by construction.
func Assemble(base Table, composites []models.TractRow) Table {
	out := make(Table, 0, len(base)+len(composites))
	out = append(out, base...)
	out = append(out, composites...)
	return out
}
