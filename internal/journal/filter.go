package journal

import (
	"time"

	"gorm.io/gorm"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// ListFilter narrows a listing to a single calendar day or month, compared
// against the entity's defining timestamp (Note: created_at, Trade:
// entry_datetime). At most one of Date and Month is meaningful; when both
// are supplied Date wins and Month is ignored, mirroring the original
// endpoint contract.
type ListFilter struct {
	Date  string
	Month string
}

// timeWindow is a half-open [start, end) interval in UTC.
type timeWindow struct {
	start time.Time
	end   time.Time
}

// window parses the filter into a concrete interval. A zero window with a
// nil error means no filtering was requested.
func (f ListFilter) window() (*timeWindow, error) {
	if f.Date != "" {
		day, err := time.ParseInLocation(dateLayout, f.Date, time.UTC)
		if err != nil {
			return nil, NewValidationError("Invalid date format. Use YYYY-MM-DD.", "date")
		}
		return &timeWindow{start: day, end: day.AddDate(0, 0, 1)}, nil
	}
	if f.Month != "" {
		month, err := time.ParseInLocation(monthLayout, f.Month, time.UTC)
		if err != nil {
			return nil, NewValidationError("Invalid month format. Use YYYY-MM.", "month")
		}
		return &timeWindow{start: month, end: month.AddDate(0, 1, 0)}, nil
	}
	return nil, nil
}

// apply narrows the query to the filter window on the named timestamp column.
// Range predicates keep the comparison independent of the driver's stored
// datetime encoding.
func (f ListFilter) apply(query *gorm.DB, column string) (*gorm.DB, error) {
	window, err := f.window()
	if err != nil {
		return nil, err
	}
	if window == nil {
		return query, nil
	}
	return query.Where(column+" >= ? AND "+column+" < ?", window.start, window.end), nil
}
