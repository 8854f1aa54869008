package model

import "time"

// DefaultGridRows and DefaultGridCols describe the seat grid used when a
// screen does not define its own dimensions.
const (
	DefaultGridRows = 10
	DefaultGridCols = 10
)

// Show is a single scheduled screening as read from the catalog.  It is
// immutable once scheduled; the reservation core never writes it.
//
// Fields:
//
//	ID         – shows.id
//	MovieTitle – movies.title
//	CinemaName – cinemas.name
//	ScreenName – screens.name
//	StartsAt   – shows.starts_at (UTC)
//	PriceCents – shows.price_cents, the price of every seat
//	Rows, Cols – seat grid dimensions
type Show struct {
	ID         uint64    `json:"id"`
	MovieTitle string    `json:"movie_title"`
	CinemaName string    `json:"cinema_name"`
	ScreenName string    `json:"screen_name"`
	StartsAt   time.Time `json:"starts_at"`
	PriceCents uint32    `json:"price_cents"`
	Rows       int       `json:"seat_rows"`
	Cols       int       `json:"seat_cols"`
}

// Grid returns the show's seat grid, falling back to the default size when
// the catalog has no dimensions.
func (s *Show) Grid() Grid {
	g := Grid{Rows: s.Rows, Cols: s.Cols}
	if g.Rows <= 0 {
		g.Rows = DefaultGridRows
	}
	if g.Cols <= 0 {
		g.Cols = DefaultGridCols
	}
	return g
}
