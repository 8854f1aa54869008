// Package ledger defines the append-only booking ledger contract and an
// in-memory implementation.  The ledger is the only source of truth for
// seat occupancy.  Bookings are appended through a show-scoped transaction
// opened by the reservation coordinator; nothing updates or deletes them.
package ledger

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Ledger is the durable store of confirmed bookings.
type Ledger interface {
	// Begin opens a write transaction scoped to one show.  Implementations
	// that span processes take a show-level lock here.
	Begin(ctx context.Context, showID uint64) (Tx, error)
	// OccupiedSeats is the union of the seats of every booking of the show.
	OccupiedSeats(ctx context.Context, showID uint64) (model.SeatSet, error)
	// ListForShow returns the show's bookings, oldest first.
	ListForShow(ctx context.Context, showID uint64) ([]model.Booking, error)
	// ListForUser returns the user's bookings, newest first.
	ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	// Get returns one booking or an error wrapping model.ErrNotFound.
	Get(ctx context.Context, bookingID string) (*model.Booking, error)
}

// Tx is a show-scoped write transaction.  Reads through Tx observe every
// booking committed before it began.  Rollback after Commit is a no-op.
type Tx interface {
	OccupiedSeats(ctx context.Context) (model.SeatSet, error)
	Append(ctx context.Context, b *model.Booking) error
	Commit() error
	Rollback() error
}
