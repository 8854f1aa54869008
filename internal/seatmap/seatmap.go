// Package seatmap answers occupancy questions for a show by combining its
// fixed grid with the booking ledger and the reservation lock table.
package seatmap

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Seat states as shown in the seat layout.
const (
	StateAvailable = "available"
	StateHeld      = "held"
	StateBooked    = "booked"
)

// OccupancyReader returns the seats of all confirmed bookings of a show.
type OccupancyReader interface {
	OccupiedSeats(ctx context.Context, showID uint64) (model.SeatSet, error)
}

// HoldReader returns the seats inside an in-flight reservation attempt.
type HoldReader interface {
	HeldSeats(showID uint64) model.SeatSet
}

// SeatStatus is one cell of the layout.
type SeatStatus struct {
	Seat  model.SeatID `json:"seat"`
	Row   string       `json:"row"`
	Col   int          `json:"col"`
	State string       `json:"state"`
}

// SeatMap is read-only; it never writes to the ledger.
type SeatMap struct {
	ledger OccupancyReader
	holds  HoldReader
}

// New builds a SeatMap.  holds may be nil, in which case no seat is ever
// reported as held.
func New(ledger OccupancyReader, holds HoldReader) *SeatMap {
	return &SeatMap{ledger: ledger, holds: holds}
}

// OccupiedSeats is the union of booked seats of the show at read time.
func (m *SeatMap) OccupiedSeats(ctx context.Context, showID uint64) (model.SeatSet, error) {
	return m.ledger.OccupiedSeats(ctx, showID)
}

// Layout lists every seat of the show's grid in row-major order with its
// derived state.  Booked wins over held.
func (m *SeatMap) Layout(ctx context.Context, show *model.Show) ([]SeatStatus, error) {
	booked, err := m.ledger.OccupiedSeats(ctx, show.ID)
	if err != nil {
		return nil, err
	}
	held := model.SeatSet{}
	if m.holds != nil {
		held = m.holds.HeldSeats(show.ID)
	}
	seats := show.Grid().Seats()
	out := make([]SeatStatus, 0, len(seats))
	for _, s := range seats {
		st := StateAvailable
		switch {
		case booked.Has(s):
			st = StateBooked
		case held.Has(s):
			st = StateHeld
		}
		out = append(out, SeatStatus{Seat: s, Row: model.RowLabel(s.Row), Col: s.Col + 1, State: st})
	}
	return out, nil
}

// Validate parses raw seat keys and checks them against the show's grid.
// Duplicates are collapsed and the result is sorted.
func Validate(show *model.Show, raw []string) ([]model.SeatID, error) {
	seats, err := model.ParseSeatIDs(raw)
	if err != nil {
		return nil, err
	}
	if err := show.Grid().Validate(seats); err != nil {
		return nil, err
	}
	return seats, nil
}
