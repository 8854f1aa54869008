package model

import "time"

// MaxSeatsPerBooking bounds both a selection and a single reservation.
const MaxSeatsPerBooking = 6

// Selection is a user's tentative, non-binding choice of seats for one show.
// It gives fast feedback in the seat screen but is never trusted on its own:
// availability is checked again when the selection is confirmed.
type Selection struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"user_id"`
	ShowID    uint64    `json:"show_id"`
	Seats     []SeatID  `json:"seats"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Has reports whether the seat is part of the selection.
func (s *Selection) Has(id SeatID) bool {
	for _, seat := range s.Seats {
		if seat == id {
			return true
		}
	}
	return false
}

// Add puts a seat into the selection.  Adding a member again is a no-op.
// The occupied set is the show's booked seats at add time.
func (s *Selection) Add(id SeatID, occupied SeatSet) error {
	if s.Has(id) {
		return nil
	}
	if len(s.Seats) >= MaxSeatsPerBooking {
		return ErrCapacityExceeded
	}
	if occupied.Has(id) {
		return ErrSeatUnavailable
	}
	s.Seats = append(s.Seats, id)
	return nil
}

// Remove drops a seat; absent seats are ignored.
func (s *Selection) Remove(id SeatID) {
	for i, seat := range s.Seats {
		if seat == id {
			s.Seats = append(s.Seats[:i], s.Seats[i+1:]...)
			return
		}
	}
}

// RemoveAll drops every listed seat.
func (s *Selection) RemoveAll(ids []SeatID) {
	for _, id := range ids {
		s.Remove(id)
	}
}

// Snapshot copies the current seats for submission.  It commits nothing.
func (s *Selection) Snapshot() []SeatID {
	out := make([]SeatID, len(s.Seats))
	copy(out, s.Seats)
	return out
}
