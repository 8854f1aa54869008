// Package model holds the booking domain types shared by the service,
// repository and handler layers, together with the sentinel errors that
// callers branch on.  Conflict and capacity errors are expected outcomes,
// not failures; only ErrStorageFailure signals an infrastructure problem.
package model

import (
	"errors"
	"strings"
)

// ErrCapacityExceeded is returned when a selection or reservation would hold
// more than MaxSeatsPerBooking seats.
var ErrCapacityExceeded = errors.New("seat limit exceeded")

// ErrSeatUnavailable is returned when a seat is already booked at the time
// it is added to a selection.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrInvalidSeat is returned for malformed seat keys and seats outside the
// show's grid.
var ErrInvalidSeat = errors.New("invalid seat")

// ErrNoSeats is returned when a reservation names no seats.
var ErrNoSeats = errors.New("no seats requested")

// ErrNotFound is the root of every "unknown id" error (show, session,
// booking, user).
var ErrNotFound = errors.New("not found")

// ErrStorageFailure wraps persistence errors.  When it is returned from a
// reservation nothing has been written.
var ErrStorageFailure = errors.New("storage failure")

// SeatConflictError reports the seats that were won by a concurrent booking
// between selection and confirmation.
type SeatConflictError struct {
	Seats []SeatID
}

func (e *SeatConflictError) Error() string {
	return "seats already booked: " + strings.Join(SeatKeys(e.Seats), ",")
}

// AsSeatConflict unwraps err into a *SeatConflictError when possible.
func AsSeatConflict(err error) (*SeatConflictError, bool) {
	var conflict *SeatConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
