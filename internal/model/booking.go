package model

import "time"

// Booking is an immutable record of seats claimed by a user for a show.  It
// is created once by the reservation coordinator and never updated or
// deleted.
//
// Fields:
//
//	ID               – uuid generated at confirmation
//	UserID           – user who booked
//	ShowID           – show being booked
//	Seats            – finalized seats, sorted by row then column
//	TotalAmountCents – len(Seats) × show price
//	ConfirmedAt      – confirmation time (UTC)
type Booking struct {
	ID               string    `json:"booking_id"`
	UserID           uint64    `json:"user_id"`
	ShowID           uint64    `json:"show_id"`
	Seats            []SeatID  `json:"seats"`
	TotalAmountCents uint64    `json:"total_amount_cents"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

// TotalAmount is the price of n seats at the given per-seat price.
func TotalAmount(n int, priceCents uint32) uint64 {
	return uint64(n) * uint64(priceCents)
}

// BookingHistoryEntry is a booking joined with its show for the history
// screen.  Upcoming is derived at read time and never stored.
type BookingHistoryEntry struct {
	BookingID        string    `json:"booking_id"`
	ShowID           uint64    `json:"show_id"`
	MovieTitle       string    `json:"movie_title"`
	CinemaName       string    `json:"cinema_name"`
	ScreenName       string    `json:"screen_name"`
	ShowTime         time.Time `json:"show_time"`
	Seats            []SeatID  `json:"seats"`
	TotalAmountCents uint64    `json:"total_amount_cents"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
	Upcoming         bool      `json:"upcoming"`
}
