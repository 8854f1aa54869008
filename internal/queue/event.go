// Package queue carries booking events over RabbitMQ: the payload, a
// publisher used after a booking commits, and a consumer that appends each
// confirmed booking to the booking log.
package queue

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingQueueName is the durable queue confirmed bookings are published to.
const BookingQueueName = "booking.confirmed"

// BookingConfirmedEvent is published once per committed booking.  It has
// enough detail for downstream consumers (payment, notifications, audit)
// to act without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        string   `json:"booking_id"`
	UserID           uint64   `json:"user_id"`
	ShowID           uint64   `json:"show_id"`
	MovieTitle       string   `json:"movie_title"`
	CinemaName       string   `json:"cinema_name"`
	ScreenName       string   `json:"screen_name"`
	StartsAt         string   `json:"starts_at"`
	Seats            []string `json:"seats"`
	TotalAmountCents uint64   `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}

// NewBookingConfirmedEvent builds the event for a committed booking.
func NewBookingConfirmedEvent(b *model.Booking, show *model.Show) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:        b.ID,
		UserID:           b.UserID,
		ShowID:           b.ShowID,
		MovieTitle:       show.MovieTitle,
		CinemaName:       show.CinemaName,
		ScreenName:       show.ScreenName,
		StartsAt:         show.StartsAt.UTC().Format(time.RFC3339),
		Seats:            model.SeatKeys(b.Seats),
		TotalAmountCents: b.TotalAmountCents,
		ConfirmedAt:      b.ConfirmedAt.UTC().Format(time.RFC3339),
	}
}
