package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/seatmap"
	"github.com/iliyamo/cinema-booking/internal/session"
)

// ErrInvalidIdentity is returned when identify is called without a usable
// email address.
var ErrInvalidIdentity = errors.New("a valid email is required")

// Catalog is the read-only show lookup.
type Catalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
}

// Users resolves identities to user records.
type Users interface {
	Identify(ctx context.Context, email, name string) (*model.User, error)
}

// Publisher receives one event per committed booking.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// BookingService is the command and query surface used by the handlers.
// Sessions are mutated under a per-session lock so concurrent edits of the
// same session from two tabs do not lose updates.
type BookingService struct {
	catalog   Catalog
	users     Users
	ledger    ledger.Ledger
	sessions  session.Store
	publisher Publisher

	coord     *Coordinator
	seats     *seatmap.SeatMap
	sessLocks *keyedLocks[string]

	now   func() time.Time
	newID func() string
}

// NewBookingService wires the service.  publisher may be nil.
func NewBookingService(catalog Catalog, users Users, l ledger.Ledger, sessions session.Store, publisher Publisher) *BookingService {
	coord := NewCoordinator(l)
	return &BookingService{
		catalog:   catalog,
		users:     users,
		ledger:    l,
		sessions:  sessions,
		publisher: publisher,
		coord:     coord,
		seats:     seatmap.New(l, coord),
		sessLocks: newKeyedLocks[string](),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Identify looks up or creates the user for email.
func (s *BookingService) Identify(ctx context.Context, email, name string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidIdentity
	}
	return s.users.Identify(ctx, email, name)
}

// Show returns the catalog entry for showID.
func (s *BookingService) Show(ctx context.Context, showID uint64) (*model.Show, error) {
	return s.catalog.GetByID(ctx, showID)
}

// OccupiedSeats returns the show and its booked seats, sorted.
func (s *BookingService) OccupiedSeats(ctx context.Context, showID uint64) (*model.Show, []model.SeatID, error) {
	show, err := s.catalog.GetByID(ctx, showID)
	if err != nil {
		return nil, nil, err
	}
	occ, err := s.seats.OccupiedSeats(ctx, showID)
	if err != nil {
		return nil, nil, err
	}
	return show, occ.Sorted(), nil
}

// SeatLayout returns every seat of the show with its derived state.
func (s *BookingService) SeatLayout(ctx context.Context, showID uint64) (*model.Show, []seatmap.SeatStatus, error) {
	show, err := s.catalog.GetByID(ctx, showID)
	if err != nil {
		return nil, nil, err
	}
	layout, err := s.seats.Layout(ctx, show)
	if err != nil {
		return nil, nil, err
	}
	return show, layout, nil
}

// Reserve books the given seat keys directly, without a session.
func (s *BookingService) Reserve(ctx context.Context, showID uint64, seatKeys []string, userID uint64) (*model.Booking, error) {
	show, err := s.catalog.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	seats, err := seatmap.Validate(show, seatKeys)
	if err != nil {
		return nil, err
	}
	return s.reserve(ctx, show, seats, userID)
}

func (s *BookingService) reserve(ctx context.Context, show *model.Show, seats []model.SeatID, userID uint64) (*model.Booking, error) {
	b, err := s.coord.Reserve(ctx, show, seats, userID)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		ev := queue.NewBookingConfirmedEvent(b, show)
		if err := s.publisher.PublishBookingConfirmed(context.WithoutCancel(ctx), ev); err != nil {
			logger.WithContext(ctx).Warn("booking event not published", "booking_id", b.ID, "error", err)
		}
	}
	return b, nil
}

// OpenSession returns the live session for (userID, showID), creating one
// when none exists.  Either way its expiry is refreshed.
func (s *BookingService) OpenSession(ctx context.Context, userID, showID uint64) (*model.Selection, error) {
	if _, err := s.catalog.GetByID(ctx, showID); err != nil {
		return nil, err
	}
	sel, err := s.sessions.FindByUserShow(ctx, userID, showID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		now := s.now().UTC()
		sel = &model.Selection{
			ID:        s.newID(),
			UserID:    userID,
			ShowID:    showID,
			Seats:     []model.SeatID{},
			CreatedAt: now,
			UpdatedAt: now,
		}
	default:
		return nil, err
	}
	if err := s.sessions.Save(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// GetSession returns the caller's session.  Sessions of other users are
// reported as not found.
func (s *BookingService) GetSession(ctx context.Context, sessionID string, userID uint64) (*model.Selection, error) {
	sel, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sel.UserID != userID {
		return nil, session.ErrNotFound
	}
	return sel, nil
}

// SelectSeat adds one seat to the session.  It fails with
// ErrCapacityExceeded at six seats and ErrSeatUnavailable when the seat is
// already booked.
func (s *BookingService) SelectSeat(ctx context.Context, sessionID string, userID uint64, seatKey string) (*model.Selection, error) {
	return s.mutateSession(ctx, sessionID, userID, func(sel *model.Selection, show *model.Show) error {
		seat, err := model.ParseSeatID(seatKey)
		if err != nil {
			return err
		}
		if err := show.Grid().Validate([]model.SeatID{seat}); err != nil {
			return err
		}
		if sel.Has(seat) {
			return nil
		}
		occ, err := s.seats.OccupiedSeats(ctx, show.ID)
		if err != nil {
			return err
		}
		return sel.Add(seat, occ)
	})
}

// DeselectSeat removes a seat from the session; absent seats are ignored.
func (s *BookingService) DeselectSeat(ctx context.Context, sessionID string, userID uint64, seatKey string) (*model.Selection, error) {
	return s.mutateSession(ctx, sessionID, userID, func(sel *model.Selection, _ *model.Show) error {
		seat, err := model.ParseSeatID(seatKey)
		if err != nil {
			return err
		}
		sel.Remove(seat)
		return nil
	})
}

// DiscardSession destroys the caller's session.
func (s *BookingService) DiscardSession(ctx context.Context, sessionID string, userID uint64) error {
	unlock, err := s.sessLocks.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// ConfirmBooking submits the session's seats to the coordinator.  On
// success the session is destroyed.  On a seat conflict only the lost
// seats are dropped from the session, so the user can pick replacements
// without starting over, and the conflict is returned.
func (s *BookingService) ConfirmBooking(ctx context.Context, sessionID string, userID uint64) (*model.Booking, error) {
	unlock, err := s.sessLocks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sel, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	seats := sel.Snapshot()
	if len(seats) == 0 {
		return nil, model.ErrNoSeats
	}
	show, err := s.catalog.GetByID(ctx, sel.ShowID)
	if err != nil {
		return nil, err
	}

	b, err := s.reserve(ctx, show, seats, userID)
	if err != nil {
		if conflict, ok := model.AsSeatConflict(err); ok {
			sel.RemoveAll(conflict.Seats)
			sel.UpdatedAt = s.now().UTC()
			if serr := s.sessions.Save(context.WithoutCancel(ctx), sel); serr != nil {
				logger.WithContext(ctx).Warn("session not updated after conflict", "session_id", sessionID, "error", serr)
			}
		}
		return nil, err
	}
	if err := s.sessions.Delete(context.WithoutCancel(ctx), sessionID); err != nil {
		logger.WithContext(ctx).Warn("session not discarded after booking", "session_id", sessionID, "error", err)
	}
	return b, nil
}

func (s *BookingService) mutateSession(ctx context.Context, sessionID string, userID uint64, fn func(*model.Selection, *model.Show) error) (*model.Selection, error) {
	unlock, err := s.sessLocks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sel, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	show, err := s.catalog.GetByID(ctx, sel.ShowID)
	if err != nil {
		return nil, err
	}
	if err := fn(sel, show); err != nil {
		return nil, err
	}
	sel.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// BookingHistory returns the user's bookings newest first, joined with
// their shows.  Upcoming is true when the show starts after now.
func (s *BookingService) BookingHistory(ctx context.Context, userID uint64, now time.Time) ([]model.BookingHistoryEntry, error) {
	bookings, err := s.ledger.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	shows := make(map[uint64]*model.Show)
	out := make([]model.BookingHistoryEntry, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		show, ok := shows[b.ShowID]
		if !ok {
			show, err = s.catalog.GetByID(ctx, b.ShowID)
			if err != nil {
				return nil, err
			}
			shows[b.ShowID] = show
		}
		out = append(out, historyEntry(b, show, now))
	}
	return out, nil
}

// GetBooking returns one of the caller's bookings.  Bookings of other users
// are reported as not found.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string, userID uint64, now time.Time) (*model.BookingHistoryEntry, error) {
	b, err := s.ledger.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, model.ErrNotFound
	}
	show, err := s.catalog.GetByID(ctx, b.ShowID)
	if err != nil {
		return nil, err
	}
	e := historyEntry(b, show, now)
	return &e, nil
}

func historyEntry(b *model.Booking, show *model.Show, now time.Time) model.BookingHistoryEntry {
	return model.BookingHistoryEntry{
		BookingID:        b.ID,
		ShowID:           b.ShowID,
		MovieTitle:       show.MovieTitle,
		CinemaName:       show.CinemaName,
		ScreenName:       show.ScreenName,
		ShowTime:         show.StartsAt,
		Seats:            b.Seats,
		TotalAmountCents: b.TotalAmountCents,
		ConfirmedAt:      b.ConfirmedAt,
		Upcoming:         show.StartsAt.After(now),
	}
}
