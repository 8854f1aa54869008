// Package service holds the booking orchestration: the reservation
// coordinator, which is the only writer of the booking ledger, and the
// BookingService that the HTTP handlers call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// Coordinator serialises reservation attempts per show and turns a seat
// request into exactly one booking or a rejection.  Attempts on different
// shows never wait for each other.
type Coordinator struct {
	ledger ledger.Ledger
	shows  *keyedLocks[uint64]

	heldMu sync.Mutex
	held   map[uint64]map[model.SeatID]int

	now   func() time.Time
	newID func() string
}

// NewCoordinator returns a coordinator writing to l.
func NewCoordinator(l ledger.Ledger) *Coordinator {
	return &Coordinator{
		ledger: l,
		shows:  newKeyedLocks[uint64](),
		held:   make(map[uint64]map[model.SeatID]int),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Reserve books seats for userID on show, all or nothing.
//
// Waiting for the show's section honours ctx.  Once inside, the attempt runs
// to completion regardless of ctx so the occupancy check and the write stay
// one unit.  A losing attempt gets a *model.SeatConflictError naming exactly
// the seats that were already taken; it is never retried here.
func (c *Coordinator) Reserve(ctx context.Context, show *model.Show, seats []model.SeatID, userID uint64) (*model.Booking, error) {
	seats = model.NewSeatSet(seats...).Sorted()
	switch {
	case len(seats) == 0:
		return nil, model.ErrNoSeats
	case len(seats) > model.MaxSeatsPerBooking:
		return nil, model.ErrCapacityExceeded
	}
	if err := show.Grid().Validate(seats); err != nil {
		return nil, err
	}

	unlock, err := c.shows.Lock(ctx, show.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	ctx = context.WithoutCancel(ctx)

	c.hold(show.ID, seats)
	defer c.release(show.ID, seats)

	log := logger.WithContext(ctx).With("show_id", show.ID, "seats", model.SeatKeys(seats))

	tx, err := c.ledger.Begin(ctx, show.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		log.Error("ledger begin failed", "error", err)
		return nil, asStorageFailure(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	occupied, err := tx.OccupiedSeats(ctx)
	if err != nil {
		log.Error("occupancy read failed", "error", err)
		return nil, asStorageFailure(err)
	}
	if lost := occupied.Intersect(seats); len(lost) > 0 {
		log.Info("reservation lost race", "lost", model.SeatKeys(lost))
		return nil, &model.SeatConflictError{Seats: lost}
	}

	b := &model.Booking{
		ID:               c.newID(),
		UserID:           userID,
		ShowID:           show.ID,
		Seats:            seats,
		TotalAmountCents: model.TotalAmount(len(seats), show.PriceCents),
		ConfirmedAt:      c.now().UTC(),
	}
	if err := tx.Append(ctx, b); err != nil {
		return nil, c.writeFailed(log, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, c.writeFailed(log, err)
	}
	committed = true
	log.Info("booking confirmed", "booking_id", b.ID, "total_amount_cents", b.TotalAmountCents)
	return b, nil
}

func (c *Coordinator) writeFailed(log *slog.Logger, err error) error {
	if conflict, ok := model.AsSeatConflict(err); ok {
		log.Info("reservation rejected by ledger", "lost", model.SeatKeys(conflict.Seats))
		return conflict
	}
	log.Error("ledger write failed", "error", err)
	return asStorageFailure(err)
}

// HeldSeats returns the seats currently inside an in-flight reservation for
// the show.
func (c *Coordinator) HeldSeats(showID uint64) model.SeatSet {
	c.heldMu.Lock()
	defer c.heldMu.Unlock()
	out := make(model.SeatSet, len(c.held[showID]))
	for id := range c.held[showID] {
		out.Add(id)
	}
	return out
}

func (c *Coordinator) hold(showID uint64, seats []model.SeatID) {
	c.heldMu.Lock()
	defer c.heldMu.Unlock()
	m := c.held[showID]
	if m == nil {
		m = make(map[model.SeatID]int)
		c.held[showID] = m
	}
	for _, s := range seats {
		m[s]++
	}
}

func (c *Coordinator) release(showID uint64, seats []model.SeatID) {
	c.heldMu.Lock()
	defer c.heldMu.Unlock()
	m := c.held[showID]
	for _, s := range seats {
		if m[s] <= 1 {
			delete(m, s)
		} else {
			m[s]--
		}
	}
	if len(m) == 0 {
		delete(c.held, showID)
	}
}

func asStorageFailure(err error) error {
	if errors.Is(err, model.ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
}
