package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingRepo is the MySQL booking ledger.  Bookings live in the bookings
// table and their seats in booking_seats, which carries a unique key on
// (show_id, seat_key).  That key is the storage-level guarantee that a seat
// is sold once per show even if a writer bypasses the show lock.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

var _ ledger.Ledger = (*BookingRepo)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Begin starts a transaction and locks the show row with SELECT ... FOR
// UPDATE.  Every other Begin for the same show, in this process or another,
// blocks until the transaction ends.
func (r *BookingRepo) Begin(ctx context.Context, showID uint64) (ledger.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	var id uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ? FOR UPDATE`, showID).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, storageErr("lock show", err)
	}
	return &bookingTx{tx: tx, showID: showID}, nil
}

// OccupiedSeats returns the seats of all committed bookings of the show.
func (r *BookingRepo) OccupiedSeats(ctx context.Context, showID uint64) (model.SeatSet, error) {
	set, err := occupiedSeats(ctx, r.db, showID)
	return set, storageErr("occupied seats", err)
}

// ListForShow returns every booking of the show in confirmation order.
func (r *BookingRepo) ListForShow(ctx context.Context, showID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, show_id, total_amount_cents, confirmed_at
               FROM bookings WHERE show_id = ? ORDER BY seq`
	out, err := r.list(ctx, q, showID)
	return out, storageErr("list bookings for show", err)
}

// ListForUser returns the user's bookings, newest first.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, show_id, total_amount_cents, confirmed_at
               FROM bookings WHERE user_id = ? ORDER BY seq DESC`
	out, err := r.list(ctx, q, userID)
	return out, storageErr("list bookings for user", err)
}

// Get loads a single booking with its seats.
func (r *BookingRepo) Get(ctx context.Context, bookingID string) (*model.Booking, error) {
	const q = `SELECT id, user_id, show_id, total_amount_cents, confirmed_at
               FROM bookings WHERE id = ?`
	out, err := r.list(ctx, q, bookingID)
	if err != nil {
		return nil, storageErr("get booking", err)
	}
	if len(out) == 0 {
		return nil, ErrBookingNotFound
	}
	return &out[0], nil
}

func (r *BookingRepo) list(ctx context.Context, q string, arg any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	index := make(map[string]int)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowID, &b.TotalAmountCents, &b.ConfirmedAt); err != nil {
			return nil, err
		}
		b.ConfirmedAt = b.ConfirmedAt.UTC()
		b.Seats = []model.SeatID{}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := r.attachSeats(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

// attachSeats loads the seats of all bookings in a single query.
func (r *BookingRepo) attachSeats(ctx context.Context, out []model.Booking, index map[string]int) error {
	placeholders := make([]string, len(out))
	args := make([]any, len(out))
	for i, b := range out {
		placeholders[i] = "?"
		args[i] = b.ID
	}
	q := `SELECT booking_id, seat_key FROM booking_seats WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookingID, key string
		if err := rows.Scan(&bookingID, &key); err != nil {
			return err
		}
		seat, err := model.ParseSeatID(key)
		if err != nil {
			return err
		}
		if i, ok := index[bookingID]; ok {
			out[i].Seats = append(out[i].Seats, seat)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range out {
		model.SortSeats(out[i].Seats)
	}
	return nil
}

func occupiedSeats(ctx context.Context, q queryer, showID uint64) (model.SeatSet, error) {
	rows, err := q.QueryContext(ctx, `SELECT seat_key FROM booking_seats WHERE show_id = ?`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(model.SeatSet)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		seat, err := model.ParseSeatID(key)
		if err != nil {
			return nil, err
		}
		set.Add(seat)
	}
	return set, rows.Err()
}

// bookingTx holds the show row lock until Commit or Rollback.
type bookingTx struct {
	tx     *sql.Tx
	showID uint64
	done   bool
}

func (t *bookingTx) OccupiedSeats(ctx context.Context) (model.SeatSet, error) {
	set, err := occupiedSeats(ctx, t.tx, t.showID)
	return set, storageErr("occupied seats", err)
}

// Append writes the booking header and its seats.  A duplicate seat key is
// reported as a seat conflict on the requested seats.
func (t *bookingTx) Append(ctx context.Context, b *model.Booking) error {
	if b.ConfirmedAt.IsZero() {
		b.ConfirmedAt = time.Now().UTC()
	}
	const q = `INSERT INTO bookings (id, user_id, show_id, total_amount_cents, confirmed_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := t.tx.ExecContext(ctx, q, b.ID, b.UserID, b.ShowID, b.TotalAmountCents, b.ConfirmedAt); err != nil {
		return storageErr("insert booking", err)
	}
	if len(b.Seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO booking_seats (booking_id, show_id, seat_key) VALUES `)
	args := make([]any, 0, len(b.Seats)*3)
	for i, s := range b.Seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, b.ID, b.ShowID, s.String())
	}
	if _, err := t.tx.ExecContext(ctx, sb.String(), args...); err != nil {
		if isDuplicateKey(err) {
			seats := make([]model.SeatID, len(b.Seats))
			copy(seats, b.Seats)
			return &model.SeatConflictError{Seats: seats}
		}
		return storageErr("insert booking seats", err)
	}
	return nil
}

func (t *bookingTx) Commit() error {
	if t.done {
		return ledger.ErrTxDone
	}
	t.done = true
	return storageErr("commit", t.tx.Commit())
}

func (t *bookingTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}
