package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

func testShow(id uint64) *model.Show {
	return &model.Show{
		ID:         id,
		MovieTitle: "Arrival",
		CinemaName: "Grand",
		ScreenName: "Screen 1",
		StartsAt:   time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC),
		PriceCents: 1250,
		Rows:       10,
		Cols:       10,
	}
}

func seats(t *testing.T, keys ...string) []model.SeatID {
	t.Helper()
	out := make([]model.SeatID, len(keys))
	for i, k := range keys {
		id, err := model.ParseSeatID(k)
		require.NoError(t, err)
		out[i] = id
	}
	return out
}

func TestReserveCreatesBooking(t *testing.T) {
	l := ledger.NewMemory()
	c := NewCoordinator(l)
	b, err := c.Reserve(context.Background(), testShow(1), seats(t, "B2", "A1", "A1"), 42)
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, uint64(42), b.UserID)
	assert.Equal(t, []string{"A1", "B2"}, model.SeatKeys(b.Seats))
	assert.Equal(t, uint64(2500), b.TotalAmountCents)
	assert.Equal(t, time.UTC, b.ConfirmedAt.Location())

	occ, _ := l.OccupiedSeats(context.Background(), 1)
	assert.Equal(t, []string{"A1", "B2"}, occ.Keys())
	assert.Empty(t, c.HeldSeats(1), "holds end with the call")
}

func TestReserveAmountForEverySize(t *testing.T) {
	c := NewCoordinator(ledger.NewMemory())
	for k := 1; k <= model.MaxSeatsPerBooking; k++ {
		req := make([]model.SeatID, k)
		for i := range req {
			req[i] = model.SeatID{Row: k, Col: i}
		}
		b, err := c.Reserve(context.Background(), testShow(1), req, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(k)*1250, b.TotalAmountCents)
	}
}

func TestReserveValidation(t *testing.T) {
	c := NewCoordinator(ledger.NewMemory())
	ctx := context.Background()

	_, err := c.Reserve(ctx, testShow(1), nil, 1)
	assert.ErrorIs(t, err, model.ErrNoSeats)

	_, err = c.Reserve(ctx, testShow(1), seats(t, "A1", "A2", "A3", "A4", "A5", "A6", "A7"), 1)
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)

	_, err = c.Reserve(ctx, testShow(1), seats(t, "K1"), 1)
	assert.ErrorIs(t, err, model.ErrInvalidSeat)
}

func TestReserveConflictNamesLostSeatsOnly(t *testing.T) {
	l := ledger.NewMemory()
	c := NewCoordinator(l)
	ctx := context.Background()
	_, err := c.Reserve(ctx, testShow(1), seats(t, "A2"), 1)
	require.NoError(t, err)

	_, err = c.Reserve(ctx, testShow(1), seats(t, "A1", "A2", "A3"), 2)
	conflict, ok := model.AsSeatConflict(err)
	require.True(t, ok)
	assert.Equal(t, []string{"A2"}, model.SeatKeys(conflict.Seats))

	occ, _ := l.OccupiedSeats(ctx, 1)
	assert.Equal(t, []string{"A2"}, occ.Keys(), "all or nothing")
}

func TestReserveConcurrentOverlap(t *testing.T) {
	for round := 0; round < 20; round++ {
		l := ledger.NewMemory()
		c := NewCoordinator(l)
		show := testShow(1)

		var wg sync.WaitGroup
		results := make([]error, 2)
		reqs := [][]model.SeatID{seats(t, "A1", "A2"), seats(t, "A2", "A3")}
		start := make(chan struct{})
		for i := range reqs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, results[i] = c.Reserve(context.Background(), show, reqs[i], uint64(i+1))
			}(i)
		}
		close(start)
		wg.Wait()

		wins := 0
		for i, err := range results {
			if err == nil {
				wins++
				continue
			}
			conflict, ok := model.AsSeatConflict(err)
			require.True(t, ok, "round %d request %d: %v", round, i, err)
			assert.Contains(t, model.SeatKeys(conflict.Seats), "A2")
		}
		assert.Equal(t, 1, wins, "round %d", round)

		bookings, _ := l.ListForShow(context.Background(), 1)
		require.Len(t, bookings, 1)
		assert.Len(t, bookings[0].Seats, 2)
	}
}

func TestReserveNoDoubleBookingUnderLoad(t *testing.T) {
	l := ledger.NewMemory()
	c := NewCoordinator(l)
	show := testShow(1)

	var wg sync.WaitGroup
	for u := 0; u < 40; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			// every user wants three seats of row A, starting at a different column
			req := make([]model.SeatID, 3)
			for i := range req {
				req[i] = model.SeatID{Row: 0, Col: (u + i) % 10}
			}
			_, _ = c.Reserve(context.Background(), show, req, uint64(u+1))
		}(u)
	}
	wg.Wait()

	bookings, err := l.ListForShow(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, bookings)
	seen := model.SeatSet{}
	for _, b := range bookings {
		assert.Len(t, b.Seats, 3)
		for _, s := range b.Seats {
			assert.False(t, seen.Has(s), "seat %s sold twice", s)
			seen.Add(s)
		}
	}
}

func TestReserveDifferentShowsDoNotBlock(t *testing.T) {
	l := &blockingLedger{Memory: ledger.NewMemory(), block: 1, release: make(chan struct{}), entered: make(chan struct{})}
	c := NewCoordinator(l)

	done := make(chan error, 1)
	go func() {
		_, err := c.Reserve(context.Background(), testShow(1), seats(t, "A1"), 1)
		done <- err
	}()
	<-l.entered
	assert.True(t, c.HeldSeats(1).Has(model.SeatID{}), "in-flight seats are held")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.Reserve(ctx, testShow(2), seats(t, "A1"), 2)
	require.NoError(t, err)

	// the same show has to wait
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	_, err = c.Reserve(short, testShow(1), seats(t, "B1"), 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(l.release)
	require.NoError(t, <-done)
}

func TestReserveNotCancelledInsideSection(t *testing.T) {
	l := &blockingLedger{Memory: ledger.NewMemory(), block: 1, release: make(chan struct{}), entered: make(chan struct{})}
	c := NewCoordinator(l)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := c.Reserve(ctx, testShow(1), seats(t, "A1"), 1)
		done <- err
	}()
	<-l.entered
	cancel()
	close(l.release)
	require.NoError(t, <-done)
	occ, _ := l.OccupiedSeats(context.Background(), 1)
	assert.True(t, occ.Has(model.SeatID{}))
}

func TestReserveStorageFailureWritesNothing(t *testing.T) {
	mem := ledger.NewMemory()
	c := NewCoordinator(&failingLedger{Memory: mem, failCommit: true})
	_, err := c.Reserve(context.Background(), testShow(1), seats(t, "A1"), 1)
	assert.ErrorIs(t, err, model.ErrStorageFailure)

	occ, _ := mem.OccupiedSeats(context.Background(), 1)
	assert.Empty(t, occ)
	assert.Empty(t, c.HeldSeats(1))

	c = NewCoordinator(&failingLedger{Memory: mem, failBegin: true})
	_, err = c.Reserve(context.Background(), testShow(1), seats(t, "A1"), 1)
	assert.ErrorIs(t, err, model.ErrStorageFailure)
}

func TestReserveUnknownShowFromLedger(t *testing.T) {
	c := NewCoordinator(&failingLedger{Memory: ledger.NewMemory(), beginErr: fmt.Errorf("show %w", model.ErrNotFound)})
	_, err := c.Reserve(context.Background(), testShow(1), seats(t, "A1"), 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NotErrorIs(t, err, model.ErrStorageFailure)
}

// blockingLedger parks the first transaction on show `block` inside Begin.
type blockingLedger struct {
	*ledger.Memory
	block   uint64
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingLedger) Begin(ctx context.Context, showID uint64) (ledger.Tx, error) {
	if showID == b.block {
		first := false
		b.once.Do(func() { first = true })
		if first {
			close(b.entered)
			<-b.release
		}
	}
	return b.Memory.Begin(ctx, showID)
}

type failingLedger struct {
	*ledger.Memory
	failBegin  bool
	failCommit bool
	beginErr   error
}

func (f *failingLedger) Begin(ctx context.Context, showID uint64) (ledger.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	if f.failBegin {
		return nil, errors.New("connection refused")
	}
	tx, err := f.Memory.Begin(ctx, showID)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, failCommit: f.failCommit}, nil
}

type failingTx struct {
	ledger.Tx
	failCommit bool
}

func (t *failingTx) Commit() error {
	if t.failCommit {
		_ = t.Tx.Rollback()
		return errors.New("disk full")
	}
	return t.Tx.Commit()
}
