package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("ledger: transaction already finished")

// Memory is a process-local ledger.  It keeps the same contract as the
// MySQL ledger, including the per-show seat uniqueness check on commit,
// but provides no cross-process serialisation.
type Memory struct {
	mu     sync.RWMutex
	all    []model.Booking // append order
	byID   map[string]int
	byShow map[uint64][]int
	byUser map[uint64][]int
	taken  map[uint64]model.SeatSet
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[string]int),
		byShow: make(map[uint64][]int),
		byUser: make(map[uint64][]int),
		taken:  make(map[uint64]model.SeatSet),
	}
}

func (m *Memory) Begin(ctx context.Context, showID uint64) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryTx{m: m, showID: showID}, nil
}

func (m *Memory) OccupiedSeats(ctx context.Context, showID uint64) (model.SeatSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.occupiedLocked(showID), nil
}

func (m *Memory) occupiedLocked(showID uint64) model.SeatSet {
	out := make(model.SeatSet, len(m.taken[showID]))
	for id := range m.taken[showID] {
		out.Add(id)
	}
	return out
}

func (m *Memory) ListForShow(ctx context.Context, showID uint64) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.byShow[showID]
	out := make([]model.Booking, 0, len(idx))
	for _, i := range idx {
		out = append(out, cloneBooking(m.all[i]))
	}
	return out, nil
}

func (m *Memory) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.byUser[userID]
	out := make([]model.Booking, 0, len(idx))
	for i := len(idx) - 1; i >= 0; i-- {
		out = append(out, cloneBooking(m.all[idx[i]]))
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, bookingID string) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %w", model.ErrNotFound)
	}
	b := cloneBooking(m.all[i])
	return &b, nil
}

// commit applies the staged bookings of one show atomically.
func (m *Memory) commit(showID uint64, staged []model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := m.taken[showID]
	seen := make(model.SeatSet)
	var lost []model.SeatID
	for _, b := range staged {
		if _, dup := m.byID[b.ID]; dup {
			return fmt.Errorf("%w: duplicate booking id %s", model.ErrStorageFailure, b.ID)
		}
		for _, s := range b.Seats {
			if taken.Has(s) || seen.Has(s) {
				lost = append(lost, s)
			}
			seen.Add(s)
		}
	}
	if len(lost) > 0 {
		model.SortSeats(lost)
		return &model.SeatConflictError{Seats: lost}
	}
	if taken == nil {
		taken = make(model.SeatSet)
		m.taken[showID] = taken
	}
	for _, b := range staged {
		i := len(m.all)
		m.all = append(m.all, b)
		m.byID[b.ID] = i
		m.byShow[showID] = append(m.byShow[showID], i)
		m.byUser[b.UserID] = append(m.byUser[b.UserID], i)
		taken.AddAll(b.Seats)
	}
	return nil
}

type memoryTx struct {
	m      *Memory
	showID uint64
	staged []model.Booking
	done   bool
}

func (t *memoryTx) OccupiedSeats(ctx context.Context) (model.SeatSet, error) {
	if t.done {
		return nil, ErrTxDone
	}
	t.m.mu.RLock()
	out := t.m.occupiedLocked(t.showID)
	t.m.mu.RUnlock()
	for _, b := range t.staged {
		out.AddAll(b.Seats)
	}
	return out, nil
}

func (t *memoryTx) Append(ctx context.Context, b *model.Booking) error {
	if t.done {
		return ErrTxDone
	}
	if b.ShowID != t.showID {
		return fmt.Errorf("%w: booking for show %d in transaction for show %d", model.ErrStorageFailure, b.ShowID, t.showID)
	}
	t.staged = append(t.staged, cloneBooking(*b))
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return t.m.commit(t.showID, t.staged)
}

func (t *memoryTx) Rollback() error {
	t.done = true
	t.staged = nil
	return nil
}

func cloneBooking(b model.Booking) model.Booking {
	seats := make([]model.SeatID, len(b.Seats))
	copy(seats, b.Seats)
	b.Seats = seats
	return b
}
