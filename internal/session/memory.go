package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type userShow struct {
	userID uint64
	showID uint64
}

type memoryEntry struct {
	sel       model.Selection
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory.  Expired sessions are
// invisible to readers immediately and removed by Sweep.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	byID   map[string]*memoryEntry
	byPair map[userShow]string
}

// NewMemoryStore returns a store whose sessions live for ttl after their
// last Save.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		byID:   make(map[string]*memoryEntry),
		byPair: make(map[userShow]string),
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*model.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, ErrNotFound
	}
	return cloneSelection(&e.sel), nil
}

func (m *MemoryStore) FindByUserShow(ctx context.Context, userID, showID uint64) (*model.Selection, error) {
	m.mu.Lock()
	id, ok := m.byPair[userShow{userID, showID}]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MemoryStore) Save(ctx context.Context, s *model.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = &memoryEntry{sel: *cloneSelection(s), expiresAt: m.now().Add(m.ttl)}
	m.byPair[userShow{s.UserID, s.ShowID}] = s.ID
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(id)
	return nil
}

func (m *MemoryStore) deleteLocked(id string) {
	e, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	pair := userShow{e.sel.UserID, e.sel.ShowID}
	if m.byPair[pair] == id {
		delete(m.byPair, pair)
	}
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.byID {
		if !now.Before(e.expiresAt) {
			m.deleteLocked(id)
			n++
		}
	}
	return n
}

// StartJanitor runs Sweep every interval until ctx is done.
func (m *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("expired selection sessions removed", "count", n)
			}
		}
	}
}

func cloneSelection(s *model.Selection) *model.Selection {
	out := *s
	out.Seats = s.Snapshot()
	return &out
}
