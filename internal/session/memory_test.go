package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func newSelection(id string, userID, showID uint64, seats ...model.SeatID) *model.Selection {
	return &model.Selection{ID: id, UserID: userID, ShowID: showID, Seats: seats}
}

func TestMemoryStoreSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	require.NoError(t, s.Save(ctx, newSelection("s1", 1, 2, model.SeatID{Row: 0, Col: 0})))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.SeatID{{Row: 0, Col: 0}}, got.Seats)

	byPair, err := s.FindByUserShow(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "s1", byPair.ID)

	got.Seats[0] = model.SeatID{Row: 9, Col: 9}
	again, _ := s.Get(ctx, "s1")
	assert.Equal(t, model.SeatID{}, again.Seats[0], "stored copy is isolated")

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindByUserShow(ctx, 1, 2)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "s1"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(15 * time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, newSelection("s1", 1, 2)))
	now = now.Add(10 * time.Minute)
	require.NoError(t, s.Save(ctx, newSelection("s1", 1, 2)), "save refreshes expiry")

	now = now.Add(10 * time.Minute)
	_, err := s.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())
}
