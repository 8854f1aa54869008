package seatmap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type staticOccupancy struct {
	set model.SeatSet
	err error
}

func (s staticOccupancy) OccupiedSeats(context.Context, uint64) (model.SeatSet, error) {
	return s.set, s.err
}

type staticHolds model.SeatSet

func (h staticHolds) HeldSeats(uint64) model.SeatSet { return model.SeatSet(h) }

func TestLayoutStates(t *testing.T) {
	booked := model.NewSeatSet(model.SeatID{Row: 0, Col: 0}, model.SeatID{Row: 1, Col: 1})
	held := staticHolds(model.NewSeatSet(model.SeatID{Row: 0, Col: 1}, model.SeatID{Row: 1, Col: 1}))
	m := New(staticOccupancy{set: booked}, held)

	layout, err := m.Layout(context.Background(), &model.Show{ID: 1, Rows: 2, Cols: 2})
	require.NoError(t, err)
	require.Len(t, layout, 4)

	states := map[string]string{}
	for _, s := range layout {
		states[s.Seat.String()] = s.State
	}
	assert.Equal(t, map[string]string{
		"A1": StateBooked,
		"A2": StateHeld,
		"B1": StateAvailable,
		"B2": StateBooked, // booked wins over held
	}, states)
}

func TestLayoutWithoutHolds(t *testing.T) {
	m := New(staticOccupancy{set: model.SeatSet{}}, nil)
	layout, err := m.Layout(context.Background(), &model.Show{ID: 1})
	require.NoError(t, err)
	assert.Len(t, layout, model.DefaultGridRows*model.DefaultGridCols)
}

func TestLayoutPropagatesLedgerError(t *testing.T) {
	boom := errors.New("boom")
	m := New(staticOccupancy{err: boom}, nil)
	_, err := m.Layout(context.Background(), &model.Show{ID: 1})
	assert.ErrorIs(t, err, boom)
}

func TestValidate(t *testing.T) {
	show := &model.Show{Rows: 3, Cols: 4}
	got, err := Validate(show, []string{"c4", "A1", "a1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "C4"}, model.SeatKeys(got))

	_, err = Validate(show, []string{"D1"})
	assert.ErrorIs(t, err, model.ErrInvalidSeat)
	_, err = Validate(show, []string{"A5"})
	assert.ErrorIs(t, err, model.ErrInvalidSeat)
	_, err = Validate(show, []string{"??"})
	assert.ErrorIs(t, err, model.ErrInvalidSeat)
}
