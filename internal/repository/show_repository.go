package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ShowRepo reads the show catalog.  The booking core never writes shows;
// rows are maintained by the catalog side of the system.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showSelect = `SELECT s.id, m.title, c.name, sc.name, s.starts_at, s.price_cents, sc.seat_rows, sc.seat_cols
                    FROM shows s
                    JOIN movies m ON m.id = s.movie_id
                    JOIN screens sc ON sc.id = s.screen_id
                    JOIN cinemas c ON c.id = sc.cinema_id`

// GetByID retrieves a show with its movie, cinema and screen names.  It
// returns ErrShowNotFound if there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	var s model.Show
	err := r.db.QueryRowContext(ctx, showSelect+` WHERE s.id = ?`, id).Scan(
		&s.ID, &s.MovieTitle, &s.CinemaName, &s.ScreenName, &s.StartsAt, &s.PriceCents, &s.Rows, &s.Cols,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, storageErr("get show", err)
	}
	s.StartsAt = s.StartsAt.UTC()
	return &s, nil
}
