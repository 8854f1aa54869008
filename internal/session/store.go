// Package session stores selection sessions: the tentative, per user and
// show seat choices made before a booking is confirmed.  Sessions expire
// after a period of inactivity; every Save refreshes the expiry.
package session

import (
	"context"
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = fmt.Errorf("session %w", model.ErrNotFound)

// Store persists selection sessions.  Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (*model.Selection, error)
	// FindByUserShow returns the live session of the (user, show) pair.
	FindByUserShow(ctx context.Context, userID, showID uint64) (*model.Selection, error)
	// Save creates or replaces the session and restarts its expiry.
	Save(ctx context.Context, s *model.Selection) error
	Delete(ctx context.Context, id string) error
}
