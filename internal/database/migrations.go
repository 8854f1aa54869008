package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migrate creates the catalog, user and booking tables when they are
// missing.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	slog.Info("running database migrations")

	migrations := []string{
		createUsersTable,
		createMoviesTable,
		createCinemasTable,
		createScreensTable,
		createShowsTable,
		createBookingsTable,
		createBookingSeatsTable,
	}
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("database migrations completed", "steps", len(migrations))
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    email VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createMoviesTable = `
CREATE TABLE IF NOT EXISTS movies (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(255) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createCinemasTable = `
CREATE TABLE IF NOT EXISTS cinemas (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    city VARCHAR(120) NOT NULL DEFAULT ''
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createScreensTable = `
CREATE TABLE IF NOT EXISTS screens (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    cinema_id BIGINT UNSIGNED NOT NULL,
    name VARCHAR(120) NOT NULL,
    seat_rows INT NOT NULL DEFAULT 10,
    seat_cols INT NOT NULL DEFAULT 10,
    CONSTRAINT fk_screens_cinema FOREIGN KEY (cinema_id) REFERENCES cinemas(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createShowsTable = `
CREATE TABLE IF NOT EXISTS shows (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    movie_id BIGINT UNSIGNED NOT NULL,
    screen_id BIGINT UNSIGNED NOT NULL,
    starts_at DATETIME NOT NULL,
    price_cents INT UNSIGNED NOT NULL,
    KEY idx_shows_screen (screen_id),
    CONSTRAINT fk_shows_movie FOREIGN KEY (movie_id) REFERENCES movies(id),
    CONSTRAINT fk_shows_screen FOREIGN KEY (screen_id) REFERENCES screens(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// bookings.seq gives the append order used by history queries.
const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    seq BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id CHAR(36) NOT NULL,
    user_id BIGINT UNSIGNED NOT NULL,
    show_id BIGINT UNSIGNED NOT NULL,
    total_amount_cents BIGINT UNSIGNED NOT NULL,
    confirmed_at DATETIME(6) NOT NULL,
    UNIQUE KEY uq_bookings_id (id),
    KEY idx_bookings_show (show_id),
    KEY idx_bookings_user (user_id),
    CONSTRAINT fk_bookings_show FOREIGN KEY (show_id) REFERENCES shows(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createBookingSeatsTable = `
CREATE TABLE IF NOT EXISTS booking_seats (
    booking_id CHAR(36) NOT NULL,
    show_id BIGINT UNSIGNED NOT NULL,
    seat_key VARCHAR(8) NOT NULL,
    PRIMARY KEY (booking_id, seat_key),
    UNIQUE KEY uq_booking_seats_show_seat (show_id, seat_key),
    CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
