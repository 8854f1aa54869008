package model

import "time"

// User mirrors a row of the users table.  Identity is an uninterpreted key
// for the booking core; users are created or looked up by email.
type User struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
