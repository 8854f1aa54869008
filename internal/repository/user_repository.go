package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Identify returns the user with the given email, creating it on first
// sight.  A changed display name is written back.  Two concurrent first
// requests for the same email both end up with the same row.
func (r *UserRepo) Identify(ctx context.Context, email, name string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	u, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if name != "" && name != u.Name {
			if _, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", name, u.ID); err != nil {
				return nil, storageErr("update user", err)
			}
			u.Name = name
		}
		return u, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}
	_, err = r.DB.ExecContext(ctx, "INSERT INTO users (email, name) VALUES (?,?)", email, name)
	if err != nil && !isDuplicateKey(err) {
		return nil, storageErr("insert user", err)
	}
	// Re-read so created_at comes from the database, and so a lost insert
	// race returns the winner's row.
	return r.GetByEmail(ctx, email)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT id,email,name,created_at FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.scanOne(ctx, "SELECT id,email,name,created_at FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("get user", err)
	}
	return &u, nil
}
