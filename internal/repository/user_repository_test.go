package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "email", "name", "created_at"}

const selectByEmail = "SELECT id,email,name,created_at FROM users WHERE email=? LIMIT 1"

func TestIdentifyCreatesUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectByEmail)).WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, name) VALUES (?,?)")).
		WithArgs("ann@example.com", "Ann").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectByEmail)).WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "ann@example.com", "Ann", now))

	u, err := repo.Identify(context.Background(), "  Ann@Example.com ", " Ann ")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifyExistingUpdatesName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectByEmail)).WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "ann@example.com", "Ann", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name=? WHERE id=?")).
		WithArgs("Annie", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := repo.Identify(context.Background(), "ann@example.com", "Annie")
	require.NoError(t, err)
	assert.Equal(t, "Annie", u.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifyInsertRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectByEmail)).WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec("INSERT INTO users").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectQuery(regexp.QuoteMeta(selectByEmail)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(9, "bob@example.com", "Bob", time.Now()))

	u, err := repo.Identify(context.Background(), "bob@example.com", "Bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users WHERE id=").WithArgs(1).WillReturnRows(sqlmock.NewRows(userCols))
	_, err = NewUserRepo(db).GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
