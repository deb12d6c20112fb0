package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/docgen-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresUserStore_GetByID(t *testing.T) {
	columns := []string{"id", "first_name", "last_name", "middle_name", "iin", "phone_number"}

	t.Run("found with middle name", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s := NewPostgresUserStore(db, nil)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("42").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("42", "Ivan", "Petrov", "Ivanovich", "900101300123", "+77010000000"))

		user, err := s.GetByID(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "Ivan", user.FirstName)
		require.NotNil(t, user.MiddleName)
		assert.Equal(t, "Ivanovich", *user.MiddleName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("found without middle name", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s := NewPostgresUserStore(db, nil)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("43").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("43", "Aigerim", "Sadykova", nil, "950505400321", "+77020000000"))

		user, err := s.GetByID(context.Background(), "43")
		require.NoError(t, err)
		assert.Nil(t, user.MiddleName)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s := NewPostgresUserStore(db, nil)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err = s.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("connection failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s := NewPostgresUserStore(db, nil)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WillReturnError(sql.ErrConnDone)

		_, err = s.GetByID(context.Background(), "42")
		assert.ErrorIs(t, err, store.ErrUnavailable)
	})

	assert.Panics(t, func() { NewPostgresUserStore(nil, nil) })
}
