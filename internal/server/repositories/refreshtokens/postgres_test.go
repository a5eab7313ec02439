package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQuery       = `(?s)^INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	selectQuery       = `(?s)^SELECT\s+user_id,\s*expires_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	deleteQuery       = `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	deleteByUserQuery = `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestPostgres_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(insertQuery).
			WithArgs("u1", "tok123", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), "u1", "tok123", 30*time.Minute))
	})

	t.Run("db error is wrapped", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		dbErr := errors.New("db down")
		mock.ExpectExec(insertQuery).
			WithArgs("u1", "tok123", sqlmock.AnyArg()).
			WillReturnError(dbErr)

		err := repo.Create(context.Background(), "u1", "tok123", time.Hour)
		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "error performing sql request")
	})
}

func TestPostgres_Find(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		expires := time.Now().Add(10 * time.Minute)
		mock.ExpectQuery(selectQuery).
			WithArgs("tok123").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow("u1", expires))

		got, err := repo.Find(context.Background(), "tok123")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "tok123", got.Token)
		assert.True(t, got.Expires.Equal(expires))
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(selectQuery).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		_, err := repo.Find(context.Background(), "missing")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("db error is wrapped", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(selectQuery).WithArgs("tok123").WillReturnError(errors.New("db err"))

		_, err := repo.Find(context.Background(), "tok123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrNotFound)
		assert.Contains(t, err.Error(), "db error: db err")
	})
}

func TestPostgres_Delete(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		arg     string
		call    func(*PostgresRepository) error
		execErr error
	}{
		{
			name:  "by token",
			query: deleteQuery,
			arg:   "tok123",
			call:  func(r *PostgresRepository) error { return r.Delete(context.Background(), "tok123") },
		},
		{
			name:    "by token db error",
			query:   deleteQuery,
			arg:     "tok123",
			call:    func(r *PostgresRepository) error { return r.Delete(context.Background(), "tok123") },
			execErr: errors.New("db err"),
		},
		{
			name:  "by user",
			query: deleteByUserQuery,
			arg:   "u1",
			call:  func(r *PostgresRepository) error { return r.DeleteByUser(context.Background(), "u1") },
		},
		{
			name:    "by user db error",
			query:   deleteByUserQuery,
			arg:     "u1",
			call:    func(r *PostgresRepository) error { return r.DeleteByUser(context.Background(), "u1") },
			execErr: errors.New("db err"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			exp := mock.ExpectExec(tt.query).WithArgs(tt.arg)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := tt.call(repo)
			if tt.execErr != nil {
				assert.ErrorIs(t, err, tt.execErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
