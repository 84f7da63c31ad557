package logins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+users_logins\s*\(user_id,\s*signin_data\)\s*VALUES\s*\(\$1,\s*\$2\)\s*$`
	listQ   = `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+users_logins\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+login_at\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).
		WithArgs("u-1", "Mozilla/5.0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "u-1", "Mozilla/5.0"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	assert.ErrorContains(t, repo.Create(context.Background(), "u-1", ""), "db error: db down")
}

func TestListByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	newer := time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	mock.ExpectQuery(listQ).
		WithArgs("u-1", 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "signin_data", "login_at"}).
			AddRow("l-2", "u-1", "curl", newer).
			AddRow("l-1", "u-1", "", older))

	got, err := repo.ListByUser(context.Background(), "u-1", 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "l-2", got[0].ID)
	assert.Equal(t, "curl", got[0].SigninData)
	assert.True(t, got[0].LoginAt.After(got[1].LoginAt))
}

func TestListByUser_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(listQ).
		WithArgs("u-1", 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "signin_data", "login_at"}))

	got, err := repo.ListByUser(context.Background(), "u-1", 2, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListByUser_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(listQ).WillReturnError(errors.New("db err"))

	_, err := repo.ListByUser(context.Background(), "u-1", 2, 0)
	assert.ErrorContains(t, err, "db error: db err")
}
