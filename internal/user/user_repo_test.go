package user_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/ANDREW-SIGEI/kemri27/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestRepository_FindByEmail(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := user.NewRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password", "role"}).
			AddRow(id.String(), "jane@kemri.org", "Jane", "hash", "USER"))

	u, err := repo.FindByEmail(context.Background(), "  Jane@KEMRI.org ")

	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "jane@kemri.org", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := user.NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_UpdatePassword(t *testing.T) {
	id := uuid.NewString()

	t.Run("updates the hash", func(t *testing.T) {
		db, mock := newMockGorm(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "password"=$1,"updated_at"=$2 WHERE id = $3`)).
			WithArgs("new-hash", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := user.NewRepository(db).UpdatePassword(context.Background(), id, "new-hash")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		db, mock := newMockGorm(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "password"=$1,"updated_at"=$2 WHERE id = $3`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := user.NewRepository(db).UpdatePassword(context.Background(), id, "new-hash")

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestRepository_FindByIDs_Empty(t *testing.T) {
	db, mock := newMockGorm(t)

	users, err := user.NewRepository(db).FindByIDs(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}
