package user

import (
	"errors"
	"strings"

	usererrors "github.com/ANDREW-SIGEI/kemri27/internal/user/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// MapRepositoryError turns storage errors into user domain errors. Unknown
// errors pass through untouched.
func MapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usererrors.ErrUserNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return usererrors.ErrEmailAlreadyRegistered
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return usererrors.ErrEmailAlreadyRegistered
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "email") {
		return usererrors.ErrEmailAlreadyRegistered
	}

	return err
}
