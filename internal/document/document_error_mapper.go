package document

import (
	"errors"

	documenterrors "github.com/ANDREW-SIGEI/kemri27/internal/document/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// MapRepositoryError turns store errors the client can act on into domain
// errors and returns anything else unchanged.
func MapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return documenterrors.ErrDocumentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			if pgErr.ConstraintName == "fk_document_recipients_user" || pgErr.TableName == "document_recipients" {
				return documenterrors.ErrRecipientNotFound
			}
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return documenterrors.ErrDocumentNotFound
		}
	}
	return err
}
