package autherrors

import (
	"net/http"

	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
)

const CodeInvalidCredentials = "INVALID_CREDENTIALS"

var (
	// ErrInvalidCredentials is returned for an unknown email and a wrong
	// password alike.
	ErrInvalidCredentials = apperror.New(
		CodeInvalidCredentials,
		"Invalid credentials",
		http.StatusBadRequest,
	)

	ErrTokenMissing = apperror.New(
		apperror.CodeUnauthorized,
		"Access token required",
		http.StatusUnauthorized,
	)

	ErrInvalidToken = apperror.New(
		apperror.CodeInvalidToken,
		"Invalid token",
		http.StatusForbidden,
	)

	ErrTokenExpired = apperror.New(
		apperror.CodeTokenExpired,
		"Token expired",
		http.StatusForbidden,
	)

	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
)
