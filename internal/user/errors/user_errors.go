package usererrors

import (
	"net/http"

	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrEmailAlreadyRegistered = apperror.New(
		apperror.CodeConflict,
		"Email already registered",
		http.StatusBadRequest,
	)

	ErrWrongPassword = apperror.New(
		"INVALID_CREDENTIALS",
		"Current password is incorrect",
		http.StatusBadRequest,
	)

	ErrNothingToUpdate = apperror.New(
		apperror.CodeInvalidInput,
		"No fields to update",
		http.StatusBadRequest,
	)
)
