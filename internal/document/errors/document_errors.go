package documenterrors

import (
	"net/http"

	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
)

var (
	ErrDocumentNotFound = apperror.New(
		apperror.CodeNotFound,
		"Document not found",
		http.StatusNotFound,
	)

	ErrRecipientNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"One or more recipients do not exist",
		http.StatusBadRequest,
	)

	ErrInvalidStatus = apperror.New(
		apperror.CodeValidation,
		"Status must be one of PENDING, APPROVED, REJECTED, IN_REVIEW",
		http.StatusBadRequest,
	)

	ErrAttachmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"Attachment not found",
		http.StatusNotFound,
	)

	ErrTooManyAttachments = apperror.New(
		apperror.CodeValidation,
		"Too many attachments",
		http.StatusBadRequest,
	)

	ErrAttachmentTooLarge = apperror.New(
		apperror.CodeValidation,
		"Attachment exceeds the maximum upload size",
		http.StatusBadRequest,
	)

	// ErrAttachmentUploadFailed leaves the document and any attachments
	// stored before the failure in place.
	ErrAttachmentUploadFailed = apperror.New(
		apperror.CodeInternalError,
		"Document created but one or more attachments could not be stored",
		http.StatusInternalServerError,
	)
)
