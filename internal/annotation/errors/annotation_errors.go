package annotationerrors

import (
	"net/http"

	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
)

var ErrAnnotationNotFound = apperror.New(
	apperror.CodeNotFound,
	"Annotation not found",
	http.StatusNotFound,
)
