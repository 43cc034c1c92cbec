package annotation

import (
	"net/http"

	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("annotation.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("annotation.handler")
	}
	return &Handler{svc: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("annotation request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) List(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	res, err := h.svc.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Create(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	var req CreateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.svc.Create(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	if err := h.svc.Delete(c.Request.Context(), actor, c.Param("id"), c.Param("annotationId")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Annotation deleted successfully")
}
