package document

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	documenterrors "github.com/ANDREW-SIGEI/kemri27/internal/document/errors"
	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const attachmentsField = "attachments"

type HandlerConfig struct {
	MaxFiles     int
	MaxFileBytes int64
}

func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{MaxFiles: 5, MaxFileBytes: 10 << 20}
}

type Handler struct {
	svc    Service
	rdb    *redis.Client
	cfg    HandlerConfig
	logger *zap.Logger
}

func NewHandler(service Service, rdb *redis.Client, cfg HandlerConfig, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("document.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("document.handler")
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultHandlerConfig().MaxFiles
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultHandlerConfig().MaxFileBytes
	}
	return &Handler{svc: service, rdb: rdb, cfg: cfg, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("document request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Create accepts a JSON body or a multipart form with up to MaxFiles files
// in the "attachments" field.
func (h *Handler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}
	defer middleware.ReleaseIdempotencyLock(c, h.rdb)

	var (
		req   CreateDocumentRequest
		files []UploadFile
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		limit := int64(h.cfg.MaxFiles)*h.cfg.MaxFileBytes + 1<<20
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		if err := c.ShouldBind(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.writeServiceError(c, documenterrors.ErrAttachmentTooLarge)
				return
			}
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}

		var err error
		if files, err = h.uploadFiles(c); err != nil {
			h.writeServiceError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), actor, req, files)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	middleware.StoreIdempotentResult(c, h.rdb, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) uploadFiles(c *gin.Context) ([]UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.ErrInvalidInput.Wrap(err)
	}

	headers := form.File[attachmentsField]
	if len(headers) > h.cfg.MaxFiles {
		return nil, documenterrors.ErrTooManyAttachments
	}

	files := make([]UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.cfg.MaxFileBytes {
			return nil, documenterrors.ErrAttachmentTooLarge
		}
		files = append(files, fileFromHeader(fh))
	}
	return files, nil
}

func fileFromHeader(fh *multipart.FileHeader) UploadFile {
	return UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (h *Handler) List(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	var req ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, meta, err := h.svc.List(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, meta)
}

func (h *Handler) Stats(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	resp, err := h.svc.Stats(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	resp, err := h.svc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.svc.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	if err := h.svc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Document deleted successfully")
}

func (h *Handler) DownloadAttachment(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	rc, att, err := h.svc.DownloadAttachment(c.Request.Context(), actor, c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename})
	c.DataFromReader(http.StatusOK, att.Size, att.MimeType, rc, map[string]string{
		"Content-Disposition":    disposition,
		"X-Content-Type-Options": "nosniff",
	})
}
