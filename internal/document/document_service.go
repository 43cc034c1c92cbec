package document

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/bootstrap"
	documenterrors "github.com/ANDREW-SIGEI/kemri27/internal/document/errors"
	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/events"
	"github.com/ANDREW-SIGEI/kemri27/internal/messaging/kafka"
	"github.com/ANDREW-SIGEI/kemri27/internal/rbac"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/response"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/txmanager"
	"github.com/ANDREW-SIGEI/kemri27/internal/storage"
	"github.com/ANDREW-SIGEI/kemri27/internal/user"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

//go:generate mockgen -source=document_service.go -destination=mock/document_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateDocumentRequest, files []UploadFile) (DocumentResponse, error)
	List(ctx context.Context, actor domain.Actor, req ListDocumentsRequest) ([]DocumentResponse, *response.PaginationMeta, error)
	GetByID(ctx context.Context, actor domain.Actor, id string) (DocumentResponse, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id string, req UpdateStatusRequest) (DocumentResponse, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	Stats(ctx context.Context, actor domain.Actor) (StatsResponse, error)
	DownloadAttachment(ctx context.Context, actor domain.Actor, documentID, attachmentID string) (io.ReadCloser, AttachmentResponse, error)
	// Authorize checks action against the actor's relation to the document.
	Authorize(ctx context.Context, actor domain.Actor, documentID string, action rbac.Action) error
}

// Deps are the collaborators of the document service. Outbox, Redis and
// Audit are optional.
type Deps struct {
	Tx      txmanager.Manager
	Repo    Repository
	Users   user.Repository
	Outbox  kafka.OutboxRepository
	Storage storage.Storage
	Gate    rbac.Service
	Redis   *redis.Client
	Audit   bootstrap.AuditLogger
}

type service struct {
	tx      txmanager.Manager
	repo    Repository
	users   user.Repository
	outbox  kafka.OutboxRepository
	storage storage.Storage
	gate    rbac.Service
	rdb     *redis.Client
	audit   bootstrap.AuditLogger
	sf      *singleflight.Group
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("document.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("document.service")
	}
	return &service{
		tx:      deps.Tx,
		repo:    deps.Repo,
		users:   deps.Users,
		outbox:  deps.Outbox,
		storage: deps.Storage,
		gate:    deps.Gate,
		rdb:     deps.Redis,
		audit:   deps.Audit,
		sf:      &singleflight.Group{},
		now:     time.Now,
		logger:  l,
	}
}

// Create stores the document, its recipient links and the created event in
// one transaction. Attachments are stored afterwards, concurrently, and a
// failed attachment does not undo the ones already stored.
func (s *service) Create(
	ctx context.Context,
	actor domain.Actor,
	req CreateDocumentRequest,
	files []UploadFile,
) (DocumentResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	senderID, err := uuid.Parse(actor.ID)
	if err != nil {
		return DocumentResponse{}, apperror.ErrUnauthorized
	}

	recipientIDs, err := s.resolveRecipients(ctx, NormalizeRecipientIDs(req.RecipientIDs))
	if err != nil {
		return DocumentResponse{}, err
	}

	doc := &Document{
		ID:       uuid.New(),
		Title:    strings.TrimSpace(req.Title),
		Subject:  strings.TrimSpace(req.Subject),
		Content:  req.Content,
		Status:   StatusPending,
		SenderID: senderID,
	}

	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, doc); err != nil {
			return err
		}
		if err := repo.AddRecipients(ctx, doc.ID, recipientIDs); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, events.DocumentEvent{
			EventType:    events.EventDocumentCreated,
			DocumentID:   doc.ID.String(),
			SenderID:     actor.ID,
			RecipientIDs: uuidStrings(recipientIDs),
			Status:       string(doc.Status),
			ActorID:      actor.ID,
		})
	})
	if err != nil {
		return DocumentResponse{}, s.repoError(ctx, "create document failed", err)
	}

	if err := s.storeAttachments(ctx, doc.ID, files); err != nil {
		log.Error("store attachments failed",
			zap.String("document_id", doc.ID.String()),
			zap.Int("files", len(files)),
			zap.Error(err),
		)
		return DocumentResponse{}, documenterrors.ErrAttachmentUploadFailed.Wrap(err)
	}

	s.invalidateStats(ctx, append(uuidStrings(recipientIDs), actor.ID)...)

	log.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.Int("recipients", len(recipientIDs)),
		zap.Int("attachments", len(files)),
	)

	return s.load(ctx, doc.ID.String())
}

func (s *service) resolveRecipients(ctx context.Context, ids []string) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, documenterrors.ErrRecipientNotFound
		}
		parsed = append(parsed, u)
	}

	found, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("resolve recipients failed", zap.Error(err))
		return nil, apperror.ErrInternal.Wrap(err)
	}
	if len(found) != len(parsed) {
		return nil, documenterrors.ErrRecipientNotFound
	}
	return parsed, nil
}

func (s *service) storeAttachments(ctx context.Context, documentID uuid.UUID, files []UploadFile) error {
	if len(files) == 0 {
		return nil
	}

	// Every file runs to completion; one failure must not cancel the others.
	var g errgroup.Group
	for _, f := range files {
		g.Go(func() error {
			return s.storeAttachment(ctx, documentID, f)
		})
	}
	return g.Wait()
}

func (s *service) storeAttachment(ctx context.Context, documentID uuid.UUID, f UploadFile) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.NewObjectKey(f.Filename)
	info, err := s.storage.Put(ctx, key, rc, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"document-id": documentID.String()},
	})
	if err != nil {
		return err
	}

	size := info.Size
	if size <= 0 {
		size = f.Size
	}

	if err := s.repo.CreateAttachment(ctx, &Attachment{
		ID:         uuid.New(),
		Filename:   f.Filename,
		Path:       key,
		MimeType:   contentType,
		Size:       size,
		DocumentID: documentID,
	}); err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			contextutil.GetLogger(ctx, s.logger).Warn("orphaned attachment object", zap.String("key", key), zap.Error(delErr))
		}
		return err
	}
	return nil
}

func (s *service) List(
	ctx context.Context,
	actor domain.Actor,
	req ListDocumentsRequest,
) ([]DocumentResponse, *response.PaginationMeta, error) {
	filter := ListFilter{Viewer: ViewerFor(actor), Search: req.Search}
	if req.Status != "" {
		st, ok := ParseStatus(req.Status)
		if !ok {
			return nil, nil, documenterrors.ErrInvalidStatus
		}
		filter.Status = st
	}

	paged := req.Limit > 0 || req.Page > 0
	page, limit := req.Page, req.Limit
	if paged {
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 10
		}
		filter.Offset = (page - 1) * limit
		filter.Limit = limit
	}

	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list documents failed", zap.Error(err))
		return nil, nil, apperror.ErrInternal.Wrap(err)
	}

	if !paged {
		return toResponses(docs), nil, nil
	}
	meta := response.NewPaginationMeta(total, page, limit)
	return toResponses(docs), &meta, nil
}

func (s *service) GetByID(ctx context.Context, actor domain.Actor, id string) (DocumentResponse, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}
	if err := s.authorize(actor, doc.Access(), rbac.ActionView); err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("view document denied",
			zap.String("actor_id", actor.ID),
			zap.String("document_id", id),
		)
		return DocumentResponse{}, err
	}
	return ToResponse(doc), nil
}

// UpdateStatus sets any of the four statuses regardless of the current one.
func (s *service) UpdateStatus(
	ctx context.Context,
	actor domain.Actor,
	id string,
	req UpdateStatusRequest,
) (DocumentResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	status, ok := ParseStatus(req.Status)
	if !ok {
		return DocumentResponse{}, documenterrors.ErrInvalidStatus
	}

	access, err := s.access(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}
	if err := s.authorize(actor, *access, rbac.ActionUpdateStatus); err != nil {
		log.Warn("update status denied",
			zap.String("actor_id", actor.ID),
			zap.String("document_id", id),
		)
		return DocumentResponse{}, err
	}

	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, events.DocumentEvent{
			EventType:    events.EventDocumentStatusChanged,
			DocumentID:   access.DocumentID,
			SenderID:     access.SenderID,
			RecipientIDs: access.RecipientIDs,
			Status:       string(status),
			FromStatus:   string(access.Status),
			ActorID:      actor.ID,
		})
	})
	if err != nil {
		return DocumentResponse{}, s.repoError(ctx, "update status failed", err)
	}

	s.invalidateStats(ctx, append([]string{access.SenderID}, access.RecipientIDs...)...)
	if s.audit != nil {
		s.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "DOCUMENT_STATUS_CHANGED",
			ActorID: actor.ID,
			Message: "Document status changed",
			Meta: map[string]any{
				"document_id": access.DocumentID,
				"from":        string(access.Status),
				"to":          string(status),
			},
		})
	}

	log.Info("document status updated",
		zap.String("document_id", id),
		zap.String("from", string(access.Status)),
		zap.String("to", string(status)),
	)

	return s.load(ctx, id)
}

// Delete removes the document with its links and attachments. Stored
// objects are removed after commit; failures there are only logged.
func (s *service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)

	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	access := doc.Access()
	if err := s.authorize(actor, access, rbac.ActionDelete); err != nil {
		log.Warn("delete document denied", zap.String("actor_id", actor.ID), zap.String("document_id", id))
		return err
	}

	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return s.repoError(ctx, "delete document failed", err)
	}

	for _, a := range doc.Attachments {
		if err := s.storage.Delete(ctx, a.Path); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			log.Warn("delete attachment object failed", zap.String("key", a.Path), zap.Error(err))
		}
	}

	s.invalidateStats(ctx, append([]string{access.SenderID}, access.RecipientIDs...)...)
	if s.audit != nil {
		s.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "DOCUMENT_DELETED",
			ActorID: actor.ID,
			Message: "Document deleted",
			Meta:    map[string]any{"document_id": id, "attachments": len(doc.Attachments)},
		})
	}

	log.Info("document deleted", zap.String("document_id", id))
	return nil
}

func (s *service) DownloadAttachment(
	ctx context.Context,
	actor domain.Actor,
	documentID, attachmentID string,
) (io.ReadCloser, AttachmentResponse, error) {
	if err := s.Authorize(ctx, actor, documentID, rbac.ActionView); err != nil {
		return nil, AttachmentResponse{}, err
	}
	if _, err := uuid.Parse(attachmentID); err != nil {
		return nil, AttachmentResponse{}, documenterrors.ErrAttachmentNotFound
	}

	a, err := s.repo.FindAttachment(ctx, documentID, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, AttachmentResponse{}, documenterrors.ErrAttachmentNotFound
		}
		return nil, AttachmentResponse{}, s.repoError(ctx, "find attachment failed", err)
	}

	rc, _, err := s.storage.Get(ctx, a.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, AttachmentResponse{}, documenterrors.ErrAttachmentNotFound
		}
		contextutil.GetLogger(ctx, s.logger).Error("read attachment failed", zap.String("key", a.Path), zap.Error(err))
		return nil, AttachmentResponse{}, apperror.ErrInternal.Wrap(err)
	}
	return rc, toAttachmentResponse(*a), nil
}

func (s *service) Authorize(ctx context.Context, actor domain.Actor, documentID string, action rbac.Action) error {
	access, err := s.access(ctx, documentID)
	if err != nil {
		return err
	}
	return s.authorize(actor, *access, action)
}

func (s *service) authorize(actor domain.Actor, a Access, action rbac.Action) error {
	return s.gate.Authorize(rbac.EnforceRequest{
		Actor:     actor,
		Relations: rbac.DocumentRelations(actor.ID, a.SenderID, a.RecipientIDs),
		Action:    action,
	})
}

// find treats a malformed id as a missing document.
func (s *service) find(ctx context.Context, id string) (*Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, documenterrors.ErrDocumentNotFound
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repoError(ctx, "find document failed", err)
	}
	return doc, nil
}

func (s *service) access(ctx context.Context, id string) (*Access, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, documenterrors.ErrDocumentNotFound
	}
	a, err := s.repo.FindAccess(ctx, id)
	if err != nil {
		return nil, s.repoError(ctx, "find document access failed", err)
	}
	return a, nil
}

func (s *service) load(ctx context.Context, id string) (DocumentResponse, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}
	return ToResponse(doc), nil
}

func (s *service) enqueue(ctx context.Context, tx *gorm.DB, event events.DocumentEvent) error {
	if s.outbox == nil {
		return nil
	}
	rid := contextutil.GetRequestID(ctx)
	event.RequestID = rid
	event.OccurredAt = s.now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "document",
		AggregateID:   event.DocumentID,
		EventType:     event.EventType,
		Topic:         events.DocumentLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// repoError passes domain errors through and hides everything else behind
// ErrInternal after logging it.
func (s *service) repoError(ctx context.Context, msg string, err error) error {
	mapped := MapRepositoryError(err)
	var appErr *apperror.AppError
	if errors.As(mapped, &appErr) {
		return mapped
	}
	contextutil.GetLogger(ctx, s.logger).Error(msg, zap.Error(err))
	return apperror.ErrInternal.Wrap(err)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
