package annotation

import (
	"context"
	"errors"
	"strings"

	annotationerrors "github.com/ANDREW-SIGEI/kemri27/internal/annotation/errors"
	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/rbac"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentGuard resolves the actor's access to the parent document.
type DocumentGuard interface {
	Authorize(ctx context.Context, actor domain.Actor, documentID string, action rbac.Action) error
}

//go:generate mockgen -source=annotation_service.go -destination=mock/annotation_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context, actor domain.Actor, documentID string) ([]AnnotationResponse, error)
	Create(ctx context.Context, actor domain.Actor, documentID string, req CreateAnnotationRequest) (AnnotationResponse, error)
	Delete(ctx context.Context, actor domain.Actor, documentID, annotationID string) error
}

type service struct {
	repo   Repository
	guard  DocumentGuard
	gate   rbac.Service
	logger *zap.Logger
}

func NewService(repo Repository, guard DocumentGuard, gate rbac.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("annotation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("annotation.service")
	}
	return &service{repo: repo, guard: guard, gate: gate, logger: l}
}

func (s *service) List(ctx context.Context, actor domain.Actor, documentID string) ([]AnnotationResponse, error) {
	if err := s.guard.Authorize(ctx, actor, documentID, rbac.ActionAnnotate); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, s.repoError(ctx, "list annotations", err)
	}

	out := make([]AnnotationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToResponse(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(
	ctx context.Context,
	actor domain.Actor,
	documentID string,
	req CreateAnnotationRequest,
) (AnnotationResponse, error) {
	if err := s.guard.Authorize(ctx, actor, documentID, rbac.ActionAnnotate); err != nil {
		return AnnotationResponse{}, err
	}

	docID, err := uuid.Parse(documentID)
	if err != nil {
		return AnnotationResponse{}, annotationerrors.ErrAnnotationNotFound
	}
	authorID, err := uuid.Parse(actor.ID)
	if err != nil {
		return AnnotationResponse{}, apperror.ErrUnauthorized
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return AnnotationResponse{}, apperror.RequiredField("text")
	}

	a := &Annotation{
		ID:          uuid.New(),
		DocumentID:  docID,
		PageNumber:  req.PageNumber,
		Text:        text,
		CreatedByID: authorID,
	}
	if req.X != nil {
		a.X = *req.X
	}
	if req.Y != nil {
		a.Y = *req.Y
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return AnnotationResponse{}, s.repoError(ctx, "create annotation", err)
	}

	created, err := s.repo.FindByID(ctx, documentID, a.ID.String())
	if err != nil {
		return AnnotationResponse{}, s.repoError(ctx, "reload annotation", err)
	}

	contextutil.GetLogger(ctx, s.logger).Info("annotation created",
		zap.String("document_id", documentID),
		zap.String("annotation_id", a.ID.String()),
		zap.String("actor_id", actor.ID),
	)
	return ToResponse(created), nil
}

// Delete is allowed to the annotation's author and to admins. The actor must
// still be able to view the document.
func (s *service) Delete(ctx context.Context, actor domain.Actor, documentID, annotationID string) error {
	if err := s.guard.Authorize(ctx, actor, documentID, rbac.ActionView); err != nil {
		return err
	}
	if _, err := uuid.Parse(annotationID); err != nil {
		return annotationerrors.ErrAnnotationNotFound
	}

	a, err := s.repo.FindByID(ctx, documentID, annotationID)
	if err != nil {
		return s.repoError(ctx, "find annotation", err)
	}

	relation := rbac.RelationNone
	if a.CreatedByID.String() == actor.ID {
		relation = rbac.RelationAuthor
	}
	if err := s.gate.Authorize(rbac.EnforceRequest{
		Actor:     actor,
		Relations: []rbac.Relation{relation},
		Action:    rbac.ActionDeleteAnnotation,
	}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, annotationID); err != nil {
		return s.repoError(ctx, "delete annotation", err)
	}
	return nil
}

func (s *service) repoError(ctx context.Context, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return annotationerrors.ErrAnnotationNotFound
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	contextutil.GetLogger(ctx, s.logger).Error(op+" failed", zap.Error(err))
	return apperror.ErrInternal.Wrap(err)
}
