package user

import (
	"context"
	"errors"
	"strings"

	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/rbac"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"
	usererrors "github.com/ANDREW-SIGEI/kemri27/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	GetAll(ctx context.Context) ([]UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	Update(ctx context.Context, actor domain.Actor, id string, req UpdateUserRequest) (UserResponse, error)
	ChangePassword(ctx context.Context, actor domain.Actor, id string, req ChangePasswordRequest) error
}

type service struct {
	repo   Repository
	gate   rbac.Service
	logger *zap.Logger
}

func NewService(repo Repository, gate rbac.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{repo: repo, gate: gate, logger: l}
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list users failed", zap.Error(err))
		return nil, apperror.ErrInternal.Wrap(err)
	}
	return toResponses(users), nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	return ToResponse(u), nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateUserRequest) (UserResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if err := s.authorize(actor, id, rbac.ActionUpdateProfile); err != nil {
		log.Warn("update user denied", zap.String("actor_id", actor.ID), zap.String("user_id", id))
		return UserResponse{}, err
	}
	if req.Name == nil && req.Email == nil && req.Department == nil {
		return UserResponse{}, usererrors.ErrNothingToUpdate
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		dept := strings.TrimSpace(*req.Department)
		if dept == "" {
			u.Department = nil
		} else {
			u.Department = &dept
		}
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email != u.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			if err != nil && !errors.Is(MapRepositoryError(err), usererrors.ErrUserNotFound) {
				return UserResponse{}, s.repoError(ctx, "update user email lookup failed", err)
			}
			if existing != nil && existing.ID != u.ID {
				return UserResponse{}, usererrors.ErrEmailAlreadyRegistered
			}
			u.Email = email
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return UserResponse{}, s.repoError(ctx, "update user persist failed", err)
	}

	log.Info("user profile updated", zap.String("user_id", id), zap.String("actor_id", actor.ID))
	return ToResponse(u), nil
}

// ChangePassword requires the current password even when an admin acts on
// another account.
func (s *service) ChangePassword(ctx context.Context, actor domain.Actor, id string, req ChangePasswordRequest) error {
	log := contextutil.GetLogger(ctx, s.logger)

	if err := s.authorize(actor, id, rbac.ActionChangePassword); err != nil {
		log.Warn("change password denied", zap.String("actor_id", actor.ID), zap.String("user_id", id))
		return err
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if !CheckPassword(u.Password, req.CurrentPassword) {
		log.Warn("change password rejected: current password mismatch", zap.String("user_id", id))
		return usererrors.ErrWrongPassword
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		log.Error("hash password failed", zap.Error(err))
		return apperror.ErrInternal.Wrap(err)
	}

	if err := s.repo.UpdatePassword(ctx, id, hashed); err != nil {
		return s.repoError(ctx, "change password persist failed", err)
	}

	log.Info("password changed", zap.String("user_id", id), zap.String("actor_id", actor.ID))
	return nil
}

func (s *service) find(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, usererrors.ErrUserNotFound
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repoError(ctx, "find user failed", err)
	}
	return u, nil
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

func (s *service) authorize(actor domain.Actor, subjectID string, action rbac.Action) error {
	return s.gate.Authorize(rbac.EnforceRequest{
		Actor:     actor,
		Relations: []rbac.Relation{rbac.SubjectRelation(actor.ID, subjectID)},
		Action:    action,
	})
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
