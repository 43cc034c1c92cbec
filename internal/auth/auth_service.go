package auth

import (
	"context"
	"errors"
	"strings"

	autherrors "github.com/ANDREW-SIGEI/kemri27/internal/auth/errors"
	"github.com/ANDREW-SIGEI/kemri27/internal/config"
	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"
	"github.com/ANDREW-SIGEI/kemri27/internal/user"
	usererrors "github.com/ANDREW-SIGEI/kemri27/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (AuthResponse, error)
	Me(ctx context.Context, userID string) (user.UserResponse, error)
	// SeedAdmin creates the configured admin account unless the email is taken.
	SeedAdmin(ctx context.Context, seed config.AdminSeed) error
}

type service struct {
	users  user.Repository
	tokens token.Service
	logger *zap.Logger
}

func NewService(users user.Repository, tokens token.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{users: users, tokens: tokens, logger: l}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	email := user.NormalizeEmail(req.Email)

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		log.Error("register email lookup failed", zap.Error(err))
		return AuthResponse{}, apperror.ErrInternal.Wrap(err)
	}
	if taken {
		log.Info("register rejected: email already registered")
		return AuthResponse{}, usererrors.ErrEmailAlreadyRegistered
	}

	hashed, err := user.HashPassword(req.Password)
	if err != nil {
		log.Error("register hash password failed", zap.Error(err))
		return AuthResponse{}, apperror.ErrInternal.Wrap(err)
	}

	u := &user.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: hashed,
		Role:     domain.RoleUser,
	}
	if dept := strings.TrimSpace(req.Department); dept != "" {
		u.Department = &dept
	}

	if err := s.users.Create(ctx, u); err != nil {
		mapped := user.MapRepositoryError(err)
		if errors.Is(mapped, usererrors.ErrEmailAlreadyRegistered) {
			return AuthResponse{}, mapped
		}
		log.Error("register persist failed", zap.Error(err))
		return AuthResponse{}, apperror.ErrInternal.Wrap(err)
	}

	log.Info("user registered", zap.String("user_id", u.ID.String()))
	return s.issue(u)
}

// Login answers ErrInvalidCredentials for an unknown email and a wrong
// password alike.
func (s *service) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	u, err := s.users.FindByEmail(ctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(user.MapRepositoryError(err), usererrors.ErrUserNotFound) {
			log.Info("login rejected")
			return AuthResponse{}, autherrors.ErrInvalidCredentials
		}
		log.Error("login lookup failed", zap.Error(err))
		return AuthResponse{}, apperror.ErrInternal.Wrap(err)
	}

	if !user.CheckPassword(u.Password, req.Password) {
		log.Info("login rejected")
		return AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	return s.issue(u)
}

func (s *service) Me(ctx context.Context, userID string) (user.UserResponse, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		mapped := user.MapRepositoryError(err)
		if errors.Is(mapped, usererrors.ErrUserNotFound) {
			return user.UserResponse{}, mapped
		}
		contextutil.GetLogger(ctx, s.logger).Error("me lookup failed", zap.Error(err))
		return user.UserResponse{}, apperror.ErrInternal.Wrap(err)
	}
	return user.ToResponse(u), nil
}

func (s *service) SeedAdmin(ctx context.Context, seed config.AdminSeed) error {
	if seed.Email == "" || seed.Password == "" {
		return nil
	}
	email := user.NormalizeEmail(seed.Email)

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		s.logger.Debug("admin seed skipped, account exists", zap.String("email", email))
		return nil
	}

	hashed, err := user.HashPassword(seed.Password)
	if err != nil {
		return err
	}

	name := seed.Name
	if name == "" {
		name = "Administrator"
	}

	if err := s.users.Create(ctx, &user.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     name,
		Password: hashed,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return err
	}

	s.logger.Info("admin account seeded", zap.String("email", email))
	return nil
}

func (s *service) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(user.MapRepositoryError(err), usererrors.ErrUserNotFound) {
		return false, nil
	}
	return false, err
}

func (s *service) issue(u *user.User) (AuthResponse, error) {
	tok, err := s.tokens.Issue(u.ID.String(), u.Role)
	if err != nil {
		s.logger.Error("token issue failed", zap.Error(err))
		return AuthResponse{}, autherrors.ErrTokenGenerationFailed.Wrap(err)
	}
	return AuthResponse{Token: tok, User: user.ToResponse(u)}, nil
}
