package rbac

import (
	"sync"

	"github.com/ANDREW-SIGEI/kemri27/internal/rbac/infra"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req EnforceRequest) (bool, error)
	// Authorize returns apperror.ErrForbidden on denial.
	Authorize(req EnforceRequest) error
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewService(enforcer *casbin.Enforcer, policies []Policy, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	rules := make([][]string, 0, len(policies))
	for _, p := range policies {
		rules = append(rules, []string{p.Role, p.Relation, string(p.Action)})
	}

	enforcer.ClearPolicy()
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, err
		}
	}
	l.Debug("rbac policies loaded", zap.Int("count", len(rules)))

	return &service{enforcer: enforcer, logger: l}, nil
}

// NewDefaultService wires the embedded model with DefaultPolicies.
func NewDefaultService(logger ...*zap.Logger) (Service, error) {
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return nil, err
	}
	return NewService(enforcer, DefaultPolicies, logger...)
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	relations := req.Relations
	if len(relations) == 0 {
		relations = []Relation{RelationNone}
	}

	for _, rel := range relations {
		allowed, err := s.enforcer.Enforce(string(req.Actor.Role), string(rel), string(req.Action))
		if err != nil {
			s.logger.Error("rbac enforce failed",
				zap.String("actor_id", req.Actor.ID),
				zap.String("action", string(req.Action)),
				zap.Error(err),
			)
			return false, err
		}
		if allowed {
			return true, nil
		}
	}

	s.logger.Debug("rbac denied",
		zap.String("actor_id", req.Actor.ID),
		zap.String("role", string(req.Actor.Role)),
		zap.String("action", string(req.Action)),
		zap.Any("relations", relations),
	)
	return false, nil
}

func (s *service) Authorize(req EnforceRequest) error {
	allowed, err := s.Enforce(req)
	if err != nil {
		return apperror.ErrInternal.Wrap(err)
	}
	if !allowed {
		return apperror.ErrForbidden
	}
	return nil
}
