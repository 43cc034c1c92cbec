package app

import (
	"github.com/ANDREW-SIGEI/kemri27/internal/annotation"
	"github.com/ANDREW-SIGEI/kemri27/internal/auth"
	"github.com/ANDREW-SIGEI/kemri27/internal/bootstrap"
	"github.com/ANDREW-SIGEI/kemri27/internal/config"
	"github.com/ANDREW-SIGEI/kemri27/internal/document"
	"github.com/ANDREW-SIGEI/kemri27/internal/messaging/kafka"
	"github.com/ANDREW-SIGEI/kemri27/internal/rbac"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/txmanager"
	"github.com/ANDREW-SIGEI/kemri27/internal/storage"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"
	"github.com/ANDREW-SIGEI/kemri27/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the shared clients every module is built from. Redis may be nil.
type Infra struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Storage storage.Storage
	Gate    rbac.Service
	Tokens  token.Service
	Audit   bootstrap.AuditLogger
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	infra Infra,
	logger *zap.Logger,
) auth.Service {
	// --- Repositories ---
	userRepo := user.NewRepository(infra.DB)
	documentRepo := document.NewRepository(infra.DB)
	annotationRepo := annotation.NewRepository(infra.DB)
	outboxRepo := kafka.NewOutboxRepository(infra.DB)

	// --- Services ---
	authService := auth.NewService(userRepo, infra.Tokens, logger)
	userService := user.NewService(userRepo, infra.Gate, logger)
	documentService := document.NewService(document.Deps{
		Tx:      txmanager.New(infra.DB),
		Repo:    documentRepo,
		Users:   userRepo,
		Outbox:  outboxRepo,
		Storage: infra.Storage,
		Gate:    infra.Gate,
		Redis:   infra.Redis,
		Audit:   infra.Audit,
	}, logger)
	annotationService := annotation.NewService(annotationRepo, documentService, infra.Gate, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)
	userHandler := user.NewHandler(userService, logger)
	documentHandler := document.NewHandler(documentService, infra.Redis, document.HandlerConfig{
		MaxFiles:     cfg.Storage.MaxFiles,
		MaxFileBytes: int64(cfg.Storage.MaxUploadMB) << 20,
	}, logger)
	annotationHandler := annotation.NewHandler(annotationService, logger)

	// --- Routes Registration ---
	api := router.Group("/api")
	{
		auth.RegisterRoutes(api, authHandler, infra.Tokens)
		user.RegisterRoutes(api, userHandler, infra.Tokens)
		document.RegisterRoutes(api, documentHandler, infra.Tokens, infra.Redis)
		annotation.RegisterRoutes(api, annotationHandler, infra.Tokens)
	}

	return authService
}
