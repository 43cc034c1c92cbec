package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/bootstrap"
	"github.com/ANDREW-SIGEI/kemri27/internal/config"
	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/rbac"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/connection"
	"github.com/ANDREW-SIGEI/kemri27/internal/storage"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const banner = "KEMRI Document Management API"

// App is the assembled HTTP API.
type App struct {
	Router *gin.Engine
	Audit  bootstrap.AuditLogger

	db    *gorm.DB
	redis *redis.Client
}

func BuildApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// 1. Setup Infrastructure
	db, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database migrated")

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis, cfg.Database.MaxRetries, logger)
	if err != nil {
		return nil, err
	}

	store, err := NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	gate, err := rbac.NewDefaultService(logger)
	if err != nil {
		return nil, fmt.Errorf("rbac: %w", err)
	}

	audit := bootstrap.NewStdoutAuditLogger(logger)
	router, err := NewRouter(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}

	// 2. Register Modules & Routes
	authService := registerModules(router, cfg, Infra{
		DB:      db,
		Redis:   rdb,
		Storage: store,
		Gate:    gate,
		Tokens:  token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Audit:   audit,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := authService.SeedAdmin(ctx, cfg.Admin); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	return &App{Router: router, Audit: audit, db: db, redis: rdb}, nil
}

// NewRouter returns the engine with global middleware, the metrics endpoint,
// static uploads and the banner. Feature routes are added by registerModules.
func NewRouter(cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.ContextLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
		metrics.Handler(),
	)

	r.GET(middleware.MetricsPath, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	if cfg.Storage.Driver == "local" {
		r.Static(cfg.Storage.PublicPrefix, cfg.Storage.UploadDir)
	}
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, banner)
	})

	return r, nil
}

func NewStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "minio":
		return storage.NewMinIO(cfg.MinIO)
	default:
		return storage.NewLocal(cfg.Storage.UploadDir)
	}
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
