package main

import (
	"github.com/ANDREW-SIGEI/kemri27/internal/app"
	"github.com/ANDREW-SIGEI/kemri27/internal/bootstrap"
	"github.com/ANDREW-SIGEI/kemri27/internal/config"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	apperror.Init()

	// build dependency + routes
	a, err := app.BuildApp(cfg, logger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer a.Close()

	bootstrap.StartHTTPServer(a.Router, bootstrap.DefaultServerConfig(cfg.Port), a.Audit)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
