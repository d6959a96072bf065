package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/router"
	"github.com/loopline-app/backend/pkg/config"
	"github.com/loopline-app/backend/pkg/firebase"
	"github.com/loopline-app/backend/pkg/logging"
	"github.com/loopline-app/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.StorageBucket)
	if err != nil {
		logger.Fatal("failed to initialize Firebase", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.New()
	e.HTTPErrorHandler = router.ErrorHandler(logger)

	// Setup global middleware
	router.SetupMiddleware(e, logger)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, cfg, db, firebaseApp, logger); err != nil {
		logger.Fatal("failed to configure routes", zap.Error(err))
	}

	// Start server
	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
