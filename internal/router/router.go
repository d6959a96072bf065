package router

import (
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/ai"
	"github.com/loopline-app/backend/internal/analytics"
	"github.com/loopline-app/backend/internal/cache"
	"github.com/loopline-app/backend/internal/denorm"
	"github.com/loopline-app/backend/internal/fanout"
	"github.com/loopline-app/backend/internal/handlers"
	"github.com/loopline-app/backend/internal/images"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/notifications"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
	"github.com/loopline-app/backend/pkg/config"
	"github.com/loopline-app/backend/pkg/firebase"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	logger.Info("global middleware configured")
}

// SetupRoutes wires repositories, engines and handlers and registers every
// route. All API routes sit behind Firebase authentication; only the health
// check is public.
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, fb *firebase.App, logger *zap.Logger) error {
	mongoDB := db.Mongo.Database(cfg.MongoDatabase)
	committer := store.NewSessionCommitter(mongoDB, logger)

	// Repositories
	profileRepo := repositories.NewMongoProfileRepository(mongoDB)
	updateRepo := repositories.NewMongoUpdateRepository(mongoDB)
	feedRepo := repositories.NewMongoFeedRepository(mongoDB)
	commentRepo := repositories.NewMongoCommentRepository(mongoDB, committer)
	reactionRepo := repositories.NewMongoReactionRepository(mongoDB, committer)
	friendshipRepo := repositories.NewMongoFriendshipRepository(mongoDB, committer)
	invitationRepo := repositories.NewMongoInvitationRepository(mongoDB)
	groupRepo := repositories.NewMongoGroupRepository(mongoDB)
	summaryRepo := repositories.NewMongoSummaryRepository(mongoDB)
	nudgeRepo := repositories.NewMongoNudgeRepository(mongoDB)

	// Engines and collaborators
	fanoutWriter := fanout.NewWriter(groupRepo, friendshipRepo, committer, logger)
	propagator := denorm.NewPropagator(invitationRepo, friendshipRepo, groupRepo, updateRepo, commentRepo, committer, logger)
	profileCache := cache.NewProfileCache(db.Redis, 15*time.Minute, logger)
	generator := ai.NewHTTPGenerator(cfg.NarrativeEndpoint, cfg.NarrativeAPIKey, logger)
	imageStore := images.NewStore(fb.Bucket, logger)
	notifier := notifications.NewFCMSender(fb.MessagingClient, profileRepo, logger)
	recorder, err := analytics.NewRecorder(db.Postgres, logger)
	if err != nil {
		return err
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(fb.AuthClient))

	profileHandler := handlers.NewProfileHandler(profileRepo, updateRepo, groupRepo, commentRepo, reactionRepo, propagator, profileCache, committer, recorder, logger)
	profileHandler.RegisterProfileRoutes(api)

	updateHandler := handlers.NewUpdateHandler(updateRepo, feedRepo, profileRepo, groupRepo, fanoutWriter, committer, generator, imageStore, notifier, recorder, logger)
	updateHandler.RegisterUpdateRoutes(api)

	commentHandler := handlers.NewCommentHandler(commentRepo, updateRepo, profileRepo, groupRepo, notifier, recorder, logger)
	commentHandler.RegisterCommentRoutes(api)

	reactionHandler := handlers.NewReactionHandler(reactionRepo, updateRepo, groupRepo, recorder, logger)
	reactionHandler.RegisterReactionRoutes(api)

	friendshipHandler := handlers.NewFriendshipHandler(
		friendshipRepo, invitationRepo, profileRepo, feedRepo, summaryRepo, nudgeRepo, updateRepo,
		generator, notifier, recorder, logger,
		cfg.MaxCombinedFriends, cfg.InvitationTTL, cfg.NudgeCooldown)
	friendshipHandler.RegisterFriendshipRoutes(api)

	groupHandler := handlers.NewGroupHandler(groupRepo, profileRepo, logger)
	groupHandler.RegisterGroupRoutes(api)

	logger.Info("all routes configured")
	return nil
}
