package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/greenmark/notes-service/internal/api/http"
	"github.com/greenmark/notes-service/internal/api/http/handlers"
	"github.com/greenmark/notes-service/internal/auth"
	"github.com/greenmark/notes-service/internal/config"
	"github.com/greenmark/notes-service/internal/events"
	"github.com/greenmark/notes-service/internal/observability"
	"github.com/greenmark/notes-service/internal/persistence"
	"github.com/greenmark/notes-service/internal/repository"
	"github.com/greenmark/notes-service/internal/service"
	"github.com/greenmark/notes-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewIdentityRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	statsCache := repository.NewStatsCache(redis.Client)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	verifier := auth.NewGoogleVerifier(cfg.Google.ClientID, cfg.Google.TokenInfoURL)
	validator := auth.NewSessionValidator(tokenManager, userRepo)
	authMiddleware := auth.NewAuthMiddleware(validator, logger)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	identityService := service.NewIdentityService(service.IdentityDependencies{
		UserRepo: userRepo,
		Verifier: verifier,
		Tokens:   tokenManager,
	})
	noteService := service.NewNoteService(service.NoteDependencies{
		NoteRepo:   noteRepo,
		StatsCache: statsCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	loginLimiter := httptransport.NewLoginRateLimiter(cfg.RateLimit)
	defer loginLimiter.Stop()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(identityService, metrics),
		Notes:          handlers.NewNotesHandler(noteService),
		AuthMiddleware: authMiddleware,
		LoginLimiter:   loginLimiter,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
