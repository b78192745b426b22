package main

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/HSouheill/marketplace_backend/config"
	"github.com/HSouheill/marketplace_backend/controllers"
	"github.com/HSouheill/marketplace_backend/middleware"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/routes"
	"github.com/HSouheill/marketplace_backend/services"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/HSouheill/marketplace_backend/websocket"
)

func main() {
	cfg := config.MustLoad()
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ensure correct MIME type for receipt images served from local storage
	_ = mime.AddExtensionType(".jpg", "image/jpeg")

	var app *firebase.App
	if cfg.NeedsFirebase() {
		var err error
		app, err = config.InitFirebase(ctx, cfg.Firebase, logger)
		if err != nil {
			logger.WithError(err).Fatal("Firebase initialization failed")
		}
	}

	store := openStore(cfg, logger)

	// Redis is optional; without it platform stats fall back to an in-process cache
	var statsCache services.StatsCache
	redisClient := config.ConnectRedis(cfg.Redis, logger)
	if redisClient != nil {
		statsCache = services.NewRedisStatsCache(redisClient)
	}

	var events services.EventPublisher = services.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		events = services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.WithField("topic", cfg.Kafka.Topic).Info("Publishing ledger events to Kafka")
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	deps := services.Deps{
		Store:  store,
		Logger: logger,
		Retry: utils.RetryPolicy{
			MaxAttempts: cfg.Ledger.RetryMaxAttempts,
			BaseDelay:   cfg.Ledger.RetryBaseDelay,
			MaxDelay:    cfg.Ledger.RetryMaxDelay,
		},
		Location: utils.LoadLocation(cfg.Ledger.RevenueTimezone),
		Events:   events,
		Notifier: buildNotifier(ctx, cfg, app, store, wsHub, logger),
	}

	commissionService := services.NewCommissionService(deps, cfg.Ledger.CommissionRate)
	receiptService := services.NewReceiptService(deps, buildObjectStorage(ctx, cfg, app, logger), commissionService)

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = controllers.NewValidator()

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Middleware
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(cfg.CORS.AllowedOrigins)))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: cfg.CORS.AllowedOrigins,
	}))
	e.Use(echoMiddleware.BodyLimit("12M"))
	e.Use(middleware.RequireContentType())

	routes.SetupRoutes(e, middleware.Authenticate(buildVerifier(ctx, cfg, app, logger), logger), routes.Handlers{
		Commission: controllers.NewCommissionController(commissionService, logger),
		Revenue: controllers.NewRevenueController(
			services.NewMonthlyRevenueService(deps),
			services.NewPlatformStatsService(deps, statsCache),
		),
		Receipt:    controllers.NewReceiptController(receiptService, logger),
		Seller:     controllers.NewSellerController(services.NewSellerManagementService(deps), logger),
		Withdrawal: controllers.NewWithdrawalController(services.NewWithdrawalService(deps), logger),
		Deposit: controllers.NewDepositController(
			services.NewDepositService(deps, commissionService),
			services.NewProfitService(deps),
			logger,
		),
		WebSocket: websocket.NewHandler(wsHub, commissionService, logger, nil),
		Files:     localFiles(cfg, logger),
	})

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP shutdown failed")
	}
	if err := events.Close(); err != nil {
		logger.WithError(err).Warn("closing event publisher failed")
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("closing store failed")
	}
}

func openStore(cfg *config.Config, logger *logrus.Logger) repositories.Store {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using the in-memory store; data is lost on restart")
		return repositories.NewMemoryStore()
	}
	client, err := config.ConnectDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("MongoDB connection failed")
	}
	return repositories.NewMongoStore(client, cfg.Mongo.DBName, logger)
}

func buildVerifier(ctx context.Context, cfg *config.Config, app *firebase.App, logger *logrus.Logger) middleware.IdentityVerifier {
	if cfg.Auth.Provider == "jwt" {
		logger.Warn("Using HS256 development tokens for authentication")
		return middleware.NewHS256Verifier(cfg.Auth.JWTSecret)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Firebase Auth initialization failed")
	}
	return middleware.NewFirebaseVerifier(client)
}

func buildObjectStorage(ctx context.Context, cfg *config.Config, app *firebase.App, logger *logrus.Logger) services.ObjectStorage {
	if cfg.Storage.Provider == "firebase" {
		storage, err := services.NewFirebaseStorage(ctx, app, cfg.Firebase.StorageBucket)
		if err != nil {
			logger.WithError(err).Fatal("Firebase Storage initialization failed")
		}
		return storage
	}
	if err := os.MkdirAll(cfg.Storage.LocalDir, 0755); err != nil {
		logger.WithError(err).Fatal("cannot create upload directory")
	}
	return services.NewLocalStorage(cfg.Storage.LocalDir)
}

func localFiles(cfg *config.Config, logger *logrus.Logger) *routes.FileServer {
	if cfg.Storage.Provider != "local" {
		return nil
	}
	return routes.NewFileServer(cfg.Storage.LocalDir, logger)
}

// buildNotifier fans out to every configured channel. In-app records and live pushes
// are always on.
func buildNotifier(ctx context.Context, cfg *config.Config, app *firebase.App, store repositories.Store, hub *websocket.Hub, logger *logrus.Logger) services.Notifier {
	notifiers := services.MultiNotifier{services.NewInAppNotifier(store), hub}
	if app != nil {
		fcm, err := services.NewFCMNotifier(ctx, app)
		if err != nil {
			logger.WithError(err).Warn("FCM disabled")
		} else {
			notifiers = append(notifiers, fcm)
		}
	}
	if cfg.SMTP.Host != "" {
		notifiers = append(notifiers, services.NewEmailNotifier(cfg.SMTP))
	}
	return notifiers
}
