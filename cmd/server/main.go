package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"craftresume-backend-go/internal/api"
	"craftresume-backend-go/internal/cache"
	"craftresume-backend-go/internal/config"
	"craftresume-backend-go/internal/core"
	"craftresume-backend-go/internal/db"
	fb "craftresume-backend-go/internal/firebase"
	"craftresume-backend-go/internal/messagequeue"
	"craftresume-backend-go/internal/middleware"
	"craftresume-backend-go/internal/policy"
	"craftresume-backend-go/internal/query"
	"craftresume-backend-go/internal/storage"
	"craftresume-backend-go/internal/upload"
)

func main() {
	// .env is for local development only.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file loaded:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := newLogger(appConfig.GinMode)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	fbApp, err := fb.NewApp(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	authClient, err := fb.NewAuthClient(initCtx, fbApp)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Auth client", zap.Error(err))
	}
	firestoreClient, err := db.NewFirestoreClient(initCtx, fbApp)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Firestore client", zap.Error(err))
	}
	defer firestoreClient.Close()

	objectStore, err := newObjectStore(initCtx, appConfig, fbApp, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	queryCache, closeCache, err := newCache(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize query cache", zap.Error(err))
	}
	defer closeCache()

	publisher, err := newPublisher(appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer publisher.Close()

	adminPolicy, err := policy.Load(appConfig.AdminPolicyFile, appConfig.AdminIDList(), zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to load admin policy", zap.Error(err))
	}

	// Repositories and services
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	templateRepo := db.NewFirestoreTemplateRepository(firestoreClient)

	queries := query.NewClient(queryCache, appConfig.QueryCacheTTL, zapLogger)
	tracker := upload.NewTracker(appConfig.UploadSessionTTL)

	resolver := core.NewSessionResolver(userRepo, zapLogger)
	profileService := core.NewProfileService(resolver, queries, zapLogger)
	uploadService := core.NewUploadService(objectStore, tracker, appConfig.UploadMaxBytes, zapLogger)
	templateService := core.NewTemplateService(core.TemplateServiceDeps{
		Templates: templateRepo,
		Store:     objectStore,
		Uploads:   tracker,
		Policy:    adminPolicy,
		Events:    publisher,
		Queries:   queries,
		Logger:    zapLogger,
	})

	// HTTP
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = appConfig.UploadMaxBytes + 1<<20
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig.ClientURL))

	authMW := middleware.NewAuthMiddleware(authClient, adminPolicy, zapLogger)
	api.SetupRoutes(router, zapLogger, authMW, profileService, templateService, uploadService)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go tracker.Run(sweepCtx, time.Minute)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", appConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}

	zapLogger.Info("Waiting for in-flight uploads")
	uploadService.Wait()
	zapLogger.Info("Server exiting")
}

func newLogger(ginMode string) (*zap.Logger, error) {
	if strings.ToLower(ginMode) == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newObjectStore(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (storage.ObjectStore, error) {
	if cfg.StorageBackend == config.StorageBackendS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		}, logger)
	}
	return storage.NewFirebaseStore(ctx, app, cfg.FirebaseStorageBucket, logger)
}

func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-memory query cache")
		return cache.NewMemoryCache(), func() {}, nil
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "craftresume:",
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { _ = rc.Close() }, nil
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (messagequeue.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set; template events are disabled")
		return messagequeue.NopPublisher{}, nil
	}
	return messagequeue.NewRabbitMQPublisher(messagequeue.RabbitMQConfig{
		URL:   cfg.RabbitMQURL,
		Queue: cfg.RabbitMQQueue,
	}, logger)
}
