package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/stroyhub-backend/internal/config"
	"github.com/ignatzorin/stroyhub-backend/internal/db"
	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/stroyhub-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/stroyhub-backend/internal/http/router"
	"github.com/ignatzorin/stroyhub-backend/internal/logger"
	"github.com/ignatzorin/stroyhub-backend/internal/repository"
	"github.com/ignatzorin/stroyhub-backend/internal/service"
	"github.com/ignatzorin/stroyhub-backend/internal/storage"
	"github.com/ignatzorin/stroyhub-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательная инфраструктура.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	bus := events.NewBus(64)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	updateRepo := repository.NewProjectUpdateRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	propertyRepo := repository.NewPropertyRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo, bus)
	requestService := service.NewRequestService(requestRepo, bus)
	lifecycleService := service.NewLifecycleService(requestRepo, updateRepo, notificationService, bus)
	conversationService := service.NewConversationService(conversationRepo, bus)
	reviewService := service.NewReviewService(reviewRepo, requestRepo)
	propertyService := service.NewPropertyService(propertyRepo, bus)
	statsService := service.NewStatsService(requestRepo, reviewRepo)
	seedService := service.NewSeedService(userRepo, requestRepo, propertyRepo)

	// Вебсокеты: хаб транслирует ленту изменений подключённым клиентам.
	hub := ws.NewHub(bus)
	goroutine.GoWithContext(ctx, "ws-hub", hub.Run)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	requestHandler := httpHandlers.NewRequestHandler(requestService, lifecycleService)
	conversationHandler := httpHandlers.NewConversationHandler(conversationService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	propertyHandler := httpHandlers.NewPropertyHandler(propertyService, photoStorage)
	statsHandler := httpHandlers.NewStatsHandler(statsService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	seedHandler := httpHandlers.NewSeedHandler(seedService)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg,
		authHandler, requestHandler, conversationHandler, notificationHandler,
		reviewHandler, propertyHandler, statsHandler, wsHandler, healthHandler,
		seedHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
