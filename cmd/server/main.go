package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/pokemarket-backend/internal/config"
	"github.com/ignatzorin/pokemarket-backend/internal/db"
	"github.com/ignatzorin/pokemarket-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/pokemarket-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/pokemarket-backend/internal/http/router"
	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/outbox"
	"github.com/ignatzorin/pokemarket-backend/internal/push"
	"github.com/ignatzorin/pokemarket-backend/internal/repository"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
	"github.com/ignatzorin/pokemarket-backend/internal/storage"
	"github.com/ignatzorin/pokemarket-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	log := logger.WithComponent("main")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("ошибка миграций: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	listingRepo := repository.NewListingRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	payoutRepo := repository.NewPayoutRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	pushRepo := repository.NewPushRepository(dbConn)
	complaintRepo := repository.NewComplaintRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)

	sender, err := push.NewSender(ctx, cfg.Push)
	if err != nil {
		log.Fatalf("не удалось настроить push: %v", err)
	}
	log.WithField("sender", sender.Kind()).Info("push sender готов")

	// Очередь фоновых задач: Redis при наличии REDIS_URL, иначе память процесса.
	var (
		queue       outbox.Queue
		queuePinger httpHandlers.Pinger
	)
	if cfg.Queue.RedisURL != "" {
		redisQueue, err := outbox.NewRedisQueue(ctx, cfg.Queue.RedisURL, cfg.Queue.RedisKey)
		if err != nil {
			log.Fatalf("не удалось подключиться к очереди: %v", err)
		}
		queue, queuePinger = redisQueue, redisQueue
	} else {
		log.Warn("REDIS_URL не задан, фоновые задачи хранятся в памяти")
		queue = outbox.NewMemoryQueue(cfg.Queue.BufferSize)
	}

	dispatcher := outbox.NewDispatcher(queue, outbox.DispatcherConfig{
		Workers:     cfg.Queue.Workers,
		MaxAttempts: cfg.Queue.MaxAttempts,
		BaseBackoff: cfg.Queue.BaseBackoff,
		MaxBackoff:  cfg.Queue.MaxBackoff,
	})

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("не удалось подготовить файловое хранилище: %v", err)
	}

	cache := service.NewCacheService()
	defer cache.Close()

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(userRepo, tokenManager)
	listingService := service.NewListingService(listingRepo)
	orderService := service.NewOrderService(orderRepo, listingRepo, userRepo, cache, dispatcher)
	payoutService := service.NewPayoutService(payoutRepo, cache, dispatcher)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, cache, dispatcher)
	reputationService := service.NewReputationService(userRepo)
	chatService := service.NewChatService(conversationRepo, userRepo, files, hub, dispatcher, cfg.Storage.MaxUploadMB)
	pushService := service.NewPushService(pushRepo, sender, cfg.Push.Concurrency)
	complaintService := service.NewComplaintService(complaintRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	reportService := service.NewReportService(reportRepo, cache, cfg.ReportsCacheTTL)

	service.RegisterTaskHandlers(dispatcher, pushService, reputationService)
	dispatcherDone := make(chan struct{})
	goroutine.SafeGo(func() {
		defer close(dispatcherDone)
		dispatcher.Run(ctx)
	})

	var seedHandler *httpHandlers.SeedHandler
	if cfg.Env != "production" {
		seedHandler = httpHandlers.NewSeedHandler(service.NewSeedService(userRepo, listingRepo))
	}

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:          httpHandlers.NewAuthHandler(authService),
		Listings:      httpHandlers.NewListingHandler(listingService),
		Orders:        httpHandlers.NewOrderHandler(orderService),
		Reviews:       httpHandlers.NewReviewHandler(reviewService),
		Conversations: httpHandlers.NewConversationHandler(chatService),
		Push:          httpHandlers.NewPushHandler(pushService),
		Payouts:       httpHandlers.NewPayoutHandler(payoutService),
		Complaints:    httpHandlers.NewComplaintHandler(complaintService),
		Reports:       httpHandlers.NewReportHandler(reportService),
		Notifications: httpHandlers.NewNotificationHandler(notificationService),
		Health:        httpHandlers.NewHealthHandler(dbConn, queuePinger),
		WS:            httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Seed:          seedHandler,
	}, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("ошибка остановки http сервера")
		}
	})

	log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("сервер завершился с ошибкой: %v", err)
	}

	<-dispatcherDone
	if err := queue.Close(); err != nil {
		log.WithError(err).Warn("ошибка закрытия очереди")
	}
	log.Info("сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.WithComponent("main").WithError(err).Error("ошибка закрытия базы")
	}
}
