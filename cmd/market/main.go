package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/wieeerzbickim/community-feast/internal/cart"
	"github.com/wieeerzbickim/community-feast/internal/repository"
	"github.com/wieeerzbickim/community-feast/internal/service"
	httpTransport "github.com/wieeerzbickim/community-feast/internal/transport/http"
	"github.com/wieeerzbickim/community-feast/internal/transport/http/handler"
	kafkaTransport "github.com/wieeerzbickim/community-feast/internal/transport/kafka"
	"github.com/wieeerzbickim/community-feast/pkg/config"
	"github.com/wieeerzbickim/community-feast/pkg/db"
	"github.com/wieeerzbickim/community-feast/pkg/identity"
	"github.com/wieeerzbickim/community-feast/pkg/kafka"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"github.com/wieeerzbickim/community-feast/pkg/objstore"
	outboxRepository "github.com/wieeerzbickim/community-feast/pkg/outbox/repository"
	"github.com/wieeerzbickim/community-feast/pkg/outbox/worker"
	"github.com/wieeerzbickim/community-feast/pkg/payment"
	"github.com/wieeerzbickim/community-feast/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "market-core")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Println("Successfully created Redis connection ✅")

	loggerCfg := config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	}
	logger, err := config.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v\n", err)
		}
	}()

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	producerRepo := repository.NewProducerRepository(pool, logger)
	settingsRepo := repository.NewSettingsRepository(pool, logger, cfg.Platform.DefaultCommissionRate)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	cartStore := cart.NewStore(redisClient)
	paymentClient := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.APIKey, cfg.Payment.Timeout, logger)
	storage := objstore.NewStorage(cfg.Storage.BaseURL, cfg.Storage.PublicURL, cfg.Storage.APIKey, logger)
	verifier := identity.NewVerifier(cfg.Platform.JWTSecret)

	catalogService := service.NewCachedCatalogService(
		service.NewCatalogService(productRepo, outboxRepo, pool, logger),
		redisClient,
	)
	cartService := service.NewCartService(cartStore, productRepo, logger)
	orderService := service.NewOrderService(
		orderRepo,
		productRepo,
		settingsRepo,
		outboxRepo,
		cartStore,
		paymentClient,
		pool,
		logger,
		cfg.Payment.SuccessURL,
		cfg.Payment.CancelURL,
	)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, productRepo, producerRepo, outboxRepo, pool, logger)
	producerService := service.NewProducerService(producerRepo, productRepo, orderRepo, reviewRepo, storage, logger)
	settingsService := service.NewSettingsService(settingsRepo, logger)

	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	consumer := kafkaTransport.NewConsumer(orderService, producerService, pool, cfg.Kafka.GroupID, logger)
	go func() {
		if err := consumer.Start(ctx, cfg.Kafka.Brokers); err != nil {
			logger.Error("Kafka consumer stopped", zap.Error(err))
		}
	}()

	app := fiber.New()

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 5 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &httpTransport.Handlers{
		Catalog:  handler.NewCatalogHandler(catalogService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Review:   handler.NewReviewHandler(reviewService, logger),
		Producer: handler.NewProducerHandler(producerService, logger),
		Settings: handler.NewSettingsHandler(settingsService, logger),
	}

	httpTransport.RegisterRoutes(app, handlers, verifier)

	logger.Info("Market core started!")

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mylogger.Info(
		shutdownCtx,
		logger,
		"Shutting down market core",
	)

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := kafkaProducer.Close(); err != nil {
		log.Printf("Error closing kafka producer: %v\n", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing redis client: %v\n", err)
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(
			shutdownCtx,
			logger,
			"Failed to shut down telemetry",
			zap.Error(err),
		)
	} else {
		log.Println("Telemetry stopped correctly")
	}

	pool.Close()
}
