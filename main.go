package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"medibot/config"
	"medibot/consumer"
	"medibot/handlers"
	"medibot/middleware"
	"medibot/models"
	"medibot/monitoring"
	"medibot/utils"
)

func main() {
	logger := log.New(os.Stdout, "MEDIBOT: ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.SentryDSN != "" {
		if err := utils.InitSentry(cfg.SentryDSN, cfg.AppEnv, cfg.AppVersion); err != nil {
			logger.Printf("Sentry disabled: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	monitoring.Init()

	var (
		store models.AppointmentStore
		db    handlers.Pinger
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		repo, err := models.NewPostgresRepository(cfg.DB.DSN())
		if err != nil {
			logger.Fatalf("Failed to initialize postgres store: %v", err)
		}
		store, db = repo, repo
	default:
		store = models.NewMemoryStore()
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("Error closing store: %v", err)
		}
	}()

	var redisClient utils.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = utils.ConnectRedis(cfg.RedisHost, cfg.RedisPassword, 5, 3*time.Second, logger.Printf)
		if err != nil {
			logger.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Printf("Error closing Redis connection: %v", err)
			}
		}()
	}

	var esClient utils.ElasticsearchClient
	if cfg.ElasticsearchURL != "" {
		esClient, err = utils.NewElasticsearchClient(cfg.ElasticsearchURL)
		if err != nil {
			logger.Printf("Elasticsearch disabled: %v", err)
			esClient = nil
		} else {
			defer esClient.Close()
		}
	}

	var producer utils.KafkaProducer
	if cfg.KafkaBroker != "" {
		producer, err = utils.NewKafkaProducer(cfg.KafkaBroker)
		if err != nil {
			logger.Printf("Kafka publishing disabled: %v", err)
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if producer != nil && (redisClient != nil || esClient != nil) {
		appointmentConsumer := consumer.NewAppointmentConsumer(cfg.KafkaBroker, redisClient, esClient, logger)
		appointmentConsumer.Start(ctx)
		defer appointmentConsumer.Stop()
	}

	templates, err := handlers.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		logger.Printf("Serving plain-text pages: %v", err)
	}

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORS(cfg.CORSOrigins),
		middleware.SentryMiddleware(),
		middleware.ErrorHandler(),
		middleware.PrometheusMetrics(),
	)

	appointments := handlers.NewAppointmentHandler(store, producer, redisClient, esClient, logger)
	handlers.RegisterRoutes(router, handlers.Routes{
		Appointments: appointments,
		Pages:        handlers.NewPageHandler(templates, store, cfg.UploadDir, logger),
		Health:       handlers.NewHealthHandler(redisClient, db),
		StaticDir:    cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Printf("Server is running on port %s (store: %s)", cfg.Port, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Server shutdown error: %v", err)
	}
	// Flush booking events before the deferred producer.Close runs.
	appointments.Wait()
}
