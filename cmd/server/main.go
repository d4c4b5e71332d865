package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vaibhav1874/TrueVail/internal/audit"
	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/handlers"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/metrics"
	"github.com/vaibhav1874/TrueVail/internal/middleware"
	"github.com/vaibhav1874/TrueVail/internal/models"
	"github.com/vaibhav1874/TrueVail/internal/services"
)

const auditBuffer = 256

func main() {
	// Setup panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(map[string]interface{}{
				"panic":       r,
				"stack_trace": logger.GetStackTrace(0),
			}).Fatal("Application panicked")
		}
	}()

	logger.Log.Info("Starting TrueVail analysis server")

	cfg, err := config.Load()
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "config_load",
		})
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Log.WithFields(map[string]interface{}{
		"log_level": cfg.LogLevel,
		"platform":  cfg.Platform,
	}).Info("Configuration loaded successfully")

	db := openHistoryDB(cfg)
	m := metrics.New()

	recorder := newRecorder(cfg, db, m)
	defer func() {
		logger.Log.Info("Flushing audit records")
		if err := recorder.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close audit sink")
		}
	}()

	analysisService := services.NewAnalysisServiceFromConfig(cfg, m, recorder)
	go func() {
		start := time.Now()
		if err := analysisService.WarmClassifier(); err != nil {
			logger.Log.WithError(err).Warn("Statistical classifier failed to train, news will use remote and heuristic tiers")
			return
		}
		logger.Log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Statistical classifier ready")
	}()

	router := setupRouter(cfg, db, analysisService, m)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.BackendTimeout + cfg.FetchTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"port":       cfg.ServerPort,
			"health_url": "http://localhost:" + cfg.ServerPort + "/health",
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogErrorWithStack(err, map[string]interface{}{
				"operation": "server_listen",
				"port":      cfg.ServerPort,
			})
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Log.Info("Shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Server gracefully stopped")
}

// openHistoryDB connects and migrates the history database. A failure disables history instead of aborting.
func openHistoryDB(cfg *config.Config) *gorm.DB {
	if !cfg.HistoryEnabled() {
		logger.Log.Info("DATABASE_URL is empty, analysis history disabled")
		return nil
	}

	logger.Log.WithFields(map[string]interface{}{
		"database_url": maskDatabaseURL(cfg.DatabaseURL),
		"driver":       models.Driver(cfg.DatabaseURL),
	}).Info("Connecting to database")

	db, err := connectAndMigrate(cfg.DatabaseURL)
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation":    "database_setup",
			"database_url": maskDatabaseURL(cfg.DatabaseURL),
		})
		logger.Log.WithError(err).Warn("Database unavailable, analysis history disabled")
		return nil
	}

	logger.Log.Info("Database connected and migrated")
	return db
}

func connectAndMigrate(dsn string) (*gorm.DB, error) {
	db, err := models.Open(dsn)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database SQL instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// newRecorder streams audit records to Kafka when brokers are configured, else straight to the database
func newRecorder(cfg *config.Config, db *gorm.DB, m *metrics.Metrics) *audit.AsyncRecorder {
	var sinks audit.MultiSink
	switch {
	case cfg.KafkaEnabled():
		logger.Log.WithFields(map[string]interface{}{
			"kafka_brokers": cfg.KafkaBrokers,
			"topic":         cfg.KafkaTopic,
		}).Info("Publishing audit records to Kafka")
		sinks = append(sinks, audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic))
	case db != nil:
		logger.Log.Info("Writing audit records directly to the database")
		sinks = append(sinks, audit.NewStoreSink(db))
	default:
		logger.Log.Info("No audit sink configured, records are discarded")
	}
	return audit.NewAsyncRecorder(sinks, auditBuffer, m)
}

// maskDatabaseURL hides credentials in a database URL for logging
func maskDatabaseURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return dbURL
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***masked***")
	}
	return u.String()
}

func setupRouter(cfg *config.Config, db *gorm.DB, analysisService services.AnalysisServiceInterface, m *metrics.Metrics) *gin.Engine {
	if cfg.LogLevel == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = handlers.DefaultMaxUploadBytes

	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())

	backendName := string(cfg.Platform)
	health := handlers.NewHealthHandler(db, backendName)
	router.GET("/", health.Home)
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	analysisHandler := handlers.NewAnalysisHandler(analysisService, handlers.DefaultMaxUploadBytes)
	router.POST("/analyze", analysisHandler.Analyze)

	api := router.Group("/api")
	{
		api.POST("/analyze", analysisHandler.Analyze)

		if db != nil {
			historyHandler := handlers.NewHistoryHandler(services.NewHistoryService(db))
			history := api.Group("/history")
			{
				history.GET("", historyHandler.ListRecords)
				history.GET("/:id", historyHandler.GetRecord)
			}
		}
	}

	return router
}
