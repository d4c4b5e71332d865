package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"github.com/vaibhav1874/TrueVail/internal/audit"
	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/models"
)

func main() {
	// Setup panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(map[string]interface{}{
				"panic":       r,
				"stack_trace": logger.GetStackTrace(0),
			}).Fatal("Worker application panicked")
		}
	}()

	logger.Log.Info("Starting TrueVail audit worker")

	cfg, err := config.Load()
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "config_load",
		})
		logger.Log.WithError(err).Fatal("Failed to load worker configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Log.WithField("log_level", cfg.LogLevel).Info("Worker configuration loaded")

	if !cfg.KafkaEnabled() {
		logger.Log.Fatal("KAFKA_BROKERS is empty, the audit worker has nothing to consume")
	}
	if !cfg.HistoryEnabled() {
		logger.Log.Fatal("DATABASE_URL is empty, the audit worker has nowhere to write")
	}

	db := mustOpenDatabase(cfg.DatabaseURL)

	consumer := audit.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, audit.NewStoreSink(db))
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close Kafka consumer")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Log.WithField("signal", sig.String()).Info("Shutdown signal received, stopping worker")
		cancel()
	}()

	logger.Log.WithFields(map[string]interface{}{
		"kafka_brokers": cfg.KafkaBrokers,
		"topic":         cfg.KafkaTopic,
		"group_id":      cfg.KafkaGroupID,
	}).Info("Worker ready to persist audit records")

	if err := consumer.Run(ctx); err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "consumer_run",
		})
		logger.Log.WithError(err).Error("Worker stopped with error")
		return
	}

	logger.Log.Info("Worker stopped")
}

func mustOpenDatabase(dsn string) *gorm.DB {
	logger.Log.WithField("database_url", maskDatabaseURL(dsn)).Info("Worker connecting to database")

	db, err := models.Open(dsn)
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation":    "database_connect",
			"database_url": maskDatabaseURL(dsn),
		})
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to get database SQL instance")
	}
	if err := sqlDB.Ping(); err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "database_ping",
		})
		logger.Log.WithError(err).Fatal("Failed to ping database")
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate database")
	}
	logger.Log.Info("Worker database connection established")
	return db
}

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
