package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizledger/internal/config"
	"bizledger/internal/handler"
	"bizledger/internal/infrastructure/cache"
	"bizledger/internal/infrastructure/database"
	"bizledger/internal/infrastructure/lock"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/infrastructure/mq"
	"bizledger/internal/job"
	"bizledger/internal/service"
	"bizledger/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the yaml config file")
	workerID := flag.Int64("worker-id", 1, "snowflake worker id, unique per instance")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Log.Level)

	decimal.MarshalJSONWithoutQuotes = true

	if err := idgen.Init(*workerID); err != nil {
		log.WithError(err).Fatal("init id generator")
	}

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	// Redis is optional: without it balances are not cached and the outbox
	// sender runs unlocked.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewClient(&cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, running without cache")
		} else {
			defer redisClient.Close()
		}
	}

	svc := service.New(db, cache.NewStore(redisClient), cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(&cfg.Kafka)
		if err != nil {
			log.WithError(err).Warn("kafka unavailable, ledger events stay pending")
		} else {
			defer producer.Close()

			var locker job.Locker
			if redisClient != nil {
				locker = lock.NewOutboxLock(redisClient, uuid.NewString(), 30*time.Second)
			}
			sender := job.NewOutboxSender(db, producer, locker, &cfg.Business, log)
			go sender.Start(ctx)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.SetupRouter(svc, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	// in-flight ledger transactions run to completion or their own timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Tx.Timeout+5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
