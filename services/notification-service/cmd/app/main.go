package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpx "superfoods-store/services/notification-service/internal/http"
	"superfoods-store/services/notification-service/internal/notify"
	"superfoods-store/services/notification-service/internal/repo"
	"superfoods-store/services/notification-service/internal/worker"
	"superfoods-store/shared/pkg/config"
	"superfoods-store/shared/pkg/db"
	"superfoods-store/shared/pkg/logger"
	"superfoods-store/shared/pkg/models"
	"superfoods-store/shared/pkg/rabbit"
)

const (
	service     = "notifications"
	queue       = "notifications.q"
	dlqKey      = "notifications.dlq"
	retryTTLms  = 5000
	maxAttempts = 5
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("notification-service", cfg.Common.LogLevel)

	ctxBoot, cancelBoot := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancelBoot()

	pool, err := db.Connect(ctxBoot, cfg.Postgres.DSN, 30*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer pool.Close()

	rc, err := rabbit.ConnectRetry(ctxBoot, cfg.Rabbit.URL, 30*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}

	keys := []string{models.EventOrderCreated, models.EventOrderDelivered}
	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, rabbit.QueueSpec{
		Name:     queue,
		BindKeys: keys,
		DLQ:      dlqKey,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare notification topology failed")
	}
	// retry queues dead-letter back to the events exchange under the
	// original key, so they only reach notifications.q again
	for _, rk := range keys {
		if err := rabbit.DeclareRetryQueue(rc.Ch, service+".retry."+rk, service+"."+rk, rk, retryTTLms); err != nil {
			log.Fatal().Err(err).Str("rk", rk).Msg("declare retry queue failed")
		}
	}

	deliveries, err := rc.Consume(queue, service, 20)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	retryPub := rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry)
	retryPub.AppID = service
	dlqPub := rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX)
	dlqPub.AppID = service

	w := &worker.Consumer{
		Log:         log,
		Processed:   &repo.ProcessedPG{DB: pool},
		Mailer:      notify.LogMailer{Log: log},
		RetryPub:    retryPub,
		DLQPub:      dlqPub,
		Service:     service,
		MaxAttempts: maxAttempts,
		DLQKey:      dlqKey,
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(appCtx, deliveries)

	srv := &http.Server{
		Addr:              cfg.NotificationHTTP.Addr,
		Handler:           httpx.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Str("queue", queue).Msg("notification-service started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case amqpErr := <-rc.Closed():
		log.Error().Interface("reason", amqpErr).Msg("rabbit connection lost")
	}
	log.Info().Msg("shutdown...")

	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
