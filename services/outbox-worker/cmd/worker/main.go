package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpx "superfoods-store/services/outbox-worker/internal/http"
	"superfoods-store/services/outbox-worker/internal/outbox"
	"superfoods-store/shared/pkg/config"
	"superfoods-store/shared/pkg/db"
	"superfoods-store/shared/pkg/logger"
	"superfoods-store/shared/pkg/rabbit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("outbox-worker", cfg.Common.LogLevel)

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

	pub := rabbit.NewPublisher(rc.Ch, rabbit.ExchangeEvents)
	pub.AppID = "outbox-worker"

	store := &outbox.PG{DB: pool}
	runner := &outbox.Runner{
		Log:          log,
		Store:        store,
		Pub:          pub,
		PollInterval: 500 * time.Millisecond,
		BatchSize:    50,
		MaxAttempts:  10,
		BackoffMax:   60 * time.Second,
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(appCtx)

	httpSrv := &http.Server{
		Addr:              cfg.OutboxHTTP.Addr,
		Handler:           (&httpx.Server{Outbox: store}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("http started")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Str("exchange", rabbit.ExchangeEvents).Msg("outbox-worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case amqpErr := <-rc.Closed():
		log.Error().Interface("reason", amqpErr).Msg("rabbit connection lost")
	}

	log.Info().Msg("shutdown...")
	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = httpSrv.Shutdown(shCtx)
}
