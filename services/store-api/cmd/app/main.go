package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpx "superfoods-store/services/store-api/internal/http"
	"superfoods-store/services/store-api/internal/http/handlers"
	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/services/store-api/internal/service"
	"superfoods-store/shared/pkg/auth"
	"superfoods-store/shared/pkg/cache"
	"superfoods-store/shared/pkg/config"
	"superfoods-store/shared/pkg/db"
	"superfoods-store/shared/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("store-api", cfg.Common.LogLevel)
	if err := cfg.RequireJWT(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancelDB()

	pool, err := db.Connect(ctxDB, cfg.Postgres.DSN, 30*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer pool.Close()

	if cfg.Postgres.AutoMigrate {
		applied, err := db.Migrate(ctxDB, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		log.Info().Strs("applied", applied).Msg("migrations done")
	}

	rdb := cache.New(cfg.Redis.Addr)
	defer func() { _ = rdb.Close() }()
	ctxRedis, cancelRedis := context.WithTimeout(context.Background(), 10*time.Second)
	if err := rdb.WaitReady(ctxRedis, 500*time.Millisecond); err != nil {
		// product reads fall back to Postgres; carts stay unavailable until Redis answers
		log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not ready")
	}
	cancelRedis()

	outbox := &repo.OutboxPG{}
	products := &repo.ProductsCached{
		PG:    &repo.ProductsPG{DB: pool, Outbox: outbox},
		Redis: rdb,
		TTL:   cfg.Cache.ProductTTL,
		Log:   log,
	}

	accounts := &service.AuthService{
		Users:   &repo.UsersPG{DB: pool},
		Tokens:  auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Expire),
		Revoked: &repo.RevocationsRedis{Redis: rdb},
		Log:     log,
	}
	orders := &service.OrdersService{
		Repo:     &repo.OrdersPG{DB: pool, Outbox: outbox},
		Products: products,
		Cache:    products,
		Log:      log,
	}
	carts := &service.CartService{
		Carts:    &repo.CartsRedis{Redis: rdb, TTL: cfg.Cache.CartTTL},
		Products: products,
		Orders:   orders,
		Log:      log,
	}

	router := httpx.NewRouter(&httpx.Handlers{
		Health: handlers.Health,
		Auth: &handlers.AuthHandler{
			Accounts: accounts,
			Cookie:   auth.CookieOptions{ExpireDays: cfg.JWT.CookieExpireDays, Secure: cfg.Common.Production()},
			Log:      log,
		},
		Products:   &handlers.ProductsHandler{Catalog: &service.CatalogService{Products: products}, Log: log},
		Orders:     &handlers.OrdersHandler{Orders: orders, Log: log},
		Cart:       &handlers.CartHandler{Carts: carts, Log: log},
		Sessions:   accounts,
		CORSOrigin: cfg.HTTP.CORSOrigin,
		Log:        log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Common.Env).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
