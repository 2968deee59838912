package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/viha/freshmart-api/internal/cart"
	"github.com/viha/freshmart-api/internal/catalog"
	"github.com/viha/freshmart-api/internal/config"
	"github.com/viha/freshmart-api/internal/httpx"
	kafkax "github.com/viha/freshmart-api/internal/kafka"
	"github.com/viha/freshmart-api/internal/logx"
	"github.com/viha/freshmart-api/internal/orders"
	"github.com/viha/freshmart-api/internal/postgres"
	"github.com/viha/freshmart-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(logx.Options{Service: cfg.ServiceName, Env: cfg.Env, Level: cfg.LogLevel})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Catalog: initial load; a failure keeps the store empty and the refresh
	// endpoint available.
	store := catalog.NewStore(catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout))
	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.CatalogTimeout)
	if err := store.Load(loadCtx); err != nil {
		log.Warn("initial catalog load failed", "err", err)
	}
	loadCancel()

	sessions := cart.NewSessions(&cart.Store{Redis: rdb})

	router := httpx.NewRouter()
	sh := &httpx.StorefrontHandler{
		Catalog:               store,
		Sessions:              sessions,
		Orders:                &orders.Repo{DB: db},
		Producer:              prod,
		Redis:                 rdb,
		Service:               cfg.ServiceName,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		DeliveryFee:           cfg.DeliveryFee,
	}
	sh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel()          // stop the producer loop
	prod.Close()      // close inbox -> drain & close writer
	prod.WaitClosed()
}
