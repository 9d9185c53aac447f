package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/address"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/cart"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/config"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/discount"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-order-fulfillment.git/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/logging"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/metrics"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/notify"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/postgres"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logging.New(cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, logger)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024, logger)
	pStatus.Start(ctx)

	shippingFee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		logger.Fatal("bad SHIPPING_FEE", zap.Error(err))
	}

	store := &orders.PGStore{DB: db}
	notifier := &notify.KafkaNotifier{
		Created:       pCreated,
		StatusChanged: pStatus,
		ServiceName:   cfg.ServiceName,
	}
	checkout := &orders.Service{
		Store:    store,
		Builder:  &orders.Builder{Numbers: orders.NewULIDGenerator(), ShippingFee: shippingFee},
		Cart:     &cart.Repo{DB: db},
		Address:  &address.Repo{DB: db},
		Discount: &discount.Repo{DB: db},
		Notifier: notifier,
		Log:      logger,
	}
	transition := &orders.Transitioner{
		Store:    store,
		Notifier: notifier,
		Log:      logger,
	}

	m := metrics.NewServerMetrics("api")
	router := httpx.NewRouter(m)
	(&httpx.OrdersHandler{Checkout: checkout, Transition: transition, Store: store, Redis: rdb, Log: logger}).Register(router)
	(&httpx.SellerHandler{Transition: transition, Store: store, Redis: rdb, Log: logger}).Register(router)
	(&httpx.AdminHandler{Transition: transition, Store: store, Redis: rdb, Log: logger}).Register(router)
	(&httpx.InventoryHandler{DB: db}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close() // close inbox -> flush & close writer
	pStatus.Close()
	cancel() // stop producer loops
	pCreated.WaitClosed()
	pStatus.WaitClosed()
}
