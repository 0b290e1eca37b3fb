package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/artshop/gateway"
	"github.com/example/artshop/pkg/checkout"
	"github.com/example/artshop/pkg/commission"
	"github.com/example/artshop/pkg/config"
	"github.com/example/artshop/pkg/discovery"
	"github.com/example/artshop/pkg/grpc"
	"github.com/example/artshop/pkg/metrics"
	"github.com/example/artshop/pkg/notify"
	"github.com/example/artshop/pkg/payment"
	"github.com/example/artshop/pkg/repository"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title Art Shop API
// @version 1.0
// @description Cart, checkout and download API for the art print shop.
// @BasePath /
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	_ = godotenv.Load()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting art shop",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port),
		zap.Int("grpc_port", cfg.GRPC.Port))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Shop stopped with error", zap.Error(err))
	}
	logger.Info("Shop stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	db, err := repository.NewDatabase(&cfg.MySQL)
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	rdb := repository.NewRedisRepository(&cfg.Redis)
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	var audit checkout.AuditRecorder = repository.NopAuditor{}
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB, cfg.Server.Name)
		if err != nil {
			logger.Warn("MongoDB unavailable, audit log disabled", zap.Error(err))
		} else {
			defer mongoRepo.Close(context.Background())
			audit = mongoRepo
		}
	}

	// Notifications
	dispatcher, err := notify.NewDispatcher(notify.NewMailer(&cfg.Mail, logger.Named("mail")), logger.Named("notify"))
	if err != nil {
		return err
	}
	defer dispatcher.Stop()

	// Checkout
	provider := payment.NewBreakerProvider(
		payment.NewStripeProvider(&cfg.Stripe, logger.Named("stripe")),
		cfg.Breaker,
		logger.Named("breaker"),
	)
	if cfg.Stripe.WebhookSecret == "" {
		logger.Warn("Stripe webhook secret is not set, webhook deliveries will be rejected")
	}

	m := metrics.New("artshop")
	catalog := repository.NewCatalogRepository(db)
	orders := repository.NewOrderRepository(db)
	library := repository.NewLibraryRepository(db)
	carts := repository.NewCartStore(rdb, cfg.Session.TTL)
	checkoutLog := logger.Named("checkout")

	gw := gateway.NewGateway(cfg, logger.Named("gateway"), gateway.Deps{
		Catalog: catalog,
		Orders:  orders,
		Library: library,
		Carts:   carts,
		Initiator: checkout.NewInitiator(catalog, orders, provider, audit, checkout.InitiatorConfig{
			Currency:   cfg.Stripe.Currency,
			SuccessURL: cfg.Server.BaseURL + "/api/v1/checkout/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  cfg.Server.BaseURL + "/api/v1/checkout/cancel",
		}, checkoutLog),
		Reconciler: checkout.NewReconciler(orders, provider, payment.NewStripeWebhookVerifier(cfg.Stripe.WebhookSecret),
			carts, dispatcher, audit, m, checkoutLog),
		Downloads:   checkout.NewDownloadGate(catalog, library, checkoutLog),
		Commissions: commission.NewService(repository.NewCommissionRepository(db), logger.Named("commission")),
		Metrics:     m,
	})

	// Health
	health := grpc.NewHealthServer(cfg.Server.Name, map[string]grpc.Pinger{
		"mysql": func(ctx context.Context) error { return repository.PingDatabase(ctx, db) },
		"redis": rdb.Ping,
	}, cfg.GRPC.HealthInterval, logger.Named("health"))

	// Service discovery
	instance := &discovery.ServiceInstance{Name: cfg.Server.Name, Host: cfg.Server.Host, Port: cfg.Server.Port}
	var sd *discovery.ServiceDiscovery
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger.Named("discovery"))
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
			sd = nil
		} else {
			defer sd.Close()
			if err := sd.Register(ctx, instance); err != nil {
				logger.Warn("Failed to register service", zap.Error(err))
			}
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(gw.Start)
	eg.Go(func() error { return health.Serve(cfg.GRPC.Port) })
	eg.Go(func() error {
		health.Watch(ctx, cfg.Server.Name)
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if sd != nil {
			if err := sd.Deregister(shutdownCtx, instance); err != nil {
				logger.Error("Failed to deregister service", zap.Error(err))
			}
		}
		health.Stop()
		return gw.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
