package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront/internal/application/commands"
	"github.com/yuzvak/storefront/internal/application/ports"
	"github.com/yuzvak/storefront/internal/config"
	"github.com/yuzvak/storefront/internal/domain/catalog"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/infrastructure/gateway/esewa"
	"github.com/yuzvak/storefront/internal/infrastructure/http/handlers"
	"github.com/yuzvak/storefront/internal/infrastructure/http/server"
	"github.com/yuzvak/storefront/internal/infrastructure/http/session"
	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront/internal/infrastructure/persistence/postgres"
	"github.com/yuzvak/storefront/internal/infrastructure/persistence/redis"
	"github.com/yuzvak/storefront/internal/infrastructure/scheduler"
	"github.com/yuzvak/storefront/internal/pkg/clock"
	"github.com/yuzvak/storefront/internal/pkg/generator"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	log := logger.NewLogger()
	log.Info("Starting storefront")

	cfg, configErr := config.LoadConfig(*configPath)
	if configErr != nil {
		log.Fatal("Failed to load configuration", "error", configErr)
	}
	log = logger.New(os.Stdout, logger.ParseLevel(cfg.Server.LogLevel))

	products := loadCatalog(cfg.Catalog, log)
	charges := loadCharges(cfg.Gateway, log)

	serverCtx, serverStopCtx := context.WithCancel(context.Background())
	defer serverStopCtx()

	var (
		ledger    ports.CheckoutLedger  = commands.NopLedger{}
		recorder  ports.PaymentRecorder = commands.NopRecorder{}
		dbPing    handlers.Pinger
		redisPing handlers.Pinger
		sweeper   *scheduler.RetentionSweeper
	)

	if cfg.Redis.Enabled {
		redisConn, err := redis.NewConnection(serverCtx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisConn.Close()

		ledger = redis.NewCheckoutLedger(redisConn, log)
		redisPing = redisConn
	}

	if cfg.Database.Enabled {
		db, err := postgres.NewConnection(serverCtx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		defer db.Close()

		if err := postgres.RunMigrations(serverCtx, db.GetDB(), cfg.Database.MigrationsPath, log); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}

		monitoring.NewDBMetricsCollector(db.GetDB()).StartCollecting(serverCtx, 30*time.Second)

		repo := postgres.NewPaymentRepository(db)
		recorder = repo
		dbPing = db
		sweeper = scheduler.NewRetentionSweeper(repo, clock.NewRealClock(), log, cfg.Database.Retention.Duration, time.Hour)
	}

	gateway := esewa.NewClient(esewa.Config{
		FormURL:      cfg.Gateway.FormURL,
		VerifyURL:    cfg.Gateway.VerifyURL,
		MerchantCode: cfg.Gateway.MerchantCode,
		Timeout:      cfg.Gateway.VerifyTimeout.Duration,
	}, log)
	signer := payment.NewSigner(cfg.Gateway.Secret)

	checkout := commands.NewCheckoutHandler(
		products,
		gateway,
		ledger,
		signer,
		generator.NewTransactionIDGenerator(cfg.Gateway.TransactionPrefix, clock.NewRealClock()),
		commands.CheckoutSettings{
			Charges:    charges,
			SuccessURL: cfg.SuccessURL(),
			FailureURL: cfg.FailureURL(),
			LedgerTTL:  cfg.Redis.LedgerTTL.Duration,
		},
		log,
	)
	verify := commands.NewVerifyPaymentHandler(gateway, ledger, recorder, clock.NewRealClock(), log)
	returns := commands.NewPaymentReturnHandler(signer, verify, log)

	sessions := handlers.NewCartSessions(session.CookieConfig{
		Name:   cfg.Cart.CookieName,
		MaxAge: cfg.Cart.MaxAge.Duration,
		Secure: strings.HasPrefix(cfg.Server.PublicBaseURL, "https://"),
	}, products, cfg.Cart.MaxQuantity, log)

	httpServer := server.NewServer(cfg.ServerAddr(), server.Handlers{
		Catalog:  handlers.NewCatalogHandler(products),
		Cart:     handlers.NewCartHandler(sessions, log),
		Checkout: handlers.NewCheckoutHandler(sessions, checkout, log),
		Payment:  handlers.NewPaymentHandler(sessions, verify, returns, log),
		Health:   handlers.NewHealthHandler(dbPing, redisPing, log),
	}, log)

	if sweeper != nil {
		go sweeper.Start(serverCtx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-sigChan

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Info("Shutting down server...")
		if sweeper != nil {
			sweeper.Stop()
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}

		serverStopCtx()
	}()

	log.Info("Server starting",
		"address", cfg.ServerAddr(),
		"merchant_code", cfg.Gateway.MerchantCode,
		"products", products.Len(),
		"redis", cfg.Redis.Enabled,
		"database", cfg.Database.Enabled,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed", "error", err)
	}

	<-shutdownDone
	log.Info("Server stopped")
}

func loadCatalog(cfg config.CatalogConfig, log *logger.Logger) *catalog.Catalog {
	if cfg.Path == "" {
		return catalog.Default()
	}
	products, err := catalog.LoadFile(cfg.Path)
	if err != nil {
		log.Fatal("Failed to load catalog", "path", cfg.Path, "error", err)
	}
	return products
}

func loadCharges(cfg config.GatewayConfig, log *logger.Logger) payment.Charges {
	parse := func(name, value string) decimal.Decimal {
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			log.Fatal("Invalid gateway charge", "field", name, "value", value)
		}
		return d
	}
	return payment.Charges{
		Delivery: parse("delivery_charge", cfg.DeliveryCharge),
		Tax:      parse("tax_amount", cfg.TaxAmount),
		Service:  parse("service_charge", cfg.ServiceCharge),
	}
}
