package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appcheckout "github.com/Barrister1990/agrilink-sub000/internal/application/checkout"
	appfulfil "github.com/Barrister1990/agrilink-sub000/internal/application/fulfillment"
	appgrowth "github.com/Barrister1990/agrilink-sub000/internal/application/growth"
	appinv "github.com/Barrister1990/agrilink-sub000/internal/application/inventory"
	apporder "github.com/Barrister1990/agrilink-sub000/internal/application/order"
	apppay "github.com/Barrister1990/agrilink-sub000/internal/application/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/config"
	domfulfil "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	dominv "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/dynamo"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/gateway"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/id"
	inventoryworker "github.com/Barrister1990/agrilink-sub000/internal/infrastructure/inventory/worker"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/memory"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/mysql"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/observability/oteltrace"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/observability/prometrics"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/observability/telemetry"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/observability/zaplogger"
	orderworker "github.com/Barrister1990/agrilink-sub000/internal/infrastructure/order/worker"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/sqs"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
	"github.com/Barrister1990/agrilink-sub000/internal/pkg/logging"
	httppresentation "github.com/Barrister1990/agrilink-sub000/internal/presentation/http"
	workerpresentation "github.com/Barrister1990/agrilink-sub000/internal/presentation/worker"
)

const devJWTSecret = "agrilink-dev-secret"

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"), nil)
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.Service.Name,
		Env:     cfg.Service.Env,
		Level:   cfg.Service.Level,
		File:    os.Getenv("LOG_FILE"),
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	logger := zaplogger.New(baseLogger)

	tel := newTelemetry(cfg.Service.Name, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := outbox.NewBus(logger, outbox.Options{
		QueueSize:      cfg.Outbox.QueueSize,
		Concurrency:    cfg.Outbox.Concurrency,
		HandlerTimeout: cfg.Outbox.HandlerTimeout,
		HandlerContext: workerpresentation.HandlerContext(logger),
	})

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		systemLogger.Fatal("storage_init_failed", zap.Error(err))
	}
	defer stores.close()

	products, err := cfg.Products()
	if err != nil {
		systemLogger.Fatal("catalog_invalid", zap.Error(err))
	}
	for _, p := range products {
		if err := stores.inventory.Save(ctx, p); err != nil {
			systemLogger.Fatal("catalog_seed_failed", zap.String("product_id", p.ID), zap.Error(err))
		}
	}

	fees, err := cfg.ShippingTable()
	if err != nil {
		systemLogger.Fatal("shipping_table_invalid", zap.Error(err))
	}

	ids := id.NewUUIDGenerator()
	processor, waiting := newProcessor(cfg.Gateway, logger)

	gw := apppay.NewGateway(processor, id.NewReferenceGenerator(cfg.Gateway.RefPrefix), tel)
	adjust := appinv.NewAdjustStockUseCase(stores.inventory, bus, tel)
	placer := apporder.NewPlaceOrderUseCase(stores.orders, fees, adjust, ids, bus, tel)
	transition := apporder.NewTransitionStatusUseCase(stores.orders, bus, tel)
	fulfillment := appfulfil.NewService(stores.groups, stores.orders, bus, tel)
	checkout := appcheckout.NewService(stores.inventory, gw, placer, fees, ids, tel)

	appfulfil.NewWorker(fulfillment, bus).Start()
	orderworker.New(stores.orders, stores.groups, transition, bus, logger).Start()
	stockWatcher := inventoryworker.New(bus, logger)
	stockWatcher.Start()

	if cfg.SQS.QueueURL != "" {
		client, err := sqs.NewClient(ctx, cfg.SQS.Region, cfg.SQS.Endpoint)
		if err != nil {
			systemLogger.Fatal("sqs_init_failed", zap.Error(err))
		}
		events := cfg.SQS.Events
		if len(events) == 0 {
			events = []string{
				domorder.OrderPlacedEvent{}.EventName(),
				domorder.OrderStatusChangedEvent{}.EventName(),
				domorder.OrderPaymentStatusChangedEvent{}.EventName(),
				domfulfil.SupplierStatusChangedEvent{}.EventName(),
			}
		}
		sqs.NewForwarder(client, cfg.SQS.QueueURL, ids, tel).Start(bus, events...)
	}

	bus.Start(ctx)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.Service.Env != "dev" {
			systemLogger.Fatal("jwt_secret_missing")
		}
		systemLogger.Warn("jwt_secret_default", zap.String("env", cfg.Service.Env))
		secret = devJWTSecret
	}
	limiter := httppresentation.NewRateLimiter(cfg.RateLimit.SubmitPerSecond, cfg.RateLimit.Burst)

	deps := httppresentation.Deps{
		Checkout:      checkout,
		Orders:        apporder.NewReader(stores.orders),
		Transition:    transition,
		Fulfillment:   fulfillment,
		Growth:        appgrowth.NewSupplierGrowthUseCase(stores.orders, tel),
		StockAlerts:   stockWatcher,
		Auth:          httppresentation.NewAuthenticator(secret, cfg.Auth.Issuer),
		SubmitLimiter: limiter,
		Metrics:       promhttp.Handler(),
	}
	if waiting != nil {
		deps.Callback = apppay.NewCallbackUseCase(waiting, tel)
		deps.PendingPayments = waiting
		if cfg.Gateway.CallbackSecret != "" {
			deps.CallbackSecret = []byte(cfg.Gateway.CallbackSecret)
		} else {
			systemLogger.Warn("callback_secret_missing", zap.String("hint", "only staff tokens can resolve payments"))
		}
	}
	handler := httppresentation.NewHandler(deps, tel)

	go sweep(ctx, cfg.Checkout, checkout, limiter)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("orders_backend", cfg.Storage.Orders),
			zap.String("inventory_backend", cfg.Storage.Inventory),
			zap.String("gateway_mode", cfg.Gateway.Mode),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
}

func newTelemetry(service string, logger observability.Logger) observability.Observability {
	reg := prometrics.New(prometheus.DefaultRegisterer, "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests:  reg.Counter(observability.MUsecaseRequests, "Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests:     reg.Counter(observability.MHTTPRequests, "Total number of HTTP requests.", "method", "route", "status"),
		observability.MExternalRequests: reg.Counter(observability.MExternalRequests, "Total number of outbound calls.", "peer", "endpoint", "outcome"),
		observability.MStockAdjustments: reg.Counter(observability.MStockAdjustments, "Stock decrements by outcome.", "outcome"),
		observability.MGatewayAttempts:  reg.Counter(observability.MGatewayAttempts, "Payment attempts by channel and outcome.", "channel", "outcome"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration:         reg.Histogram(observability.MUsecaseDuration, "Duration of use case execution in seconds.", nil, "use_case"),
		observability.MHTTPRequestDuration:     reg.Histogram(observability.MHTTPRequestDuration, "Duration of HTTP requests in seconds.", nil, "method", "route", "status"),
		observability.MExternalRequestDuration: reg.Histogram(observability.MExternalRequestDuration, "Duration of outbound calls in seconds.", nil, "peer", "endpoint"),
	}
	return telemetry.New(oteltrace.New(service), logger, counters, histograms)
}

type stores struct {
	orders    domorder.Repository
	groups    domfulfil.Repository
	inventory dominv.Repository
	db        *sql.DB
}

func (s *stores) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger observability.Logger) (*stores, error) {
	s := &stores{}
	if cfg.Storage.Orders == config.BackendMySQL || cfg.Storage.Inventory == config.BackendMySQL {
		db, err := mysql.Open(ctx, mysql.Config{
			DSN:             cfg.MySQL.DSN,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}
		s.db = db
		if cfg.MySQL.InitSchema {
			if err := mysql.InitSchema(ctx, db); err != nil {
				s.close()
				return nil, err
			}
		}
	}

	switch cfg.Storage.Orders {
	case config.BackendMySQL:
		s.orders = mysql.NewOrderRepository(s.db)
		s.groups = mysql.NewFulfillmentRepository(s.db)
	default:
		s.orders = memory.NewOrderRepository()
		s.groups = memory.NewFulfillmentRepository()
	}

	switch cfg.Storage.Inventory {
	case config.BackendMySQL:
		s.inventory = mysql.NewProductRepository(s.db)
	case config.BackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg.Dynamo.Region, cfg.Dynamo.Endpoint)
		if err != nil {
			s.close()
			return nil, err
		}
		s.inventory = dynamo.NewInventoryRepository(client, cfg.Dynamo.Table)
	default:
		s.inventory = memory.NewInventoryRepository()
	}
	return s, nil
}

// newProcessor returns the charge processor and, for the interactive mode, the gateway
// that payment callbacks resolve.
func newProcessor(cfg config.Gateway, logger observability.Logger) (dompay.Processor, *gateway.Interactive) {
	if cfg.Mode == config.GatewayInteractive {
		g := gateway.NewInteractive(cfg.Timeout, logger)
		return g, g
	}
	return gateway.NewSimulator(cfg.SuccessRate, cfg.CancelRate, cfg.Latency), nil
}

func sweep(ctx context.Context, cfg config.Checkout, checkout *appcheckout.Service, limiter *httppresentation.RateLimiter) {
	ticker := time.NewTicker(cfg.ExpireInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			checkout.Expire(now.Add(-cfg.SessionTTL))
			limiter.Sweep(now.Add(-cfg.SessionTTL))
		}
	}
}
