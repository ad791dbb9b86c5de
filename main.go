package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appCheckout "github.com/arzanshop/checkout/internal/application/checkout"
	appWallet "github.com/arzanshop/checkout/internal/application/wallet"
	domainOrder "github.com/arzanshop/checkout/internal/domain/order"
	domainWallet "github.com/arzanshop/checkout/internal/domain/wallet"
	httptransport "github.com/arzanshop/checkout/internal/infrastructure/http"
	"github.com/arzanshop/checkout/internal/infrastructure/id"
	"github.com/arzanshop/checkout/internal/infrastructure/memory"
	"github.com/arzanshop/checkout/internal/infrastructure/notify"
	"github.com/arzanshop/checkout/internal/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "checkout-engine")
	env := getenvDefault("ENV", "dev")
	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	actionCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_actions_total",
			Help: "Total number of checkout entry point invocations.",
		},
		[]string{"action", "outcome"},
	)
	actionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_action_duration_seconds",
			Help:    "Duration of checkout entry point execution in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	notifyFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_notify_failures_total",
			Help: "Count of failed admin notification deliveries.",
		},
		[]string{"recipient"},
	)
	prometheus.MustRegister(actionCounter, actionDuration, notifyFailures)

	orderRepo := memory.NewOrderRepository()
	userRepo := memory.NewUserRepository()
	sessionRepo := memory.NewSessionRepository()
	validator := memory.NewDiscountValidator(orderRepo,
		memory.DiscountCode{Code: "SAVE10", Title: "Welcome discount", Amount: 5000, MaxUses: 100},
	)

	var recipients []notify.Recipient
	for _, name := range strings.Split(getenvDefault("ADMIN_CHANNELS", "ops"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			recipients = append(recipients, notify.NewLogRecipient(name, baseLogger))
		}
	}
	notifier := notify.NewAdminNotifier(baseLogger, notifyFailures, recipients...)

	ledger := appWallet.NewLedger(userRepo, id.NewUUIDGenerator())
	checkoutService := appCheckout.NewService(
		orderRepo, sessionRepo, userRepo, ledger, validator,
		userRepo, orderRepo, notifier,
		appCheckout.Metrics{Actions: actionCounter, Durations: actionDuration},
	)

	if os.Getenv("DEMO_SEED") != "" {
		seedDemo(orderRepo, userRepo, baseLogger)
	}

	handler := httptransport.NewHandler(checkoutService)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    getenvDefault("HTTP_ADDR", ":8080"),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}

// seedDemo loads a verified account and a payable order so the HTTP surface
// can be exercised without the external order-creation flow.
func seedDemo(orders *memory.OrderRepository, users *memory.UserRepository, logger *zap.Logger) {
	_ = users.PutAccount(&domainWallet.Account{UserID: 1001, Balance: 150000, ContactVerified: true})
	if o, err := domainOrder.New(42, 1001, domainOrder.CategorySubscription, "plus", 100000); err == nil {
		_ = orders.Insert(context.Background(), o)
	}
	logger.Info("demo_seeded", zap.Int64("user_id", 1001), zap.Int64("order_id", 42))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
