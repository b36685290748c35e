package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fashionmart/fashionmart-backend/api/routes"
	"github.com/fashionmart/fashionmart-backend/internal/categories"
	"github.com/fashionmart/fashionmart-backend/internal/designs"
	"github.com/fashionmart/fashionmart-backend/internal/notifications"
	"github.com/fashionmart/fashionmart-backend/internal/orders"
	"github.com/fashionmart/fashionmart-backend/internal/payments"
	"github.com/fashionmart/fashionmart-backend/internal/products"
	"github.com/fashionmart/fashionmart-backend/internal/reports"
	"github.com/fashionmart/fashionmart-backend/internal/returns"
	"github.com/fashionmart/fashionmart-backend/internal/stock"
	"github.com/fashionmart/fashionmart-backend/internal/users"
	"github.com/fashionmart/fashionmart-backend/pkg/config"
	"github.com/fashionmart/fashionmart-backend/pkg/db"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/mailer"
	"github.com/fashionmart/fashionmart-backend/pkg/metrics"
	"github.com/fashionmart/fashionmart-backend/pkg/migrate"
	"github.com/fashionmart/fashionmart-backend/pkg/outbox"
	"github.com/fashionmart/fashionmart-backend/pkg/redis"
	"github.com/fashionmart/fashionmart-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	// Email is best effort: a misconfigured SMTP host degrades to no mail
	// rather than blocking startup.
	var sender mailer.Sender
	if m, mailErr := mailer.New(cfg.SMTP, logg); mailErr != nil {
		logg.Warn(context.Background(), "mailer disabled: "+mailErr.Error())
	} else {
		sender = m
	}

	promRegistry := prometheus.NewRegistry()
	backofficeMetrics := metrics.NewBackofficeMetrics(promRegistry)

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	notifRepo := notifications.NewRepository(conn)
	notifier := notifications.NewNotifier(notifRepo, logg)

	notificationsSvc, err := notifications.NewService(notifRepo)
	fatalOn(logg, err, "notifications service")

	usersSvc, err := users.NewService(users.NewRepository(conn))
	fatalOn(logg, err, "users service")

	stockRepo := stock.NewRepository(conn)
	stockSvc, err := stock.NewService(stockRepo, usersSvc, notifier, backofficeMetrics, logg)
	fatalOn(logg, err, "stock service")

	categoriesSvc, err := categories.NewService(categories.NewRepository(conn))
	fatalOn(logg, err, "categories service")

	designsSvc, err := designs.NewService(designs.NewRepository(conn), notifier, logg)
	fatalOn(logg, err, "designs service")

	productsSvc, err := products.NewService(dbClient, products.NewRepository(conn), stockRepo, designsSvc, logg)
	fatalOn(logg, err, "products service")

	ordersSvc, err := orders.NewService(orders.NewRepository(conn), dbClient, stockSvc, outboxSvc, notifier, usersSvc, sender, backofficeMetrics, cfg.Returns, logg)
	fatalOn(logg, err, "orders service")

	paymentsSvc, err := payments.NewService(payments.NewRepository(conn), dbClient, stripeClient, ordersSvc, outboxSvc, notifier, usersSvc, sender, backofficeMetrics, logg)
	fatalOn(logg, err, "payments service")

	returnsSvc, err := returns.NewService(returns.NewRepository(conn), dbClient, ordersSvc, stockSvc, paymentsSvc, outboxSvc, notifier, usersSvc, sender, backofficeMetrics, logg)
	fatalOn(logg, err, "returns service")

	reportsSvc, err := reports.NewService(reports.NewRepository(conn), ordersSvc, logg)
	fatalOn(logg, err, "reports service")

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, redisClient, promRegistry, routes.Services{
			Users:         usersSvc,
			Products:      productsSvc,
			Stock:         stockSvc,
			Categories:    categoriesSvc,
			Designs:       designsSvc,
			Orders:        ordersSvc,
			Payments:      paymentsSvc,
			Returns:       returnsSvc,
			Notifications: notificationsSvc,
			Reports:       reportsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatalOn(logg *logger.Logger, err error, what string) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
