// Package storefront собирает HTTP-приложение магазина VPN-подписок:
// хранилище, кеш, платёжные шлюзы, очередь уведомлений и маршруты.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/vpn-storefront/internal/cache"
	"github.com/magabrotheeeer/vpn-storefront/internal/config"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	librabbit "github.com/magabrotheeeer/vpn-storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/vpn-storefront/internal/migrations"
	"github.com/magabrotheeeer/vpn-storefront/internal/paymentprovider"
	"github.com/magabrotheeeer/vpn-storefront/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/vpn-storefront/internal/services/payment"
	referralservice "github.com/magabrotheeeer/vpn-storefront/internal/services/referral"
	subscriptionservice "github.com/magabrotheeeer/vpn-storefront/internal/services/subscription"
	vpnkeyservice "github.com/magabrotheeeer/vpn-storefront/internal/services/vpnkey"
	"github.com/magabrotheeeer/vpn-storefront/internal/storage/repository"
	"github.com/magabrotheeeer/vpn-storefront/internal/stripeclient"
)

// App HTTP-приложение магазина.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New инициализирует все зависимости и возвращает готовое приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitConnection, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
	if err != nil {
		return nil, err
	}
	queues := librabbit.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		conn.Close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	yookassaClient := paymentprovider.NewClient(cfg.YooKassa.ShopID, cfg.YooKassa.SecretKey, cfg.YooKassa.WebhookSecret)
	stripeClient := stripeclient.New(cfg.Stripe, logger)

	referralService := referralservice.NewReferralService(db, logger)
	authService := authservice.NewAuthService(db, referralService, jwtMaker, logger)
	subscriptionService := subscriptionservice.NewSubscriptionService(db, logger)
	keyService := vpnkeyservice.NewKeyService(db, db, cacheRedis, cfg.VlessServer, logger)
	notifier := paymentservice.NewAmqpNotifier(ch, "notifications", "payment")
	paymentService := paymentservice.NewPaymentService(db, yookassaClient, stripeClient,
		subscriptionService, referralService, notifier, cfg.YooKassa.ReturnURL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authService, subscriptionService,
		keyService, paymentService, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.ch.Close()
		_ = a.conn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
