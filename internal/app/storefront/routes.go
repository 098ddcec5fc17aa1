// Package storefront предоставляет маршруты HTTP-приложения.
package storefront

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/adminkeys"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/adminoverride"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/adminstats"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/adminusers"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/createkey"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/createpayment"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/keyconfig"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/linktelegram"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/listkeys"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/listpayments"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/locations"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/login"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/paymentwebhook"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/plans"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/profile"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/readkey"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/referralinfo"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/register"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/removekey"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/handlers/usage"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/vpn-storefront/internal/services/payment"
	subscriptionservice "github.com/magabrotheeeer/vpn-storefront/internal/services/subscription"
	vpnkeyservice "github.com/magabrotheeeer/vpn-storefront/internal/services/vpnkey"
	"github.com/magabrotheeeer/vpn-storefront/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	authService *authservice.AuthService,
	subscriptionService *subscriptionservice.SubscriptionService,
	keyService *vpnkeyservice.KeyService,
	paymentService *paymentservice.PaymentService,
	db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(20, 40)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(mware.JWTMiddleware(jwtMaker, logger))
			r.Use(mware.RateLimitMiddleware(limiter, logger))

			r.Get("/users/profile", profile.New(logger, authService).ServeHTTP)
			r.Put("/users/profile", profile.NewUpdate(logger, authService).ServeHTTP)
			r.Get("/users/referrals", referralinfo.New(logger, authService).ServeHTTP)
			r.Post("/users/telegram", linktelegram.New(logger, authService).ServeHTTP)

			r.Post("/vpn/keys", createkey.New(logger, keyService).ServeHTTP)
			r.Get("/vpn/keys", listkeys.New(logger, keyService).ServeHTTP)
			r.Get("/vpn/keys/{id}", readkey.New(logger, keyService).ServeHTTP)
			r.Delete("/vpn/keys/{id}", removekey.New(logger, keyService).ServeHTTP)
			r.Get("/vpn/keys/{id}/usage", usage.New(logger, keyService).ServeHTTP)
			r.Post("/vpn/usage", usage.NewRecord(logger, keyService).ServeHTTP)
			r.Get("/vpn/config/{key}", keyconfig.New(logger, keyService).ServeHTTP)
			r.Get("/vpn/locations", locations.New(logger, keyService).ServeHTTP)

			r.Get("/payments/plans", plans.New(logger).ServeHTTP)
			r.Post("/payments", createpayment.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/list", listpayments.New(logger, paymentService).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(mware.AdminOnly(logger))
				r.Get("/admin/stats", adminstats.New(logger, db).ServeHTTP)
				r.Get("/admin/users", adminusers.New(logger, db).ServeHTTP)
				r.Get("/admin/vpn-keys", adminkeys.New(logger, db).ServeHTTP)
				r.Put("/admin/users/{id}/subscription", adminoverride.New(logger, subscriptionService).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации, подпись проверяется в сервисе)
		r.Post("/payments/webhook", paymentwebhook.New(logger, paymentService).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
