// Package bot собирает приложение Telegram-бота.
package bot

import (
	"context"
	"log/slog"

	tgbot "github.com/magabrotheeeer/vpn-storefront/internal/bot"
	"github.com/magabrotheeeer/vpn-storefront/internal/cache"
	"github.com/magabrotheeeer/vpn-storefront/internal/config"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
	referralservice "github.com/magabrotheeeer/vpn-storefront/internal/services/referral"
	vpnkeyservice "github.com/magabrotheeeer/vpn-storefront/internal/services/vpnkey"
	"github.com/magabrotheeeer/vpn-storefront/internal/storage/repository"
)

// App приложение Telegram-бота.
type App struct {
	bot    *tgbot.TgBot
	db     *repository.Storage
	logger *slog.Logger
}

// New инициализирует зависимости бота.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err := repository.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	referralService := referralservice.NewReferralService(db, logger)
	authService := authservice.NewAuthService(db, referralService, jwtMaker, logger)
	keyService := vpnkeyservice.NewKeyService(db, db, cacheRedis, cfg.VlessServer, logger)

	b, err := tgbot.NewTgBot(cfg.BotToken, cfg.SiteURL, authService, keyService, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		bot:    b,
		db:     db,
		logger: logger,
	}, nil
}

// Run запускает long polling и останавливает бота по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.bot.Stop()
		_ = a.db.DB.Close()
	}()
	return a.bot.Start()
}
