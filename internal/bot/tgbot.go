// Package bot реализует Telegram-бота магазина VPN-подписок:
// выдачу пробных ключей, показ тарифов и списка ключей привязанного аккаунта.
//
//   - tgbot.go     — структура TgBot и жизненный цикл (Start/Stop)
//   - commands.go  — команды /start, /trial, /plans, /keys, /help
//   - callbacks.go — inline-клавиатуры и обработчики callback-запросов
//   - helpers.go   — отправка ответов и обработка ошибок
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// AccountProvider описывает используемую часть сервиса аутентификации.
type AccountProvider interface {
	FindByTelegram(ctx context.Context, telegramID int64) (*models.User, error)
}

// KeyProvider описывает используемую часть сервиса ключей.
type KeyProvider interface {
	IssueTrial(category string) *models.TrialKey
	List(ctx context.Context, userUID string) ([]*models.VpnKey, error)
}

// TgBot центральный объект Telegram-бота.
type TgBot struct {
	log      *slog.Logger
	api      *tgbotapi.Bot
	updater  *ext.Updater
	accounts AccountProvider
	keys     KeyProvider
	siteURL  string
}

// NewTgBot создаёт бота с токеном из конфигурации.
func NewTgBot(apiKey, siteURL string, accounts AccountProvider, keys KeyProvider, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %w", err)
	}
	return &TgBot{
		log:      log.With(slog.String("module", "tgbot")),
		api:      api,
		accounts: accounts,
		keys:     keys,
		siteURL:  siteURL,
	}, nil
}

// Start регистрирует обработчики и запускает long polling. Блокируется
// до вызова Stop.
func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("trial", t.trial))
	dispatcher.AddHandler(handlers.NewCommand("plans", t.plans))
	dispatcher.AddHandler(handlers.NewCommand("keys", t.keysCmd))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbTrial), t.onTrialCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbPlan), t.onPlanCallback))

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

// Stop останавливает получение обновлений.
func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}
