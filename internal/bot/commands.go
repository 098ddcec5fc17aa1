package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// start приветствует пользователя. Диплинк /start ref_<code> переносит
// реферальный код в ссылку регистрации на сайте, сама привязка происходит
// при регистрации аккаунта.
func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := ctx.EffectiveUser.Id

	registerURL := t.siteURL + "/register"
	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) > 1 && strings.HasPrefix(args[1], "ref_") {
		code := strings.TrimPrefix(args[1], "ref_")
		registerURL = fmt.Sprintf("%s/register?ref=%s", t.siteURL, code)
	}

	text := "Добро пожаловать в VPN Storefront!\n\n" +
		"Здесь можно получить пробный ключ на 24 часа, посмотреть тарифы " +
		"и ключи привязанного аккаунта.\n\n" +
		"Команды:\n" +
		"/trial — пробный ключ\n" +
		"/plans — тарифы\n" +
		"/keys — мои ключи\n" +
		"/help — справка\n\n" +
		"Регистрация на сайте: " + registerURL
	t.plainResponse(chatID, text)
	return nil
}

// trial показывает клавиатуру выбора категории пробного ключа.
func (t *TgBot) trial(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := ctx.EffectiveUser.Id
	_, err := t.api.SendMessage(chatID, "Выберите категорию пробного ключа:", &tgbotapi.SendMessageOpts{
		ReplyMarkup: buildTrialKeyboard(),
	})
	if err != nil {
		t.reportError(chatID, "/trial", err)
	}
	return nil
}

// plans показывает тарифы с кнопками оформления.
func (t *TgBot) plans(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := ctx.EffectiveUser.Id

	var b strings.Builder
	b.WriteString("Тарифы VPN:\n\n")
	for _, p := range models.PlanList() {
		b.WriteString(fmt.Sprintf("%s — %.0f %s / %d дней, до %d ключей\n",
			p.Name, p.Price, p.Currency, p.DurationDays, p.KeyLimit))
	}

	_, err := t.api.SendMessage(chatID, b.String(), &tgbotapi.SendMessageOpts{
		ReplyMarkup: buildPlansKeyboard(),
	})
	if err != nil {
		t.reportError(chatID, "/plans", err)
	}
	return nil
}

// keysCmd показывает ключи аккаунта, привязанного к этому Telegram.
func (t *TgBot) keysCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := ctx.EffectiveUser.Id

	reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := t.accounts.FindByTelegram(reqCtx, chatID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			t.plainResponse(chatID, "Telegram не привязан к аккаунту. Привяжите его в профиле на сайте: "+t.siteURL)
			return nil
		}
		t.reportError(chatID, "/keys", err)
		return nil
	}

	keys, err := t.keys.List(reqCtx, user.UID)
	if err != nil {
		t.reportError(chatID, "/keys", err)
		return nil
	}
	if len(keys) == 0 {
		t.plainResponse(chatID, "У вас пока нет VPN-ключей. Оформите тариф: /plans")
		return nil
	}

	var b strings.Builder
	b.WriteString("Ваши VPN-ключи:\n\n")
	for _, k := range keys {
		status := "активен"
		if !k.Active {
			status = "отключён"
		}
		expires := "—"
		if k.ExpiresAt != nil {
			expires = k.ExpiresAt.Format("02.01.2006")
		}
		b.WriteString(fmt.Sprintf("%s (%s), %s, до %s\n", k.Key, k.ServerLocation, status, expires))
	}
	t.plainResponse(chatID, b.String())
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	t.plainResponse(ctx.EffectiveUser.Id,
		"/trial — пробный ключ на 24 часа\n"+
			"/plans — тарифы и оформление подписки\n"+
			"/keys — ключи привязанного аккаунта\n\n"+
			"Оплата и управление подпиской: "+t.siteURL)
	return nil
}
