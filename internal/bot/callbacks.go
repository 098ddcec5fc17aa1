package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Префиксы callback-данных inline-кнопок. Telegram ограничивает
// callback data 64 байтами, поэтому префиксы короткие.
const (
	cbTrial = "tr:" // tr:<категория>
	cbPlan  = "pl:" // pl:<тариф>
)

// trialCategories категории пробных ключей, предлагаемые ботом.
var trialCategories = []string{"стриминг", "соцсети", "игры", "общий"}

func buildTrialKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range trialCategories {
		row = append(row, tgbotapi.InlineKeyboardButton{
			Text:         c,
			CallbackData: cbTrial + c,
		})
	}
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{row},
	}
}

func buildPlansKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range models.PlanList() {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{{
			Text:         fmt.Sprintf("Оформить %s", p.Name),
			CallbackData: cbPlan + p.ID,
		}})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// onTrialCallback выдаёт пробный ключ выбранной категории.
func (t *TgBot) onTrialCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cb := ctx.Update.CallbackQuery
	chatID := cb.From.Id
	category := strings.TrimPrefix(cb.Data, cbTrial)

	_, _ = cb.Answer(t.api, nil)

	key := t.keys.IssueTrial(category)
	text := fmt.Sprintf("Пробный ключ (%s), действует до %s:\n\n%s",
		key.Category, key.ExpiresAt.Format("02.01.2006 15:04"), key.Config)
	t.plainResponse(chatID, text)
	return nil
}

// onPlanCallback отправляет ссылку на оформление выбранного тарифа.
func (t *TgBot) onPlanCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cb := ctx.Update.CallbackQuery
	chatID := cb.From.Id
	planID := strings.TrimPrefix(cb.Data, cbPlan)

	_, _ = cb.Answer(t.api, nil)

	plan, ok := models.PlanByID(planID)
	if !ok {
		t.plainResponse(chatID, "Неизвестный тариф.")
		return nil
	}

	text := fmt.Sprintf("Тариф %s: %.0f %s за %d дней.\n\nОформление и оплата: %s/payments?plan=%s",
		plan.Name, plan.Price, plan.Currency, plan.DurationDays, t.siteURL, plan.ID)
	t.plainResponse(chatID, text)
	return nil
}
