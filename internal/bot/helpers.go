package bot

import (
	"log/slog"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
)

// plainResponse отправляет текстовое сообщение без разметки.
func (t *TgBot) plainResponse(chatID int64, text string) {
	_, err := t.api.SendMessage(chatID, text, nil)
	if err != nil {
		t.log.Error("sending message", slog.Int64("chat_id", chatID), sl.Err(err))
	}
}

// reportError логирует ошибку и сообщает пользователю о сбое.
func (t *TgBot) reportError(chatID int64, op string, err error) {
	t.log.Error("bot command failed", slog.String("op", op), sl.Err(err))
	t.plainResponse(chatID, "Что-то пошло не так, попробуйте позже.")
}
