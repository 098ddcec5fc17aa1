// Package linktelegram содержит обработчик привязки Telegram-аккаунта.
package linktelegram

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// LinkRequest тело запроса привязки Telegram.
type LinkRequest struct {
	TelegramID int64 `json:"telegram_id" validate:"required"`
}

// Linker описывает используемую часть сервиса аутентификации.
type Linker interface {
	LinkTelegram(ctx context.Context, userUID string, telegramID int64) error
}

// New
// @Summary Привязка Telegram-аккаунта к пользователю
// @Tags users
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   linkRequest body LinkRequest true "Идентификатор Telegram"
// @Success 200 {object} response.Response "Аккаунт привязан"
// @Failure 409 {object} response.Response "Аккаунт уже привязан"
// @Router /users/telegram [post]
func New(log *slog.Logger, linker Linker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.linktelegram.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req LinkRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		userUID := mware.UserUID(r.Context())
		if err := linker.LinkTelegram(r.Context(), userUID, req.TelegramID); err != nil {
			if errors.Is(err, models.ErrTelegramLinked) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("telegram account already linked"))
				return
			}
			log.Error("failed to link telegram", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to link telegram"))
			return
		}

		render.JSON(w, r, response.OK())
	}
}
