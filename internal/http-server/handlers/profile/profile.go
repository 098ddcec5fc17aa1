// Package profile содержит обработчики чтения и изменения профиля пользователя.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// UpdateRequest тело запроса изменения профиля.
type UpdateRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ProfileProvider описывает используемую часть сервиса аутентификации.
type ProfileProvider interface {
	Profile(ctx context.Context, userUID string) (*models.User, error)
	UpdateEmail(ctx context.Context, userUID, email string) error
}

// New
// @Summary Профиль текущего пользователя
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Данные профиля"
// @Failure 401 {object} response.Response "Нет или невалидный токен"
// @Router /users/profile [get]
func New(log *slog.Logger, provider ProfileProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profile.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userUID := mware.UserUID(r.Context())
		user, err := provider.Profile(r.Context(), userUID)
		if err != nil {
			log.Error("failed to load profile", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load profile"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"uid":                 user.UID,
			"email":               user.Email,
			"role":                user.Role,
			"subscription_active": user.IsEntitled(time.Now().UTC()),
			"subscription_expires_at": func() any {
				if user.SubscriptionExpireAt == nil {
					return nil
				}
				return user.SubscriptionExpireAt.Format(time.RFC3339)
			}(),
			"referral_code": user.ReferralCode,
			"telegram_linked": func() bool {
				return user.TelegramID != nil
			}(),
		}))
	}
}

// NewUpdate
// @Summary Изменение профиля текущего пользователя
// @Tags users
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   updateRequest body UpdateRequest true "Новые данные профиля"
// @Success 200 {object} response.Response "Профиль обновлён"
// @Failure 409 {object} response.Response "Почта уже занята"
// @Router /users/profile [put]
func NewUpdate(log *slog.Logger, provider ProfileProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profile.NewUpdate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req UpdateRequest
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
		if err := provider.UpdateEmail(r.Context(), userUID, req.Email); err != nil {
			if errors.Is(err, models.ErrEmailTaken) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("email already taken"))
				return
			}
			log.Error("failed to update profile", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update profile"))
			return
		}

		log.Info("profile updated", slog.String("user_uid", userUID))
		render.JSON(w, r, response.OK())
	}
}
