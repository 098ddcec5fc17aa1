// Package adminoverride содержит обработчик административного
// переопределения подписки пользователя.
package adminoverride

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// OverrideRequest тело запроса переопределения подписки.
type OverrideRequest struct {
	Active    bool   `json:"active"`
	ExpiresAt string `json:"expires_at,omitempty" validate:"omitempty"`
}

// Overrider описывает используемую часть сервиса подписок.
type Overrider interface {
	AdminOverride(ctx context.Context, adminUID, userUID string, active bool, expiresAt *time.Time) error
}

// New
// @Summary Переопределение подписки пользователя
// @Tags admin
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   id path string true "UID пользователя"
// @Param   overrideRequest body OverrideRequest true "Состояние подписки (active, expires_at RFC3339)"
// @Success 200 {object} response.Response "Подписка переопределена"
// @Failure 403 {object} response.Response "Требуется роль admin"
// @Failure 404 {object} response.Response "Пользователь не найден"
// @Router /admin/users/{id}/subscription [put]
func New(log *slog.Logger, overrider Overrider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.adminoverride.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req OverrideRequest
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

		var expiresAt *time.Time
		if req.ExpiresAt != "" {
			t, err := time.Parse(time.RFC3339, req.ExpiresAt)
			if err != nil {
				log.Error("failed to parse expires_at", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("expires_at must be RFC3339"))
				return
			}
			expiresAt = &t
		}

		userUID := chi.URLParam(r, "id")
		adminUID := mware.UserUID(r.Context())
		if err := overrider.AdminOverride(r.Context(), adminUID, userUID, req.Active, expiresAt); err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("user not found"))
				return
			}
			log.Error("failed to override subscription", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to override subscription"))
			return
		}

		render.JSON(w, r, response.OK())
	}
}
