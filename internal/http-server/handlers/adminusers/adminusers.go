// Package adminusers содержит обработчик списка пользователей для админ-панели.
package adminusers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// UserLister описывает используемую часть хранилища.
type UserLister interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// New
// @Summary Список пользователей
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param   limit  query int false "Размер страницы, максимум 200"
// @Param   offset query int false "Смещение от начала списка"
// @Success 200 {object} response.Response "Пользователи, новые первыми"
// @Failure 403 {object} response.Response "Требуется роль admin"
// @Router /admin/users [get]
func New(log *slog.Logger, lister UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.adminusers.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit, offset := pagination(r)
		users, err := lister.ListUsers(r.Context(), limit, offset)
		if err != nil {
			log.Error("failed to list users", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list users"))
			return
		}

		// Хэш пароля наружу не отдаётся даже администратору.
		items := make([]map[string]any, 0, len(users))
		for _, u := range users {
			items = append(items, map[string]any{
				"uid":                 u.UID,
				"email":               u.Email,
				"role":                u.Role,
				"subscription_active": u.IsEntitled(time.Now().UTC()),
				"subscription_expires_at": func() any {
					if u.SubscriptionExpireAt == nil {
						return nil
					}
					return u.SubscriptionExpireAt.Format(time.RFC3339)
				}(),
				"referral_code":     u.ReferralCode,
				"referral_earnings": u.ReferralEarnings,
				"telegram_linked":   u.TelegramID != nil,
				"created_at":        u.CreatedAt.Format(time.RFC3339),
			})
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"users":  items,
			"limit":  limit,
			"offset": offset,
		}))
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
