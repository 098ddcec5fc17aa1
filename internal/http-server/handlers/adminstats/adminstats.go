// Package adminstats содержит обработчик сводной статистики для админ-панели.
package adminstats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/storage/repository"
)

// StatsProvider описывает источники агрегированной статистики.
type StatsProvider interface {
	GetUserStats(ctx context.Context) (*repository.UserStats, error)
	GetKeyStats(ctx context.Context) (*repository.KeyStats, error)
}

// New
// @Summary Сводная статистика сервиса
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Пользователи, подписки, ключи"
// @Failure 403 {object} response.Response "Требуется роль admin"
// @Router /admin/stats [get]
func New(log *slog.Logger, provider StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.adminstats.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userStats, err := provider.GetUserStats(r.Context())
		if err != nil {
			log.Error("failed to load user stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load stats"))
			return
		}
		keyStats, err := provider.GetKeyStats(r.Context())
		if err != nil {
			log.Error("failed to load key stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load stats"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"users": userStats,
			"keys":  keyStats,
		}))
	}
}
