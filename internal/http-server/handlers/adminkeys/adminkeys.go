// Package adminkeys содержит обработчик списка всех VPN-ключей для админ-панели.
package adminkeys

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

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

// KeyLister описывает используемую часть хранилища.
type KeyLister interface {
	ListAllKeys(ctx context.Context, limit, offset int) ([]*models.VpnKey, error)
}

// New
// @Summary Список всех VPN-ключей
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param   limit  query int false "Размер страницы, максимум 200"
// @Param   offset query int false "Смещение от начала списка"
// @Success 200 {object} response.Response "Ключи всех пользователей, новые первыми"
// @Failure 403 {object} response.Response "Требуется роль admin"
// @Router /admin/vpn-keys [get]
func New(log *slog.Logger, lister KeyLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.adminkeys.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit, offset := pagination(r)
		keys, err := lister.ListAllKeys(r.Context(), limit, offset)
		if err != nil {
			log.Error("failed to list keys", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list keys"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"keys":   keys,
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
