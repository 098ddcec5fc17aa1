// Package removekey содержит обработчик деактивации VPN-ключа.
package removekey

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Deactivator описывает используемую часть сервиса ключей.
type Deactivator interface {
	Deactivate(ctx context.Context, keyID, requesterUID, requesterRole string) error
}

// New
// @Summary Деактивация VPN-ключа
// @Tags vpn
// @Security BearerAuth
// @Produce json
// @Param   id path string true "ID ключа"
// @Success 200 {object} response.Response "Ключ деактивирован"
// @Failure 403 {object} response.Response "Ключ принадлежит другому пользователю"
// @Failure 404 {object} response.Response "Ключ не найден"
// @Router /vpn/keys/{id} [delete]
func New(log *slog.Logger, deactivator Deactivator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.removekey.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		keyID := chi.URLParam(r, "id")
		err := deactivator.Deactivate(r.Context(), keyID, mware.UserUID(r.Context()), mware.Role(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, models.ErrKeyNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("key not found"))
			case errors.Is(err, models.ErrForbidden):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
			default:
				log.Error("failed to deactivate key", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to deactivate key"))
			}
			return
		}

		render.JSON(w, r, response.OK())
	}
}
