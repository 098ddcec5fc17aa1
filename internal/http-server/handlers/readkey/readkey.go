// Package readkey содержит обработчик чтения одного VPN-ключа.
package readkey

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

// Reader описывает используемую часть сервиса ключей.
type Reader interface {
	Get(ctx context.Context, keyID, requesterUID, requesterRole string) (*models.VpnKey, error)
}

// New
// @Summary Ключ по идентификатору
// @Tags vpn
// @Security BearerAuth
// @Produce json
// @Param   id path string true "ID ключа"
// @Success 200 {object} response.Response "Данные ключа"
// @Failure 403 {object} response.Response "Ключ принадлежит другому пользователю"
// @Failure 404 {object} response.Response "Ключ не найден"
// @Router /vpn/keys/{id} [get]
func New(log *slog.Logger, reader Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.readkey.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		keyID := chi.URLParam(r, "id")
		key, err := reader.Get(r.Context(), keyID, mware.UserUID(r.Context()), mware.Role(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, models.ErrKeyNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("key not found"))
			case errors.Is(err, models.ErrForbidden):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
			default:
				log.Error("failed to read key", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to read key"))
			}
			return
		}

		render.JSON(w, r, response.StatusOKWithData(key))
	}
}
