// Package listkeys содержит обработчик списка VPN-ключей пользователя.
package listkeys

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Lister описывает используемую часть сервиса ключей.
type Lister interface {
	List(ctx context.Context, userUID string) ([]*models.VpnKey, error)
}

// New
// @Summary Список VPN-ключей текущего пользователя
// @Tags vpn
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Ключи пользователя"
// @Router /vpn/keys [get]
func New(log *slog.Logger, lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.listkeys.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		keys, err := lister.List(r.Context(), mware.UserUID(r.Context()))
		if err != nil {
			log.Error("failed to list keys", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list keys"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(keys))
	}
}
