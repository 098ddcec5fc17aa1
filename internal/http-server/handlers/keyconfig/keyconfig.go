// Package keyconfig содержит обработчик выдачи клиентской конфигурации VLESS.
package keyconfig

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
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/vless"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// ConfigProvider описывает используемую часть сервиса ключей.
type ConfigProvider interface {
	Config(ctx context.Context, token, requesterUID, requesterRole string) (*vless.ConfigDocument, error)
}

// New
// @Summary Клиентская конфигурация по токену ключа
// @Tags vpn
// @Security BearerAuth
// @Produce json
// @Param   key path string true "Токен ключа"
// @Success 200 {object} response.Response "Конфигурация и VLESS-ссылка"
// @Failure 404 {object} response.Response "Ключ не найден"
// @Failure 410 {object} response.Response "Ключ деактивирован"
// @Router /vpn/config/{key} [get]
func New(log *slog.Logger, provider ConfigProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.keyconfig.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "key")
		doc, err := provider.Config(r.Context(), token, mware.UserUID(r.Context()), mware.Role(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, models.ErrKeyNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("key not found"))
			case errors.Is(err, models.ErrKeyInactive):
				render.Status(r, http.StatusGone)
				render.JSON(w, r, response.Error("key is deactivated"))
			case errors.Is(err, models.ErrForbidden):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
			default:
				log.Error("failed to build config", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to build config"))
			}
			return
		}

		render.JSON(w, r, response.StatusOKWithData(doc))
	}
}
