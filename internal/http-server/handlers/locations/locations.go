// Package locations содержит обработчик списка локаций VPN-серверов.
package locations

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// LocationsProvider описывает используемую часть сервиса ключей.
type LocationsProvider interface {
	Locations() []models.ServerLocation
}

// New
// @Summary Список доступных локаций серверов
// @Tags vpn
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Фиксированный каталог локаций"
// @Router /vpn/locations [get]
func New(_ *slog.Logger, provider LocationsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.StatusOKWithData(provider.Locations()))
	}
}
