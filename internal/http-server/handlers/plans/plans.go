// Package plans содержит обработчик каталога тарифов.
package plans

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// New
// @Summary Каталог тарифов
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Тарифы с ценами и квотами"
// @Router /payments/plans [get]
func New(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.StatusOKWithData(models.PlanList()))
	}
}
