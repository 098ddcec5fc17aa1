// Package listpayments содержит обработчик истории платежей пользователя.
package listpayments

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

const defaultLimit = 20

// Lister описывает используемую часть платёжного сервиса.
type Lister interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error)
}

// New
// @Summary История платежей текущего пользователя
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param   limit query int false "Максимум записей"
// @Param   offset query int false "Смещение"
// @Success 200 {object} response.Response "Платежи, новые первыми"
// @Router /payments/list [get]
func New(log *slog.Logger, lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.listpayments.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = defaultLimit
		}
		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		if err != nil || offset < 0 {
			offset = 0
		}

		payments, err := lister.List(r.Context(), mware.UserUID(r.Context()), limit, offset)
		if err != nil {
			log.Error("failed to list payments", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list payments"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(payments))
	}
}
