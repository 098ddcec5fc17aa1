// Package referralinfo содержит обработчик раздела реферальной программы.
package referralinfo

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

// StatsProvider описывает используемую часть сервиса аутентификации.
type StatsProvider interface {
	ReferralStats(ctx context.Context, userUID string) (*models.ReferralStats, error)
}

// New
// @Summary Реферальная статистика текущего пользователя
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Код, число приглашённых и начисления"
// @Router /users/referrals [get]
func New(log *slog.Logger, provider StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.referralinfo.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		stats, err := provider.ReferralStats(r.Context(), mware.UserUID(r.Context()))
		if err != nil {
			log.Error("failed to load referral stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load referral stats"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(stats))
	}
}
