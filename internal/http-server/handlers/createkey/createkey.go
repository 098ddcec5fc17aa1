// Package createkey содержит обработчик выдачи нового VPN-ключа.
package createkey

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// CreateRequest тело запроса выдачи ключа.
type CreateRequest struct {
	ServerLocation string `json:"server_location" validate:"required"`
	Plan           string `json:"plan" validate:"required,oneof=basic premium pro"`
}

// Issuer описывает используемую часть сервиса ключей.
type Issuer interface {
	Issue(ctx context.Context, userUID, location, plan string) (*models.VpnKey, error)
}

// New
// @Summary Выдача нового VPN-ключа
// @Tags vpn
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   createRequest body CreateRequest true "Локация сервера и тариф"
// @Success 200 {object} response.Response "Выданный ключ"
// @Failure 402 {object} response.Response "Подписка не действует"
// @Failure 409 {object} response.Response "Квота тарифа исчерпана"
// @Router /vpn/keys [post]
func New(log *slog.Logger, issuer Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.createkey.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CreateRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		userUID := mware.UserUID(r.Context())
		key, err := issuer.Issue(r.Context(), userUID, req.ServerLocation, req.Plan)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrNotEntitled):
				render.Status(r, http.StatusPaymentRequired)
				render.JSON(w, r, response.Error("subscription is not active"))
			case errors.Is(err, models.ErrQuotaExceeded):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("active key limit reached for plan"))
			case errors.Is(err, models.ErrUnknownLocation):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("unknown server location"))
			case errors.Is(err, models.ErrUnknownPlan):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("unknown plan"))
			default:
				log.Error("failed to issue key", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to issue key"))
			}
			return
		}

		log.Info("issued new vpn key",
			slog.String("key_id", key.ID),
			slog.String("user_uid", userUID))
		render.JSON(w, r, response.StatusOKWithData(key))
	}
}
