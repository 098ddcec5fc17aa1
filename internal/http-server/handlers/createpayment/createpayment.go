// Package createpayment содержит обработчик создания платежа за подписку.
package createpayment

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

// CreateRequest тело запроса создания платежа.
type CreateRequest struct {
	Plan    string `json:"plan" validate:"required,oneof=basic premium pro"`
	Gateway string `json:"gateway" validate:"required,oneof=yookassa stripe"`
}

// Creator описывает используемую часть платёжного сервиса.
type Creator interface {
	Create(ctx context.Context, userUID, planID, gateway string) (*models.PaymentIntent, error)
}

// New
// @Summary Создание платежа за тариф
// @Tags payments
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   createRequest body CreateRequest true "Тариф и платёжный шлюз"
// @Success 200 {object} response.Response "Ссылка для завершения оплаты"
// @Failure 400 {object} response.Response "Неизвестный тариф или шлюз"
// @Router /payments [post]
func New(log *slog.Logger, creator Creator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.createpayment.New"

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
		intent, err := creator.Create(r.Context(), userUID, req.Plan, req.Gateway)
		if err != nil {
			if errors.Is(err, models.ErrUnknownPlan) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("unknown plan"))
				return
			}
			log.Error("failed to create payment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create payment"))
			return
		}

		log.Info("payment created",
			slog.String("user_uid", userUID),
			slog.String("intent_id", intent.ID))
		render.JSON(w, r, response.StatusOKWithData(intent))
	}
}
