// Package paymentwebhook содержит обработчик вебхуков платёжных шлюзов.
package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// maxBodySize ограничивает размер тела вебхука.
const maxBodySize = 1 << 20

// Processor описывает используемую часть платёжного сервиса.
type Processor interface {
	ProcessWebhook(ctx context.Context, gateway string, body []byte, signature string) error
}

// New
// @Summary Вебхук платёжного шлюза
// @Tags payments
// @Accept  json
// @Produce json
// @Success 200 {object} response.Response "Событие обработано или уже было обработано"
// @Failure 401 {object} response.Response "Невалидная подпись"
// @Failure 404 {object} response.Response "Платёж не найден"
// @Router /payments/webhook [post]
func New(log *slog.Logger, processor Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.paymentwebhook.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			log.Error("failed to read webhook body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to read body"))
			return
		}

		// Шлюз определяется по характерному заголовку подписи.
		gateway := models.GatewayYooKassa
		signature := r.Header.Get("X-Api-Signature")
		if stripeSig := r.Header.Get("Stripe-Signature"); stripeSig != "" {
			gateway = models.GatewayStripe
			signature = stripeSig
		}

		err = processor.ProcessWebhook(r.Context(), gateway, body, signature)
		switch {
		case err == nil:
			render.JSON(w, r, response.OK())
		case errors.Is(err, models.ErrPaymentAlreadyTerminal):
			// Повторная доставка: подтверждаем, чтобы шлюз перестал слать.
			log.Info("duplicate webhook acknowledged")
			render.JSON(w, r, response.OK())
		case errors.Is(err, models.ErrInvalidSignature):
			log.Warn("webhook signature verification failed",
				slog.String("gateway", gateway))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
		case errors.Is(err, models.ErrPaymentNotFound):
			log.Warn("webhook for unknown payment")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		default:
			log.Error("failed to process webhook", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process webhook"))
		}
	}
}
