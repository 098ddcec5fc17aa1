// Package usage содержит обработчики статистики трафика VPN-ключей.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// RecordRequest тело запроса записи трафика.
type RecordRequest struct {
	KeyID           string `json:"key_id" validate:"required,uuid"`
	BytesUploaded   int64  `json:"bytes_uploaded" validate:"min=0"`
	BytesDownloaded int64  `json:"bytes_downloaded" validate:"min=0"`
}

// UsageProvider описывает используемую часть сервиса ключей.
type UsageProvider interface {
	UsageStats(ctx context.Context, keyID, requesterUID, requesterRole string) ([]*models.UsageDay, error)
	RecordUsage(ctx context.Context, rec models.UsageRecord, requesterUID, requesterRole string) error
}

// New
// @Summary Трафик ключа за последние 30 дней
// @Tags vpn
// @Security BearerAuth
// @Produce json
// @Param   id path string true "ID ключа"
// @Success 200 {object} response.Response "Суточные объёмы трафика"
// @Failure 403 {object} response.Response "Ключ принадлежит другому пользователю"
// @Router /vpn/keys/{id}/usage [get]
func New(log *slog.Logger, provider UsageProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.usage.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		keyID := chi.URLParam(r, "id")
		stats, err := provider.UsageStats(r.Context(), keyID, mware.UserUID(r.Context()), mware.Role(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, models.ErrKeyNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("key not found"))
			case errors.Is(err, models.ErrForbidden):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
			default:
				log.Error("failed to load usage stats", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to load usage stats"))
			}
			return
		}

		render.JSON(w, r, response.StatusOKWithData(stats))
	}
}

// NewRecord
// @Summary Запись суточного трафика ключа
// @Tags vpn
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   recordRequest body RecordRequest true "Объёмы трафика за сутки"
// @Success 200 {object} response.Response "Трафик учтён"
// @Failure 403 {object} response.Response "Ключ принадлежит другому пользователю"
// @Router /vpn/usage [post]
func NewRecord(log *slog.Logger, provider UsageProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.usage.NewRecord"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req RecordRequest
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

		rec := models.UsageRecord{
			KeyID:           req.KeyID,
			Date:            time.Now().UTC().Truncate(24 * time.Hour),
			BytesUploaded:   req.BytesUploaded,
			BytesDownloaded: req.BytesDownloaded,
		}
		err := provider.RecordUsage(r.Context(), rec, mware.UserUID(r.Context()), mware.Role(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, models.ErrKeyNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("key not found"))
			case errors.Is(err, models.ErrForbidden):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
			default:
				log.Error("failed to record usage", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to record usage"))
			}
			return
		}

		render.JSON(w, r, response.OK())
	}
}
