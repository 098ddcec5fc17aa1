// Package register содержит обработчик регистрации нового пользователя.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// RegisterRequest тело запроса регистрации.
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,len=8"`
}

// Registration описывает используемую часть сервиса аутентификации.
type Registration interface {
	Register(ctx context.Context, email, rawPassword, referralCode string) (string, error)
	Login(ctx context.Context, email, rawPassword string) (token, role string, err error)
}

// New
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept  json
// @Produce json
// @Param   registerRequest body RegisterRequest true "Данные для регистрации (email, password, referral_code)"
// @Success 200 {object} response.Response "Пользователь успешно создан"
// @Failure 400 {object} response.Response "Ошибка валидации или некорректный запрос"
// @Failure 409 {object} response.Response "Почта уже занята"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /register [post]
func New(log *slog.Logger, registration Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req RegisterRequest
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

		uid, err := registration.Register(r.Context(), req.Email, req.Password, req.ReferralCode)
		if err != nil {
			if errors.Is(err, models.ErrEmailTaken) {
				log.Warn("email already taken", slog.String("email", req.Email))
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("email already taken"))
				return
			}
			log.Error("failed to register new user", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to register new user"))
			return
		}

		token, _, err := registration.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			log.Error("failed to issue token after registration", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to register new user"))
			return
		}

		log.Info("created new user", slog.String("user_uid", uid))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"uid":   uid,
			"email": req.Email,
			"token": token,
		}))
	}
}
