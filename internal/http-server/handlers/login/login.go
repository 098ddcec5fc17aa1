// Package login содержит обработчик входа пользователя.
package login

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

// LoginRequest тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Authenticator описывает используемую часть сервиса аутентификации.
type Authenticator interface {
	Login(ctx context.Context, email, rawPassword string) (token, role string, err error)
}

// New
// @Summary Вход пользователя
// @Tags auth
// @Accept  json
// @Produce json
// @Param   loginRequest body LoginRequest true "Данные для входа (email, password)"
// @Success 200 {object} response.Response "JWT-токен выдан"
// @Failure 401 {object} response.Response "Неверные учётные данные"
// @Router /login [post]
func New(log *slog.Logger, authenticator Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req LoginRequest
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

		token, role, err := authenticator.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCredentials) {
				log.Warn("invalid credentials", slog.String("email", req.Email))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid credentials"))
				return
			}
			log.Error("failed to login", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to login"))
			return
		}

		log.Info("user logged in", slog.String("email", req.Email))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"token": token,
			"role":  role,
		}))
	}
}
