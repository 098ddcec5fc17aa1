package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

type RegistrationMock struct {
	mock.Mock
}

func (m *RegistrationMock) Register(ctx context.Context, email, rawPassword, referralCode string) (string, error) {
	args := m.Called(ctx, email, rawPassword, referralCode)
	return args.String(0), args.Error(1)
}

func (m *RegistrationMock) Login(ctx context.Context, email, rawPassword string) (string, string, error) {
	args := m.Called(ctx, email, rawPassword)
	return args.String(0), args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(svc *RegistrationMock)
		wantStatusCode int
		wantStatus     string
		wantError      string
	}{
		{
			name:        "успешная регистрация",
			requestBody: RegisterRequest{Email: "user@example.com", Password: "password123"},
			setupMocks: func(svc *RegistrationMock) {
				svc.On("Register", mock.Anything, "user@example.com", "password123", "").
					Return("uid-1", nil)
				svc.On("Login", mock.Anything, "user@example.com", "password123").
					Return("token-abc", "user", nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:        "регистрация с реферальным кодом",
			requestBody: RegisterRequest{Email: "user@example.com", Password: "password123", ReferralCode: "ABCD1234"},
			setupMocks: func(svc *RegistrationMock) {
				svc.On("Register", mock.Anything, "user@example.com", "password123", "ABCD1234").
					Return("uid-2", nil)
				svc.On("Login", mock.Anything, "user@example.com", "password123").
					Return("token-abc", "user", nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "невалидный JSON",
			requestBody:    "not a json",
			setupMocks:     func(svc *RegistrationMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "failed to decode request",
		},
		{
			name:           "нет пароля",
			requestBody:    RegisterRequest{Email: "user@example.com"},
			setupMocks:     func(svc *RegistrationMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "реферальный код неверной длины",
			requestBody:    RegisterRequest{Email: "user@example.com", Password: "password123", ReferralCode: "SHORT"},
			setupMocks:     func(svc *RegistrationMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:        "почта уже занята",
			requestBody: RegisterRequest{Email: "user@example.com", Password: "password123"},
			setupMocks: func(svc *RegistrationMock) {
				svc.On("Register", mock.Anything, "user@example.com", "password123", "").
					Return("", models.ErrEmailTaken)
			},
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantError:      "email already taken",
		},
		{
			name:        "ошибка сервиса",
			requestBody: RegisterRequest{Email: "user@example.com", Password: "password123"},
			setupMocks: func(svc *RegistrationMock) {
				svc.On("Register", mock.Anything, "user@example.com", "password123", "").
					Return("", errors.New("db down"))
			},
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
			wantError:      "failed to register new user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(RegistrationMock)
			tt.setupMocks(svc)
			handler := New(newNoopLogger(), svc)

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			if tt.wantStatus == "OK" {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "user@example.com", data["email"])
				assert.Equal(t, "token-abc", data["token"])
			}
			svc.AssertExpectations(t)
		})
	}
}
