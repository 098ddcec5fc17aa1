package createkey

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vpn-storefront/internal/http-server/mware"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

type IssuerMock struct {
	mock.Mock
}

func (m *IssuerMock) Issue(ctx context.Context, userUID, location, plan string) (*models.VpnKey, error) {
	args := m.Called(ctx, userUID, location, plan)
	key, _ := args.Get(0).(*models.VpnKey)
	return key, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateKeyHandler_ServeHTTP(t *testing.T) {
	maker := jwt.NewJWTMaker("test_secret_key", 15*time.Minute)
	token, err := maker.GenerateToken("user@example.com", models.RoleUser, "uid-1")
	require.NoError(t, err)

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(svc *IssuerMock)
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:        "успешная выдача ключа",
			requestBody: CreateRequest{ServerLocation: "germany", Plan: "basic"},
			setupMocks: func(svc *IssuerMock) {
				svc.On("Issue", mock.Anything, "uid-1", "germany", "basic").
					Return(&models.VpnKey{ID: "key-1", UserUID: "uid-1"}, nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:        "подписка не действует",
			requestBody: CreateRequest{ServerLocation: "germany", Plan: "basic"},
			setupMocks: func(svc *IssuerMock) {
				svc.On("Issue", mock.Anything, "uid-1", "germany", "basic").
					Return(nil, models.ErrNotEntitled)
			},
			wantStatusCode: http.StatusPaymentRequired,
			wantStatus:     "Error",
		},
		{
			name:        "квота тарифа исчерпана",
			requestBody: CreateRequest{ServerLocation: "germany", Plan: "basic"},
			setupMocks: func(svc *IssuerMock) {
				svc.On("Issue", mock.Anything, "uid-1", "germany", "basic").
					Return(nil, models.ErrQuotaExceeded)
			},
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
		},
		{
			name:        "неизвестная локация",
			requestBody: CreateRequest{ServerLocation: "atlantis", Plan: "basic"},
			setupMocks: func(svc *IssuerMock) {
				svc.On("Issue", mock.Anything, "uid-1", "atlantis", "basic").
					Return(nil, models.ErrUnknownLocation)
			},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			// Тариф отсекается валидатором, до сервиса запрос не доходит.
			name:           "неизвестный тариф",
			requestBody:    CreateRequest{ServerLocation: "germany", Plan: "platinum"},
			setupMocks:     func(svc *IssuerMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "невалидный JSON",
			requestBody:    "not a json",
			setupMocks:     func(svc *IssuerMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(IssuerMock)
			tt.setupMocks(svc)
			handler := mware.JWTMiddleware(maker, newNoopLogger())(New(newNoopLogger(), svc))

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

			req := httptest.NewRequest(http.MethodPost, "/vpn/keys", bytes.NewReader(bodyBytes))
			req.Header.Set("Authorization", "Bearer "+token)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got["status"])
			svc.AssertExpectations(t)
		})
	}
}
