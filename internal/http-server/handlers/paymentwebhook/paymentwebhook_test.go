package paymentwebhook

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

type ProcessorMock struct {
	mock.Mock
}

func (m *ProcessorMock) ProcessWebhook(ctx context.Context, gateway string, body []byte, signature string) error {
	args := m.Called(ctx, gateway, body, signature)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestWebhookHandler_ServeHTTP(t *testing.T) {
	body := []byte(`{"event":"payment.succeeded","object":{"id":"yk-1","status":"succeeded"}}`)

	tests := []struct {
		name           string
		headers        map[string]string
		setupMocks     func(svc *ProcessorMock)
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:    "успешная обработка вебхука ЮKassa",
			headers: map[string]string{"X-Api-Signature": "sig-yk"},
			setupMocks: func(svc *ProcessorMock) {
				svc.On("ProcessWebhook", mock.Anything, models.GatewayYooKassa, body, "sig-yk").
					Return(nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			// Заголовок Stripe-Signature переключает обработку на Stripe.
			name:    "вебхук Stripe определяется по заголовку",
			headers: map[string]string{"Stripe-Signature": "t=1,v1=abc"},
			setupMocks: func(svc *ProcessorMock) {
				svc.On("ProcessWebhook", mock.Anything, models.GatewayStripe, body, "t=1,v1=abc").
					Return(nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			// Повтор подтверждается, иначе шлюз будет слать событие снова.
			name:    "дубликат терминального платежа подтверждается",
			headers: map[string]string{"X-Api-Signature": "sig-yk"},
			setupMocks: func(svc *ProcessorMock) {
				svc.On("ProcessWebhook", mock.Anything, models.GatewayYooKassa, body, "sig-yk").
					Return(models.ErrPaymentAlreadyTerminal)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:    "невалидная подпись отклоняется",
			headers: map[string]string{"X-Api-Signature": "bad-sig"},
			setupMocks: func(svc *ProcessorMock) {
				svc.On("ProcessWebhook", mock.Anything, models.GatewayYooKassa, body, "bad-sig").
					Return(models.ErrInvalidSignature)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:    "платёж не найден",
			headers: map[string]string{"X-Api-Signature": "sig-yk"},
			setupMocks: func(svc *ProcessorMock) {
				svc.On("ProcessWebhook", mock.Anything, models.GatewayYooKassa, body, "sig-yk").
					Return(models.ErrPaymentNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantStatus:     "Error",
		},
		{
			name:    "внутренняя ошибка обработки",
			headers: map[string]string{"X-Api-Signature": "sig-yk"},
			setupMocks: func(svc *ProcessorMock) {
				svc.On("ProcessWebhook", mock.Anything, models.GatewayYooKassa, body, "sig-yk").
					Return(errors.New("db down"))
			},
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ProcessorMock)
			tt.setupMocks(svc)
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got["status"])
			svc.AssertExpectations(t)
		})
	}
}
