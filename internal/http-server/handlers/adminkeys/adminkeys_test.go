package adminkeys

import (
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

type KeyListerMock struct {
	mock.Mock
}

func (m *KeyListerMock) ListAllKeys(ctx context.Context, limit, offset int) ([]*models.VpnKey, error) {
	args := m.Called(ctx, limit, offset)
	keys, _ := args.Get(0).([]*models.VpnKey)
	return keys, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdminKeysHandler_ServeHTTP(t *testing.T) {
	stored := []*models.VpnKey{
		{ID: "key-1", UserUID: "uid-1", Key: "vpn-token-1", ServerLocation: "germany", Active: true},
		{ID: "key-2", UserUID: "uid-2", Key: "vpn-token-2", ServerLocation: "france", Active: false},
	}

	tests := []struct {
		name           string
		query          string
		setupMocks     func(lister *KeyListerMock)
		wantStatusCode int
		wantKeys       int
	}{
		{
			name:  "список с пагинацией по умолчанию",
			query: "",
			setupMocks: func(lister *KeyListerMock) {
				lister.On("ListAllKeys", mock.Anything, 50, 0).Return(stored, nil)
			},
			wantStatusCode: http.StatusOK,
			wantKeys:       2,
		},
		{
			name:  "limit выше потолка урезается",
			query: "?limit=500&offset=10",
			setupMocks: func(lister *KeyListerMock) {
				lister.On("ListAllKeys", mock.Anything, 200, 10).Return([]*models.VpnKey{}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "ошибка хранилища",
			query: "",
			setupMocks: func(lister *KeyListerMock) {
				lister.On("ListAllKeys", mock.Anything, 50, 0).Return(nil, errors.New("db down"))
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := new(KeyListerMock)
			tt.setupMocks(lister)
			handler := New(newNoopLogger(), lister)

			req := httptest.NewRequest(http.MethodGet, "/admin/vpn-keys"+tt.query, nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantKeys > 0 {
				var got map[string]any
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				data := got["data"].(map[string]any)
				assert.Len(t, data["keys"].([]any), tt.wantKeys)
			}
			lister.AssertExpectations(t)
		})
	}
}
