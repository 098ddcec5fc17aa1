package adminusers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

type UserListerMock struct {
	mock.Mock
}

func (m *UserListerMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdminUsersHandler_ServeHTTP(t *testing.T) {
	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)
	stored := []*models.User{{
		UID:                  "uid-1",
		Email:                "user@example.com",
		PasswordHash:         "$2a$10$secret",
		Role:                 models.RoleUser,
		SubscriptionActive:   true,
		SubscriptionExpireAt: &expiresAt,
		ReferralCode:         "ABCD1234",
		ReferralEarnings:     60,
	}}

	tests := []struct {
		name           string
		query          string
		setupMocks     func(lister *UserListerMock)
		wantStatusCode int
		check          func(t *testing.T, data map[string]any)
	}{
		{
			name:  "список с пагинацией по умолчанию",
			query: "",
			setupMocks: func(lister *UserListerMock) {
				lister.On("ListUsers", mock.Anything, 50, 0).Return(stored, nil)
			},
			wantStatusCode: http.StatusOK,
			check: func(t *testing.T, data map[string]any) {
				users := data["users"].([]any)
				assert.Len(t, users, 1)
				first := users[0].(map[string]any)
				assert.Equal(t, "user@example.com", first["email"])
				assert.Equal(t, "ABCD1234", first["referral_code"])
				assert.Equal(t, true, first["subscription_active"])
				// Хэш пароля не попадает в ответ.
				_, leaked := first["PasswordHash"]
				assert.False(t, leaked)
			},
		},
		{
			name:  "явные limit и offset",
			query: "?limit=10&offset=20",
			setupMocks: func(lister *UserListerMock) {
				lister.On("ListUsers", mock.Anything, 10, 20).Return([]*models.User{}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "limit выше потолка урезается",
			query: "?limit=1000",
			setupMocks: func(lister *UserListerMock) {
				lister.On("ListUsers", mock.Anything, 200, 0).Return([]*models.User{}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "ошибка хранилища",
			query: "",
			setupMocks: func(lister *UserListerMock) {
				lister.On("ListUsers", mock.Anything, 50, 0).Return(nil, errors.New("db down"))
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := new(UserListerMock)
			tt.setupMocks(lister)
			handler := New(newNoopLogger(), lister)

			req := httptest.NewRequest(http.MethodGet, "/admin/users"+tt.query, nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.check != nil {
				var got map[string]any
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				tt.check(t, got["data"].(map[string]any))
			}
			lister.AssertExpectations(t)
		})
	}
}
