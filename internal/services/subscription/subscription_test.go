package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	services "github.com/magabrotheeeer/vpn-storefront/internal/services/subscription"
)

type SubscriptionRepoMock struct {
	mock.Mock
}

func (m *SubscriptionRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *SubscriptionRepoMock) ExtendSubscription(ctx context.Context, userUID string, durationDays int) (time.Time, error) {
	args := m.Called(ctx, userUID, durationDays)
	expiresAt, _ := args.Get(0).(time.Time)
	return expiresAt, args.Error(1)
}

func (m *SubscriptionRepoMock) OverrideSubscription(ctx context.Context, userUID string, active bool, expiresAt *time.Time) error {
	args := m.Called(ctx, userUID, active, expiresAt)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscriptionService_Activate(t *testing.T) {
	repo := new(SubscriptionRepoMock)
	svc := services.NewSubscriptionService(repo, newTestLogger())

	want := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	repo.On("ExtendSubscription", mock.Anything, "user-1", 30).Return(want, nil)

	got, err := svc.Activate(context.Background(), "user-1", 30)

	assert.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestSubscriptionService_Activate_RepoError(t *testing.T) {
	repo := new(SubscriptionRepoMock)
	svc := services.NewSubscriptionService(repo, newTestLogger())

	repo.On("ExtendSubscription", mock.Anything, "user-1", 30).
		Return(time.Time{}, errors.New("db down"))

	_, err := svc.Activate(context.Background(), "user-1", 30)

	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestSubscriptionService_IsEntitled(t *testing.T) {
	future := time.Now().UTC().Add(72 * time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{
			name: "действующая подписка",
			user: &models.User{SubscriptionActive: true, SubscriptionExpireAt: &future},
			want: true,
		},
		{
			// Флаг активности никто не снимает по расписанию,
			// истечение определяется только по дате.
			name: "истёкшая подписка с активным флагом",
			user: &models.User{SubscriptionActive: true, SubscriptionExpireAt: &past},
			want: false,
		},
		{
			name: "подписка отключена администратором",
			user: &models.User{SubscriptionActive: false, SubscriptionExpireAt: &future},
			want: false,
		},
		{
			name: "подписки никогда не было",
			user: &models.User{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(SubscriptionRepoMock)
			repo.On("GetUser", mock.Anything, "user-1").Return(tt.user, nil)
			svc := services.NewSubscriptionService(repo, newTestLogger())

			got, err := svc.IsEntitled(context.Background(), "user-1")

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_AdminOverride(t *testing.T) {
	repo := new(SubscriptionRepoMock)
	svc := services.NewSubscriptionService(repo, newTestLogger())

	expiresAt := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.On("OverrideSubscription", mock.Anything, "user-1", true, &expiresAt).Return(nil)

	err := svc.AdminOverride(context.Background(), "admin-1", "user-1", true, &expiresAt)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
