package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	services "github.com/magabrotheeeer/vpn-storefront/internal/services/referral"
)

type ReferralRepoMock struct {
	mock.Mock
}

func (m *ReferralRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *ReferralRepoMock) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	args := m.Called(ctx, code)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *ReferralRepoMock) SetReferredBy(ctx context.Context, userUID, referrerUID string) error {
	args := m.Called(ctx, userUID, referrerUID)
	return args.Error(0)
}

func (m *ReferralRepoMock) CreditReferral(ctx context.Context, paymentID, referrerUID string, amount float64) (bool, error) {
	args := m.Called(ctx, paymentID, referrerUID, amount)
	return args.Bool(0), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReferralService_Attribute(t *testing.T) {
	tests := []struct {
		name       string
		newUserUID string
		code       string
		setupMocks func(repo *ReferralRepoMock)
		wantErr    bool
	}{
		{
			name:       "успешная привязка по коду",
			newUserUID: "user-new",
			code:       "ABCD1234",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUserByReferralCode", mock.Anything, "ABCD1234").
					Return(&models.User{UID: "user-ref"}, nil)
				repo.On("SetReferredBy", mock.Anything, "user-new", "user-ref").
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:       "пустой код пропускается без обращений к хранилищу",
			newUserUID: "user-new",
			code:       "",
			setupMocks: func(repo *ReferralRepoMock) {},
			wantErr:    false,
		},
		{
			name:       "неизвестный код не ломает регистрацию",
			newUserUID: "user-new",
			code:       "NOPE0000",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUserByReferralCode", mock.Anything, "NOPE0000").
					Return(nil, models.ErrAccountNotFound)
			},
			wantErr: false,
		},
		{
			name:       "собственный код отклоняется без привязки",
			newUserUID: "user-self",
			code:       "SELF0001",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUserByReferralCode", mock.Anything, "SELF0001").
					Return(&models.User{UID: "user-self"}, nil)
			},
			wantErr: false,
		},
		{
			name:       "ошибка хранилища пробрасывается",
			newUserUID: "user-new",
			code:       "ABCD1234",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUserByReferralCode", mock.Anything, "ABCD1234").
					Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(ReferralRepoMock)
			tt.setupMocks(repo)
			svc := services.NewReferralService(repo, newTestLogger())

			err := svc.Attribute(context.Background(), tt.newUserUID, tt.code)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			// Привязка не должна происходить при пустом, неизвестном и собственном коде.
			if tt.name != "успешная привязка по коду" {
				repo.AssertNotCalled(t, "SetReferredBy", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestReferralService_Credit_PremiumPlanShare(t *testing.T) {
	// Пользователь A регистрируется по коду B и оплачивает premium (450):
	// B должен получить ровно 90.
	referrerUID := "user-b"
	repo := new(ReferralRepoMock)
	repo.On("GetUser", mock.Anything, "user-a").
		Return(&models.User{UID: "user-a", ReferredBy: &referrerUID}, nil)
	repo.On("CreditReferral", mock.Anything, "payment-2", referrerUID, 90.0).
		Return(true, nil)
	svc := services.NewReferralService(repo, newTestLogger())

	err := svc.Credit(context.Background(), "user-a", "payment-2", models.Plans[models.PlanPremium].Price)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReferralService_Credit(t *testing.T) {
	referrerUID := "user-ref"

	tests := []struct {
		name       string
		setupMocks func(repo *ReferralRepoMock)
		wantErr    bool
	}{
		{
			name: "начисление 20% от суммы платежа",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUser", mock.Anything, "user-payer").
					Return(&models.User{UID: "user-payer", ReferredBy: &referrerUID}, nil)
				repo.On("CreditReferral", mock.Anything, "payment-1", referrerUID, 60.0).
					Return(true, nil)
			},
			wantErr: false,
		},
		{
			name: "без реферера начисления нет",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUser", mock.Anything, "user-payer").
					Return(&models.User{UID: "user-payer"}, nil)
			},
			wantErr: false,
		},
		{
			name: "повторное начисление по тому же платежу игнорируется",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUser", mock.Anything, "user-payer").
					Return(&models.User{UID: "user-payer", ReferredBy: &referrerUID}, nil)
				repo.On("CreditReferral", mock.Anything, "payment-1", referrerUID, 60.0).
					Return(false, nil)
			},
			wantErr: false,
		},
		{
			name: "ошибка начисления пробрасывается",
			setupMocks: func(repo *ReferralRepoMock) {
				repo.On("GetUser", mock.Anything, "user-payer").
					Return(&models.User{UID: "user-payer", ReferredBy: &referrerUID}, nil)
				repo.On("CreditReferral", mock.Anything, "payment-1", referrerUID, 60.0).
					Return(false, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(ReferralRepoMock)
			tt.setupMocks(repo)
			svc := services.NewReferralService(repo, newTestLogger())

			err := svc.Credit(context.Background(), "user-payer", "payment-1", 300)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
