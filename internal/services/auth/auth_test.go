package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/password"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/refcode"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	services "github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) LinkTelegram(ctx context.Context, userUID string, telegramID int64) error {
	args := m.Called(ctx, userUID, telegramID)
	return args.Error(0)
}

func (m *UserRepoMock) UpdateEmail(ctx context.Context, userUID, email string) error {
	args := m.Called(ctx, userUID, email)
	return args.Error(0)
}

func (m *UserRepoMock) CountReferredUsers(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

type AttributorMock struct {
	mock.Mock
}

func (m *AttributorMock) Attribute(ctx context.Context, newUserUID, code string) error {
	args := m.Called(ctx, newUserUID, code)
	return args.Error(0)
}

type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(email, role, userUID string) (string, error) {
	args := m.Called(email, role, userUID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(tokenStr string) (*jwt.CustomClaims, error) {
	args := m.Called(tokenStr)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// errAny помечает случаи, где важен сам факт ошибки, а не её тип.
var errAny = errors.New("any error")

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name         string
		referralCode string
		setupMocks   func(repo *UserRepoMock, referrals *AttributorMock)
		wantUID      string
		wantErr      error
	}{
		{
			name:         "регистрация без реферального кода",
			referralCode: "",
			setupMocks: func(repo *UserRepoMock, referrals *AttributorMock) {
				repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "user@example.com" &&
						u.Role == models.RoleUser &&
						u.ReferredBy == nil &&
						len(u.ReferralCode) == refcode.Length &&
						password.CompareHash(u.PasswordHash, "password123") == nil
				})).Return("uid-1", nil)
				referrals.On("Attribute", mock.Anything, "uid-1", "").Return(nil)
			},
			wantUID: "uid-1",
		},
		{
			// Привязка делегируется реферальному сервису уже после вставки,
			// с UID нового пользователя.
			name:         "регистрация с чужим реферальным кодом",
			referralCode: "ABCD1234",
			setupMocks: func(repo *UserRepoMock, referrals *AttributorMock) {
				repo.On("RegisterUser", mock.Anything, mock.Anything).Return("uid-2", nil)
				referrals.On("Attribute", mock.Anything, "uid-2", "ABCD1234").Return(nil)
			},
			wantUID: "uid-2",
		},
		{
			name:         "почта уже зарегистрирована",
			referralCode: "",
			setupMocks: func(repo *UserRepoMock, referrals *AttributorMock) {
				repo.On("RegisterUser", mock.Anything, mock.Anything).
					Return("", models.ErrEmailTaken)
			},
			wantErr: models.ErrEmailTaken,
		},
		{
			name:         "коллизия реферального кода повторяет генерацию",
			referralCode: "",
			setupMocks: func(repo *UserRepoMock, referrals *AttributorMock) {
				repo.On("RegisterUser", mock.Anything, mock.Anything).
					Return("", models.ErrDuplicateReferralCode).Once()
				repo.On("RegisterUser", mock.Anything, mock.Anything).
					Return("uid-4", nil).Once()
				referrals.On("Attribute", mock.Anything, "uid-4", "").Return(nil)
			},
			wantUID: "uid-4",
		},
		{
			name:         "ошибка привязки реферера пробрасывается",
			referralCode: "ABCD1234",
			setupMocks: func(repo *UserRepoMock, referrals *AttributorMock) {
				repo.On("RegisterUser", mock.Anything, mock.Anything).Return("uid-5", nil)
				referrals.On("Attribute", mock.Anything, "uid-5", "ABCD1234").
					Return(errors.New("db down"))
			},
			wantErr: errAny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			referrals := new(AttributorMock)
			tt.setupMocks(repo, referrals)
			svc := services.NewAuthService(repo, referrals, new(JwtMakerMock), newTestLogger())

			uid, err := svc.Register(context.Background(), "user@example.com", "password123", tt.referralCode)

			switch {
			case tt.wantErr == errAny:
				assert.Error(t, err)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				referrals.AssertNotCalled(t, "Attribute", mock.Anything, mock.Anything, mock.Anything)
			default:
				assert.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
			}
			repo.AssertExpectations(t)
			referrals.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := password.GetHash("password123")
	assert.NoError(t, err)
	storedUser := &models.User{
		UID:          "uid-1",
		Email:        "user@example.com",
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(repo *UserRepoMock, maker *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "успешный вход",
			email:    "user@example.com",
			password: "password123",
			setupMocks: func(repo *UserRepoMock, maker *JwtMakerMock) {
				repo.On("GetUserByEmail", mock.Anything, "user@example.com").
					Return(storedUser, nil)
				maker.On("GenerateToken", "user@example.com", models.RoleUser, "uid-1").
					Return("token-abc", nil)
			},
			wantToken: "token-abc",
		},
		{
			name:     "неверный пароль",
			email:    "user@example.com",
			password: "wrong-password",
			setupMocks: func(repo *UserRepoMock, maker *JwtMakerMock) {
				repo.On("GetUserByEmail", mock.Anything, "user@example.com").
					Return(storedUser, nil)
			},
			wantErr: models.ErrInvalidCredentials,
		},
		{
			// Отсутствие аккаунта неотличимо от неверного пароля.
			name:     "неизвестная почта",
			email:    "nobody@example.com",
			password: "password123",
			setupMocks: func(repo *UserRepoMock, maker *JwtMakerMock) {
				repo.On("GetUserByEmail", mock.Anything, "nobody@example.com").
					Return(nil, models.ErrAccountNotFound)
			},
			wantErr: models.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)
			svc := services.NewAuthService(repo, new(AttributorMock), maker, newTestLogger())

			token, role, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, models.RoleUser, role)
			}
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	maker := new(JwtMakerMock)
	maker.On("ParseToken", "good-token").Return(&jwt.CustomClaims{
		Email:   "user@example.com",
		Role:    models.RoleAdmin,
		UserUID: "uid-1",
	}, nil)
	maker.On("ParseToken", "bad-token").Return(nil, errors.New("token is malformed"))

	svc := services.NewAuthService(new(UserRepoMock), new(AttributorMock), maker, newTestLogger())

	user, role, valid, err := svc.ValidateToken(context.Background(), "good-token")
	assert.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, models.RoleAdmin, role)
	assert.Equal(t, "uid-1", user.UID)

	user, _, valid, err = svc.ValidateToken(context.Background(), "bad-token")
	assert.Error(t, err)
	assert.False(t, valid)
	assert.Nil(t, user)
}

func TestAuthService_ReferralStats(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{
		UID:              "uid-1",
		ReferralCode:     "ABCD1234",
		ReferralEarnings: 120,
	}, nil)
	repo.On("CountReferredUsers", mock.Anything, "uid-1").Return(3, nil)

	svc := services.NewAuthService(repo, new(AttributorMock), new(JwtMakerMock), newTestLogger())

	stats, err := svc.ReferralStats(context.Background(), "uid-1")

	assert.NoError(t, err)
	assert.Equal(t, "ABCD1234", stats.ReferralCode)
	assert.Equal(t, 3, stats.ReferredUsers)
	assert.Equal(t, 120.0, stats.ReferralEarnings)
	repo.AssertExpectations(t)
}

func TestAuthService_ReferralStats_CountFailureTolerated(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{
		UID:          "uid-1",
		ReferralCode: "ABCD1234",
	}, nil)
	repo.On("CountReferredUsers", mock.Anything, "uid-1").Return(0, errors.New("db down"))

	svc := services.NewAuthService(repo, new(AttributorMock), new(JwtMakerMock), newTestLogger())

	stats, err := svc.ReferralStats(context.Background(), "uid-1")

	assert.NoError(t, err)
	assert.Equal(t, 0, stats.ReferredUsers)
}
