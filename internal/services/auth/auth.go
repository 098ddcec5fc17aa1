// Package services содержит логику бизнес-уровня для работы с аккаунтами и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/password"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/refcode"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// maxCodeAttempts ограничивает число повторных генераций реферального
// кода при коллизии уникального индекса.
const maxCodeAttempts = 5

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// GetUserByEmail возвращает пользователя по почте или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByTelegramID возвращает пользователя по привязанному Telegram-аккаунту.
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	// LinkTelegram привязывает Telegram-аккаунт к пользователю.
	LinkTelegram(ctx context.Context, userUID string, telegramID int64) error
	// UpdateEmail меняет почту пользователя.
	UpdateEmail(ctx context.Context, userUID, email string) error
	// CountReferredUsers возвращает число приглашённых пользователей.
	CountReferredUsers(ctx context.Context, userUID string) (int, error)
}

// ReferralAttributor привязывает нового пользователя к владельцу
// реферального кода.
type ReferralAttributor interface {
	Attribute(ctx context.Context, newUserUID, code string) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users     UserRepository
	referrals ReferralAttributor
	jwtMaker  jwt.Maker
	log       *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, referrals ReferralAttributor, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		referrals: referrals,
		jwtMaker:  jwtMaker,
		log:       log,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной ролью "user".
// Реферальный код выдаётся сразу при регистрации; при коллизии уникального
// индекса генерация повторяется. Привязка к рефереру делегируется реферальному
// сервису: неизвестный и собственный код он молча игнорирует.
func (s *AuthService) Register(ctx context.Context, email, rawPassword, referralCode string) (string, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleUser, // дефолтная роль при регистрации
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		user.ReferralCode, err = refcode.Generate()
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		uid, err := s.users.RegisterUser(ctx, user)
		if errors.Is(err, models.ErrDuplicateReferralCode) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if err := s.referrals.Attribute(ctx, uid, referralCode); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return uid, nil
	}
	return "", fmt.Errorf("%s: %w", op, models.ErrDuplicateReferralCode)
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (token, role string, err error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return "", "", models.ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", models.ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.Email, user.Role, user.UID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе, роль и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		Email: claims.Email,
		Role:  claims.Role,
		UID:   claims.UserUID,
	}
	return user, claims.Role, true, nil
}

// Profile возвращает актуальные данные пользователя из хранилища.
func (s *AuthService) Profile(ctx context.Context, userUID string) (*models.User, error) {
	return s.users.GetUser(ctx, userUID)
}

// UpdateEmail меняет почту пользователя.
func (s *AuthService) UpdateEmail(ctx context.Context, userUID, email string) error {
	return s.users.UpdateEmail(ctx, userUID, email)
}

// LinkTelegram привязывает Telegram-аккаунт к пользователю сайта.
func (s *AuthService) LinkTelegram(ctx context.Context, userUID string, telegramID int64) error {
	const op = "services.auth.LinkTelegram"
	if err := s.users.LinkTelegram(ctx, userUID, telegramID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("linked telegram account",
		slog.String("user_uid", userUID),
		slog.Int64("telegram_id", telegramID))
	return nil
}

// FindByTelegram возвращает пользователя по Telegram-аккаунту.
func (s *AuthService) FindByTelegram(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.users.GetUserByTelegramID(ctx, telegramID)
}

// ReferralStats собирает данные раздела "реферальная программа".
func (s *AuthService) ReferralStats(ctx context.Context, userUID string) (*models.ReferralStats, error) {
	const op = "services.auth.ReferralStats"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	count, err := s.users.CountReferredUsers(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to count referred users", sl.Err(err))
		count = 0
	}
	return &models.ReferralStats{
		ReferralCode:     user.ReferralCode,
		ReferredUsers:    count,
		ReferralEarnings: user.ReferralEarnings,
	}, nil
}
