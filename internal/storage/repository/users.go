package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var telegramID sql.NullInt64
	var subscriptionExpire sql.NullTime
	var referredBy sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &telegramID, &u.Role,
		&u.SubscriptionActive, &subscriptionExpire, &u.ReferralCode, &referredBy,
		&u.ReferralEarnings, &u.CreatedAt); err != nil {
		return nil, err
	}
	if telegramID.Valid {
		u.TelegramID = &telegramID.Int64
	}
	if subscriptionExpire.Valid {
		u.SubscriptionExpireAt = &subscriptionExpire.Time
	}
	if referredBy.Valid {
		u.ReferredBy = &referredBy.String
	}
	return u, nil
}

const userColumns = `uid, email, password_hash, telegram_id, role,
			      subscription_active, subscription_expires_at, referral_code, referred_by,
			      referral_earnings, created_at`

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Реферальный код генерируется до вставки, его уникальность обеспечивает
// ограничение базы: коллизия возвращается как ErrDuplicateReferralCode,
// чтобы вызывающий код повторил генерацию.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, password_hash, telegram_id, role, referral_code, referred_by)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	var telegramID sql.NullInt64
	if user.TelegramID != nil {
		telegramID = sql.NullInt64{Int64: *user.TelegramID, Valid: true}
	}
	var referredBy sql.NullString
	if user.ReferredBy != nil {
		referredBy = sql.NullString{String: *user.ReferredBy, Valid: true}
	}
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, telegramID, user.Role, user.ReferralCode,
		referredBy).Scan(&newID); err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			switch {
			case strings.Contains(constraint, "email"):
				return "", fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
			case strings.Contains(constraint, "referral_code"):
				return "", fmt.Errorf("%s: %w", op, models.ErrDuplicateReferralCode)
			case strings.Contains(constraint, "telegram"):
				return "", fmt.Errorf("%s: %w", op, models.ErrTelegramLinked)
			}
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по адресу электронной почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByTelegramID возвращает пользователя по привязанному Telegram-аккаунту.
func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUserByTelegramID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE telegram_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByReferralCode возвращает пользователя-владельца реферального кода.
func (s *Storage) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	const op = "storage.GetUserByReferralCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE referral_code = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ExtendSubscription атомарно продлевает подписку: новая дата истечения
// считается от максимума из текущей даты истечения и настоящего момента,
// поэтому продление до истечения суммирует окна, а не сбрасывает их.
func (s *Storage) ExtendSubscription(ctx context.Context, userUID string, durationDays int) (time.Time, error) {
	const op = "storage.ExtendSubscription"
	select {
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
		      SET subscription_active = true,
			      subscription_expires_at = GREATEST(COALESCE(subscription_expires_at, now()), now())
			          + make_interval(days => $1),
			      updated_at = now()
			  WHERE uid = $2
			  RETURNING subscription_expires_at`
	var expiresAt time.Time
	err := s.DB.QueryRowContext(ctx, query, durationDays, userUID).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return expiresAt, nil
}

// OverrideSubscription безусловно выставляет оба поля подписки. Административный путь.
func (s *Storage) OverrideSubscription(ctx context.Context, userUID string, active bool, expiresAt *time.Time) error {
	const op = "storage.OverrideSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var expire sql.NullTime
	if expiresAt != nil {
		expire = sql.NullTime{Time: *expiresAt, Valid: true}
	}
	query := `UPDATE users
		      SET subscription_active = $1,
			      subscription_expires_at = $2,
			      updated_at = now()
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, active, expire, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}
	return nil
}

// UpdateEmail обновляет почту пользователя.
func (s *Storage) UpdateEmail(ctx context.Context, userUID, email string) error {
	const op = "storage.UpdateEmail"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET email = $1, updated_at = now() WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, email, userUID)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok && strings.Contains(constraint, "email") {
			return fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}
	return nil
}

// LinkTelegram привязывает Telegram-аккаунт к пользователю.
func (s *Storage) LinkTelegram(ctx context.Context, userUID string, telegramID int64) error {
	const op = "storage.LinkTelegram"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET telegram_id = $1, updated_at = now() WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, telegramID, userUID)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%s: %w", op, models.ErrTelegramLinked)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}
	return nil
}

// CountReferredUsers возвращает число пользователей, зарегистрированных по коду владельца.
func (s *Storage) CountReferredUsers(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountReferredUsers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM users WHERE referred_by = $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListUsers возвращает список пользователей с пагинацией, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UserStats агрегированная статистика по пользователям для админ-панели.
type UserStats struct {
	TotalUsers          int `json:"total_users"`
	ActiveSubscriptions int `json:"active_subscriptions"`
	NewUsers30d         int `json:"new_users_30d"`
}

// GetUserStats возвращает статистику по пользователям.
func (s *Storage) GetUserStats(ctx context.Context) (*UserStats, error) {
	const op = "storage.GetUserStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      COUNT(*),
			      COUNT(*) FILTER (WHERE subscription_active = true AND subscription_expires_at > now()),
			      COUNT(*) FILTER (WHERE created_at >= now() - INTERVAL '30 days')
			  FROM users`
	var stats UserStats
	if err := s.DB.QueryRowContext(ctx, query).Scan(&stats.TotalUsers,
		&stats.ActiveSubscriptions, &stats.NewUsers30d); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}
