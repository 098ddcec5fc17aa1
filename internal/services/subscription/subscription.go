// Package services содержит бизнес-логику жизненного цикла подписки:
// активацию по оплате, проверку действия и административные переопределения.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// SubscriptionRepository определяет методы для работы с подпиской пользователя в хранилище.
type SubscriptionRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// ExtendSubscription продлевает подписку на durationDays и возвращает новую дату истечения.
	ExtendSubscription(ctx context.Context, userUID string, durationDays int) (time.Time, error)
	// OverrideSubscription выставляет состояние подписки напрямую.
	OverrideSubscription(ctx context.Context, userUID string, active bool, expiresAt *time.Time) error
}

// SubscriptionService реализует жизненный цикл подписки.
type SubscriptionService struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
	}
}

// Activate продлевает подписку пользователя на срок тарифа. Если подписка
// ещё действует, срок прибавляется к текущей дате истечения, иначе отсчёт
// идёт от текущего момента. Отсчёт выбирает SQL-выражение в хранилище,
// поэтому последовательные оплаты складываются, а не перезаписывают друг друга.
func (s *SubscriptionService) Activate(ctx context.Context, userUID string, durationDays int) (time.Time, error) {
	const op = "services.subscription.Activate"

	expiresAt, err := s.repo.ExtendSubscription(ctx, userUID, durationDays)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription extended",
		slog.String("user_uid", userUID),
		slog.Int("days", durationDays),
		slog.Time("expires_at", expiresAt))
	return expiresAt, nil
}

// IsEntitled сообщает, действует ли подписка пользователя прямо сейчас.
// Истечение проверяется по дате при каждом вызове, фоновых задач
// деактивации нет.
func (s *SubscriptionService) IsEntitled(ctx context.Context, userUID string) (bool, error) {
	const op = "services.subscription.IsEntitled"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return user.IsEntitled(time.Now().UTC()), nil
}

// AdminOverride выставляет состояние подписки напрямую, минуя оплату.
// Операция доступна только администраторам и фиксируется в журнале.
func (s *SubscriptionService) AdminOverride(ctx context.Context, adminUID, userUID string, active bool, expiresAt *time.Time) error {
	const op = "services.subscription.AdminOverride"

	if err := s.repo.OverrideSubscription(ctx, userUID, active, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription overridden by admin",
		slog.String("admin_uid", adminUID),
		slog.String("user_uid", userUID),
		slog.Bool("active", active))
	return nil
}
