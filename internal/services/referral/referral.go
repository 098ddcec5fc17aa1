// Package services содержит бизнес-логику реферальной программы:
// привязку приглашённых при регистрации и начисление доли с их платежей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// ReferralRepository определяет методы реферального учёта в хранилище.
type ReferralRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// GetUserByReferralCode возвращает владельца реферального кода.
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	// SetReferredBy привязывает реферера, если привязки ещё не было.
	SetReferredBy(ctx context.Context, userUID, referrerUID string) error
	// CreditReferral начисляет долю рефереру, идемпотентно по платежу.
	// Возвращает false, если начисление по этому платежу уже было.
	CreditReferral(ctx context.Context, paymentID, referrerUID string, amount float64) (bool, error)
}

// ReferralService реализует привязку и начисления реферальной программы.
type ReferralService struct {
	repo ReferralRepository
	log  *slog.Logger
}

// NewReferralService создает новый экземпляр ReferralService.
func NewReferralService(repo ReferralRepository, log *slog.Logger) *ReferralService {
	return &ReferralService{
		repo: repo,
		log:  log,
	}
}

// Attribute привязывает нового пользователя к владельцу реферального кода.
// Неизвестный код не считается ошибкой: регистрация проходит без привязки.
// Собственный код пользователя отклоняется, повторная привязка невозможна.
func (s *ReferralService) Attribute(ctx context.Context, newUserUID, code string) error {
	const op = "services.referral.Attribute"

	if code == "" {
		return nil
	}
	referrer, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			s.log.Info("unknown referral code, skipping attribution",
				slog.String("code", code))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if referrer.UID == newUserUID {
		s.log.Warn("self-referral attempt rejected", slog.String("user_uid", newUserUID))
		return nil
	}
	if err := s.repo.SetReferredBy(ctx, newUserUID, referrer.UID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Credit начисляет рефереру плательщика долю от суммы платежа.
// Начисление идемпотентно по идентификатору платежа: повтор вебхука
// не приводит ко второму начислению. Если у плательщика нет реферера,
// операция завершается без изменений.
func (s *ReferralService) Credit(ctx context.Context, payerUID, paymentID string, amount float64) error {
	const op = "services.referral.Credit"

	payer, err := s.repo.GetUser(ctx, payerUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if payer.ReferredBy == nil {
		return nil
	}

	share := amount * models.ReferralShare
	credited, err := s.repo.CreditReferral(ctx, paymentID, *payer.ReferredBy, share)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !credited {
		s.log.Info("referral already credited for payment",
			slog.String("payment_id", paymentID))
		return nil
	}
	s.log.Info("referral credited",
		slog.String("payment_id", paymentID),
		slog.String("referrer_uid", *payer.ReferredBy),
		slog.Float64("amount", share))
	return nil
}
