package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// CreditReferral начисляет рефереру вознаграждение за оплаченный платёж.
// Первичный ключ referral_credits по payment_id вместе с ON CONFLICT DO
// NOTHING делает начисление идемпотентным: повторная доставка вебхука
// по тому же платежу не увеличивает баланс второй раз. Вставка маркера и
// изменение баланса выполняются в одной транзакции.
//
// Возвращает true, если начисление выполнено, и false, если этот платёж
// уже был зачтён ранее.
func (s *Storage) CreditReferral(ctx context.Context, paymentID, referrerUID string, amount float64) (bool, error) {
	const op = "storage.CreditReferral"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO referral_credits (payment_id, referrer_uid, amount)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (payment_id) DO NOTHING`,
		paymentID, referrerUID, amount)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET referral_earnings = referral_earnings + $1, updated_at = now()
		 WHERE uid = $2`,
		amount, referrerUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err = res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return false, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// SetReferredBy записывает реферера нового пользователя. Поле заполняется
// один раз при регистрации, условие referred_by IS NULL защищает от
// повторного переписывания.
func (s *Storage) SetReferredBy(ctx context.Context, userUID, referrerUID string) error {
	const op = "storage.SetReferredBy"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
		      SET referred_by = $1, updated_at = now()
			  WHERE uid = $2 AND referred_by IS NULL`
	res, err := s.DB.ExecContext(ctx, query, referrerUID, userUID)
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
