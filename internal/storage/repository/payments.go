package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var intentID sql.NullString
	var metadata []byte
	if err := row.Scan(&p.ID, &p.UserUID, &intentID, &p.Status, &p.Plan,
		&p.Amount, &p.Currency, &p.DurationDays, &metadata, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.PaymentIntentID = intentID.String
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return p, nil
}

const paymentColumns = `id, user_uid, payment_intent_id, status, plan, amount, currency, duration_days, metadata, created_at`

// CreatePayment вставляет новый платёж в статусе pending и возвращает его ID.
// Идентификатор платежа на стороне шлюза ещё неизвестен и проставляется
// позже через SetPaymentIntentID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (string, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var intentID sql.NullString
	if p.PaymentIntentID != "" {
		intentID = sql.NullString{String: p.PaymentIntentID, Valid: true}
	}
	query := `INSERT INTO payments (user_uid, payment_intent_id, status, plan, amount, currency, duration_days, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		p.UserUID, intentID, models.PaymentStatusPending, p.Plan, p.Amount,
		p.Currency, p.DurationDays, metadata).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// SetPaymentIntentID привязывает к платежу идентификатор, выданный шлюзом.
func (s *Storage) SetPaymentIntentID(ctx context.Context, paymentID, intentID string) error {
	const op = "storage.SetPaymentIntentID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments SET payment_intent_id = $1, updated_at = now() WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, intentID, paymentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrPaymentNotFound)
	}
	return nil
}

// GetPaymentByIntentID возвращает платёж по идентификатору на стороне шлюза.
func (s *Storage) GetPaymentByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByIntentID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_intent_id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, intentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// TransitionPayment переводит платёж из pending в терминальный статус.
// Условие status = 'pending' в WHERE делает запись точкой фиксации:
// повторная доставка вебхука не проходит по условию и возвращается как
// ErrPaymentAlreadyTerminal, побочные эффекты при этом не выполняются.
func (s *Storage) TransitionPayment(ctx context.Context, intentID, status string) (*models.Payment, error) {
	const op = "storage.TransitionPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
		      SET status = $2, updated_at = now()
			  WHERE payment_intent_id = $1 AND status = $3
			  RETURNING ` + paymentColumns
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, intentID, status, models.PaymentStatusPending))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Строка не обновилась: либо платежа нет, либо он уже терминален.
	existing, lookupErr := s.GetPaymentByIntentID(ctx, intentID)
	if lookupErr != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentNotFound)
	}
	return existing, fmt.Errorf("%s: %w", op, models.ErrPaymentAlreadyTerminal)
}

// ListPaymentsByUser возвращает платежи пользователя с пагинацией, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
