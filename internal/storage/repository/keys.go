package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

func scanKey(row interface{ Scan(...any) error }) (*models.VpnKey, error) {
	k := &models.VpnKey{}
	var expiresAt, lastUsed sql.NullTime
	if err := row.Scan(&k.ID, &k.UserUID, &k.Key, &k.ServerLocation, &k.Plan,
		&k.Active, &expiresAt, &lastUsed, &k.CreatedAt); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
	}
	if lastUsed.Valid {
		k.LastUsed = &lastUsed.Time
	}
	return k, nil
}

const keyColumns = `id, user_uid, key, server_location, plan, active, expires_at, last_used, created_at`

// CreateKeyWithQuota выдаёт ключ в одной транзакции: строка владельца
// блокируется FOR UPDATE, затем пересчитываются активные ключи, и только
// при свободной квоте выполняется вставка. Блокировка сериализует
// конкурирующие выдачи одного пользователя, иначе два одновременных
// запроса могли бы обойти лимит тарифа.
func (s *Storage) CreateKeyWithQuota(ctx context.Context, key models.VpnKey, keyLimit int) (*models.VpnKey, error) {
	const op = "storage.CreateKeyWithQuota"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var ownerUID string
	if err := tx.QueryRowContext(ctx,
		`SELECT uid FROM users WHERE uid = $1 FOR UPDATE`, key.UserUID).Scan(&ownerUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var activeCount int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vpn_keys WHERE user_uid = $1 AND active = true`,
		key.UserUID).Scan(&activeCount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if activeCount >= keyLimit {
		return nil, fmt.Errorf("%s: %w", op, models.ErrQuotaExceeded)
	}

	var expiresAt sql.NullTime
	if key.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *key.ExpiresAt, Valid: true}
	}
	query := `INSERT INTO vpn_keys (user_uid, key, server_location, plan, active, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + keyColumns
	created, err := scanKey(tx.QueryRowContext(ctx, query,
		key.UserUID, key.Key, key.ServerLocation, key.Plan, key.Active, expiresAt))
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDuplicateKeyToken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetKey возвращает ключ по его ID.
func (s *Storage) GetKey(ctx context.Context, keyID string) (*models.VpnKey, error) {
	const op = "storage.GetKey"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + keyColumns + ` FROM vpn_keys WHERE id = $1`
	k, err := scanKey(s.DB.QueryRowContext(ctx, query, keyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return k, nil
}

// GetKeyByToken возвращает ключ по его токену.
func (s *Storage) GetKeyByToken(ctx context.Context, token string) (*models.VpnKey, error) {
	const op = "storage.GetKeyByToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + keyColumns + ` FROM vpn_keys WHERE key = $1`
	k, err := scanKey(s.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return k, nil
}

// ListKeysByUser возвращает все ключи пользователя, новые первыми.
func (s *Storage) ListKeysByUser(ctx context.Context, userUID string) ([]*models.VpnKey, error) {
	const op = "storage.ListKeysByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + keyColumns + `
			  FROM vpn_keys
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.VpnKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllKeys возвращает все ключи с пагинацией для админ-панели.
func (s *Storage) ListAllKeys(ctx context.Context, limit, offset int) ([]*models.VpnKey, error) {
	const op = "storage.ListAllKeys"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + keyColumns + `
			  FROM vpn_keys
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.VpnKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeactivateKey снимает флаг активности и возвращает количество изменённых строк.
// Обратной операции для обычных пользователей нет: active = true выставляется
// только при создании ключа.
func (s *Storage) DeactivateKey(ctx context.Context, keyID string) (int, error) {
	const op = "storage.DeactivateKey"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE vpn_keys SET active = false, updated_at = now() WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, keyID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// KeyStats агрегированная статистика по ключам для админ-панели.
type KeyStats struct {
	TotalKeys  int `json:"total_keys"`
	ActiveKeys int `json:"active_keys"`
	NewKeys30d int `json:"new_keys_30d"`
}

// GetKeyStats возвращает статистику по ключам.
func (s *Storage) GetKeyStats(ctx context.Context) (*KeyStats, error) {
	const op = "storage.GetKeyStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      COUNT(*),
			      COUNT(*) FILTER (WHERE active = true),
			      COUNT(*) FILTER (WHERE created_at >= now() - INTERVAL '30 days')
			  FROM vpn_keys`
	var stats KeyStats
	if err := s.DB.QueryRowContext(ctx, query).Scan(&stats.TotalKeys,
		&stats.ActiveKeys, &stats.NewKeys30d); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}
