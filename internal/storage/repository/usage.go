package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// UpsertUsage накапливает статистику трафика ключа за сутки.
// Уникальный индекс по (key_id, date) гарантирует не более одной строки
// на день, конфликт превращает вставку в атомарный инкремент счётчиков.
func (s *Storage) UpsertUsage(ctx context.Context, rec models.UsageRecord) error {
	const op = "storage.UpsertUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO vpn_usage (key_id, user_uid, date, bytes_uploaded, bytes_downloaded)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (key_id, date) DO UPDATE
			  SET bytes_uploaded = vpn_usage.bytes_uploaded + EXCLUDED.bytes_uploaded,
			      bytes_downloaded = vpn_usage.bytes_downloaded + EXCLUDED.bytes_downloaded`
	_, err := s.DB.ExecContext(ctx, query,
		rec.KeyID, rec.UserUID, rec.Date, rec.BytesUploaded, rec.BytesDownloaded)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	touch := `UPDATE vpn_keys SET last_used = now() WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, touch, rec.KeyID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUsageStats возвращает дневную статистику трафика ключа за период.
func (s *Storage) GetUsageStats(ctx context.Context, keyID string, from, to time.Time) ([]*models.UsageDay, error) {
	const op = "storage.GetUsageStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT date,
			      SUM(bytes_uploaded) AS upload,
			      SUM(bytes_downloaded) AS download,
			      SUM(bytes_uploaded + bytes_downloaded) AS total
			  FROM vpn_usage
			  WHERE key_id = $1 AND date BETWEEN $2 AND $3
			  GROUP BY date
			  ORDER BY date`
	rows, err := s.DB.QueryContext(ctx, query, keyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UsageDay
	for rows.Next() {
		var day models.UsageDay
		if err := rows.Scan(&day.Date, &day.Upload, &day.Download, &day.Total); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
