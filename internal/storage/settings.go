package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afinadao/membership/internal/models"
)

// GetSettings возвращает строку настроек.
func (s *Storage) GetSettings(ctx context.Context) (*models.Settings, error) {
	const op = "storage.GetSettings"
	var st models.Settings
	var mode string
	var tariffID sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT actual_tariff_mode, actual_tariff_id, grace_period_days, updated_at
		 FROM settings WHERE id = 1`).Scan(&mode, &tariffID, &st.GracePeriodDays, &st.UpdatedAt)
	if err != nil {
		return nil, notFound(op, err)
	}
	st.ActualTariffMode = models.ActualTariffMode(mode)
	st.ActualTariffID = nullInt64(tariffID)
	return &st, nil
}

// UpdateSettings перезаписывает строку настроек.
func (s *Storage) UpdateSettings(ctx context.Context, st models.Settings) error {
	const op = "storage.UpdateSettings"
	var tariffID any
	if st.ActualTariffID != nil {
		tariffID = *st.ActualTariffID
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO settings (id, actual_tariff_mode, actual_tariff_id, grace_period_days, updated_at)
		 VALUES (1, $1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET actual_tariff_mode = EXCLUDED.actual_tariff_mode,
		     actual_tariff_id = EXCLUDED.actual_tariff_id,
		     grace_period_days = EXCLUDED.grace_period_days,
		     updated_at = NOW()`,
		string(st.ActualTariffMode), tariffID, st.GracePeriodDays)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListNotificationTexts возвращает все настроенные тексты по возрастанию дней.
func (s *Storage) ListNotificationTexts(ctx context.Context) ([]*models.NotificationText, error) {
	const op = "storage.ListNotificationTexts"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT days_before, text, updated_at FROM notification_texts ORDER BY days_before`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var res []*models.NotificationText
	for rows.Next() {
		var nt models.NotificationText
		if err := rows.Scan(&nt.DaysBefore, &nt.Text, &nt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, &nt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetNotificationText возвращает текст предупреждения за days дней.
func (s *Storage) GetNotificationText(ctx context.Context, days int) (*models.NotificationText, error) {
	const op = "storage.GetNotificationText"
	var nt models.NotificationText
	err := s.DB.QueryRowContext(ctx,
		`SELECT days_before, text, updated_at FROM notification_texts WHERE days_before = $1`, days).
		Scan(&nt.DaysBefore, &nt.Text, &nt.UpdatedAt)
	if err != nil {
		return nil, notFound(op, err)
	}
	return &nt, nil
}

// UpsertNotificationText создаёт или заменяет текст за days дней.
func (s *Storage) UpsertNotificationText(ctx context.Context, days int, text string) error {
	const op = "storage.UpsertNotificationText"
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO notification_texts (days_before, text, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (days_before) DO UPDATE SET text = EXCLUDED.text, updated_at = NOW()`,
		days, text)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteNotificationText удаляет текст за days дней.
func (s *Storage) DeleteNotificationText(ctx context.Context, days int) error {
	const op = "storage.DeleteNotificationText"
	result, err := s.DB.ExecContext(ctx, `DELETE FROM notification_texts WHERE days_before = $1`, days)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
