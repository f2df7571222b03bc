package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afinadao/membership/internal/models"
)

// InsertAudit добавляет запись в журнал аудита.
func (s *Storage) InsertAudit(ctx context.Context, e models.AuditEntry) error {
	const op = "storage.InsertAudit"
	var subID any
	if e.SubscriptionID != nil {
		subID = *e.SubscriptionID
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, subscription_id, event, channel, message)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.UserID, subID, e.Event, e.Channel, e.Message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AuditExists сообщает, есть ли у подписки запись с событием event.
func (s *Storage) AuditExists(ctx context.Context, subscriptionID int64, event string) (bool, error) {
	const op = "storage.AuditExists"
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM audit_log WHERE subscription_id = $1 AND event = $2)`,
		subscriptionID, event).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListAudit возвращает журнал, новые записи первыми. userID ограничивает выборку
// одним пользователем.
func (s *Storage) ListAudit(ctx context.Context, userID *int64, limit, offset int) ([]*models.AuditEntry, error) {
	const op = "storage.ListAudit"
	var uid any
	if userID != nil {
		uid = *userID
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, subscription_id, event, channel, message, created_at
		 FROM audit_log
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY id DESC
		 LIMIT $2 OFFSET $3`, uid, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var res []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var subID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &subID, &e.Event, &e.Channel, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.SubscriptionID = nullInt64(subID)
		res = append(res, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
