package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/afinadao/membership/internal/models"
)

const subscriptionInfoQuery = `SELECT s.id, s.user_id, s.tariff_id, s.tariff_price_id, s.start_date, s.end_date,
	s.status, s.discord_role_granted, s.notion_access_granted, s.drive_access_granted,
	s.created_at, s.updated_at, u.telegram_id, u.discord_id, t.name
	FROM subscriptions s
	JOIN users u ON u.id = s.user_id
	JOIN tariffs t ON t.id = s.tariff_id`

func scanSubscriptionInfo(row rowScanner) (*models.SubscriptionInfo, error) {
	var info models.SubscriptionInfo
	var priceID sql.NullInt64
	var status string
	err := row.Scan(&info.ID, &info.UserID, &info.TariffID, &priceID, &info.StartDate, &info.EndDate,
		&status, &info.Access.DiscordRole, &info.Access.Notion, &info.Access.Drive,
		&info.CreatedAt, &info.UpdatedAt, &info.TelegramID, &info.DiscordID, &info.TariffName)
	if err != nil {
		return nil, err
	}
	info.TariffPriceID = nullInt64(priceID)
	info.Status = models.SubscriptionStatus(status)
	return &info, nil
}

func collectSubscriptionInfo(rows *sql.Rows) ([]*models.SubscriptionInfo, error) {
	defer rows.Close()
	var res []*models.SubscriptionInfo
	for rows.Next() {
		info, err := scanSubscriptionInfo(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetSubscriptionInfo возвращает подписку вместе с контактами пользователя.
func (s *Storage) GetSubscriptionInfo(ctx context.Context, id int64) (*models.SubscriptionInfo, error) {
	const op = "storage.GetSubscriptionInfo"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	info, err := scanSubscriptionInfo(s.DB.QueryRowContext(ctx, subscriptionInfoQuery+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, notFound(op, err)
	}
	return info, nil
}

// ListUserSubscriptions возвращает все подписки пользователя, новые первыми.
func (s *Storage) ListUserSubscriptions(ctx context.Context, userID int64) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ListUserSubscriptions"
	rows, err := s.DB.QueryContext(ctx, subscriptionInfoQuery+` WHERE s.user_id = $1 ORDER BY s.end_date DESC, s.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := collectSubscriptionInfo(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// ListSubscriptions возвращает подписки для админки с фильтром и пагинацией.
func (s *Storage) ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ListSubscriptions"
	var status any
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	var userID any
	if filter.UserID != nil {
		userID = *filter.UserID
	}

	query := subscriptionInfoQuery + `
		WHERE ($1::text IS NULL OR s.status = $1)
		  AND ($2::bigint IS NULL OR s.user_id = $2)
		ORDER BY s.id DESC
		LIMIT $3 OFFSET $4`
	rows, err := s.DB.QueryContext(ctx, query, status, userID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := collectSubscriptionInfo(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// FindExpiredActive возвращает id активных подписок, срок которых наступил к now.
func (s *Storage) FindExpiredActive(ctx context.Context, now time.Time) ([]int64, error) {
	const op = "storage.FindExpiredActive"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id FROM subscriptions WHERE status = 'active' AND end_date <= $1 ORDER BY id`, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// FindActiveEndingBetween возвращает id активных подписок с end_date в [from, to).
func (s *Storage) FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]int64, error) {
	const op = "storage.FindActiveEndingBetween"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id FROM subscriptions
		 WHERE status = 'active' AND end_date >= $1 AND end_date < $2
		 ORDER BY id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// ExpireSubscription переводит активную подписку в expired и снимает флаги доступа.
// Возвращает false, если подписка уже не была активной.
func (s *Storage) ExpireSubscription(ctx context.Context, id int64) (bool, error) {
	const op = "storage.ExpireSubscription"
	return s.closeSubscription(ctx, op, id, models.StatusExpired, `status = 'active'`)
}

// CancelSubscription отменяет ожидающую или активную подписку и снимает флаги доступа.
// Возвращает false, если отменять нечего.
func (s *Storage) CancelSubscription(ctx context.Context, id int64) (bool, error) {
	const op = "storage.CancelSubscription"
	return s.closeSubscription(ctx, op, id, models.StatusCancelled, `status IN ('pending', 'active')`)
}

func (s *Storage) closeSubscription(ctx context.Context, op string, id int64, status models.SubscriptionStatus, cond string) (bool, error) {
	query := `UPDATE subscriptions
			  SET status = $2,
			      discord_role_granted = FALSE,
			      notion_access_granted = FALSE,
			      drive_access_granted = FALSE,
			      updated_at = NOW()
			  WHERE id = $1 AND ` + cond
	result, err := s.DB.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// GrantAccess выставляет флаги доступа действующей подписке. Уже выданные флаги сохраняются.
func (s *Storage) GrantAccess(ctx context.Context, id int64, access models.Access) error {
	const op = "storage.GrantAccess"
	query := `UPDATE subscriptions
			  SET discord_role_granted = discord_role_granted OR $2,
			      notion_access_granted = notion_access_granted OR $3,
			      drive_access_granted = drive_access_granted OR $4,
			      updated_at = NOW()
			  WHERE id = $1 AND status = 'active' AND end_date > NOW()`
	result, err := s.DB.ExecContext(ctx, query, id, access.DiscordRole, access.Notion, access.Drive)
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

// UpdateSubscription меняет дату окончания и/или статус. Неактивная подписка
// теряет флаги доступа.
func (s *Storage) UpdateSubscription(ctx context.Context, id int64, endDate *time.Time, status *models.SubscriptionStatus) error {
	const op = "storage.UpdateSubscription"
	var end any
	if endDate != nil {
		end = *endDate
	}
	var st any
	if status != nil {
		st = string(*status)
	}

	query := `UPDATE subscriptions
			  SET end_date = COALESCE($2::timestamptz, end_date),
			      status = COALESCE($3::text, status),
			      discord_role_granted = discord_role_granted AND COALESCE($3::text, status) = 'active',
			      notion_access_granted = notion_access_granted AND COALESCE($3::text, status) = 'active',
			      drive_access_granted = drive_access_granted AND COALESCE($3::text, status) = 'active',
			      updated_at = NOW()
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id, end, st)
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
