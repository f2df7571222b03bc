package storage

import (
	"context"
	"fmt"

	"github.com/afinadao/membership/internal/models"
)

const userColumns = `id, telegram_id, telegram_username, first_name, discord_id, discord_username,
	email, google_drive_email, is_admin, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.FirstName, &u.DiscordID,
		&u.DiscordUsername, &u.Email, &u.GoogleDriveEmail, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser создаёт пользователя по telegram_id или обновляет его имя.
func (s *Storage) UpsertUser(ctx context.Context, user models.DummyUser) (*models.User, error) {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (telegram_id, telegram_username, first_name)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (telegram_id) DO UPDATE
			  SET telegram_username = EXCLUDED.telegram_username,
			      first_name = EXCLUDED.first_name,
			      updated_at = NOW()
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, user.TelegramID, user.TelegramUsername, user.FirstName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByTelegramID возвращает пользователя по Telegram id.
func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUserByTelegramID"
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		return nil, notFound(op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по внутреннему id.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(op, err)
	}
	return u, nil
}

// LinkDiscord привязывает Discord-аккаунт к пользователю.
func (s *Storage) LinkDiscord(ctx context.Context, telegramID int64, link models.DummyDiscordLink) (*models.User, error) {
	const op = "storage.LinkDiscord"
	query := `UPDATE users
			  SET discord_id = $2, discord_username = $3, updated_at = NOW()
			  WHERE telegram_id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, telegramID, link.DiscordID, link.DiscordUsername))
	if err != nil {
		return nil, notFound(op, err)
	}
	return u, nil
}

// LinkEmail сохраняет почту и почту Google Drive. Пустые значения не затирают старые.
func (s *Storage) LinkEmail(ctx context.Context, telegramID int64, link models.DummyEmailLink) (*models.User, error) {
	const op = "storage.LinkEmail"
	query := `UPDATE users
			  SET email = COALESCE(NULLIF($2, ''), email),
			      google_drive_email = COALESCE(NULLIF($3, ''), google_drive_email),
			      updated_at = NOW()
			  WHERE telegram_id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, telegramID, link.Email, link.GoogleDriveEmail))
	if err != nil {
		return nil, notFound(op, err)
	}
	return u, nil
}

// ListTelegramIDs возвращает Telegram id всех пользователей для рассылки.
func (s *Storage) ListTelegramIDs(ctx context.Context) ([]int64, error) {
	const op = "storage.ListTelegramIDs"
	rows, err := s.DB.QueryContext(ctx, `SELECT telegram_id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
