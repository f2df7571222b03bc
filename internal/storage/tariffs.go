package storage

import (
	"context"
	"fmt"

	"github.com/afinadao/membership/internal/models"
)

// ListTariffs возвращает каталог тарифов с ценами. Архивные тарифы
// попадают в выборку только при includeArchived.
func (s *Storage) ListTariffs(ctx context.Context, includeArchived bool) ([]*models.Tariff, error) {
	const op = "storage.ListTariffs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, description, is_active, is_archived, is_custom, discord_role_id, created_at
		 FROM tariffs
		 WHERE $1 OR NOT is_archived
		 ORDER BY id`, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tariffs []*models.Tariff
	byID := make(map[int64]*models.Tariff)
	for rows.Next() {
		var t models.Tariff
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.IsActive, &t.IsArchived,
			&t.IsCustom, &t.DiscordRoleID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tariffs = append(tariffs, &t)
		byID[t.ID] = &t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(tariffs) == 0 {
		return tariffs, nil
	}

	priceRows, err := s.DB.QueryContext(ctx,
		`SELECT id, tariff_id, period_days, amount, currency FROM tariff_prices ORDER BY tariff_id, period_days`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer priceRows.Close()
	for priceRows.Next() {
		var p models.TariffPrice
		if err := priceRows.Scan(&p.ID, &p.TariffID, &p.PeriodDays, &p.Amount, &p.Currency); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if t, ok := byID[p.TariffID]; ok {
			t.Prices = append(t.Prices, p)
		}
	}
	if err := priceRows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tariffs, nil
}

// GetTariffPrice возвращает цену вместе с её тарифом.
func (s *Storage) GetTariffPrice(ctx context.Context, priceID int64) (*models.Tariff, *models.TariffPrice, error) {
	const op = "storage.GetTariffPrice"
	var t models.Tariff
	var p models.TariffPrice
	err := s.DB.QueryRowContext(ctx,
		`SELECT p.id, p.tariff_id, p.period_days, p.amount, p.currency,
		        t.name, t.description, t.is_active, t.is_archived, t.is_custom, t.discord_role_id, t.created_at
		 FROM tariff_prices p
		 JOIN tariffs t ON t.id = p.tariff_id
		 WHERE p.id = $1`, priceID).
		Scan(&p.ID, &p.TariffID, &p.PeriodDays, &p.Amount, &p.Currency,
			&t.Name, &t.Description, &t.IsActive, &t.IsArchived, &t.IsCustom, &t.DiscordRoleID, &t.CreatedAt)
	if err != nil {
		return nil, nil, notFound(op, err)
	}
	t.ID = p.TariffID
	return &t, &p, nil
}

// GetTariff возвращает тариф без цен.
func (s *Storage) GetTariff(ctx context.Context, id int64) (*models.Tariff, error) {
	const op = "storage.GetTariff"
	var t models.Tariff
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, description, is_active, is_archived, is_custom, discord_role_id, created_at
		 FROM tariffs WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.IsActive, &t.IsArchived, &t.IsCustom, &t.DiscordRoleID, &t.CreatedAt)
	if err != nil {
		return nil, notFound(op, err)
	}
	return &t, nil
}

// CreateTariff создаёт тариф вместе с ценами и возвращает его id.
func (s *Storage) CreateTariff(ctx context.Context, tariff models.DummyTariff) (int64, error) {
	const op = "storage.CreateTariff"
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO tariffs (name, description, is_custom, discord_role_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		tariff.Name, tariff.Description, tariff.IsCustom, tariff.DiscordRoleID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range tariff.Prices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tariff_prices (tariff_id, period_days, amount, currency) VALUES ($1, $2, $3, $4)`,
			id, p.PeriodDays, p.Amount, p.Currency); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ArchiveTariff убирает тариф из продажи.
func (s *Storage) ArchiveTariff(ctx context.Context, id int64) error {
	const op = "storage.ArchiveTariff"
	result, err := s.DB.ExecContext(ctx,
		`UPDATE tariffs SET is_archived = TRUE, is_active = FALSE WHERE id = $1`, id)
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
