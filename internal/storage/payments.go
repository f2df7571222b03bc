package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/afinadao/membership/internal/models"
)

// CreatePendingOrder в одной транзакции создаёт подписку-заготовку в статусе pending
// и ожидающий платёж по ней.
func (s *Storage) CreatePendingOrder(ctx context.Context, userID int64, price models.TariffPrice, orderID string, now time.Time) (int64, int64, error) {
	const op = "storage.CreatePendingOrder"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var subID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, tariff_id, tariff_price_id, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending')
		 RETURNING id`,
		userID, price.TariffID, price.ID, now, now.AddDate(0, 0, price.PeriodDays)).Scan(&subID)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	var paymentID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO payments (subscription_id, user_id, order_id, amount, currency, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending')
		 RETURNING id`,
		subID, userID, orderID, price.Amount, price.Currency).Scan(&paymentID)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return subID, paymentID, nil
}

// SetInvoice сохраняет ссылку на счёт провайдера.
func (s *Storage) SetInvoice(ctx context.Context, paymentID int64, invoiceURL, providerPaymentID string) error {
	const op = "storage.SetInvoice"
	_, err := s.DB.ExecContext(ctx,
		`UPDATE payments SET invoice_url = $2, provider_payment_id = $3 WHERE id = $1`,
		paymentID, invoiceURL, providerPaymentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPaymentByOrderID возвращает платёж по order_id.
func (s *Storage) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByOrderID"
	var p models.Payment
	var status string
	var completedAt sql.NullTime
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, subscription_id, user_id, order_id, amount, currency, provider_payment_id,
		        invoice_url, status, created_at, completed_at
		 FROM payments WHERE order_id = $1`, orderID).
		Scan(&p.ID, &p.SubscriptionID, &p.UserID, &p.OrderID, &p.Amount, &p.Currency,
			&p.ProviderPaymentID, &p.InvoiceURL, &status, &p.CreatedAt, &completedAt)
	if err != nil {
		return nil, notFound(op, err)
	}
	p.Status = models.PaymentStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return &p, nil
}

// CompletePayment зачисляет платёж. Если у пользователя уже есть действующая подписка
// того же тарифа, она продлевается на период цены, а заготовка отменяется; иначе
// заготовка активируется с now. Платёж и подписки меняются в одной транзакции.
func (s *Storage) CompletePayment(ctx context.Context, orderID, providerPaymentID string, now time.Time) (*models.PaymentCompletion, error) {
	const op = "storage.CompletePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res := &models.PaymentCompletion{}
	var placeholderID int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT id, subscription_id, user_id, status FROM payments WHERE order_id = $1 FOR UPDATE`,
		orderID).Scan(&res.PaymentID, &placeholderID, &res.UserID, &status)
	if err != nil {
		return nil, notFound(op, err)
	}
	if models.PaymentStatus(status) == models.PaymentCompleted {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentFinalized)
	}

	var periodDays int
	err = tx.QueryRowContext(ctx,
		`SELECT s.tariff_id, p.period_days
		 FROM subscriptions s
		 JOIN tariff_prices p ON p.id = s.tariff_price_id
		 WHERE s.id = $1
		 FOR UPDATE OF s`, placeholderID).Scan(&res.TariffID, &periodDays)
	if err != nil {
		return nil, notFound(op, err)
	}

	var existingID int64
	var existingEnd time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT id, end_date FROM subscriptions
		 WHERE user_id = $1 AND tariff_id = $2 AND id <> $3
		   AND status = 'active' AND end_date > $4
		 ORDER BY end_date DESC
		 LIMIT 1
		 FOR UPDATE`, res.UserID, res.TariffID, placeholderID, now).Scan(&existingID, &existingEnd)
	switch {
	case err == nil:
		res.Renewed = true
		res.SubscriptionID = existingID
		res.EndDate = existingEnd.AddDate(0, 0, periodDays)
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET end_date = $2, updated_at = NOW() WHERE id = $1`,
			existingID, res.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET status = 'cancelled', updated_at = NOW() WHERE id = $1`,
			placeholderID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		res.SubscriptionID = placeholderID
		res.EndDate = now.AddDate(0, 0, periodDays)
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions
			 SET status = 'active', start_date = $2, end_date = $3, updated_at = NOW()
			 WHERE id = $1`,
			placeholderID, now, res.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = 'completed', provider_payment_id = $2, completed_at = $3 WHERE id = $1`,
		res.PaymentID, providerPaymentID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// CloseUnpaidPayment переводит незавершённый платёж в status (failed, refunded, cancelled)
// и отменяет его подписку-заготовку. Возвращает false, если статус уже такой.
func (s *Storage) CloseUnpaidPayment(ctx context.Context, orderID string, status models.PaymentStatus, providerPaymentID string) (bool, error) {
	const op = "storage.CloseUnpaidPayment"
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var paymentID, subID int64
	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT id, subscription_id, status FROM payments WHERE order_id = $1 FOR UPDATE`,
		orderID).Scan(&paymentID, &subID, &current)
	if err != nil {
		return false, notFound(op, err)
	}
	if models.PaymentStatus(current) == models.PaymentCompleted {
		return false, fmt.Errorf("%s: %w", op, ErrPaymentFinalized)
	}
	if models.PaymentStatus(current) == status {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $2, provider_payment_id = $3 WHERE id = $1`,
		paymentID, string(status), providerPaymentID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'cancelled', updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
		subID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
