// Package payment создаёт счета NOWPayments и обрабатывает IPN-уведомления
// об оплате: активирует или продлевает подписку и выдаёт доступы.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/metrics"
	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/paymentprovider"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/services/policy"
	"github.com/afinadao/membership/internal/storage"
	"github.com/google/uuid"
)

// Repository методы хранилища, нужные платежам.
type Repository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetTariffPrice(ctx context.Context, priceID int64) (*models.Tariff, *models.TariffPrice, error)
	GetTariff(ctx context.Context, id int64) (*models.Tariff, error)
	CreatePendingOrder(ctx context.Context, userID int64, price models.TariffPrice, orderID string, now time.Time) (int64, int64, error)
	SetInvoice(ctx context.Context, paymentID int64, invoiceURL, providerPaymentID string) error
	CompletePayment(ctx context.Context, orderID, providerPaymentID string, now time.Time) (*models.PaymentCompletion, error)
	CloseUnpaidPayment(ctx context.Context, orderID string, status models.PaymentStatus, providerPaymentID string) (bool, error)
	GrantAccess(ctx context.Context, id int64, access models.Access) error
	InsertAudit(ctx context.Context, e models.AuditEntry) error
}

// Provider платёжный провайдер.
type Provider interface {
	CreateInvoice(ctx context.Context, req paymentprovider.CreateInvoiceRequest) (*paymentprovider.CreateInvoiceResponse, error)
	VerifyIPN(body []byte, signature string) (*paymentprovider.IPNPayload, error)
}

// TelegramSender отправляет подтверждение оплаты.
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// DiscordRoles выдаёт роль тарифа.
type DiscordRoles interface {
	AddRole(ctx context.Context, userID, roleID string) error
}

// URLs адреса, которые передаются провайдеру при создании счёта.
type URLs struct {
	IPNCallback string
	Success     string
	Cancel      string
}

// PaymentService сервис платежей.
type PaymentService struct {
	repo     Repository
	provider Provider
	telegram TelegramSender
	discord  DiscordRoles
	urls     URLs
	loc      *time.Location
	log      *slog.Logger
	now      func() time.Time
}

// New создает PaymentService.
func New(repo Repository, provider Provider, telegram TelegramSender, discord DiscordRoles, urls URLs, loc *time.Location, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:     repo,
		provider: provider,
		telegram: telegram,
		discord:  discord,
		urls:     urls,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// CreateInvoice создаёт подписку и платёж в статусе pending и счёт у провайдера.
func (s *PaymentService) CreateInvoice(ctx context.Context, req models.DummyPayment) (*models.Invoice, error) {
	const op = "payment.CreateInvoice"

	user, err := s.repo.GetUserByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tariff, price, err := s.repo.GetTariffPrice(ctx, req.TariffPriceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tariff.IsArchived || !tariff.IsActive {
		return nil, fmt.Errorf("%s: tariff %d: %w", op, tariff.ID, services.ErrUnavailable)
	}

	orderID := uuid.NewString()
	subID, paymentID, err := s.repo.CreatePendingOrder(ctx, user.ID, *price, orderID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.provider.CreateInvoice(ctx, paymentprovider.CreateInvoiceRequest{
		PriceAmount:      json.Number(price.Amount),
		PriceCurrency:    strings.ToLower(price.Currency),
		OrderID:          orderID,
		OrderDescription: fmt.Sprintf("%s, %d дней", tariff.Name, price.PeriodDays),
		IPNCallbackURL:   s.urls.IPNCallback,
		SuccessURL:       s.urls.Success,
		CancelURL:        s.urls.Cancel,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetInvoice(ctx, paymentID, resp.InvoiceURL, resp.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("invoice created",
		slog.String("op", op),
		slog.String("order_id", orderID),
		slog.Int64("user_id", user.ID),
		slog.Int64("tariff_price_id", price.ID),
	)
	return &models.Invoice{
		PaymentID:      paymentID,
		SubscriptionID: subID,
		OrderID:        orderID,
		InvoiceURL:     resp.InvoiceURL,
	}, nil
}

// ProcessIPN проверяет подпись уведомления и применяет новый статус платежа.
// Повторное уведомление по завершённому платежу ничего не меняет.
func (s *PaymentService) ProcessIPN(ctx context.Context, body []byte, signature string) error {
	const op = "payment.ProcessIPN"

	payload, err := s.provider.VerifyIPN(body, signature)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log := s.log.With(
		slog.String("op", op),
		slog.String("order_id", payload.OrderID),
		slog.String("payment_status", payload.PaymentStatus),
	)
	providerID := payload.PaymentID.String()

	var status models.PaymentStatus
	switch payload.PaymentStatus {
	case paymentprovider.IPNStatusFinished:
		return s.complete(ctx, log, payload.OrderID, providerID)
	case paymentprovider.IPNStatusFailed, paymentprovider.IPNStatusExpired:
		status = models.PaymentFailed
	case paymentprovider.IPNStatusRefunded:
		status = models.PaymentRefunded
	default:
		log.Info("intermediate payment status, nothing to do")
		return nil
	}

	closed, err := s.repo.CloseUnpaidPayment(ctx, payload.OrderID, status, providerID)
	if errors.Is(err, storage.ErrPaymentFinalized) {
		log.Info("payment already completed, status change ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if closed {
		metrics.RecordPayment(string(status))
		log.Info("payment closed")
	}
	return nil
}

func (s *PaymentService) complete(ctx context.Context, log *slog.Logger, orderID, providerID string) error {
	const op = "payment.complete"

	c, err := s.repo.CompletePayment(ctx, orderID, providerID, s.now())
	if errors.Is(err, storage.ErrPaymentFinalized) {
		log.Info("payment already completed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordPayment(string(models.PaymentCompleted))
	log.Info("payment completed",
		slog.Int64("subscription_id", c.SubscriptionID),
		slog.Bool("renewed", c.Renewed),
	)

	user, err := s.repo.GetUserByID(ctx, c.UserID)
	if err != nil {
		log.Error("failed to load user after payment", sl.Err(err))
		return nil
	}
	tariff, err := s.repo.GetTariff(ctx, c.TariffID)
	if err != nil {
		log.Error("failed to load tariff after payment", sl.Err(err))
		return nil
	}

	s.grantDiscordRole(ctx, log, user, tariff, c.SubscriptionID)
	s.confirm(ctx, log, user, tariff, c)
	return nil
}

func (s *PaymentService) grantDiscordRole(ctx context.Context, log *slog.Logger, user *models.User, tariff *models.Tariff, subID int64) {
	if user.DiscordID == "" || tariff.DiscordRoleID == "" {
		return
	}
	if err := s.discord.AddRole(ctx, user.DiscordID, tariff.DiscordRoleID); err != nil {
		log.Error("failed to add discord role", sl.Err(err))
		return
	}
	if err := s.repo.GrantAccess(ctx, subID, models.Access{DiscordRole: true}); err != nil {
		log.Error("failed to store access flag", sl.Err(err))
		return
	}
	if err := s.repo.InsertAudit(ctx, models.AuditEntry{
		UserID:         user.ID,
		SubscriptionID: &subID,
		Event:          models.EventAccessGranted,
		Channel:        models.ChannelSystem,
		Message:        "discord_role",
	}); err != nil {
		log.Error("failed to write audit log", sl.Err(err))
	}
}

func (s *PaymentService) confirm(ctx context.Context, log *slog.Logger, user *models.User, tariff *models.Tariff, c *models.PaymentCompletion) {
	msg := ConfirmationMessage(tariff.Name, c.EndDate, c.Renewed, s.loc)
	err := s.telegram.SendMessage(ctx, user.TelegramID, msg)
	metrics.RecordNotification(models.ChannelTelegram, metrics.KindPayment, err)
	if err != nil {
		log.Error("failed to send payment confirmation", sl.Err(err))
		return
	}
	subID := c.SubscriptionID
	if err := s.repo.InsertAudit(ctx, models.AuditEntry{
		UserID:         user.ID,
		SubscriptionID: &subID,
		Event:          models.EventPaymentSuccess,
		Channel:        models.ChannelTelegram,
		Message:        msg,
	}); err != nil {
		log.Error("failed to write audit log", sl.Err(err))
	}
}

// ConfirmationMessage текст подтверждения оплаты.
func ConfirmationMessage(tariffName string, endDate time.Time, renewed bool, loc *time.Location) string {
	date := endDate.In(loc).Format(policy.DateLayout)
	if renewed {
		return fmt.Sprintf("Оплата получена. Подписка «%s» продлена до %s.", tariffName, date)
	}
	return fmt.Sprintf("Оплата получена. Подписка «%s» активна до %s.", tariffName, date)
}
