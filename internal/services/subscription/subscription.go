// Package subscription реализует операции с подписками, каталогом тарифов,
// настройками и пользователями для бота и админки.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
)

// PatchDateLayout формат даты в правках подписки.
const PatchDateLayout = "02-01-2006"

const (
	defaultLimit = 50
	maxLimit     = 200
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetSubscriptionInfo(ctx context.Context, id int64) (*models.SubscriptionInfo, error)
	ListUserSubscriptions(ctx context.Context, userID int64) ([]*models.SubscriptionInfo, error)
	ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]*models.SubscriptionInfo, error)
	UpdateSubscription(ctx context.Context, id int64, endDate *time.Time, status *models.SubscriptionStatus) error
	CancelSubscription(ctx context.Context, id int64) (bool, error)
	InsertAudit(ctx context.Context, e models.AuditEntry) error
}

// Lifecycle повторная оценка подписки после ручной правки.
type Lifecycle interface {
	HandleExpired(ctx context.Context, subscriptionID int64) error
	RevokeAccess(ctx context.Context, info *models.SubscriptionInfo) error
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo      SubscriptionRepository
	lifecycle Lifecycle
	log       *slog.Logger
	now       func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, lifecycle Lifecycle, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		lifecycle: lifecycle,
		log:       log,
		now:       time.Now,
	}
}

// ListForTelegramUser возвращает подписки пользователя бота.
func (s *SubscriptionService) ListForTelegramUser(ctx context.Context, telegramID int64) ([]*models.SubscriptionInfo, error) {
	const op = "subscription.ListForTelegramUser"
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := s.repo.ListUserSubscriptions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// List возвращает подписки для админки с фильтром и пагинацией.
func (s *SubscriptionService) List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.SubscriptionInfo, error) {
	const op = "subscription.List"
	filter.Limit, filter.Offset = Page(filter.Limit, filter.Offset)
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%s: unknown status %q: %w", op, *filter.Status, services.ErrInvalidInput)
	}
	subs, err := s.repo.ListSubscriptions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Update применяет правку администратора и один раз переоценивает подписку:
// активная с прошедшей датой окончания обрабатывается как истёкшая,
// закрытая вручную теряет доступы.
func (s *SubscriptionService) Update(ctx context.Context, id int64, patch models.DummySubscriptionPatch) (*models.SubscriptionInfo, error) {
	const op = "subscription.Update"
	log := s.log.With(slog.String("op", op), slog.Int64("subscription_id", id))

	if patch.EndDate == "" && patch.Status == "" {
		return nil, fmt.Errorf("%s: empty patch: %w", op, services.ErrInvalidInput)
	}
	var endDate *time.Time
	if patch.EndDate != "" {
		d, err := time.Parse(PatchDateLayout, patch.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid end date: %w", op, services.ErrInvalidInput)
		}
		endDate = &d
	}
	var status *models.SubscriptionStatus
	if patch.Status != "" {
		st := models.SubscriptionStatus(patch.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%s: unknown status %q: %w", op, patch.Status, services.ErrInvalidInput)
		}
		status = &st
	}

	before, err := s.repo.GetSubscriptionInfo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateSubscription(ctx, id, endDate, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	after, err := s.repo.GetSubscriptionInfo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("subscription updated",
		slog.String("status", string(after.Status)),
		slog.Time("end_date", after.EndDate),
	)

	switch {
	case after.Status == models.StatusActive && !after.EndDate.After(s.now()):
		if err := s.lifecycle.HandleExpired(ctx, id); err != nil {
			log.Error("failed to process expiry after update", sl.Err(err))
		}
	case before.Status == models.StatusActive && after.Status != models.StatusActive:
		if err := s.lifecycle.RevokeAccess(ctx, before); err != nil {
			log.Error("failed to revoke access after update", sl.Err(err))
		}
	default:
		return after, nil
	}

	after, err = s.repo.GetSubscriptionInfo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return after, nil
}

// Cancel отменяет ожидающую или активную подписку и снимает её доступы.
func (s *SubscriptionService) Cancel(ctx context.Context, id int64) error {
	const op = "subscription.Cancel"
	log := s.log.With(slog.String("op", op), slog.Int64("subscription_id", id))

	before, err := s.repo.GetSubscriptionInfo(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	changed, err := s.repo.CancelSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		return fmt.Errorf("%s: subscription is %s: %w", op, before.Status, services.ErrUnavailable)
	}
	log.Info("subscription cancelled")

	if before.Status == models.StatusActive {
		if err := s.lifecycle.RevokeAccess(ctx, before); err != nil {
			log.Error("failed to revoke access", sl.Err(err))
		}
	}
	if err := s.repo.InsertAudit(ctx, models.AuditEntry{
		UserID:         before.UserID,
		SubscriptionID: &id,
		Event:          models.EventCancelled,
		Channel:        models.ChannelSystem,
	}); err != nil {
		log.Error("failed to write audit log", sl.Err(err))
	}
	return nil
}

// Page нормализует параметры пагинации.
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
