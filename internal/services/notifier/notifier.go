// Package notifier выполняет решения политики уведомлений: переводит
// подписки в expired, переносит или отзывает доступы, отправляет сообщения
// в Telegram и Discord и пишет журнал аудита. Ошибки доставки не возвращаются.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/afinadao/membership/internal/clients/discord"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/metrics"
	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services/policy"
	"github.com/afinadao/membership/internal/storage"
)

// Repository описывает методы хранилища, нужные уведомлениям.
type Repository interface {
	GetSubscriptionInfo(ctx context.Context, id int64) (*models.SubscriptionInfo, error)
	ListUserSubscriptions(ctx context.Context, userID int64) ([]*models.SubscriptionInfo, error)
	GetSettings(ctx context.Context) (*models.Settings, error)
	ListTariffs(ctx context.Context, includeArchived bool) ([]*models.Tariff, error)
	GetTariff(ctx context.Context, id int64) (*models.Tariff, error)
	GetNotificationText(ctx context.Context, days int) (*models.NotificationText, error)
	ExpireSubscription(ctx context.Context, id int64) (bool, error)
	GrantAccess(ctx context.Context, id int64, access models.Access) error
	InsertAudit(ctx context.Context, e models.AuditEntry) error
	AuditExists(ctx context.Context, subscriptionID int64, event string) (bool, error)
}

// TelegramSender отправляет сообщения в Telegram.
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// DiscordClient отправляет личные сообщения и снимает роли в Discord.
type DiscordClient interface {
	SendDirectMessage(ctx context.Context, userID, content string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}

// Notifier обрабатывает истёкшие и истекающие подписки.
type Notifier struct {
	repo     Repository
	telegram TelegramSender
	discord  DiscordClient
	loc      *time.Location
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Notifier. loc часовой пояс дат в сообщениях.
func New(repo Repository, telegram TelegramSender, discord DiscordClient, loc *time.Location, log *slog.Logger) *Notifier {
	return &Notifier{
		repo:     repo,
		telegram: telegram,
		discord:  discord,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// HandleExpired переводит истёкшую подписку в expired и уведомляет пользователя.
// Повторный вызов для уже обработанной подписки ничего не делает.
func (n *Notifier) HandleExpired(ctx context.Context, subscriptionID int64) error {
	const op = "notifier.HandleExpired"
	log := n.log.With(slog.String("op", op), slog.Int64("subscription_id", subscriptionID))
	now := n.now()

	info, err := n.repo.GetSubscriptionInfo(ctx, subscriptionID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("subscription not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if info.Status != models.StatusActive || info.EndDate.After(now) {
		log.Debug("subscription is not due for expiry", slog.String("status", string(info.Status)))
		return nil
	}

	subs, err := n.repo.ListUserSubscriptions(ctx, info.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	settings, err := n.repo.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	catalog, err := n.repo.ListTariffs(ctx, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	decision := policy.Decide(policy.Input{
		Subscription:      *info,
		UserSubscriptions: subs,
		Settings:          *settings,
		Catalog:           catalog,
		Now:               now,
	})

	changed, err := n.repo.ExpireSubscription(ctx, info.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		log.Info("subscription already processed")
		return nil
	}
	metrics.RecordExpired()
	log.Info("subscription expired",
		slog.Bool("revoke", decision.Revoke),
		slog.Bool("omit_grace", decision.OmitGrace),
	)

	n.settleAccess(ctx, log, info, decision.KeepWith)

	msg := policy.ExpiryMessage(decision, *info, n.loc)
	n.deliver(ctx, log, info, models.EventExpired, metrics.KindExpired, msg)
	return nil
}

// HandleUpcoming отправляет предупреждение за days дней до окончания, если
// для days задан текст и предупреждение ещё не отправлялось.
func (n *Notifier) HandleUpcoming(ctx context.Context, subscriptionID int64, days int) error {
	const op = "notifier.HandleUpcoming"
	log := n.log.With(slog.String("op", op), slog.Int64("subscription_id", subscriptionID), slog.Int("days", days))

	text, err := n.repo.GetNotificationText(ctx, days)
	if errors.Is(err, storage.ErrNotFound) {
		log.Debug("no notification text configured")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	info, err := n.repo.GetSubscriptionInfo(ctx, subscriptionID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("subscription not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if info.Status != models.StatusActive || policy.DaysUntil(n.now(), info.EndDate, n.loc) != days {
		log.Debug("subscription is no longer in the warning window")
		return nil
	}

	event := models.WarningEvent(days, info.EndDate.In(n.loc))
	sent, err := n.repo.AuditExists(ctx, info.ID, event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sent {
		log.Debug("warning already sent")
		return nil
	}

	msg := policy.WarningMessage(text.Text, info.EndDate, days, n.loc)
	n.deliver(ctx, log, info, event, metrics.KindWarning, msg)
	return nil
}

// RevokeAccess снимает доступы закрытой подписки или переносит их на другую
// действующую подписку пользователя. info снимок подписки до закрытия.
func (n *Notifier) RevokeAccess(ctx context.Context, info *models.SubscriptionInfo) error {
	const op = "notifier.RevokeAccess"
	log := n.log.With(slog.String("op", op), slog.Int64("subscription_id", info.ID))

	subs, err := n.repo.ListUserSubscriptions(ctx, info.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n.settleAccess(ctx, log, info, policy.KeepWith(*info, subs, n.now()))
	return nil
}

func (n *Notifier) settleAccess(ctx context.Context, log *slog.Logger, info *models.SubscriptionInfo, keepWith *models.SubscriptionInfo) {
	if !info.Access.Any() {
		return
	}
	subID := info.ID

	if keepWith != nil {
		if err := n.repo.GrantAccess(ctx, keepWith.ID, info.Access); err != nil {
			log.Error("failed to move access flags", sl.Err(err), slog.Int64("keep_with", keepWith.ID))
			return
		}
		n.audit(ctx, log, models.AuditEntry{
			UserID:         info.UserID,
			SubscriptionID: &subID,
			Event:          models.EventAccessKept,
			Channel:        models.ChannelSystem,
			Message:        fmt.Sprintf("access moved to subscription %d: %s", keepWith.ID, describeAccess(info.Access)),
		})
		return
	}

	if info.Access.DiscordRole && info.DiscordID != "" {
		n.removeDiscordRole(ctx, log, info)
	}
	n.audit(ctx, log, models.AuditEntry{
		UserID:         info.UserID,
		SubscriptionID: &subID,
		Event:          models.EventAccessRevoked,
		Channel:        models.ChannelSystem,
		Message:        describeAccess(info.Access),
	})
}

func (n *Notifier) removeDiscordRole(ctx context.Context, log *slog.Logger, info *models.SubscriptionInfo) {
	tariff, err := n.repo.GetTariff(ctx, info.TariffID)
	if err != nil {
		log.Error("failed to load tariff for role removal", sl.Err(err))
		return
	}
	if tariff.DiscordRoleID == "" {
		return
	}
	if err := n.discord.RemoveRole(ctx, info.DiscordID, tariff.DiscordRoleID); err != nil {
		log.Error("failed to remove discord role", sl.Err(err))
	}
}

func (n *Notifier) deliver(ctx context.Context, log *slog.Logger, info *models.SubscriptionInfo, event, kind, msg string) {
	subID := info.ID

	err := n.telegram.SendMessage(ctx, info.TelegramID, msg)
	metrics.RecordNotification(models.ChannelTelegram, kind, err)
	if err != nil {
		log.Error("failed to send telegram notification", sl.Err(err))
	} else {
		n.audit(ctx, log, models.AuditEntry{
			UserID: info.UserID, SubscriptionID: &subID, Event: event, Channel: models.ChannelTelegram, Message: msg,
		})
	}

	if info.DiscordID == "" {
		return
	}
	err = n.discord.SendDirectMessage(ctx, info.DiscordID, msg)
	metrics.RecordNotification(models.ChannelDiscord, kind, err)
	switch {
	case errors.Is(err, discord.ErrDMDisabled), errors.Is(err, discord.ErrDisabled):
		log.Info("discord notification skipped", sl.Err(err))
	case err != nil:
		log.Error("failed to send discord notification", sl.Err(err))
	default:
		n.audit(ctx, log, models.AuditEntry{
			UserID: info.UserID, SubscriptionID: &subID, Event: event, Channel: models.ChannelDiscord, Message: msg,
		})
	}
}

func (n *Notifier) audit(ctx context.Context, log *slog.Logger, e models.AuditEntry) {
	if err := n.repo.InsertAudit(ctx, e); err != nil {
		log.Error("failed to write audit log", sl.Err(err), slog.String("event", e.Event))
	}
}

func describeAccess(a models.Access) string {
	var parts []string
	if a.DiscordRole {
		parts = append(parts, "discord_role")
	}
	if a.Notion {
		parts = append(parts, "notion")
	}
	if a.Drive {
		parts = append(parts, "drive")
	}
	return strings.Join(parts, ",")
}
