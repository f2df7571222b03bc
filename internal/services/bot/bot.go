// Package bot обрабатывает обновления Telegram, пришедшие на вебхук.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/afinadao/membership/internal/clients/telegram"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/services/auth"
	"github.com/afinadao/membership/internal/services/policy"
)

// Repository методы хранилища, нужные боту.
type Repository interface {
	UpsertUser(ctx context.Context, user models.DummyUser) (*models.User, error)
	ListUserSubscriptions(ctx context.Context, userID int64) ([]*models.SubscriptionInfo, error)
}

// Messenger исходящие вызовы Bot API.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
}

// LoginResolver решает запросы на вход в админку.
type LoginResolver interface {
	Resolve(ctx context.Context, requestID string, telegramID int64, approve bool) (auth.LoginStatus, error)
}

// BotService обработчик обновлений.
type BotService struct {
	repo      Repository
	messenger Messenger
	logins    LoginResolver
	loc       *time.Location
	log       *slog.Logger
	now       func() time.Time
}

// New создает BotService.
func New(repo Repository, messenger Messenger, logins LoginResolver, loc *time.Location, log *slog.Logger) *BotService {
	return &BotService{
		repo:      repo,
		messenger: messenger,
		logins:    logins,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// HandleUpdate обрабатывает одно обновление. Неизвестные обновления игнорируются.
func (b *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	}
	return nil
}

func (b *BotService) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	const op = "bot.handleMessage"
	if msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}

	user, err := b.repo.UpsertUser(ctx, models.DummyUser{
		TelegramID:       msg.From.ID,
		TelegramUsername: msg.From.UserName,
		FirstName:        msg.From.FirstName,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var reply string
	switch msg.Command() {
	case "start":
		reply = greeting(user)
	case "status":
		subs, err := b.repo.ListUserSubscriptions(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		reply = StatusMessage(subs, b.now(), b.loc)
	default:
		reply = "Неизвестная команда. Доступны /start и /status."
	}

	if err := b.messenger.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		b.log.Error("failed to reply", slog.String("op", op), sl.Err(err))
	}
	return nil
}

func (b *BotService) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	const op = "bot.handleCallback"
	log := b.log.With(slog.String("op", op))

	action, requestID, ok := telegram.ParseLoginCallback(cb.Data)
	if !ok || cb.From == nil {
		b.answer(ctx, log, cb.ID, "")
		return nil
	}

	status, err := b.logins.Resolve(ctx, requestID, cb.From.ID, action == telegram.ActionApprove)
	var text string
	switch {
	case errors.Is(err, auth.ErrLoginNotFound):
		text = "Запрос на вход истёк."
	case errors.Is(err, services.ErrForbidden):
		text = "Этот запрос не ваш."
	case err != nil:
		b.answer(ctx, log, cb.ID, "Ошибка, попробуйте ещё раз.")
		return fmt.Errorf("%s: %w", op, err)
	case status == auth.StatusApproved:
		text = "Вход подтверждён."
	default:
		text = "Вход отклонён."
	}

	b.answer(ctx, log, cb.ID, text)
	if cb.Message != nil && cb.Message.Chat != nil {
		if err := b.messenger.EditMessage(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text); err != nil {
			log.Error("failed to edit login prompt", sl.Err(err))
		}
	}
	return nil
}

func (b *BotService) answer(ctx context.Context, log *slog.Logger, callbackID, text string) {
	if err := b.messenger.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Error("failed to answer callback", sl.Err(err))
	}
}

func greeting(user *models.User) string {
	name := user.FirstName
	if name == "" {
		name = user.TelegramUsername
	}
	if name == "" {
		return "Добро пожаловать в Afina DAO! Команда /status покажет ваши подписки."
	}
	return fmt.Sprintf("Привет, %s! Добро пожаловать в Afina DAO. Команда /status покажет ваши подписки.", name)
}

// StatusMessage список подписок пользователя для ответа на /status.
func StatusMessage(subs []*models.SubscriptionInfo, now time.Time, loc *time.Location) string {
	var b strings.Builder
	for _, s := range subs {
		if s.Status == models.StatusPending {
			continue
		}
		state := "истекла"
		switch {
		case s.ActiveAt(now):
			state = "активна"
		case s.Status == models.StatusCancelled:
			state = "отменена"
		}
		fmt.Fprintf(&b, "• %s: %s, до %s\n", s.TariffName, state, s.EndDate.In(loc).Format(policy.DateLayout))
	}
	if b.Len() == 0 {
		return "У вас пока нет подписок."
	}
	return "Ваши подписки:\n" + b.String()
}
