package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afinadao/membership/internal/models"
)

// UserRepository методы хранилища для пользователей и журнала.
type UserRepository interface {
	UpsertUser(ctx context.Context, user models.DummyUser) (*models.User, error)
	LinkDiscord(ctx context.Context, telegramID int64, link models.DummyDiscordLink) (*models.User, error)
	LinkEmail(ctx context.Context, telegramID int64, link models.DummyEmailLink) (*models.User, error)
	ListAudit(ctx context.Context, userID *int64, limit, offset int) ([]*models.AuditEntry, error)
}

// UserService регистрация пользователей бота и привязка аккаунтов.
type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, log *slog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

func (s *UserService) Upsert(ctx context.Context, req models.DummyUser) (*models.User, error) {
	const op = "subscription.Upsert"
	user, err := s.repo.UpsertUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *UserService) LinkDiscord(ctx context.Context, telegramID int64, req models.DummyDiscordLink) (*models.User, error) {
	const op = "subscription.LinkDiscord"
	user, err := s.repo.LinkDiscord(ctx, telegramID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("discord linked", slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserService) LinkEmail(ctx context.Context, telegramID int64, req models.DummyEmailLink) (*models.User, error) {
	const op = "subscription.LinkEmail"
	user, err := s.repo.LinkEmail(ctx, telegramID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("email linked", slog.Int64("user_id", user.ID))
	return user, nil
}

// ListAudit возвращает журнал аудита, userID необязателен.
func (s *UserService) ListAudit(ctx context.Context, userID *int64, limit, offset int) ([]*models.AuditEntry, error) {
	const op = "subscription.ListAudit"
	limit, offset = Page(limit, offset)
	entries, err := s.repo.ListAudit(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}
