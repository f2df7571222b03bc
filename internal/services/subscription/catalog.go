package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/storage"
)

const (
	cacheKeyActiveTariffs = "tariffs:active"
	cacheKeyAllTariffs    = "tariffs:all"
	tariffsCacheTTL       = 10 * time.Minute
)

// CatalogRepository методы хранилища для тарифов, настроек и текстов.
type CatalogRepository interface {
	ListTariffs(ctx context.Context, includeArchived bool) ([]*models.Tariff, error)
	GetTariff(ctx context.Context, id int64) (*models.Tariff, error)
	CreateTariff(ctx context.Context, tariff models.DummyTariff) (int64, error)
	ArchiveTariff(ctx context.Context, id int64) error
	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, st models.Settings) error
	ListNotificationTexts(ctx context.Context) ([]*models.NotificationText, error)
	UpsertNotificationText(ctx context.Context, days int, text string) error
	DeleteNotificationText(ctx context.Context, days int) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// CatalogService каталог тарифов, настройки актуального тарифа и тексты уведомлений.
type CatalogService struct {
	repo  CatalogRepository
	cache Cache
	log   *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo CatalogRepository, cache Cache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ListTariffs возвращает каталог, используя кеш или репозиторий.
func (s *CatalogService) ListTariffs(ctx context.Context, includeArchived bool) ([]*models.Tariff, error) {
	const op = "subscription.ListTariffs"
	key := cacheKeyActiveTariffs
	if includeArchived {
		key = cacheKeyAllTariffs
	}

	var tariffs []*models.Tariff
	found, err := s.cache.Get(ctx, key, &tariffs)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), slog.Any("err", err))
	}
	if found {
		return tariffs, nil
	}

	tariffs, err = s.repo.ListTariffs(ctx, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, tariffs, tariffsCacheTTL); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), slog.Any("err", err))
	}
	return tariffs, nil
}

// CreateTariff создаёт тариф с ценами и сбрасывает кеш каталога.
func (s *CatalogService) CreateTariff(ctx context.Context, req models.DummyTariff) (int64, error) {
	const op = "subscription.CreateTariff"
	id, err := s.repo.CreateTariff(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new tariff", slog.Int64("id", id))
	s.invalidateTariffs(ctx)
	return id, nil
}

// ArchiveTariff архивирует тариф. Архивный тариф нельзя купить,
// а в режиме all_active он перестаёт быть актуальным.
func (s *CatalogService) ArchiveTariff(ctx context.Context, id int64) error {
	const op = "subscription.ArchiveTariff"
	if err := s.repo.ArchiveTariff(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("archived tariff", slog.Int64("id", id))
	s.invalidateTariffs(ctx)
	return nil
}

func (s *CatalogService) invalidateTariffs(ctx context.Context) {
	for _, key := range []string{cacheKeyActiveTariffs, cacheKeyAllTariffs} {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("failed to remove from cache", slog.String("key", key), slog.Any("err", err))
		}
	}
}

// GetSettings возвращает настройки.
func (s *CatalogService) GetSettings(ctx context.Context) (*models.Settings, error) {
	const op = "subscription.GetSettings"
	st, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// UpdateSettings сохраняет настройки. В режиме single нужен существующий
// неархивный тариф, в режиме all_active id тарифа сбрасывается.
func (s *CatalogService) UpdateSettings(ctx context.Context, req models.DummySettings) (*models.Settings, error) {
	const op = "subscription.UpdateSettings"
	st := models.Settings{
		ActualTariffMode: models.ActualTariffMode(req.ActualTariffMode),
		GracePeriodDays:  req.GracePeriodDays,
	}

	switch st.ActualTariffMode {
	case models.ActualTariffSingle:
		if req.ActualTariffID == nil {
			return nil, fmt.Errorf("%s: actual_tariff_id is required in single mode: %w", op, services.ErrInvalidInput)
		}
		tariff, err := s.repo.GetTariff(ctx, *req.ActualTariffID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: tariff %d not found: %w", op, *req.ActualTariffID, services.ErrInvalidInput)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if tariff.IsArchived {
			return nil, fmt.Errorf("%s: tariff %d is archived: %w", op, tariff.ID, services.ErrInvalidInput)
		}
		st.ActualTariffID = req.ActualTariffID
	case models.ActualTariffAllActive:
	default:
		return nil, fmt.Errorf("%s: unknown mode %q: %w", op, req.ActualTariffMode, services.ErrInvalidInput)
	}

	if err := s.repo.UpdateSettings(ctx, st); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("settings updated",
		slog.String("mode", string(st.ActualTariffMode)),
		slog.Int("grace_period_days", st.GracePeriodDays),
	)
	return s.GetSettings(ctx)
}

// ListNotificationTexts возвращает настроенные тексты предупреждений.
func (s *CatalogService) ListNotificationTexts(ctx context.Context) ([]*models.NotificationText, error) {
	const op = "subscription.ListNotificationTexts"
	texts, err := s.repo.ListNotificationTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return texts, nil
}

// SetNotificationText задаёт текст предупреждения за days дней.
func (s *CatalogService) SetNotificationText(ctx context.Context, days int, text string) error {
	const op = "subscription.SetNotificationText"
	if days <= 0 {
		return fmt.Errorf("%s: days must be positive: %w", op, services.ErrInvalidInput)
	}
	if err := s.repo.UpsertNotificationText(ctx, days, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteNotificationText удаляет текст, предупреждения за days дней больше не отправляются.
func (s *CatalogService) DeleteNotificationText(ctx context.Context, days int) error {
	const op = "subscription.DeleteNotificationText"
	if err := s.repo.DeleteNotificationText(ctx, days); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
