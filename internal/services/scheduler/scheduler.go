// Package scheduler выполняет проход планировщика: находит истёкшие
// подписки и подписки, по которым пора отправить предупреждение,
// и передаёт их диспетчеру.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/metrics"
	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services/policy"
)

// SubscriptionRepository методы хранилища, нужные планировщику.
type SubscriptionRepository interface {
	FindExpiredActive(ctx context.Context, now time.Time) ([]int64, error)
	FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]int64, error)
	ListNotificationTexts(ctx context.Context) ([]*models.NotificationText, error)
}

// PassResult итог одного прохода.
type PassResult struct {
	Expired int `json:"expired"`
	Warned  int `json:"warned"`
	Failed  int `json:"failed"`
}

// SchedulerService ищет подписки для обработки.
type SchedulerService struct {
	repo       SubscriptionRepository
	dispatcher Dispatcher
	loc        *time.Location
	log        *slog.Logger
	now        func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, dispatcher Dispatcher, loc *time.Location, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:       repo,
		dispatcher: dispatcher,
		loc:        loc,
		log:        log,
		now:        time.Now,
	}
}

// RunPass выполняет один проход: сначала истёкшие подписки, затем
// предупреждения для каждого настроенного числа дней. Ошибка обработки
// отдельной подписки не прерывает проход.
func (s *SchedulerService) RunPass(ctx context.Context) (PassResult, error) {
	const op = "scheduler.RunPass"
	log := s.log.With(slog.String("op", op))
	started := time.Now()
	defer func() { metrics.ObserveSchedulerPass(time.Since(started)) }()

	var res PassResult
	now := s.now()

	log.Info("starting expiry sweep")
	expired, err := s.repo.FindExpiredActive(ctx, now)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	for _, id := range expired {
		if err := s.dispatcher.DispatchExpired(ctx, id); err != nil {
			log.Error("failed to dispatch expired subscription", sl.Err(err), slog.Int64("subscription_id", id))
			res.Failed++
			continue
		}
		res.Expired++
	}

	texts, err := s.repo.ListNotificationTexts(ctx)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	for _, text := range texts {
		from, to := policy.DayWindow(now, text.DaysBefore, s.loc)
		ids, err := s.repo.FindActiveEndingBetween(ctx, from, to)
		if err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		for _, id := range ids {
			if err := s.dispatcher.DispatchUpcoming(ctx, id, text.DaysBefore); err != nil {
				log.Error("failed to dispatch warning", sl.Err(err),
					slog.Int64("subscription_id", id), slog.Int("days", text.DaysBefore))
				res.Failed++
				continue
			}
			res.Warned++
		}
	}

	log.Info("scheduler pass finished",
		slog.Int("expired", res.Expired),
		slog.Int("warned", res.Warned),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}
