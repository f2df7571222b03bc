// Package broadcast рассылает сообщение администратора всем пользователям.
// Рассылка идёт последовательно с паузой между сообщениями, ошибки
// доставки логируются и не повторяются.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/metrics"
	"github.com/afinadao/membership/internal/models"
)

// Recipients источник получателей рассылки.
type Recipients interface {
	ListTelegramIDs(ctx context.Context) ([]int64, error)
}

// Sender отправляет сообщение в Telegram.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Result итог рассылки.
type Result struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// BroadcastService сервис рассылок.
type BroadcastService struct {
	repo    Recipients
	sender  Sender
	limiter *rate.Limiter
	log     *slog.Logger
	wg      sync.WaitGroup
}

// New создает BroadcastService. delay пауза между сообщениями.
func New(repo Recipients, sender Sender, delay time.Duration, log *slog.Logger) *BroadcastService {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &BroadcastService{
		repo:    repo,
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Start загружает получателей и запускает рассылку в фоне.
// Возвращает число получателей.
func (s *BroadcastService) Start(ctx context.Context, text string) (int, error) {
	const op = "broadcast.Start"
	ids, err := s.repo.ListTelegramIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.send(bg, ids, text)
	}()
	return len(ids), nil
}

// Send рассылает сообщение синхронно.
func (s *BroadcastService) Send(ctx context.Context, text string) (Result, error) {
	const op = "broadcast.Send"
	ids, err := s.repo.ListTelegramIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.send(ctx, ids, text), nil
}

// Wait дожидается завершения фоновых рассылок.
func (s *BroadcastService) Wait() {
	s.wg.Wait()
}

func (s *BroadcastService) send(ctx context.Context, ids []int64, text string) Result {
	const op = "broadcast.send"
	log := s.log.With(slog.String("op", op))
	res := Result{Total: len(ids)}

	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			log.Warn("broadcast interrupted", sl.Err(err))
			res.Failed += res.Total - res.Sent - res.Failed
			break
		}
		err := s.sender.SendMessage(ctx, id, text)
		metrics.RecordNotification(models.ChannelTelegram, metrics.KindBroadcast, err)
		if err != nil {
			log.Error("failed to deliver broadcast", sl.Err(err), slog.Int64("telegram_id", id))
			res.Failed++
			continue
		}
		res.Sent++
	}

	log.Info("broadcast finished",
		slog.Int("total", res.Total),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
	)
	return res
}
