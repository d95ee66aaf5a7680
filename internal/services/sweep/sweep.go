// Package sweep реализует фоновую сверку подписок: напоминания за несколько
// дней до окончания и перевод просроченных подписок в expired с отзывом
// доступа в канал. Сверка уровневая: каждый проход сравнивает сохраненную
// дату окончания с текущим временем, поэтому пропущенный цикл ничего не теряет.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/cache"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// UserRepository определяет методы хранилища, нужные сверке.
type UserRepository interface {
	FindUsersDueReminder(ctx context.Context, now time.Time, window time.Duration) ([]*models.User, error)
	FindUsersToExpire(ctx context.Context, now time.Time) ([]*models.User, error)
	MarkReminded(ctx context.Context, telegramID int64) error
	SetStatus(ctx context.Context, telegramID int64, status string) error
}

// Publisher публикует уведомления в очередь для notification-sender.
type Publisher interface {
	PublishReminder(notice models.ReminderNotice) error
	PublishExpiry(notice models.ExpiryNotice) error
}

// AccessRevoker убирает пользователя из закрытого канала.
type AccessRevoker interface {
	RevokeChannelAccess(telegramID int64) error
}

// Invalidator сбрасывает кешированную запись пользователя после записи
// нового статуса, иначе "Моя подписка" показывает устаревшее состояние.
type Invalidator interface {
	Invalidate(key string) error
}

// Service периодически сверяет подписки с текущим временем.
type Service struct {
	repo      UserRepository
	publisher Publisher
	revoker   AccessRevoker
	cache     Invalidator
	interval  time.Duration
	window    time.Duration
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, publisher Publisher, revoker AccessRevoker,
	userCache Invalidator, interval, window time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		revoker:   revoker,
		cache:     userCache,
		interval:  interval,
		window:    window,
		log:       log,
	}
}

// Run выполняет проход сразу и далее по тикеру, пока контекст не отменен.
func (s *Service) Run(ctx context.Context) {
	s.RunOnce(ctx, time.Now().UTC())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx, time.Now().UTC())
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce выполняет один проход сверки. Ошибка по одному пользователю
// логируется и не прерывает обработку остальных.
func (s *Service) RunOnce(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recovered from panic in sweep pass", slog.Any("panic", r))
		}
	}()

	s.log.Info("starting sweep pass")
	s.remind(ctx, now)
	s.expire(ctx, now)
}

func (s *Service) remind(ctx context.Context, now time.Time) {
	users, err := s.repo.FindUsersDueReminder(ctx, now, s.window)
	if err != nil {
		s.log.Error("failed to find users due reminder", sl.Err(err))
		return
	}
	if len(users) == 0 {
		return
	}
	s.log.Info("found users due reminder", "count", len(users))

	for _, user := range users {
		notice := models.ReminderNotice{
			TelegramID: user.TelegramID,
			Username:   user.Username,
			PlanKey:    planKeyOf(user),
			EndAt:      *user.EndAt,
		}
		if err := s.publisher.PublishReminder(notice); err != nil {
			s.log.Error("failed to publish reminder",
				slog.Int64("telegram_id", user.TelegramID), sl.Err(err))
			continue
		}
		if err := s.repo.MarkReminded(ctx, user.TelegramID); err != nil {
			s.log.Error("failed to mark reminded",
				slog.Int64("telegram_id", user.TelegramID), sl.Err(err))
		}
	}
}

func (s *Service) expire(ctx context.Context, now time.Time) {
	users, err := s.repo.FindUsersToExpire(ctx, now)
	if err != nil {
		s.log.Error("failed to find users to expire", sl.Err(err))
		return
	}
	if len(users) == 0 {
		return
	}
	s.log.Info("found users to expire", "count", len(users))

	for _, user := range users {
		// Сначала долговременное состояние, затем побочные эффекты:
		// упавшее уведомление не должно оставить подписку активной.
		if err := s.repo.SetStatus(ctx, user.TelegramID, models.SubscriptionStatusExpired); err != nil {
			s.log.Error("failed to mark expired",
				slog.Int64("telegram_id", user.TelegramID), sl.Err(err))
			continue
		}
		s.log.Info("subscription expired", slog.Int64("telegram_id", user.TelegramID))

		if err := s.cache.Invalidate(cache.UserKey(user.TelegramID)); err != nil {
			s.log.Warn("failed to invalidate user cache",
				slog.Int64("telegram_id", user.TelegramID), sl.Err(err))
		}

		if err := s.revoker.RevokeChannelAccess(user.TelegramID); err != nil {
			s.log.Error("failed to revoke channel access",
				slog.Int64("telegram_id", user.TelegramID), sl.Err(err))
		}

		notice := models.ExpiryNotice{
			TelegramID: user.TelegramID,
			Username:   user.Username,
			PlanKey:    planKeyOf(user),
		}
		if user.EndAt != nil {
			notice.EndAt = *user.EndAt
		}
		if err := s.publisher.PublishExpiry(notice); err != nil {
			s.log.Error("failed to publish expiry notice",
				slog.Int64("telegram_id", user.TelegramID), sl.Err(err))
		}
	}
}

func planKeyOf(user *models.User) string {
	if user.PlanKey == nil {
		return ""
	}
	return *user.PlanKey
}
