// Package subscription содержит бизнес-логику жизненного цикла подписки:
// расчет срока при выдаче, продление при досрочном продлении и статистику.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/cache"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/plans"
)

// UserRepository определяет методы хранилища, нужные жизненному циклу подписки.
type UserRepository interface {
	// GetUser возвращает пользователя по Telegram ID.
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	// GrantSubscription записывает новый срок подписки одним запросом.
	GrantSubscription(ctx context.Context, telegramID int64, planKey string, start, end time.Time) error
	// CountUsersByStatus возвращает счетчики пользователей.
	CountUsersByStatus(ctx context.Context) (total, active, expired int, err error)
	// CountPendingPayments возвращает число нерешенных платежей.
	CountPendingPayments(ctx context.Context) (int, error)
}

// Cache описывает методы для кэширования записей пользователей.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует жизненный цикл подписки поверх хранилища и кеша.
type Service struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// computeTerm рассчитывает срок новой подписки. Начало всегда равно now,
// а база для окончания — текущая дата окончания, если подписка еще активна:
// досрочное продление наращивает оплаченное время, а не сбрасывает его.
func computeTerm(user *models.User, days int, now time.Time) (start, end time.Time) {
	base := now
	if user != nil && user.EndAt != nil &&
		user.Status == models.SubscriptionStatusActive && user.EndAt.After(now) {
		base = *user.EndAt
	}
	return now, base.AddDate(0, 0, days)
}

// Grant выдает или продлевает подписку после одобренного платежа.
// Возвращает рассчитанные даты начала и окончания для уведомления пользователя.
// Если сохранение не удалось, даты не считаются выданными — ошибка возвращается
// вызывающему, частичных состояний не остается.
func (s *Service) Grant(ctx context.Context, telegramID int64, planKey string, now time.Time) (time.Time, time.Time, error) {
	const op = "subscription.Grant"

	plan, err := plans.Get(planKey)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.GetUser(ctx, telegramID)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	start, end := computeTerm(user, plan.Days, now)

	if err := s.repo.GrantSubscription(ctx, telegramID, planKey, start, end); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("granted subscription",
		slog.Int64("telegram_id", telegramID),
		slog.String("plan_key", planKey),
		slog.Time("end_at", end))

	if err := s.cache.Invalidate(cache.UserKey(telegramID)); err != nil {
		s.log.Warn("failed to invalidate user cache", slog.Int64("telegram_id", telegramID), sl.Err(err))
	}

	return start, end, nil
}

// Info возвращает пользователя, используя кеш или хранилище.
func (s *Service) Info(ctx context.Context, telegramID int64) (*models.User, error) {
	var result *models.User
	key := cache.UserKey(telegramID)
	found, err := s.cache.Get(key, &result)
	if err != nil {
		s.log.Warn("failed to read user cache", slog.Int64("telegram_id", telegramID), sl.Err(err))
	}
	if found && result != nil {
		return result, nil
	}

	result, err = s.repo.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(key, result, time.Hour); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", key), sl.Err(err))
	}
	return result, nil
}

// Stats возвращает агрегированные счетчики для админ-панели.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "subscription.Stats"

	total, active, expired, err := s.repo.CountUsersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pending, err := s.repo.CountPendingPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Stats{
		TotalUsers:      total,
		ActiveUsers:     active,
		ExpiredUsers:    expired,
		PendingPayments: pending,
	}, nil
}
