package moderation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/moderation"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/subscription"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/sweep"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage/repository"
)

// fakeStore хранит пользователей и платежи в памяти, воспроизводя семантику
// хранилища: одноразовое решение по платежу, выборки сверки по датам.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	payments map[int64]*models.Payment
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.User),
		payments: make(map[int64]*models.Payment),
		nextID:   1,
	}
}

func (f *fakeStore) addUser(telegramID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[telegramID] = &models.User{TelegramID: telegramID, Status: models.SubscriptionStatusNone}
}

func (f *fakeStore) addPendingPayment(telegramID int64, planKey string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.payments[id] = &models.Payment{
		ID: id, TelegramID: telegramID, PlanKey: planKey,
		Status: models.PaymentStatusPending,
	}
	return id
}

func (f *fakeStore) GetUser(_ context.Context, telegramID int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeStore) GrantSubscription(_ context.Context, telegramID int64, planKey string, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[telegramID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PlanKey = &planKey
	user.StartAt = &start
	user.EndAt = &end
	user.Status = models.SubscriptionStatusActive
	user.Reminded3d = false
	return nil
}

func (f *fakeStore) CountUsersByStatus(_ context.Context) (total, active, expired int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		total++
		switch user.Status {
		case models.SubscriptionStatusActive:
			active++
		case models.SubscriptionStatusExpired:
			expired++
		}
	}
	return total, active, expired, nil
}

func (f *fakeStore) CountPendingPayments(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, payment := range f.payments {
		if payment.Status == models.PaymentStatusPending {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetPayment(_ context.Context, id int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	clone := *payment
	return &clone, nil
}

func (f *fakeStore) ResolvePayment(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusPending {
		return repository.ErrPaymentAlreadyResolved
	}
	payment.Status = status
	return nil
}

func (f *fakeStore) FindUsersDueReminder(_ context.Context, now time.Time, window time.Duration) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.User
	for _, user := range f.users {
		if user.Status != models.SubscriptionStatusActive || user.Reminded3d || user.EndAt == nil {
			continue
		}
		if user.EndAt.After(now) && !user.EndAt.After(now.Add(window)) {
			clone := *user
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakeStore) FindUsersToExpire(_ context.Context, now time.Time) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.User
	for _, user := range f.users {
		if user.Status == models.SubscriptionStatusExpired || user.EndAt == nil {
			continue
		}
		if !user.EndAt.After(now) {
			clone := *user
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakeStore) MarkReminded(_ context.Context, telegramID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[telegramID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Reminded3d = true
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, telegramID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[telegramID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Status = status
	return nil
}

// fakeTelegram запоминает выданные ссылки и отозванные доступы.
type fakeTelegram struct {
	mu       sync.Mutex
	messages map[int64][]string
	invited  []int64
	revoked  []int64
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{messages: make(map[int64][]string)}
}

func (f *fakeTelegram) NotifyUser(telegramID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[telegramID] = append(f.messages[telegramID], text)
	return nil
}

func (f *fakeTelegram) GrantChannelAccess(telegramID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invited = append(f.invited, telegramID)
	return fmt.Sprintf("https://t.me/+invite%d", telegramID), nil
}

func (f *fakeTelegram) RevokeChannelAccess(telegramID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, telegramID)
	return nil
}

// fakePublisher собирает уведомления, отправленные сверкой.
type fakePublisher struct {
	mu        sync.Mutex
	reminders []models.ReminderNotice
	expiries  []models.ExpiryNotice
}

func (f *fakePublisher) PublishReminder(notice models.ReminderNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, notice)
	return nil
}

func (f *fakePublisher) PublishExpiry(notice models.ExpiryNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiries = append(f.expiries, notice)
	return nil
}

// memCache хранит значения в памяти через JSON, повторяя поведение Redis.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(key string, result any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return false, err
	}
	return true, nil
}

func (c *memCache) Set(key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memCache) Invalidate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// TestSubscriptionLifecycle проводит пользователя через полный цикл:
// оплата, одобрение, продление, напоминание, истечение и отзыв доступа.
func TestSubscriptionLifecycle(t *testing.T) {
	const (
		adminID = int64(1)
		userID  = int64(100)
	)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	store := newFakeStore()
	telegram := newFakeTelegram()
	publisher := &fakePublisher{}

	userCache := newMemCache()
	subscriptions := subscription.New(store, userCache, logger)
	moderator := moderation.New(adminID, store, subscriptions, telegram, logger)
	sweeper := sweep.New(store, publisher, telegram, userCache, 30*time.Minute, 72*time.Hour, logger)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.addUser(userID)

	// Одобрение первого платежа выдает подписку и инвайт-ссылку.
	paymentID := store.addPendingPayment(userID, "plan1")
	result, err := moderator.Approve(ctx, adminID, paymentID, "", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30), result.EndAt)
	assert.Equal(t, []int64{userID}, telegram.invited)

	// Повторное нажатие той же кнопки ничего не меняет.
	_, err = moderator.Approve(ctx, adminID, paymentID, "", now)
	assert.ErrorIs(t, err, repository.ErrPaymentAlreadyResolved)

	// Досрочное продление наращивает срок от старой даты окончания.
	renewalID := store.addPendingPayment(userID, "plan2")
	renewalTime := now.AddDate(0, 0, 10)
	result, err = moderator.Approve(ctx, adminID, renewalID, "", renewalTime)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30).AddDate(0, 0, 180), result.EndAt)

	// "Моя подписка" кладет запись в кеш.
	info, err := subscriptions.Info(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, info.Status)

	// За двое суток до окончания сверка отправляет напоминание один раз.
	beforeEnd := result.EndAt.Add(-48 * time.Hour)
	sweeper.RunOnce(ctx, beforeEnd)
	sweeper.RunOnce(ctx, beforeEnd.Add(30*time.Minute))
	require.Len(t, publisher.reminders, 1)
	assert.Equal(t, userID, publisher.reminders[0].TelegramID)

	// После окончания срока подписка истекает, доступ отзывается.
	afterEnd := result.EndAt.Add(time.Hour)
	sweeper.RunOnce(ctx, afterEnd)
	require.Len(t, publisher.expiries, 1)
	assert.Equal(t, []int64{userID}, telegram.revoked)

	user, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, user.Status)

	// Сверка сбросила кеш: "Моя подписка" не показывает active
	// после отзыва доступа.
	info, err = subscriptions.Info(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, info.Status)

	// Повторный проход ничего не дублирует.
	sweeper.RunOnce(ctx, afterEnd.Add(30*time.Minute))
	assert.Len(t, publisher.expiries, 1)

	// Новый платеж после истечения начинает срок заново.
	rebuyID := store.addPendingPayment(userID, "plan1")
	rebuyTime := afterEnd.Add(24 * time.Hour)
	result, err = moderator.Approve(ctx, adminID, rebuyID, "", rebuyTime)
	require.NoError(t, err)
	assert.Equal(t, rebuyTime.AddDate(0, 0, 30), result.EndAt)

	stats, err := subscriptions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveUsers)
	assert.Equal(t, 0, stats.PendingPayments)
}
