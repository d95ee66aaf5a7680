package moderation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage/repository"
)

const adminID = int64(999)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *RepoMock) ResolvePayment(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type GranterMock struct{ mock.Mock }

func (m *GranterMock) Grant(ctx context.Context, telegramID int64, planKey string, now time.Time) (time.Time, time.Time, error) {
	args := m.Called(ctx, telegramID, planKey, now)
	return args.Get(0).(time.Time), args.Get(1).(time.Time), args.Error(2)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) NotifyUser(telegramID int64, text string) error {
	return m.Called(telegramID, text).Error(0)
}

func (m *NotifierMock) GrantChannelAccess(telegramID int64) (string, error) {
	args := m.Called(telegramID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:          15,
		TelegramID:  77,
		PlanKey:     "plan1",
		ProofFileID: "file-abc",
		Status:      models.PaymentStatusPending,
	}
}

func TestService_Approve(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 30)

	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	repo.On("GetPayment", mock.Anything, int64(15)).Return(pendingPayment(), nil).Once()
	repo.On("ResolvePayment", mock.Anything, int64(15), models.PaymentStatusApproved).Return(nil).Once()
	granter.On("Grant", mock.Anything, int64(77), "plan1", now).Return(now, end, nil).Once()
	notifier.On("GrantChannelAccess", int64(77)).Return("https://t.me/+invite", nil).Once()
	notifier.On("NotifyUser", int64(77), mock.MatchedBy(func(text string) bool {
		return len(text) > 0
	})).Return(nil).Once()

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	result, err := svc.Approve(context.Background(), adminID, 15, "", now)

	require.NoError(t, err)
	assert.Equal(t, int64(77), result.TelegramID)
	assert.Equal(t, "1 Month", result.PlanName)
	assert.Equal(t, end, result.EndAt)
	repo.AssertExpectations(t)
	granter.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestService_Approve_PlanOverride(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 180)

	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	repo.On("GetPayment", mock.Anything, int64(15)).Return(pendingPayment(), nil).Once()
	repo.On("ResolvePayment", mock.Anything, int64(15), models.PaymentStatusApproved).Return(nil).Once()
	granter.On("Grant", mock.Anything, int64(77), "plan2", now).Return(now, end, nil).Once()
	notifier.On("GrantChannelAccess", int64(77)).Return("", errors.New("link error")).Once()
	notifier.On("NotifyUser", int64(77), mock.Anything).Return(nil).Once()

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	result, err := svc.Approve(context.Background(), adminID, 15, "plan2", now)

	require.NoError(t, err, "invite link failure must not fail the approval")
	assert.Equal(t, "6 Months", result.PlanName)
	granter.AssertExpectations(t)
}

func TestService_Approve_AlreadyResolved(t *testing.T) {
	now := time.Now()

	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	resolved := pendingPayment()
	resolved.Status = models.PaymentStatusApproved
	repo.On("GetPayment", mock.Anything, int64(15)).Return(resolved, nil).Once()
	repo.On("ResolvePayment", mock.Anything, int64(15), models.PaymentStatusApproved).
		Return(repository.ErrPaymentAlreadyResolved).Once()

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	_, err := svc.Approve(context.Background(), adminID, 15, "", now)

	require.ErrorIs(t, err, repository.ErrPaymentAlreadyResolved)
	granter.AssertNotCalled(t, "Grant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything)
}

func TestService_Approve_NotAdmin(t *testing.T) {
	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	_, err := svc.Approve(context.Background(), 123, 15, "", time.Now())

	require.ErrorIs(t, err, ErrNotAdmin)
	repo.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
}

func TestService_Approve_GrantFailureReported(t *testing.T) {
	now := time.Now()

	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	repo.On("GetPayment", mock.Anything, int64(15)).Return(pendingPayment(), nil).Once()
	repo.On("ResolvePayment", mock.Anything, int64(15), models.PaymentStatusApproved).Return(nil).Once()
	granter.On("Grant", mock.Anything, int64(77), "plan1", now).
		Return(time.Time{}, time.Time{}, errors.New("storage down")).Once()

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	_, err := svc.Approve(context.Background(), adminID, 15, "", now)

	require.Error(t, err)
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything)
}

func TestService_Deny(t *testing.T) {
	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	repo.On("GetPayment", mock.Anything, int64(15)).Return(pendingPayment(), nil).Once()
	repo.On("ResolvePayment", mock.Anything, int64(15), models.PaymentStatusDenied).Return(nil).Once()
	notifier.On("NotifyUser", int64(77), mock.Anything).Return(nil).Once()

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	telegramID, err := svc.Deny(context.Background(), adminID, 15)

	require.NoError(t, err)
	assert.Equal(t, int64(77), telegramID)
	granter.AssertNotCalled(t, "Grant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Deny_NotAdmin(t *testing.T) {
	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	_, err := svc.Deny(context.Background(), 123, 15)

	require.ErrorIs(t, err, ErrNotAdmin)
	repo.AssertNotCalled(t, "ResolvePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Deny_AlreadyResolved(t *testing.T) {
	repo := &RepoMock{}
	granter := &GranterMock{}
	notifier := &NotifierMock{}

	repo.On("GetPayment", mock.Anything, int64(15)).Return(pendingPayment(), nil).Once()
	repo.On("ResolvePayment", mock.Anything, int64(15), models.PaymentStatusDenied).
		Return(repository.ErrPaymentAlreadyResolved).Once()

	svc := New(adminID, repo, granter, notifier, newNoopLogger())
	_, err := svc.Deny(context.Background(), adminID, 15)

	require.ErrorIs(t, err, repository.ErrPaymentAlreadyResolved)
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything)
}
