package support

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateTicket(ctx context.Context, telegramID int64, message string) (int64, error) {
	args := m.Called(ctx, telegramID, message)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) CloseTicket(ctx context.Context, ticketID int64) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *RepoMock) ListOpenTickets(ctx context.Context, limit int) ([]*models.Ticket, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestOpen(t *testing.T) {
	repo := &RepoMock{}
	repo.On("CreateTicket", mock.Anything, int64(10), "no access").
		Return(int64(7), nil).Once()

	svc := New(repo, newNoopLogger())
	id, err := svc.Open(context.Background(), 10, "no access")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	repo.AssertExpectations(t)
}

func TestOpen_RepoError(t *testing.T) {
	repo := &RepoMock{}
	repo.On("CreateTicket", mock.Anything, int64(10), "hi").
		Return(int64(0), errors.New("write failed")).Once()

	svc := New(repo, newNoopLogger())
	_, err := svc.Open(context.Background(), 10, "hi")
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	repo := &RepoMock{}
	repo.On("CloseTicket", mock.Anything, int64(7)).Return(nil).Once()

	svc := New(repo, newNoopLogger())
	require.NoError(t, svc.Close(context.Background(), 7))
	repo.AssertExpectations(t)
}

func TestClose_NotFound(t *testing.T) {
	repo := &RepoMock{}
	repo.On("CloseTicket", mock.Anything, int64(99)).
		Return(repository.ErrTicketNotFound).Once()

	svc := New(repo, newNoopLogger())
	err := svc.Close(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

func TestListOpen(t *testing.T) {
	tickets := []*models.Ticket{
		{ID: 2, TelegramID: 11, Message: "later"},
		{ID: 1, TelegramID: 10, Message: "earlier"},
	}
	repo := &RepoMock{}
	repo.On("ListOpenTickets", mock.Anything, 20).Return(tickets, nil).Once()

	svc := New(repo, newNoopLogger())
	got, err := svc.ListOpen(context.Background(), 20)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}
