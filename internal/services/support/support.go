// Package support хранит обращения пользователей в поддержку и передает
// их администратору. Каждое входящее сообщение становится тикетом, ответ
// администратора закрывает его.
package support

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// TicketRepository определяет методы хранилища для обращений.
type TicketRepository interface {
	CreateTicket(ctx context.Context, telegramID int64, message string) (int64, error)
	CloseTicket(ctx context.Context, ticketID int64) error
	ListOpenTickets(ctx context.Context, limit int) ([]*models.Ticket, error)
}

// Service управляет жизненным циклом обращений.
type Service struct {
	repo TicketRepository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo TicketRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Open регистрирует новое обращение и возвращает его номер.
func (s *Service) Open(ctx context.Context, telegramID int64, message string) (int64, error) {
	const op = "services.support.Open"

	id, err := s.repo.CreateTicket(ctx, telegramID, message)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("support ticket opened",
		slog.Int64("ticket_id", id),
		slog.Int64("telegram_id", telegramID))
	return id, nil
}

// Close закрывает обращение после ответа администратора.
func (s *Service) Close(ctx context.Context, ticketID int64) error {
	const op = "services.support.Close"

	if err := s.repo.CloseTicket(ctx, ticketID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("support ticket closed", slog.Int64("ticket_id", ticketID))
	return nil
}

// ListOpen возвращает открытые обращения, новые первыми.
func (s *Service) ListOpen(ctx context.Context, limit int) ([]*models.Ticket, error) {
	const op = "services.support.ListOpen"

	tickets, err := s.repo.ListOpenTickets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tickets, nil
}
