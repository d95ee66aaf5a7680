package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// CreateTicket сохраняет обращение пользователя в поддержку и возвращает его ID.
func (s *Storage) CreateTicket(ctx context.Context, telegramID int64, message string) (int64, error) {
	const op = "storage.CreateTicket"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO tickets (telegram_id, message, status)
			  VALUES ($1, $2, 'open')
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, telegramID, message).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// CloseTicket закрывает открытый тикет.
func (s *Storage) CloseTicket(ctx context.Context, id int64) error {
	const op = "storage.CloseTicket"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE tickets SET status = 'closed' WHERE id = $1 AND status = 'open'`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrTicketNotFound)
	}
	return nil
}

// ListOpenTickets возвращает открытые обращения, новые первыми.
func (s *Storage) ListOpenTickets(ctx context.Context, limit int) ([]*models.Ticket, error) {
	const op = "storage.ListOpenTickets"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, telegram_id, message, status, created_at
			  FROM tickets
			  WHERE status = 'open'
			  ORDER BY id DESC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Ticket
	for rows.Next() {
		t := &models.Ticket{}
		if err = rows.Scan(&t.ID, &t.TelegramID, &t.Message, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
