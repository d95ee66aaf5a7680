package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// CreatePayment вставляет новый платеж со статусом pending и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, telegramID int64, planKey, proofFileID string) (int64, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (telegram_id, plan_key, proof_file_id, status)
			  VALUES ($1, $2, $3, 'pending')
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, telegramID, planKey, proofFileID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPayment возвращает платеж по его ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, telegram_id, plan_key, proof_file_id, status, created_at
			  FROM payments
			  WHERE id = $1`
	p := &models.Payment{}
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.TelegramID, &p.PlanKey, &p.ProofFileID, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ResolvePayment переводит платеж из pending в итоговый статус.
// Переход выполняется не более одного раза: если платеж уже решен,
// возвращается ErrPaymentAlreadyResolved, и строка не меняется.
func (s *Storage) ResolvePayment(ctx context.Context, id int64, status string) error {
	const op = "storage.ResolvePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1
			  WHERE id = $2 AND status = 'pending'`
	result, err := s.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err = s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return fmt.Errorf("%s: %w", op, ErrPaymentAlreadyResolved)
	}
	return nil
}

// ListPendingPayments возвращает последние платежи, ожидающие решения.
func (s *Storage) ListPendingPayments(ctx context.Context, limit int) ([]*models.Payment, error) {
	const op = "storage.ListPendingPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, telegram_id, plan_key, proof_file_id, status, created_at
			  FROM payments
			  WHERE status = 'pending'
			  ORDER BY id DESC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err = rows.Scan(&p.ID, &p.TelegramID, &p.PlanKey, &p.ProofFileID,
			&p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountPendingPayments возвращает число платежей, ожидающих решения.
func (s *Storage) CountPendingPayments(ctx context.Context) (int, error) {
	const op = "storage.CountPendingPayments"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM payments WHERE status = 'pending'`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
