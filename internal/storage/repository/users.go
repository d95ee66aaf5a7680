package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

const userColumns = `telegram_id, username, first_name, last_name, plan_key,
			      start_at, end_at, status, reminded_3d, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var planKey sql.NullString
	var startAt, endAt sql.NullTime
	if err := row.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&planKey, &startAt, &endAt, &u.Status, &u.Reminded3d, &u.CreatedAt); err != nil {
		return nil, err
	}
	if planKey.Valid {
		u.PlanKey = &planKey.String
	}
	if startAt.Valid {
		t := startAt.Time
		u.StartAt = &t
	}
	if endAt.Valid {
		t := endAt.Time
		u.EndAt = &t
	}
	return u, nil
}

// UpsertUser сохраняет пользователя: вставляет новую строку со статусом none,
// либо обновляет только профильные поля. Поля подписки при повторных вызовах
// не затираются, дубликаты исключены ограничением первичного ключа.
func (s *Storage) UpsertUser(ctx context.Context, user models.User) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (telegram_id, username, first_name, last_name, status)
			  VALUES ($1, $2, $3, $4, 'none')
			  ON CONFLICT (telegram_id) DO UPDATE SET
			      username = EXCLUDED.username,
			      first_name = EXCLUDED.first_name,
			      last_name = EXCLUDED.last_name`
	if _, err := s.DB.ExecContext(ctx, query,
		user.TelegramID, user.Username, user.FirstName, user.LastName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его Telegram ID.
func (s *Storage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE telegram_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, telegramID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает пользователей для админ-панели,
// отсортированных по дате окончания подписки.
func (s *Storage) ListUsers(ctx context.Context, limit int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY end_at DESC NULLS LAST
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUserIDs возвращает идентификаторы всех пользователей для рассылки.
func (s *Storage) ListUserIDs(ctx context.Context) ([]int64, error) {
	const op = "storage.ListUserIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT telegram_id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetStatus обновляет статус подписки пользователя.
func (s *Storage) SetStatus(ctx context.Context, telegramID int64, status string) error {
	const op = "storage.SetStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET status = $1 WHERE telegram_id = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, telegramID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GrantSubscription записывает новый срок подписки одним запросом:
// тариф, даты, статус active и сброшенный флаг напоминания.
func (s *Storage) GrantSubscription(ctx context.Context, telegramID int64, planKey string, start, end time.Time) error {
	const op = "storage.GrantSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET plan_key = $1,
			      start_at = $2,
			      end_at = $3,
			      status = 'active',
			      reminded_3d = FALSE
			  WHERE telegram_id = $4`
	result, err := s.DB.ExecContext(ctx, query, planKey, start, end, telegramID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// MarkReminded помечает, что напоминание об окончании подписки отправлено.
func (s *Storage) MarkReminded(ctx context.Context, telegramID int64) error {
	const op = "storage.MarkReminded"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET reminded_3d = TRUE WHERE telegram_id = $1`
	if _, err := s.DB.ExecContext(ctx, query, telegramID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindUsersDueReminder находит активных пользователей, чья подписка
// заканчивается в пределах окна напоминания и которым оно еще не отправлялось.
func (s *Storage) FindUsersDueReminder(ctx context.Context, now time.Time, window time.Duration) ([]*models.User, error) {
	const op = "storage.FindUsersDueReminder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE status = 'active'
			    AND reminded_3d = FALSE
			    AND end_at IS NOT NULL
			    AND end_at > $1
			    AND end_at <= $2`
	rows, err := s.DB.QueryContext(ctx, query, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindUsersToExpire находит пользователей, у которых срок подписки уже прошел,
// но статус еще не expired. Повторный вызов на тех же данных ничего не вернет.
func (s *Storage) FindUsersToExpire(ctx context.Context, now time.Time) ([]*models.User, error) {
	const op = "storage.FindUsersToExpire"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE end_at IS NOT NULL
			    AND end_at <= $1
			    AND status <> 'expired'`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountUsersByStatus возвращает счетчики пользователей для статистики.
func (s *Storage) CountUsersByStatus(ctx context.Context) (total, active, expired int, err error) {
	const op = "storage.CountUsersByStatus"
	select {
	case <-ctx.Done():
		return 0, 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*),
			      COUNT(*) FILTER (WHERE status = 'active'),
			      COUNT(*) FILTER (WHERE status = 'expired')
			  FROM users`
	if err = s.DB.QueryRowContext(ctx, query).Scan(&total, &active, &expired); err != nil {
		return 0, 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, active, expired, nil
}
