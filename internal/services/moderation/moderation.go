// Package moderation реализует решение администратора по платежу:
// одобрение с выдачей подписки и доступа в канал либо отклонение.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/plans"
)

// ErrNotAdmin возвращается, когда решение пытается принять не администратор.
var ErrNotAdmin = errors.New("caller is not the admin")

// PaymentRepository определяет методы хранилища, нужные модерации.
type PaymentRepository interface {
	// GetPayment возвращает платеж по ID.
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	// ResolvePayment переводит платеж из pending в итоговый статус ровно один раз.
	ResolvePayment(ctx context.Context, id int64, status string) error
}

// Granter выдает подписку после одобренного платежа.
type Granter interface {
	Grant(ctx context.Context, telegramID int64, planKey string, now time.Time) (time.Time, time.Time, error)
}

// Notifier отправляет сообщения пользователю и выдает доступ в канал.
// Обе операции могут завершиться ошибкой, решение по платежу от них не зависит.
type Notifier interface {
	NotifyUser(telegramID int64, text string) error
	GrantChannelAccess(telegramID int64) (string, error)
}

// Result итог одобренного платежа для ответа администратору.
type Result struct {
	TelegramID int64
	PlanName   string
	EndAt      time.Time
}

// Service реализует модерацию платежей.
type Service struct {
	adminID  int64
	repo     PaymentRepository
	granter  Granter
	notifier Notifier
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(adminID int64, repo PaymentRepository, granter Granter, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		adminID:  adminID,
		repo:     repo,
		granter:  granter,
		notifier: notifier,
		log:      log,
	}
}

// Approve одобряет платеж и выдает подписку. Платеж сначала переводится
// в approved: повторное нажатие администратора получает
// ErrPaymentAlreadyResolved из хранилища и не приводит ко второй выдаче.
// planOverride позволяет администратору выбрать тариф прямо на клавиатуре;
// пустое значение означает тариф, указанный при загрузке скриншота.
func (s *Service) Approve(ctx context.Context, callerID, paymentID int64, planOverride string, now time.Time) (*Result, error) {
	const op = "moderation.Approve"

	if callerID != s.adminID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAdmin)
	}

	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	planKey := payment.PlanKey
	if planOverride != "" {
		planKey = planOverride
	}
	plan, err := plans.Get(planKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.ResolvePayment(ctx, paymentID, models.PaymentStatusApproved); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, end, err := s.granter.Grant(ctx, payment.TelegramID, planKey, now)
	if err != nil {
		// Платеж уже помечен approved, но подписка не записана.
		// Ошибка уходит администратору, автоматический повтор не выполняется.
		s.log.Error("payment approved but grant failed",
			slog.Int64("payment_id", paymentID),
			slog.Int64("telegram_id", payment.TelegramID),
			sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.notifyApproved(payment.TelegramID, plan, end)

	return &Result{
		TelegramID: payment.TelegramID,
		PlanName:   plan.Name,
		EndAt:      end,
	}, nil
}

// notifyApproved отправляет пользователю подтверждение и ссылку-приглашение.
// Ошибки доставки только логируются: подписка уже записана в хранилище.
func (s *Service) notifyApproved(telegramID int64, plan plans.Plan, end time.Time) {
	text := fmt.Sprintf("🎉 Оплата подтверждена!\nТариф: %s\nДействует до: %s",
		plan.Name, end.Format("02.01.2006 15:04"))

	link, err := s.notifier.GrantChannelAccess(telegramID)
	if err != nil {
		s.log.Error("failed to create invite link", slog.Int64("telegram_id", telegramID), sl.Err(err))
	} else {
		text += "\n👉 Вступить в канал: " + link
	}

	if err := s.notifier.NotifyUser(telegramID, text); err != nil {
		s.log.Error("failed to notify approved user", slog.Int64("telegram_id", telegramID), sl.Err(err))
	}
}

// Deny отклоняет платеж. Как и одобрение, выполняется не более одного раза.
func (s *Service) Deny(ctx context.Context, callerID, paymentID int64) (int64, error) {
	const op = "moderation.Deny"

	if callerID != s.adminID {
		return 0, fmt.Errorf("%s: %w", op, ErrNotAdmin)
	}

	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.ResolvePayment(ctx, paymentID, models.PaymentStatusDenied); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.NotifyUser(payment.TelegramID,
		"❌ Оплата не подтверждена. Если это ошибка, напишите в поддержку."); err != nil {
		s.log.Error("failed to notify denied user",
			slog.Int64("telegram_id", payment.TelegramID), sl.Err(err))
	}

	return payment.TelegramID, nil
}
