// Package sender доставляет уведомления из очередей пользователям в Telegram.
// Сообщения формируются из полезной нагрузки очереди, отправка идет через
// шлюз Telegram Bot API.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/plans"
)

// MessageSender отправляет текстовое сообщение пользователю.
type MessageSender interface {
	SendMessage(telegramID int64, text string) error
}

// Service превращает сообщения очередей в уведомления Telegram.
type Service struct {
	gateway MessageSender
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(gateway MessageSender, log *slog.Logger) *Service {
	return &Service{gateway: gateway, log: log}
}

// SendReminder обрабатывает сообщение из очереди напоминаний.
func (s *Service) SendReminder(body []byte) error {
	const op = "services.sender.SendReminder"

	var notice models.ReminderNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	text := fmt.Sprintf(
		"⏳ Ваша подписка «%s» заканчивается %s.\n\nПродлите её заранее, чтобы не потерять доступ к каналу.",
		plans.Name(&notice.PlanKey),
		notice.EndAt.Format("02.01.2006"))

	if err := s.gateway.SendMessage(notice.TelegramID, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("reminder sent", slog.Int64("telegram_id", notice.TelegramID))
	return nil
}

// SendExpiry обрабатывает сообщение из очереди просроченных подписок.
func (s *Service) SendExpiry(body []byte) error {
	const op = "services.sender.SendExpiry"

	var notice models.ExpiryNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	text := fmt.Sprintf(
		"❌ Ваша подписка «%s» закончилась %s, доступ к каналу закрыт.\n\nОформите новую подписку командой /start.",
		plans.Name(&notice.PlanKey),
		notice.EndAt.Format("02.01.2006"))

	if err := s.gateway.SendMessage(notice.TelegramID, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("expiry notice sent", slog.Int64("telegram_id", notice.TelegramID))
	return nil
}
