package sweep

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-access-bot/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// QueuePublisher публикует уведомления сверки в exchange уведомлений.
type QueuePublisher struct {
	ch *amqp.Channel
}

// NewQueuePublisher создает публикатор поверх открытого канала RabbitMQ.
func NewQueuePublisher(ch *amqp.Channel) *QueuePublisher {
	return &QueuePublisher{ch: ch}
}

// PublishReminder публикует уведомление о скором окончании подписки.
func (p *QueuePublisher) PublishReminder(notice models.ReminderNotice) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.ExchangeNotifications, rabbitmq.RoutingKeyReminder, notice)
}

// PublishExpiry публикует уведомление об окончании подписки.
func (p *QueuePublisher) PublishExpiry(notice models.ExpiryNotice) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.ExchangeNotifications, rabbitmq.RoutingKeyExpired, notice)
}
