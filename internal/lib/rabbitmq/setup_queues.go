package rabbitmq

// ExchangeNotifications имя exchange, через который проходят все
// уведомления о подписках.
const ExchangeNotifications = "notifications"

// QueueConfig связывает имя очереди с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации уведомлений.
const (
	RoutingKeyReminder = "reminder"
	RoutingKeyExpired  = "expired"
)

// GetNotificationQueues возвращает очереди, которые потребляет notification-sender.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.reminder", RoutingKey: RoutingKeyReminder},
		{QueueName: "notifications.expired", RoutingKey: RoutingKeyExpired},
	}
}
