// Package models содержит доменные структуры бота продажи подписок:
// пользователей, платежи, тикеты поддержки и сообщения уведомлений.
package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionStatusNone    = "none"
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

// Статусы платежа. Переход из pending выполняется ровно один раз.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusDenied   = "denied"
)

// Статусы тикета поддержки.
const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

// User описывает пользователя Telegram и состояние его подписки.
// Поля PlanKey, StartAt и EndAt равны nil, пока подписка ни разу не выдавалась.
type User struct {
	TelegramID int64      `json:"telegram_id"`
	Username   string     `json:"username"` // @username, может быть пустым
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	PlanKey    *string    `json:"plan_key"` // Ключ тарифа из статической таблицы тарифов
	StartAt    *time.Time `json:"start_at"` // Начало текущего срока подписки
	EndAt      *time.Time `json:"end_at"`   // Окончание текущего срока подписки
	Status     string     `json:"status"`   // none | active | expired
	Reminded3d bool       `json:"reminded_3d"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Payment описывает платеж: скриншот оплаты, ожидающий решения администратора.
type Payment struct {
	ID          int64     `json:"id"`
	TelegramID  int64     `json:"telegram_id"`   // Владелец платежа
	PlanKey     string    `json:"plan_key"`      // Тариф, выбранный при загрузке скриншота
	ProofFileID string    `json:"proof_file_id"` // file_id скриншота в Telegram
	Status      string    `json:"status"`        // pending | approved | denied
	CreatedAt   time.Time `json:"created_at"`
}

// Ticket описывает обращение пользователя в поддержку.
type Ticket struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Message    string    `json:"message"`
	Status     string    `json:"status"` // open | closed
	CreatedAt  time.Time `json:"created_at"`
}

// Stats агрегированные счетчики для админ-панели.
type Stats struct {
	TotalUsers      int `json:"total_users"`
	ActiveUsers     int `json:"active_users"`
	ExpiredUsers    int `json:"expired_users"`
	PendingPayments int `json:"pending_payments"`
}

// ReminderNotice сообщение очереди уведомлений: подписка скоро закончится.
type ReminderNotice struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	PlanKey    string    `json:"plan_key"`
	EndAt      time.Time `json:"end_at"`
}

// ExpiryNotice сообщение очереди уведомлений: подписка закончилась.
type ExpiryNotice struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	PlanKey    string    `json:"plan_key"`
	EndAt      time.Time `json:"end_at"`
}
