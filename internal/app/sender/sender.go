// Package sender собирает процесс доставки уведомлений: потребители очередей
// напоминаний и просроченных подписок поверх Telegram Bot API.
package sender

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-access-bot/internal/bot"
	"github.com/magabrotheeeer/premium-access-bot/internal/config"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/rabbitmq"
	senderservice "github.com/magabrotheeeer/premium-access-bot/internal/services/sender"
)

// App процесс доставки уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New собирает зависимости процесса.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	gateway := bot.NewGateway(api, cfg.Telegram.ChannelID)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.New(gateway, logger),
		logger:        logger,
	}, nil
}

// Run запускает потребителей очередей и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.reminder", a.senderService.SendReminder)
	if err != nil {
		a.logger.Error("failed to start reminder consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.expired", a.senderService.SendExpiry)
	if err != nil {
		a.logger.Error("failed to start expired consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
