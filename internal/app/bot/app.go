// Package botapp собирает основной процесс: Telegram-бот, фоновую сверку
// подписок и админский HTTP API поверх общего хранилища.
package botapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-access-bot/internal/bot"
	"github.com/magabrotheeeer/premium-access-bot/internal/cache"
	"github.com/magabrotheeeer/premium-access-bot/internal/config"
	jwtlib "github.com/magabrotheeeer/premium-access-bot/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/premium-access-bot/internal/migrations"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/moderation"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/subscription"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/support"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/sweep"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage/repository"
)

// App основной процесс бота.
type App struct {
	server     *http.Server
	bot        *bot.Bot
	sweeper    *sweep.Service
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New собирает все зависимости процесса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	gateway := bot.NewGateway(api, cfg.Telegram.ChannelID)

	subscriptionService := subscription.New(db, cacheRedis, logger)
	moderationService := moderation.New(cfg.Telegram.AdminID, db, subscriptionService, gateway, logger)
	supportService := support.New(db, logger)

	publisher := sweep.NewQueuePublisher(rabbitCh)
	sweeper := sweep.New(db, publisher, gateway, cacheRedis,
		cfg.Sweep.Interval, cfg.Sweep.ReminderWindow, logger)

	tgBot := bot.New(api, db, subscriptionService, moderationService, supportService,
		bot.Options{
			AdminID:   cfg.Telegram.AdminID,
			UPIID:     cfg.Telegram.UPIID,
			QRCodeURL: cfg.Telegram.QRCodeURL,
		}, logger)

	jwtMaker := jwtlib.NewJWTMaker(cfg.AdminAPI.JWTSecretKey, cfg.AdminAPI.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, subscriptionService, jwtMaker, cfg.AdminAPI.AdminPasswordHash)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		bot:        tgBot,
		sweeper:    sweeper,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает бот, сверку и HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go a.bot.Run(ctx)
	go a.sweeper.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.rabbitCh.Close()
		_ = a.rabbitConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
