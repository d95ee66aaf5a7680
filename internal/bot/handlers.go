package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/plans"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/moderation"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage/repository"
)

// broadcastDelay пауза между сообщениями рассылки, чтобы не упереться
// в лимиты Telegram.
const broadcastDelay = 50 * time.Millisecond

// UserRepository методы хранилища, нужные обработчикам бота.
type UserRepository interface {
	UpsertUser(ctx context.Context, user models.User) error
	ListUsers(ctx context.Context, limit int) ([]*models.User, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	CreatePayment(ctx context.Context, telegramID int64, planKey, proofFileID string) (int64, error)
	ListPendingPayments(ctx context.Context, limit int) ([]*models.Payment, error)
}

// SubscriptionService выдает информацию о подписке и статистику.
type SubscriptionService interface {
	Info(ctx context.Context, telegramID int64) (*models.User, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// ModerationService решает судьбу платежей.
type ModerationService interface {
	Approve(ctx context.Context, callerID, paymentID int64, planOverride string, now time.Time) (*moderation.Result, error)
	Deny(ctx context.Context, callerID, paymentID int64) (int64, error)
}

// SupportService регистрирует и закрывает обращения пользователей.
type SupportService interface {
	Open(ctx context.Context, telegramID int64, message string) (int64, error)
	Close(ctx context.Context, ticketID int64) error
	ListOpen(ctx context.Context, limit int) ([]*models.Ticket, error)
}

// Options параметры бота, не зависящие от сервисов.
type Options struct {
	AdminID   int64
	UPIID     string
	QRCodeURL string
}

// Bot принимает обновления Telegram и направляет их в сервисный слой.
type Bot struct {
	api           *tgbotapi.BotAPI
	sessions      *Sessions
	repo          UserRepository
	subscriptions SubscriptionService
	moderation    ModerationService
	support       SupportService
	opts          Options
	log           *slog.Logger
}

// New создает новый экземпляр Bot.
func New(api *tgbotapi.BotAPI, repo UserRepository, subscriptions SubscriptionService,
	moderationSvc ModerationService, supportSvc SupportService,
	opts Options, log *slog.Logger) *Bot {
	return &Bot{
		api:           api,
		sessions:      NewSessions(),
		repo:          repo,
		subscriptions: subscriptions,
		moderation:    moderationSvc,
		support:       supportSvc,
		opts:          opts,
		log:           log,
	}
}

// Run запускает цикл длинного опроса и блокируется до отмены контекста.
func (b *Bot) Run(ctx context.Context) {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60
	updates := b.api.GetUpdatesChan(updateCfg)

	b.log.Info("bot update loop started", slog.String("username", b.api.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate направляет обновление в обработчик. Паника обработчика
// гасится здесь: одно испорченное обновление не останавливает цикл опроса.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("recovered from panic in update handler", slog.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	telegramID := msg.From.ID

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if telegramID == b.opts.AdminID {
		if b.handleAdminText(ctx, msg) {
			return
		}
	}

	if len(msg.Photo) > 0 {
		b.handlePaymentProof(ctx, msg)
		return
	}

	if strings.TrimSpace(msg.Text) != "" {
		b.handleSupportMessage(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "admin":
		if msg.From.ID == b.opts.AdminID {
			b.sendWithKeyboard(msg.From.ID, "Панель администратора:", adminMenuKeyboard())
		}
	case "reply":
		if msg.From.ID == b.opts.AdminID {
			b.handleReplyCommand(msg)
		}
	default:
		b.send(msg.From.ID, "Неизвестная команда, нажмите /start.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	user := models.User{
		TelegramID: msg.From.ID,
		Username:   msg.From.UserName,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
		Status:     models.SubscriptionStatusNone,
	}
	if err := b.repo.UpsertUser(ctx, user); err != nil {
		b.log.Error("failed to upsert user", sl.Err(err))
	}

	text := fmt.Sprintf("Привет, %s! 👋\n\nЗдесь можно оформить подписку на закрытый канал.", msg.From.FirstName)
	b.sendWithKeyboard(msg.From.ID, text, mainMenuKeyboard())

	if msg.From.ID == b.opts.AdminID {
		b.sendWithKeyboard(msg.From.ID, "Панель администратора:", adminMenuKeyboard())
	}
}

// handleAdminText обрабатывает свободный текст администратора в режимах
// рассылки и ответа поддержки. Возвращает true, если сообщение поглощено.
func (b *Bot) handleAdminText(ctx context.Context, msg *tgbotapi.Message) bool {
	if msg.Text == "" {
		return false
	}
	if target, ok := b.sessions.TakeReply(); ok {
		b.send(target, "💬 Ответ поддержки:\n\n"+msg.Text)
		b.send(b.opts.AdminID, "Ответ отправлен.")
		return true
	}
	if b.sessions.TakeBroadcast() {
		go b.broadcast(ctx, msg.Text)
		return true
	}
	return false
}

// broadcast рассылает текст всем известным пользователям с паузой между
// отправками. Ошибки отдельных получателей не прерывают рассылку.
func (b *Bot) broadcast(ctx context.Context, text string) {
	ids, err := b.repo.ListUserIDs(ctx)
	if err != nil {
		b.log.Error("failed to list users for broadcast", sl.Err(err))
		b.send(b.opts.AdminID, "Рассылка не удалась: не получен список пользователей.")
		return
	}

	sent := 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := b.send(id, text); err == nil {
			sent++
		}
		time.Sleep(broadcastDelay)
	}
	b.log.Info("broadcast finished", slog.Int("sent", sent), slog.Int("total", len(ids)))
	b.send(b.opts.AdminID, fmt.Sprintf("📣 Рассылка завершена: %d из %d.", sent, len(ids)))
}

// handlePaymentProof принимает скриншот оплаты, создает платеж и передает
// его администратору на модерацию.
func (b *Bot) handlePaymentProof(ctx context.Context, msg *tgbotapi.Message) {
	telegramID := msg.From.ID

	planKey, ok := b.sessions.SelectedPlan(telegramID)
	if !ok {
		b.sendWithKeyboard(telegramID, "Сначала выберите тариф:", plansKeyboard())
		return
	}

	// Telegram присылает варианты фото от меньшего к большему,
	// администратору пересылается самый крупный.
	proofFileID := msg.Photo[len(msg.Photo)-1].FileID

	paymentID, err := b.repo.CreatePayment(ctx, telegramID, planKey, proofFileID)
	if err != nil {
		b.log.Error("failed to create payment", sl.Err(err))
		b.send(telegramID, "Не получилось сохранить оплату, попробуйте еще раз.")
		return
	}

	b.send(telegramID, "✅ Скриншот получен! Доступ откроется после проверки оплаты.")

	payment := &models.Payment{ID: paymentID, TelegramID: telegramID, PlanKey: planKey}
	caption := fmt.Sprintf("Новая оплата #%d\nПользователь: @%s (%d)\nТариф: %s",
		paymentID, msg.From.UserName, telegramID, plans.Name(&planKey))
	photo := tgbotapi.NewPhoto(b.opts.AdminID, tgbotapi.FileID(proofFileID))
	photo.Caption = caption
	photo.ReplyMarkup = moderationKeyboard(payment)
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("failed to forward proof to admin", sl.Err(err))
	}
}

func (b *Bot) handleSupportMessage(ctx context.Context, msg *tgbotapi.Message) {
	telegramID := msg.From.ID

	ticketID, err := b.support.Open(ctx, telegramID, msg.Text)
	if err != nil {
		b.log.Error("failed to open support ticket", sl.Err(err))
		b.send(telegramID, "Не получилось отправить сообщение, попробуйте еще раз.")
		return
	}

	b.send(telegramID, "🆘 Сообщение передано в поддержку, мы ответим в этом чате.")

	text := fmt.Sprintf("Обращение #%d\nОт: @%s (%d)\n\n%s",
		ticketID, msg.From.UserName, telegramID, msg.Text)
	b.sendWithKeyboard(b.opts.AdminID, text, ticketKeyboard(ticketID, telegramID))
}

// handleReplyCommand обрабатывает /reply <telegram_id> <текст>.
func (b *Bot) handleReplyCommand(msg *tgbotapi.Message) {
	args := strings.SplitN(strings.TrimSpace(msg.CommandArguments()), " ", 2)
	if len(args) < 2 {
		b.send(b.opts.AdminID, "Формат: /reply <telegram_id> <текст>")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(b.opts.AdminID, "Формат: /reply <telegram_id> <текст>")
		return
	}
	if err := b.send(target, "💬 Ответ поддержки:\n\n"+args[1]); err != nil {
		b.send(b.opts.AdminID, "Не получилось доставить ответ.")
		return
	}
	b.send(b.opts.AdminID, "Ответ отправлен.")
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.log.Warn("failed to answer callback", sl.Err(err))
		}
	}()

	intent, err := ParseIntent(cb.Data)
	if err != nil {
		b.log.Warn("unparsed callback", slog.String("data", cb.Data), sl.Err(err))
		return
	}

	telegramID := cb.From.ID
	if intent.Kind >= IntentAdminMenu && telegramID != b.opts.AdminID {
		b.log.Warn("admin callback from non-admin", slog.Int64("telegram_id", telegramID))
		return
	}

	switch intent.Kind {
	case IntentMenuBuy:
		b.sendWithKeyboard(telegramID, "Выберите тариф:", plansKeyboard())
	case IntentMenuMy:
		b.handleMyPlan(ctx, telegramID)
	case IntentMenuSupport:
		b.send(telegramID, "Опишите проблему одним сообщением, мы передадим её в поддержку.")
	case IntentSelectPlan:
		b.handleSelectPlan(telegramID, intent.PlanKey)
	case IntentAskPayment:
		b.handleAskPayment(telegramID, intent.PlanKey)
	case IntentAdminMenu:
		b.sendWithKeyboard(telegramID, "Панель администратора:", adminMenuKeyboard())
	case IntentAdminPending:
		b.handleAdminPending(ctx)
	case IntentAdminUsers:
		b.handleAdminUsers(ctx)
	case IntentAdminStats:
		b.handleAdminStats(ctx)
	case IntentAdminBroadcast:
		b.sessions.StartBroadcast()
		b.send(telegramID, "Пришлите текст рассылки одним сообщением.")
	case IntentAdminApprove:
		b.handleApprove(ctx, telegramID, intent)
	case IntentAdminDeny:
		b.handleDeny(ctx, telegramID, intent)
	case IntentAdminReply:
		b.sessions.StartReply(intent.TelegramID)
		b.send(b.opts.AdminID, "Пришлите текст ответа одним сообщением.")
	case IntentAdminTickets:
		b.handleAdminTickets(ctx)
	case IntentAdminTicketClose:
		b.handleTicketClose(ctx, intent)
	}
}

func (b *Bot) handleMyPlan(ctx context.Context, telegramID int64) {
	user, err := b.subscriptions.Info(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			b.send(telegramID, "Подписка не оформлена. Нажмите /start, чтобы начать.")
			return
		}
		b.log.Error("failed to get subscription info", sl.Err(err))
		b.send(telegramID, "Не получилось загрузить подписку, попробуйте позже.")
		return
	}

	switch user.Status {
	case models.SubscriptionStatusActive:
		b.send(telegramID, fmt.Sprintf("📦 Тариф: %s\nДействует до: %s",
			plans.Name(user.PlanKey), user.EndAt.Format("02.01.2006")))
	case models.SubscriptionStatusExpired:
		b.sendWithKeyboard(telegramID,
			fmt.Sprintf("Подписка «%s» закончилась. Оформить новую?", plans.Name(user.PlanKey)),
			mainMenuKeyboard())
	default:
		b.sendWithKeyboard(telegramID, "Активной подписки нет.", mainMenuKeyboard())
	}
}

func (b *Bot) handleSelectPlan(telegramID int64, planKey string) {
	plan, err := plans.Get(planKey)
	if err != nil {
		b.log.Warn("unknown plan in callback", slog.String("plan_key", planKey))
		return
	}

	b.sessions.SelectPlan(telegramID, planKey)
	text := fmt.Sprintf("Тариф «%s» — %s за %d дней доступа.", plan.Name, plan.Price, plan.Days)
	b.sendWithKeyboard(telegramID, text, payKeyboard(planKey))
}

// handleAskPayment показывает реквизиты и просит скриншот оплаты.
func (b *Bot) handleAskPayment(telegramID int64, planKey string) {
	plan, err := plans.Get(planKey)
	if err != nil {
		b.log.Warn("unknown plan in callback", slog.String("plan_key", planKey))
		return
	}
	b.sessions.SelectPlan(telegramID, planKey)

	caption := fmt.Sprintf(
		"Оплатите %s по UPI:\n\n`%s`\n\nПосле оплаты пришлите скриншот в этот чат.",
		plan.Price, b.opts.UPIID)
	photo := tgbotapi.NewPhoto(telegramID, tgbotapi.FileURL(b.opts.QRCodeURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(photo); err != nil {
		b.log.Warn("failed to send QR code, falling back to text", sl.Err(err))
		b.send(telegramID, caption)
	}
}

func (b *Bot) handleAdminPending(ctx context.Context) {
	payments, err := b.repo.ListPendingPayments(ctx, 20)
	if err != nil {
		b.log.Error("failed to list pending payments", sl.Err(err))
		b.send(b.opts.AdminID, "Не получилось загрузить платежи.")
		return
	}
	if len(payments) == 0 {
		b.send(b.opts.AdminID, "Ожидающих платежей нет.")
		return
	}

	for _, payment := range payments {
		planKey := payment.PlanKey
		caption := fmt.Sprintf("Оплата #%d\nПользователь: %d\nТариф: %s\nСоздана: %s",
			payment.ID, payment.TelegramID, plans.Name(&planKey),
			payment.CreatedAt.Format("02.01.2006 15:04"))
		photo := tgbotapi.NewPhoto(b.opts.AdminID, tgbotapi.FileID(payment.ProofFileID))
		photo.Caption = caption
		photo.ReplyMarkup = moderationKeyboard(payment)
		if _, err := b.api.Send(photo); err != nil {
			b.log.Error("failed to send pending payment", sl.Err(err))
		}
	}
}

func (b *Bot) handleAdminUsers(ctx context.Context) {
	users, err := b.repo.ListUsers(ctx, 50)
	if err != nil {
		b.log.Error("failed to list users", sl.Err(err))
		b.send(b.opts.AdminID, "Не получилось загрузить пользователей.")
		return
	}
	if len(users) == 0 {
		b.send(b.opts.AdminID, "Пользователей пока нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 Пользователи:\n\n")
	for _, user := range users {
		endAt := "—"
		if user.EndAt != nil {
			endAt = user.EndAt.Format("02.01.2006")
		}
		sb.WriteString(fmt.Sprintf("@%s (%d) — %s, %s, до %s\n",
			user.Username, user.TelegramID, plans.Name(user.PlanKey), user.Status, endAt))
	}
	b.send(b.opts.AdminID, sb.String())
}

func (b *Bot) handleAdminStats(ctx context.Context) {
	stats, err := b.subscriptions.Stats(ctx)
	if err != nil {
		b.log.Error("failed to load stats", sl.Err(err))
		b.send(b.opts.AdminID, "Не получилось загрузить статистику.")
		return
	}

	text := fmt.Sprintf("📊 Статистика\n\nВсего пользователей: %d\nАктивных подписок: %d\nИстекших: %d\nОжидают проверки: %d",
		stats.TotalUsers, stats.ActiveUsers, stats.ExpiredUsers, stats.PendingPayments)
	b.send(b.opts.AdminID, text)
}

func (b *Bot) handleAdminTickets(ctx context.Context) {
	tickets, err := b.support.ListOpen(ctx, 20)
	if err != nil {
		b.log.Error("failed to list open tickets", sl.Err(err))
		b.send(b.opts.AdminID, "Не получилось загрузить обращения.")
		return
	}
	if len(tickets) == 0 {
		b.send(b.opts.AdminID, "Открытых обращений нет.")
		return
	}

	for _, ticket := range tickets {
		text := fmt.Sprintf("Обращение #%d\nОт: %d\nСоздано: %s\n\n%s",
			ticket.ID, ticket.TelegramID, ticket.CreatedAt.Format("02.01.2006 15:04"),
			ticket.Message)
		b.sendWithKeyboard(b.opts.AdminID, text, ticketKeyboard(ticket.ID, ticket.TelegramID))
	}
}

func (b *Bot) handleTicketClose(ctx context.Context, intent Intent) {
	if err := b.support.Close(ctx, intent.TicketID); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			b.send(b.opts.AdminID, fmt.Sprintf("Обращение #%d уже закрыто.", intent.TicketID))
			return
		}
		b.log.Error("failed to close ticket", sl.Err(err))
		b.send(b.opts.AdminID, fmt.Sprintf("Не получилось закрыть обращение #%d.", intent.TicketID))
		return
	}
	b.send(b.opts.AdminID, fmt.Sprintf("✅ Обращение #%d закрыто.", intent.TicketID))
}

func (b *Bot) handleApprove(ctx context.Context, callerID int64, intent Intent) {
	result, err := b.moderation.Approve(ctx, callerID, intent.PaymentID, intent.PlanKey, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyResolved) {
			b.send(b.opts.AdminID, fmt.Sprintf("Оплата #%d уже обработана.", intent.PaymentID))
			return
		}
		b.log.Error("failed to approve payment", sl.Err(err))
		b.send(b.opts.AdminID, fmt.Sprintf("Не получилось подтвердить оплату #%d.", intent.PaymentID))
		return
	}

	b.send(b.opts.AdminID, fmt.Sprintf("✅ Оплата #%d подтверждена: %s до %s.",
		intent.PaymentID, result.PlanName, result.EndAt.Format("02.01.2006")))
}

func (b *Bot) handleDeny(ctx context.Context, callerID int64, intent Intent) {
	telegramID, err := b.moderation.Deny(ctx, callerID, intent.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyResolved) {
			b.send(b.opts.AdminID, fmt.Sprintf("Оплата #%d уже обработана.", intent.PaymentID))
			return
		}
		b.log.Error("failed to deny payment", sl.Err(err))
		b.send(b.opts.AdminID, fmt.Sprintf("Не получилось отклонить оплату #%d.", intent.PaymentID))
		return
	}

	b.send(b.opts.AdminID, fmt.Sprintf("❌ Оплата #%d отклонена (пользователь %d).",
		intent.PaymentID, telegramID))
}

func (b *Bot) send(telegramID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message",
			slog.Int64("telegram_id", telegramID), sl.Err(err))
		return err
	}
	return nil
}

func (b *Bot) sendWithKeyboard(telegramID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message",
			slog.Int64("telegram_id", telegramID), sl.Err(err))
	}
}
