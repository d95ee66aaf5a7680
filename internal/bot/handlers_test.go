package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stretchr/testify/assert"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandleUpdate_RecoversFromPanic(t *testing.T) {
	b := New(nil, nil, nil, nil, nil, Options{}, newNoopLogger())

	// Сообщение без отправителя роняет обработчик.
	// Цикл опроса должен пережить такое обновление.
	update := tgbotapi.Update{Message: &tgbotapi.Message{Text: "привет"}}
	assert.NotPanics(t, func() { b.handleUpdate(context.Background(), update) })
}

// Диспетчер колбеков отсекает не-администраторов по порядку констант:
// все админские действия идут после IntentAdminMenu.
func TestAdminIntentKindsGated(t *testing.T) {
	adminKinds := []IntentKind{
		IntentAdminMenu, IntentAdminPending, IntentAdminUsers, IntentAdminStats,
		IntentAdminBroadcast, IntentAdminApprove, IntentAdminDeny, IntentAdminReply,
		IntentAdminTickets, IntentAdminTicketClose,
	}
	for _, kind := range adminKinds {
		assert.GreaterOrEqual(t, kind, IntentAdminMenu)
	}

	userKinds := []IntentKind{
		IntentMenuBuy, IntentMenuMy, IntentMenuSupport,
		IntentSelectPlan, IntentAskPayment,
	}
	for _, kind := range userKinds {
		assert.Less(t, kind, IntentAdminMenu)
	}
}
