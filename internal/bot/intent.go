package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Intent разобранное callback-действие инлайн-кнопки.
type Intent struct {
	Kind IntentKind

	PlanKey    string // plan:*, pay:ask:*, admin:approve:*
	PaymentID  int64  // admin:approve:*, admin:deny:*
	TelegramID int64  // admin:approve:*, admin:deny:*, admin:reply:*
	TicketID   int64  // admin:ticket:close:*
}

// IntentKind тип callback-действия.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentMenuBuy
	IntentMenuMy
	IntentMenuSupport
	IntentSelectPlan
	IntentAskPayment
	IntentAdminMenu
	IntentAdminPending
	IntentAdminUsers
	IntentAdminStats
	IntentAdminBroadcast
	IntentAdminApprove
	IntentAdminDeny
	IntentAdminReply
	IntentAdminTickets
	IntentAdminTicketClose
)

// ParseIntent разбирает callback-данные инлайн-кнопки. Формат данных
// фиксирован: сегменты, разделенные двоеточием, первый сегмент задает
// пространство действий.
func ParseIntent(data string) (Intent, error) {
	const op = "bot.ParseIntent"

	parts := strings.Split(data, ":")
	switch {
	case data == "menu:buy":
		return Intent{Kind: IntentMenuBuy}, nil
	case data == "menu:my":
		return Intent{Kind: IntentMenuMy}, nil
	case data == "menu:support":
		return Intent{Kind: IntentMenuSupport}, nil
	case data == "admin:menu":
		return Intent{Kind: IntentAdminMenu}, nil
	case data == "admin:pending":
		return Intent{Kind: IntentAdminPending}, nil
	case data == "admin:users":
		return Intent{Kind: IntentAdminUsers}, nil
	case data == "admin:stats":
		return Intent{Kind: IntentAdminStats}, nil
	case data == "admin:broadcast":
		return Intent{Kind: IntentAdminBroadcast}, nil
	case data == "admin:tickets":
		return Intent{Kind: IntentAdminTickets}, nil

	case len(parts) == 2 && parts[0] == "plan":
		return Intent{Kind: IntentSelectPlan, PlanKey: parts[1]}, nil

	case len(parts) == 3 && parts[0] == "pay" && parts[1] == "ask":
		return Intent{Kind: IntentAskPayment, PlanKey: parts[2]}, nil

	case len(parts) == 5 && parts[0] == "admin" && parts[1] == "approve":
		paymentID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%s: payment id: %w", op, err)
		}
		telegramID, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%s: telegram id: %w", op, err)
		}
		return Intent{
			Kind:       IntentAdminApprove,
			PaymentID:  paymentID,
			TelegramID: telegramID,
			PlanKey:    parts[4],
		}, nil

	case len(parts) == 4 && parts[0] == "admin" && parts[1] == "deny":
		paymentID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%s: payment id: %w", op, err)
		}
		telegramID, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%s: telegram id: %w", op, err)
		}
		return Intent{Kind: IntentAdminDeny, PaymentID: paymentID, TelegramID: telegramID}, nil

	case len(parts) == 3 && parts[0] == "admin" && parts[1] == "reply":
		telegramID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%s: telegram id: %w", op, err)
		}
		return Intent{Kind: IntentAdminReply, TelegramID: telegramID}, nil

	case len(parts) == 4 && parts[0] == "admin" && parts[1] == "ticket" && parts[2] == "close":
		ticketID, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%s: ticket id: %w", op, err)
		}
		return Intent{Kind: IntentAdminTicketClose, TicketID: ticketID}, nil
	}

	return Intent{}, fmt.Errorf("%s: unknown callback data: %q", op, data)
}
