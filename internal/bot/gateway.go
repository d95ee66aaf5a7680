// Package bot реализует Telegram-интерфейс: прием обновлений, клавиатуры,
// разбор callback-данных и шлюз к Telegram Bot API. Доступ в закрытый канал
// выдается одноразовой инвайт-ссылкой и отзывается через бан с немедленным
// разбаном.
package bot

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Gateway оборачивает Telegram Bot API для сервисного слоя.
type Gateway struct {
	api       *tgbotapi.BotAPI
	channelID int64
}

// NewGateway создает новый экземпляр Gateway.
func NewGateway(api *tgbotapi.BotAPI, channelID int64) *Gateway {
	return &Gateway{api: api, channelID: channelID}
}

// SendMessage отправляет пользователю текстовое сообщение.
func (g *Gateway) SendMessage(telegramID int64, text string) error {
	const op = "bot.Gateway.SendMessage"

	msg := tgbotapi.NewMessage(telegramID, text)
	if _, err := g.api.Send(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NotifyUser отправляет пользователю сообщение от имени бота. Отдельное имя
// нужно сервисному слою, чтобы не зависеть от деталей Telegram.
func (g *Gateway) NotifyUser(telegramID int64, text string) error {
	return g.SendMessage(telegramID, text)
}

// GrantChannelAccess создает одноразовую инвайт-ссылку в закрытый канал.
// Ссылка ограничена одним участником, чтобы её нельзя было переслать.
func (g *Gateway) GrantChannelAccess(telegramID int64) (string, error) {
	const op = "bot.Gateway.GrantChannelAccess"

	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: g.channelID},
		MemberLimit: 1,
	}
	resp, err := g.api.Request(cfg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return link.InviteLink, nil
}

// RevokeChannelAccess убирает пользователя из канала: бан выкидывает его,
// немедленный разбан позволяет вернуться по новой ссылке после оплаты.
func (g *Gateway) RevokeChannelAccess(telegramID int64) error {
	const op = "bot.Gateway.RevokeChannelAccess"

	memberCfg := tgbotapi.ChatMemberConfig{
		ChatID: g.channelID,
		UserID: telegramID,
	}
	if _, err := g.api.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: memberCfg}); err != nil {
		return fmt.Errorf("%s: ban: %w", op, err)
	}
	unban := tgbotapi.UnbanChatMemberConfig{ChatMemberConfig: memberCfg, OnlyIfBanned: true}
	if _, err := g.api.Request(unban); err != nil {
		return fmt.Errorf("%s: unban: %w", op, err)
	}
	return nil
}
