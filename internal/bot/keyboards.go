package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/plans"
)

// mainMenuKeyboard главное меню пользователя.
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Купить подписку", "menu:buy"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 Моя подписка", "menu:my"),
			tgbotapi.NewInlineKeyboardButtonData("🆘 Поддержка", "menu:support"),
		),
	)
}

// plansKeyboard список тарифов, по кнопке на тариф.
func plansKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, plan := range plans.All() {
		label := fmt.Sprintf("%s — %s", plan.Name, plan.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "plan:"+plan.Key),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// payKeyboard кнопка подтверждения оплаты выбранного тарифа.
func payKeyboard(planKey string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Я оплатил", "pay:ask:"+planKey),
		),
	)
}

// adminMenuKeyboard панель администратора.
func adminMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧾 Ожидающие оплаты", "admin:pending"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Пользователи", "admin:users"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "admin:stats"),
			tgbotapi.NewInlineKeyboardButtonData("📣 Рассылка", "admin:broadcast"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎫 Обращения", "admin:tickets"),
		),
	)
}

// moderationKeyboard кнопки решения по конкретному платежу.
func moderationKeyboard(payment *models.Payment) tgbotapi.InlineKeyboardMarkup {
	approve := fmt.Sprintf("admin:approve:%d:%d:%s", payment.ID, payment.TelegramID, payment.PlanKey)
	deny := fmt.Sprintf("admin:deny:%d:%d", payment.ID, payment.TelegramID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", approve),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", deny),
		),
	)
}

// ticketKeyboard кнопки ответа и закрытия обращения в поддержку.
func ticketKeyboard(ticketID, telegramID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Ответить",
				fmt.Sprintf("admin:reply:%d", telegramID)),
			tgbotapi.NewInlineKeyboardButtonData("✅ Закрыть",
				fmt.Sprintf("admin:ticket:close:%d", ticketID)),
		),
	)
}
