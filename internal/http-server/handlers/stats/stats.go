// Package stats отдает агрегированные счетчики подписок.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/response"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// StatsProvider считает счетчики по текущему состоянию базы.
type StatsProvider interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

// @Summary Статистика подписок
// @Description Возвращает количество пользователей, активных и истекших подписок и ожидающих платежей
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "data.stats: счетчики"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /stats [get]
func New(log *slog.Logger, provider StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.stats.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := provider.Stats(r.Context())
		if err != nil {
			log.Error("failed to load stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load stats"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"stats": result,
		}))
	}
}
