// Package users отдает список пользователей бота.
package users

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/response"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

const defaultLimit = 50

// Lister возвращает пользователей, недавние подписки первыми.
type Lister interface {
	ListUsers(ctx context.Context, limit int) ([]*models.User, error)
}

// @Summary Список пользователей
// @Description Возвращает пользователей бота, недавние подписки первыми
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Максимум записей (по умолчанию 50)"
// @Success 200 {object} response.Response "data.users: массив пользователей"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /users [get]
func New(log *slog.Logger, lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("limit must be a positive number"))

				return
			}
			limit = parsed
		}

		result, err := lister.ListUsers(r.Context(), limit)
		if err != nil {
			log.Error("failed to list users", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list users"))

			return
		}

		log.Info("users listed", slog.Int("count", len(result)))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"users_count": len(result),
			"users":       result,
		}))
	}
}
