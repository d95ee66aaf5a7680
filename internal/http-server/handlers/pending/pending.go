// Package pending отдает платежи, ожидающие решения администратора.
package pending

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

const defaultLimit = 20

// Lister возвращает платежи в статусе pending, старые первыми.
type Lister interface {
	ListPendingPayments(ctx context.Context, limit int) ([]*models.Payment, error)
}

// @Summary Платежи на модерации
// @Description Возвращает платежи, ожидающие подтверждения, старые первыми
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "data.payments: массив платежей"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /payments/pending [get]
func New(log *slog.Logger, lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.pending.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := lister.ListPendingPayments(r.Context(), defaultLimit)
		if err != nil {
			log.Error("failed to list pending payments", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list pending payments"))

			return
		}

		log.Info("pending payments listed", slog.Int("count", len(result)))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"payments_count": len(result),
			"payments":       result,
		}))
	}
}
