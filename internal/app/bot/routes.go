package botapp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/handlers/login"
	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/handlers/pending"
	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/handlers/stats"
	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/handlers/users"
	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/mware"
	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/response"
	jwtlib "github.com/magabrotheeeer/premium-access-bot/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/subscription"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage/repository"
)

// RegisterRoutes регистрирует маршруты админского HTTP API.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	subscriptionService *subscription.Service, jwtMaker jwtlib.Maker, adminPasswordHash string) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", login.New(logger, adminPasswordHash, jwtMaker).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(mware.JWTMiddleware(jwtMaker, logger))
			r.Use(mware.RateLimitMiddleware(logger))
			r.Get("/stats", stats.New(logger, subscriptionService).ServeHTTP)
			r.Get("/users", users.New(logger, db).ServeHTTP)
			r.Get("/payments/pending", pending.New(logger, db).ServeHTTP)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := repository.CheckDatabaseReady(db); err != nil {
			render.Status(req, http.StatusServiceUnavailable)
			render.JSON(w, req, response.Error("database is not ready"))
			return
		}
		render.JSON(w, req, response.OK())
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
