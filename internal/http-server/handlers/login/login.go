// Package login выдает JWT-токен администратору по паролю.
package login

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/premium-access-bot/internal/http-server/response"
	jwtlib "github.com/magabrotheeeer/premium-access-bot/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/password"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
)

// LoginRequest тело запроса входа.
type LoginRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// @Summary Вход администратора
// @Description Проверяет пароль администратора и возвращает JWT-токен
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Пароль администратора"
// @Success 200 {object} response.Response "data.token: JWT-токен"
// @Failure 401 {object} response.Response "Неверный пароль"
// @Router /login [post]
func New(log *slog.Logger, passwordHash string, jwtMaker jwtlib.Maker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var loginRequest LoginRequest
		if err := render.DecodeJSON(r.Body, &loginRequest); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))

			return
		}

		if err := validator.New().Struct(loginRequest); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		if err := password.CompareHash(passwordHash, loginRequest.Password); err != nil {
			log.Error("incorrect password", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("incorrect password"))

			return
		}

		token, err := jwtMaker.GenerateToken("admin")
		if err != nil {
			log.Error("could not generate token", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not generate token"))

			return
		}

		log.Info("admin logged in")
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"token": token,
		}))
	}
}
