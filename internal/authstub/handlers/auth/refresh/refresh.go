// Package refresh реализует HTTP-обработчик обмена refresh-токена дев-стаба.
//
// Действующий токен обменивается на новую пару: старый refresh-токен
// отзывается при каждом обмене (ротация), неизвестный токен дает 401.
package refresh

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/meteoboard/meteoboard-client/internal/http/response"
	"github.com/meteoboard/meteoboard-client/internal/lib/jwt"
	"github.com/meteoboard/meteoboard-client/internal/lib/sl"
	"github.com/meteoboard/meteoboard-client/internal/models"
)

// Request — структура входных данных для обмена токена.
type Request struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Rotator описывает ротацию refresh-токенов в каталоге.
type Rotator interface {
	// RotateRefresh обменивает действующий refresh-токен на новый.
	RotateRefresh(token string) (*models.User, string, bool)
}

// Handler обрабатывает HTTP-запросы обмена токена.
type Handler struct {
	log      *slog.Logger
	rotator  Rotator
	maker    jwt.Maker
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, rotator Rotator, maker jwt.Maker) *Handler {
	return &Handler{
		log:      log,
		rotator:  rotator,
		maker:    maker,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "authstub.handlers.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, next, ok := h.rotator.RotateRefresh(req.RefreshToken)
	if !ok {
		log.Info("refresh token rejected")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("refresh token invalid or revoked"))
		return
	}

	token, expiresAt, err := h.maker.Generate(*user)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("access token refreshed", slog.String("username", user.Username))
	render.JSON(w, r, map[string]any{
		"access_token":  token,
		"refresh_token": next,
		"expires_at":    expiresAt,
	})
}
