// Package me реализует HTTP-обработчик выдачи канонического профиля
// аутентифицированного пользователя.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/meteoboard/meteoboard-client/internal/authstub/middlewarectx"
	"github.com/meteoboard/meteoboard-client/internal/http/response"
	"github.com/meteoboard/meteoboard-client/internal/models"
)

// Directory описывает поиск пользователя по идентификатору.
type Directory interface {
	UserByID(id string) (*models.User, bool)
}

// Handler обрабатывает запросы профиля текущего пользователя.
type Handler struct {
	log *slog.Logger
	dir Directory
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, dir Directory) *Handler {
	return &Handler{log: log, dir: dir}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "authstub.handlers.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	user, ok := h.dir.UserByID(userID)
	if !ok {
		log.Error("token subject not found", slog.String("user_id", userID))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user not found"))
		return
	}

	render.JSON(w, r, user)
}
