// Package logout реализует HTTP-обработчик выхода: отзывает все
// refresh-токены пользователя. Вызывается клиентом по возможности,
// локальный выход клиента от результата не зависит.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/meteoboard/meteoboard-client/internal/authstub/middlewarectx"
	"github.com/meteoboard/meteoboard-client/internal/http/response"
	"github.com/meteoboard/meteoboard-client/internal/models"
)

// Directory описывает отзыв refresh-токенов пользователя.
type Directory interface {
	UserByID(id string) (*models.User, bool)
	RevokeUser(email string)
}

// Handler обрабатывает запросы выхода.
type Handler struct {
	log *slog.Logger
	dir Directory
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, dir Directory) *Handler {
	return &Handler{log: log, dir: dir}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "authstub.handlers.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, _ := r.Context().Value(middlewarectx.UserID).(string)
	if user, ok := h.dir.UserByID(userID); ok {
		h.dir.RevokeUser(user.Email)
		log.Info("refresh tokens revoked", slog.String("username", user.Username))
	}

	render.JSON(w, r, response.OK())
}
