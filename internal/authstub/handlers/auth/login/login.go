// Package login реализует HTTP-обработчик аутентификации дев-стаба.
//
// Обработчик декодирует JSON с учетными данными, валидирует поля,
// сверяет пароль с каталогом и при успехе выпускает пару токенов
// в форме, которую ожидает клиентское ядро.
package login

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

// Request — структура входных данных для аутентификации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Directory описывает часть каталога пользователей, нужную обработчику.
type Directory interface {
	// Authenticate проверяет пару email/пароль.
	Authenticate(email, password string) (*models.User, bool)
	// IssueRefresh выпускает refresh-токен для пользователя.
	IssueRefresh(email string) string
}

// Handler обрабатывает HTTP-запросы аутентификации.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	dir      Directory           // Каталог пользователей
	maker    jwt.Maker           // Выпуск токенов доступа
	validate *validator.Validate // Валидатор входных данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, dir Directory, maker jwt.Maker) *Handler {
	return &Handler{
		log:      log,
		dir:      dir,
		maker:    maker,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "authstub.handlers.login"

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

	user, ok := h.dir.Authenticate(req.Email, req.Password)
	if !ok {
		log.Info("login rejected", slog.String("email", req.Email))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	}

	token, expiresAt, err := h.maker.Generate(*user)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("login success", slog.String("username", user.Username))
	render.JSON(w, r, map[string]any{
		"access_token":  token,
		"refresh_token": h.dir.IssueRefresh(user.Email),
		"expires_at":    expiresAt,
		"user":          user,
	})
}
