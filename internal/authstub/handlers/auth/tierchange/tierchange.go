// Package tierchange реализует HTTP-обработчик смены тарифа для
// неплатных переходов. Платные апгрейды идут через внешний checkout:
// запрос на повышение тарифа отклоняется.
package tierchange

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/meteoboard/meteoboard-client/internal/authstub/middlewarectx"
	"github.com/meteoboard/meteoboard-client/internal/http/response"
	"github.com/meteoboard/meteoboard-client/internal/lib/sl"
	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// Request — структура входных данных для смены тарифа.
type Request struct {
	Tier string `json:"tier" validate:"required,oneof=free researcher professional"`
}

// Directory описывает операции каталога, нужные для смены тарифа.
type Directory interface {
	UserByID(id string) (*models.User, bool)
	SetTier(email string, t tier.Tier) (*models.User, bool)
}

// Handler обрабатывает запросы смены тарифа.
type Handler struct {
	log      *slog.Logger
	dir      Directory
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, dir Directory) *Handler {
	return &Handler{
		log:      log,
		dir:      dir,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "authstub.handlers.tierchange"

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

	requested, err := tier.Parse(req.Tier)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown tier"))
		return
	}

	userID, _ := r.Context().Value(middlewarectx.UserID).(string)
	user, ok := h.dir.UserByID(userID)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user not found"))
		return
	}

	// Повышение тарифа — платный переход, он оформляется через checkout
	if !tier.IsAtLeast(user.Tier, requested) {
		log.Info("paid upgrade rejected",
			slog.String("from", string(user.Tier)), slog.String("to", string(requested)))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("paid upgrades must go through checkout"))
		return
	}

	updated, ok := h.dir.SetTier(user.Email, requested)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("tier changed", slog.String("username", updated.Username), slog.String("tier", string(updated.Tier)))
	render.JSON(w, r, updated)
}
