// Package observations реализует пример защищенной конечной точки данных:
// последние метеонаблюдения. Расширенные поля доступны с тарифа researcher.
package observations

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/meteoboard/meteoboard-client/internal/authstub/middlewarectx"
	"github.com/meteoboard/meteoboard-client/internal/http/response"
	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// Observation — одно метеонаблюдение.
type Observation struct {
	Station     string    `json:"station"`
	ObservedAt  time.Time `json:"observed_at"`
	Temperature float64   `json:"temperature_c"`
	WindSpeed   float64   `json:"wind_speed_ms"`
	// Расширенные поля для тарифа researcher и выше
	Pressure *float64 `json:"pressure_hpa,omitempty"`
	Humidity *float64 `json:"humidity_pct,omitempty"`
}

// Directory описывает поиск пользователя по идентификатору.
type Directory interface {
	UserByID(id string) (*models.User, bool)
}

// Handler отдает последние наблюдения.
type Handler struct {
	log *slog.Logger
	dir Directory
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, dir Directory) *Handler {
	return &Handler{log: log, dir: dir}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "authstub.handlers.observations"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, _ := r.Context().Value(middlewarectx.UserID).(string)
	user, ok := h.dir.UserByID(userID)
	if !ok {
		log.Error("token subject not found", slog.String("user_id", userID))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user not found"))
		return
	}

	extended := tier.IsAtLeast(user.Tier, tier.Researcher)
	now := time.Now().UTC()

	obs := []Observation{
		{Station: "ENBR", ObservedAt: now.Add(-10 * time.Minute), Temperature: 8.4, WindSpeed: 6.1},
		{Station: "ENTC", ObservedAt: now.Add(-12 * time.Minute), Temperature: 2.1, WindSpeed: 11.3},
	}
	if extended {
		p1, h1 := 1007.2, 81.0
		p2, h2 := 998.6, 74.0
		obs[0].Pressure, obs[0].Humidity = &p1, &h1
		obs[1].Pressure, obs[1].Humidity = &p2, &h2
	}

	render.JSON(w, r, obs)
}
