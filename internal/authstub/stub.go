package authstub

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meteoboard/meteoboard-client/internal/authstub/handlers/auth/login"
	"github.com/meteoboard/meteoboard-client/internal/authstub/handlers/auth/logout"
	"github.com/meteoboard/meteoboard-client/internal/authstub/handlers/auth/me"
	"github.com/meteoboard/meteoboard-client/internal/authstub/handlers/auth/refresh"
	"github.com/meteoboard/meteoboard-client/internal/authstub/handlers/auth/tierchange"
	"github.com/meteoboard/meteoboard-client/internal/authstub/handlers/observations"
	"github.com/meteoboard/meteoboard-client/internal/authstub/middlewarectx"
	"github.com/meteoboard/meteoboard-client/internal/lib/jwt"
	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// Stub — дев-стаб бэкенда аутентификации.
type Stub struct {
	log   *slog.Logger
	dir   *Directory
	maker jwt.Maker
}

// New создает стаб с предзаполненным каталогом пользователей.
func New(log *slog.Logger, jwtSecret string, tokenTTL time.Duration) *Stub {
	s := &Stub{
		log:   log,
		dir:   NewDirectory(),
		maker: jwt.NewMaker(jwtSecret, tokenTTL),
	}
	s.seed()
	return s
}

// seed заполняет каталог дев-пользователями по одному на тариф плюс администратор.
func (s *Stub) seed() {
	s.dir.Add(Account{
		User: models.User{
			Username: "taylor",
			Email:    "taylor@example.com",
			Tier:     tier.Free,
		},
		Password: "taylor-dev-pass",
	})
	s.dir.Add(Account{
		User: models.User{
			Username: "casey",
			Email:    "casey@example.com",
			Tier:     tier.Researcher,
			Features: []string{"radar_overlay"},
		},
		Password: "casey-dev-pass",
	})
	s.dir.Add(Account{
		User: models.User{
			Username: "morgan",
			Email:    "morgan@example.com",
			Tier:     tier.Professional,
			Features: []string{"radar_overlay", "lightning_alerts"},
		},
		Password: "morgan-dev-pass",
	})
	s.dir.Add(Account{
		User: models.User{
			Username: "robin",
			Email:    "robin@meteoboard.dev",
			Tier:     tier.Professional,
			IsAdmin:  true,
		},
		Password: "robin-dev-pass",
	})
}

// Directory открывает каталог пользователей для тестов.
func (s *Stub) Directory() *Directory {
	return s.dir
}

// Router собирает маршруты стаба.
func (s *Stub) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Открытые конечные точки
	r.Post("/auth/login", login.New(s.log, s.dir, s.maker).ServeHTTP)
	r.Post("/auth/refresh", refresh.New(s.log, s.dir, s.maker).ServeHTTP)

	// Группа с JWT аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(s.maker, s.log))
		r.Get("/auth/me", me.New(s.log, s.dir).ServeHTTP)
		r.Post("/auth/logout", logout.New(s.log, s.dir).ServeHTTP)
		r.Put("/auth/tier", tierchange.New(s.log, s.dir).ServeHTTP)
		r.Get("/api/v1/observations", observations.New(s.log, s.dir).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
