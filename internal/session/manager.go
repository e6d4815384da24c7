// Package session реализует менеджер сессии — единственный источник правды
// о том, кто залогинен и с какой сессией.
//
// Менеджер владеет жизненным циклом сессии (логин, выход, обновление
// профиля, смена тарифа) и раздает остальному коду снимки состояния
// только на чтение. Профиль пользователя заменяется целиком, частичных
// мутаций нет.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/meteoboard/meteoboard-client/internal/lib/jwt"
	"github.com/meteoboard/meteoboard-client/internal/lib/sl"
	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/sessionstore"
	"github.com/meteoboard/meteoboard-client/internal/tier"
	"github.com/meteoboard/meteoboard-client/internal/transport"
)

// Snapshot — снимок состояния сессии только на чтение.
// Пока IsLoading истинно, остальным полям доверять нельзя.
type Snapshot struct {
	User            *models.User // Копия профиля; nil, если не залогинен
	Tier            tier.Tier    // Тарифный уровень пользователя
	IsAdmin         bool         // Признак администратора
	IsAuthenticated bool         // Есть ли действующая сессия
	IsLoading       bool         // Идет ли начальная загрузка или команда менеджера
}

// Backend описывает контракт транспортного клиента, который нужен менеджеру.
type Backend interface {
	Call(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Manager — менеджер сессии. Создается один раз на процесс и передается
// явно в шлюзы и охранники маршрутов; скрытых синглтонов нет.
type Manager struct {
	store sessionstore.Store
	api   Backend
	log   *slog.Logger

	mu      sync.Mutex
	user    *models.User
	loading bool
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewManager создает менеджер и синхронно восстанавливает сессию из
// хранилища: при валидной записи состояние сразу аутентифицировано.
func NewManager(store sessionstore.Store, api Backend, log *slog.Logger) *Manager {
	m := &Manager{
		store: store,
		api:   api,
		log:   log,
		subs:  make(map[int]func(Snapshot)),
	}
	if sess, ok := store.Read(); ok {
		m.user = sess.User.Clone()
	}
	return m
}

// Snapshot возвращает текущий снимок состояния.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{IsLoading: m.loading}
	if m.user != nil {
		snap.User = m.user.Clone()
		snap.Tier = m.user.Tier
		snap.IsAdmin = m.user.IsAdmin
		snap.IsAuthenticated = true
	}
	return snap
}

// Subscribe регистрирует подписчика на смену снимка и возвращает функцию
// отписки. Подписчики вызываются синхронно после каждой смены состояния.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// notify рассылает свежий снимок подписчикам. Колбэки вызываются вне
// блокировки, чтобы подписчик мог сам читать состояние менеджера.
func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
	m.notify()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         models.User `json:"user"`
}

// Login аутентифицирует пользователя. Отклоненные учетные данные
// возвращаются типизированной ошибкой KindInvalidCredentials, состояние
// при этом остается незалогиненным.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "session.Login"

	log := m.log.With(slog.String("op", op))
	m.setLoading(true)
	defer m.setLoading(false)

	resp, err := m.api.Call(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Email: email, Password: password},
	})
	if err != nil {
		if transport.IsKind(err, transport.KindNetwork) {
			log.Error("login transport failure", sl.Err(err))
			return nil, err
		}
		log.Info("login rejected")
		return nil, &transport.Error{Kind: transport.KindInvalidCredentials, Message: "invalid credentials", Err: err}
	}

	var lr loginResponse
	if err := resp.Decode(&lr); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := lr.ExpiresAt
	if expiresAt.IsZero() {
		// Бэкенды без поля expires_at: срок читается из самого токена
		if ts, err := jwt.ExpiryOf(lr.AccessToken); err == nil {
			expiresAt = ts
		}
	}

	sess := models.Session{
		AccessToken:  lr.AccessToken,
		RefreshToken: lr.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         lr.User,
	}
	if !sess.Valid() {
		return nil, fmt.Errorf("%s: backend returned incomplete session", op)
	}
	if err := m.store.Write(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	m.user = lr.User.Clone()
	m.mu.Unlock()
	m.notify()

	log.Info("login success", slog.String("username", lr.User.Username), slog.String("tier", string(lr.User.Tier)))
	return lr.User.Clone(), nil
}

// Logout завершает сессию. Бэкенд уведомляется по возможности, но локальный
// выход выполняется безусловно: недоступная сеть не оставляет пользователя
// залогиненным.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Logout"

	log := m.log.With(slog.String("op", op))
	m.setLoading(true)
	defer m.setLoading(false)

	if _, err := m.api.Call(ctx, transport.Request{
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		RequireAuth: true,
	}); err != nil {
		log.Info("backend logout notification failed, proceeding locally", sl.Err(err))
	}

	clearErr := m.store.Clear()

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.notify()

	if clearErr != nil {
		log.Error("failed to clear session store", sl.Err(clearErr))
		return fmt.Errorf("%s: %w", op, clearErr)
	}
	log.Info("logged out")
	return nil
}

// RefreshUser перечитывает канонический профиль с бэкенда и заменяет
// кэшированного пользователя целиком. Провал авторизации при этом
// равнозначен провалу обмена токена: сессия завершается.
func (m *Manager) RefreshUser(ctx context.Context) (*models.User, error) {
	const op = "session.RefreshUser"

	log := m.log.With(slog.String("op", op))
	m.setLoading(true)
	defer m.setLoading(false)

	var user models.User
	err := callJSON(ctx, m.api, transport.Request{
		Method:      http.MethodGet,
		Path:        "/auth/me",
		RequireAuth: true,
	}, &user)
	if err != nil {
		if transport.IsKind(err, transport.KindAuthExpired) || transport.IsKind(err, transport.KindUnauthenticated) {
			log.Info("profile refresh lost authorization, ending session")
			m.forceLocalLogout()
			return nil, err
		}
		log.Error("profile refresh failed", sl.Err(err))
		return nil, err
	}

	m.updateUser(user)
	log.Info("user profile refreshed", slog.String("tier", string(user.Tier)))
	return user.Clone(), nil
}

type tierRequest struct {
	Tier tier.Tier `json:"tier"`
}

// ChangeTier запрашивает смену тарифа для неплатных переходов (например,
// даунгрейд до free). Платные апгрейды идут через внешний checkout и
// отклоняются бэкендом.
func (m *Manager) ChangeTier(ctx context.Context, t tier.Tier) (*models.User, error) {
	const op = "session.ChangeTier"

	if !tier.Known(t) {
		return nil, fmt.Errorf("%s: unknown tier %q", op, t)
	}

	log := m.log.With(slog.String("op", op))

	var user models.User
	err := callJSON(ctx, m.api, transport.Request{
		Method:      http.MethodPut,
		Path:        "/auth/tier",
		Body:        tierRequest{Tier: t},
		RequireAuth: true,
	}, &user)
	if err != nil {
		log.Error("tier change rejected", sl.Err(err))
		return nil, err
	}

	m.updateUser(user)
	log.Info("tier changed", slog.String("tier", string(user.Tier)))
	return user.Clone(), nil
}

// SessionExpired — обработчик принудительного завершения сессии из
// транспортного клиента: хранилище уже очищено, осталось уронить снимок.
func (m *Manager) SessionExpired() {
	m.mu.Lock()
	wasAuthenticated := m.user != nil
	m.user = nil
	m.mu.Unlock()

	if wasAuthenticated {
		m.log.Info("session expired, forced logout")
		m.notify()
	}
}

// forceLocalLogout очищает хранилище и состояние без обращения к бэкенду.
func (m *Manager) forceLocalLogout() {
	if err := m.store.Clear(); err != nil {
		m.log.Error("failed to clear session store", sl.Err(err))
	}
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.notify()
}

// updateUser заменяет кэшированного пользователя в памяти и в хранилище.
func (m *Manager) updateUser(user models.User) {
	if sess, ok := m.store.Read(); ok {
		sess.User = user
		if err := m.store.Write(sess); err != nil {
			m.log.Error("failed to persist refreshed user", sl.Err(err))
		}
	}
	m.mu.Lock()
	m.user = user.Clone()
	m.mu.Unlock()
	m.notify()
}

func callJSON(ctx context.Context, api Backend, req transport.Request, out any) error {
	resp, err := api.Call(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
