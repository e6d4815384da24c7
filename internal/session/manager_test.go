package session_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/session"
	"github.com/meteoboard/meteoboard-client/internal/sessionstore"
	"github.com/meteoboard/meteoboard-client/internal/tier"
	"github.com/meteoboard/meteoboard-client/internal/transport"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func backendUser() models.User {
	return models.User{
		ID:       "u-1",
		Username: "casey",
		Email:    "casey@example.com",
		Tier:     tier.Researcher,
		Features: []string{"radar_overlay"},
	}
}

func writeLoginResponse(w http.ResponseWriter, user models.User) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"expires_at":    time.Now().Add(15 * time.Minute),
		"user":          user,
	})
}

// newManager поднимает менеджер поверх httptest-сервера.
func newManager(t *testing.T, handler http.Handler) (*session.Manager, sessionstore.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := sessionstore.NewMemory()
	client := transport.New(srv.URL, store, newNoopLogger())
	mgr := session.NewManager(store, client, newNoopLogger())
	client.OnSessionExpired(mgr.SessionExpired)
	return mgr, store
}

func TestLogin_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Email != "casey@example.com" || body.Password != "dev-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "Error", "error": "invalid credentials"})
			return
		}
		writeLoginResponse(w, backendUser())
	})
	mgr, store := newManager(t, mux)

	assert.False(t, mgr.Snapshot().IsAuthenticated)

	user, err := mgr.Login(context.Background(), "casey@example.com", "dev-pass")
	require.NoError(t, err)
	assert.Equal(t, "casey", user.Username)

	snap := mgr.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, tier.Researcher, snap.Tier)

	sess, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, "access-1", sess.AccessToken)
	assert.Equal(t, tier.Researcher, sess.User.Tier)
}

func TestLogin_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "Error", "error": "invalid credentials"})
	})
	mgr, store := newManager(t, mux)

	_, err := mgr.Login(context.Background(), "casey@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, transport.IsKind(err, transport.KindInvalidCredentials))

	assert.False(t, mgr.Snapshot().IsAuthenticated)
	_, ok := store.Read()
	assert.False(t, ok, "no session may be written for a rejected login")
}

func TestLogin_NetworkErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store := sessionstore.NewMemory()
	client := transport.New(srv.URL, store, newNoopLogger())
	mgr := session.NewManager(store, client, newNoopLogger())

	_, err := mgr.Login(context.Background(), "casey@example.com", "dev-pass")
	require.Error(t, err)
	assert.True(t, transport.IsKind(err, transport.KindNetwork), "network failure is not invalid credentials")
}

func TestNewManager_RestoresSessionFromStore(t *testing.T) {
	store := sessionstore.NewMemory()
	require.NoError(t, store.Write(models.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         backendUser(),
	}))

	client := transport.New("http://127.0.0.1:0", store, newNoopLogger())
	mgr := session.NewManager(store, client, newNoopLogger())

	snap := mgr.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "casey", snap.User.Username)
}

// TestLogout_UnreachableNetwork: выход обязан сработать локально, даже
// когда бэкенд недоступен.
func TestLogout_UnreachableNetwork(t *testing.T) {
	store := sessionstore.NewMemory()
	require.NoError(t, store.Write(models.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         backendUser(),
	}))

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := transport.New(srv.URL, store, newNoopLogger())
	mgr := session.NewManager(store, client, newNoopLogger())

	require.NoError(t, mgr.Logout(context.Background()))

	assert.False(t, mgr.Snapshot().IsAuthenticated)
	_, ok := store.Read()
	assert.False(t, ok, "store must be empty after logout")
}

func TestRefreshUser_PicksUpTierUpgrade(t *testing.T) {
	upgraded := backendUser()
	upgraded.Tier = tier.Professional
	upgraded.IsAdmin = true

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(upgraded)
	})
	mgr, store := newManager(t, mux)
	require.NoError(t, store.Write(models.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         backendUser(),
	}))

	user, err := mgr.RefreshUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tier.Professional, user.Tier)

	snap := mgr.Snapshot()
	assert.Equal(t, tier.Professional, snap.Tier)
	assert.True(t, snap.IsAdmin)

	sess, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, tier.Professional, sess.User.Tier, "refreshed profile must be persisted")
}

func TestRefreshUser_AuthFailureForcesLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mgr, store := newManager(t, mux)
	require.NoError(t, store.Write(models.Session{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         backendUser(),
	}))

	_, err := mgr.RefreshUser(context.Background())
	require.Error(t, err)
	assert.True(t, transport.IsKind(err, transport.KindAuthExpired))

	assert.False(t, mgr.Snapshot().IsAuthenticated)
	_, ok := store.Read()
	assert.False(t, ok)
}

func TestChangeTier_Downgrade(t *testing.T) {
	downgraded := backendUser()
	downgraded.Tier = tier.Free

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/tier", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		var body struct {
			Tier string `json:"tier"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "free", body.Tier)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(downgraded)
	})
	mgr, store := newManager(t, mux)
	require.NoError(t, store.Write(models.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         backendUser(),
	}))

	user, err := mgr.ChangeTier(context.Background(), tier.Free)
	require.NoError(t, err)
	assert.Equal(t, tier.Free, user.Tier)
	assert.Equal(t, tier.Free, mgr.Snapshot().Tier)
}

func TestChangeTier_UnknownTier(t *testing.T) {
	mgr, _ := newManager(t, http.NotFoundHandler())

	_, err := mgr.ChangeTier(context.Background(), tier.Tier("platinum"))
	assert.Error(t, err)
}

// TestSessionExpired_NotifiesSubscribers: принудительный выход из
// транспортного клиента немедленно виден подписчикам снимка.
func TestSessionExpired_NotifiesSubscribers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/observations", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := sessionstore.NewMemory()
	require.NoError(t, store.Write(models.Session{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         backendUser(),
	}))
	client := transport.New(srv.URL, store, newNoopLogger())
	mgr := session.NewManager(store, client, newNoopLogger())
	client.OnSessionExpired(mgr.SessionExpired)

	var got []session.Snapshot
	unsubscribe := mgr.Subscribe(func(s session.Snapshot) {
		got = append(got, s)
	})
	defer unsubscribe()

	_, err := client.Call(context.Background(), transport.Request{
		Method:      http.MethodGet,
		Path:        "/api/v1/observations",
		RequireAuth: true,
	})
	require.Error(t, err)
	assert.True(t, transport.IsKind(err, transport.KindAuthExpired))

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.False(t, last.IsAuthenticated, "subscribers must observe the forced logout")
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	mgr, _ := newManager(t, http.NotFoundHandler())

	calls := 0
	unsubscribe := mgr.Subscribe(func(session.Snapshot) { calls++ })
	unsubscribe()

	mgr.SessionExpired() // не аутентифицирован: уведомлений нет и так
	assert.Equal(t, 0, calls)
}
