package login

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meteoboard/meteoboard-client/internal/lib/jwt"
	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

type DirectoryMock struct {
	mock.Mock
}

func (m *DirectoryMock) Authenticate(email, password string) (*models.User, bool) {
	args := m.Called(email, password)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1)
}

func (m *DirectoryMock) IssueRefresh(email string) string {
	args := m.Called(email)
	return args.String(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	user := &models.User{
		ID:       "u-1",
		Username: "casey",
		Email:    "casey@example.com",
		Tier:     tier.Researcher,
	}
	expiresAt := time.Now().Add(15 * time.Minute).UTC()

	tests := []struct {
		name           string
		requestBody    any
		setupMocks     func(dir *DirectoryMock, maker *makerStub)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "valid login",
			requestBody: Request{Email: "casey@example.com", Password: "casey-dev-pass"},
			setupMocks: func(dir *DirectoryMock, maker *makerStub) {
				dir.On("Authenticate", "casey@example.com", "casey-dev-pass").Return(user, true).Once()
				dir.On("IssueRefresh", "casey@example.com").Return("refresh-1").Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - missing password",
			requestBody:    Request{Email: "casey@example.com"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password is a required field",
		},
		{
			name:           "validation error - malformed email",
			requestBody:    Request{Email: "not-an-email", Password: "casey-dev-pass"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Email must be a valid email",
		},
		{
			name:        "rejected credentials",
			requestBody: Request{Email: "casey@example.com", Password: "wrong-pass"},
			setupMocks: func(dir *DirectoryMock, _ *makerStub) {
				dir.On("Authenticate", "casey@example.com", "wrong-pass").Return(nil, false).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := new(DirectoryMock)
			maker := &makerStub{token: "tok", expiresAt: expiresAt}
			if tt.setupMocks != nil {
				tt.setupMocks(dir, maker)
			}

			handler := New(newNoopLogger(), dir, maker)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(bodyBytes))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				return
			}

			assert.Equal(t, "tok", got["access_token"])
			assert.Equal(t, "refresh-1", got["refresh_token"])
			gotUser, ok := got["user"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "casey", gotUser["username"])
			assert.Equal(t, "researcher", gotUser["tier"])
			dir.AssertExpectations(t)
		})
	}
}

// makerStub — простой стаб без mock-библиотеки: Generate в этих тестах
// не должен отказывать.
type makerStub struct {
	token     string
	expiresAt time.Time
}

func (m *makerStub) Generate(models.User) (string, time.Time, error) {
	return m.token, m.expiresAt, nil
}

func (m *makerStub) Parse(string) (*jwt.Claims, error) {
	panic("not used")
}
