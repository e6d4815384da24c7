// Package transport реализует аутентифицированный HTTP-клиент бэкенда:
// подстановку bearer-токена, прозрачное обновление истекшего токена с
// гарантией одного одновременного обмена и нормализацию ошибок в
// типизированную таксономию.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/meteoboard/meteoboard-client/internal/lib/sl"
	"github.com/meteoboard/meteoboard-client/internal/sessionstore"
)

// refreshPath — конечная точка обмена refresh-токена.
const refreshPath = "/auth/refresh"

// Request описывает исходящий вызов бэкенда.
type Request struct {
	Method      string // HTTP-метод
	Path        string // Путь относительно базового URL
	Body        any    // Тело запроса, сериализуется в JSON
	RequireAuth bool   // Требовать наличия сессии до выполнения запроса
}

// Response — нормализованный успешный ответ бэкенда.
type Response struct {
	Status int    // HTTP-статус (2xx)
	Body   []byte // Сырое тело ответа
}

// Decode разбирает тело ответа в переданную структуру.
func (r *Response) Decode(v any) error {
	const op = "transport.Response.Decode"

	if len(r.Body) == 0 {
		return fmt.Errorf("%s: empty response body", op)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Client — аутентифицированный клиент бэкенда.
//
// Обновление токена выполняется в режиме single-flight: сколько бы
// одновременных запросов ни получили 401, обмен refresh-токена
// выполняется ровно один раз, остальные ждут его результата.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      sessionstore.Store
	log        *slog.Logger
	limiter    *rate.Limiter
	refreshing singleflight.Group
	onExpired  func()
}

// Option настраивает клиента.
type Option func(*Client)

// WithTimeout задает таймаут HTTP-клиента.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient подменяет HTTP-клиент целиком.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit включает клиентский ограничитель частоты запросов.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New создает клиента поверх хранилища сессии.
func New(baseURL string, store sessionstore.Store, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		store:      store,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionExpired регистрирует обработчик принудительного завершения сессии.
// Вызывается после очистки хранилища при провале обмена refresh-токена.
func (c *Client) OnSessionExpired(fn func()) {
	c.onExpired = fn
}

// Call выполняет запрос с текущими учетными данными.
//
// Заведомо истекший токен обменивается до запроса. При ответе 401 с
// приложенным токеном выполняется один общий обмен refresh-токена и
// ровно один повтор исходного запроса. Отмена контекста вызывающего
// кода прерывает его запрос, но не общий обмен.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	const op = "transport.Call"

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindNetwork, Message: "request cancelled", Err: fmt.Errorf("%s: %w", op, err)}
		}
	}

	token := ""
	if sess, ok := c.store.Read(); ok {
		token = sess.AccessToken
		if sess.Expired(time.Now()) {
			// Токен заведомо истек: меняем его до запроса, не тратя вызов
			if err := c.refreshShared(ctx); err != nil {
				if req.RequireAuth {
					return nil, err
				}
			} else if fresh, ok := c.store.Read(); ok {
				token = fresh.AccessToken
			}
		}
	}
	if req.RequireAuth && token == "" {
		requestsTotal.WithLabelValues(string(KindUnauthenticated)).Inc()
		return nil, &Error{Kind: KindUnauthenticated, Message: "no active session"}
	}

	resp, err := c.do(ctx, req, token)
	if err != nil {
		requestsTotal.WithLabelValues(string(KindNetwork)).Inc()
		return nil, err
	}

	if resp.Status != http.StatusUnauthorized || token == "" {
		return c.normalize(resp, token != "")
	}

	// 401 с приложенным токеном: токен истек, пробуем общий обмен
	if err := c.refreshShared(ctx); err != nil {
		requestsTotal.WithLabelValues(string(KindAuthExpired)).Inc()
		return nil, err
	}
	if ctx.Err() != nil {
		// Вызов отменен, пока шел обмен: повтор не выполняется
		return nil, &Error{Kind: KindNetwork, Message: "request cancelled", Err: ctx.Err()}
	}

	sess, ok := c.store.Read()
	if !ok {
		// Сессия исчезла между обменом и повтором (например, logout)
		return nil, &Error{Kind: KindAuthExpired, Message: "session ended during refresh"}
	}

	retriesTotal.Inc()
	resp, err = c.do(ctx, req, sess.AccessToken)
	if err != nil {
		requestsTotal.WithLabelValues(string(KindNetwork)).Inc()
		return nil, err
	}
	return c.normalize(resp, true)
}

// CallJSON выполняет запрос и разбирает успешный ответ в out.
func (c *Client) CallJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// do выполняет одиночный HTTP-запрос без логики повторов.
func (c *Client) do(ctx context.Context, req Request, token string) (*Response, error) {
	const op = "transport.do"

	var buf bytes.Buffer
	if req.Body != nil {
		if err := json.NewEncoder(&buf).Encode(req.Body); err != nil {
			return nil, &Error{Kind: KindBadRequest, Message: "encode request body", Err: fmt.Errorf("%s: %w", op, err)}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, &buf)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "build request", Err: fmt.Errorf("%s: %w", op, err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "request failed", Err: fmt.Errorf("%s: %w", op, err)}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "read response body", Err: fmt.Errorf("%s: %w", op, err)}
	}
	return &Response{Status: httpResp.StatusCode, Body: body}, nil
}

// normalize переводит не-2xx ответы в типизированные ошибки.
func (c *Client) normalize(resp *Response, hadToken bool) (*Response, error) {
	switch {
	case resp.Status < http.StatusMultipleChoices:
		requestsTotal.WithLabelValues("ok").Inc()
		return resp, nil
	case resp.Status == http.StatusUnauthorized && !hadToken:
		requestsTotal.WithLabelValues(string(KindUnauthenticated)).Inc()
		return nil, &Error{Kind: KindUnauthenticated, Status: resp.Status, Message: apiMessage(resp.Body, "authentication required")}
	case resp.Status == http.StatusUnauthorized:
		// Токен отвергнут и после обновления: повторов больше не будет
		requestsTotal.WithLabelValues(string(KindAuthExpired)).Inc()
		return nil, &Error{Kind: KindAuthExpired, Status: resp.Status, Message: apiMessage(resp.Body, "session expired")}
	case resp.Status == http.StatusForbidden:
		requestsTotal.WithLabelValues(string(KindForbidden)).Inc()
		return nil, &Error{Kind: KindForbidden, Status: resp.Status, Message: apiMessage(resp.Body, "access denied")}
	case resp.Status < http.StatusInternalServerError:
		requestsTotal.WithLabelValues(string(KindBadRequest)).Inc()
		return nil, &Error{Kind: KindBadRequest, Status: resp.Status, Message: apiMessage(resp.Body, "request rejected")}
	default:
		requestsTotal.WithLabelValues(string(KindNetwork)).Inc()
		return nil, &Error{Kind: KindNetwork, Status: resp.Status, Message: apiMessage(resp.Body, "server error")}
	}
}

// refreshShared выполняет обмен refresh-токена в режиме single-flight:
// все одновременные вызовы ждут один и тот же обмен.
func (c *Client) refreshShared(ctx context.Context) error {
	_, err, _ := c.refreshing.Do("refresh", func() (any, error) {
		// Обмен не должен умирать вместе с отменой одного из ожидающих
		return nil, c.refresh(context.WithoutCancel(ctx))
	})
	return err
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// refresh выполняет ровно один обмен refresh-токена.
//
// Отказ бэкенда в обмене (4xx) очищает хранилище и завершает сессию;
// транспортный сбой оставляет сессию нетронутой, чтобы нестабильная сеть
// не разлогинивала пользователя.
func (c *Client) refresh(ctx context.Context) error {
	const op = "transport.refresh"

	log := c.log.With(slog.String("op", op))

	sess, ok := c.store.Read()
	if !ok || sess.RefreshToken == "" {
		return &Error{Kind: KindAuthExpired, Message: "no session to refresh"}
	}

	refreshTotal.Inc()
	resp, err := c.do(ctx, Request{
		Method: http.MethodPost,
		Path:   refreshPath,
		Body:   refreshRequest{RefreshToken: sess.RefreshToken},
	}, "")
	if err != nil {
		log.Error("token refresh transport failure", sl.Err(err))
		return err
	}

	switch {
	case resp.Status < http.StatusMultipleChoices:
		var rr refreshResponse
		if err := resp.Decode(&rr); err != nil {
			log.Error("token refresh returned malformed body", sl.Err(err))
			return &Error{Kind: KindNetwork, Status: resp.Status, Message: "malformed refresh response", Err: err}
		}
		sess.AccessToken = rr.AccessToken
		sess.RefreshToken = rr.RefreshToken
		sess.ExpiresAt = rr.ExpiresAt
		if err := c.store.Write(sess); err != nil {
			return &Error{Kind: KindNetwork, Message: "persist refreshed session", Err: err}
		}
		log.Info("access token refreshed")
		return nil

	case resp.Status >= http.StatusBadRequest && resp.Status < http.StatusInternalServerError:
		// Refresh-токен отвергнут: принудительный выход
		refreshFailedTotal.Inc()
		if err := c.store.Clear(); err != nil {
			log.Error("failed to clear session store", sl.Err(err))
		}
		if c.onExpired != nil {
			c.onExpired()
		}
		log.Info("refresh token rejected, session ended", slog.Int("status", resp.Status))
		return &Error{Kind: KindAuthExpired, Status: resp.Status, Message: apiMessage(resp.Body, "session expired")}

	default:
		log.Error("token refresh server error", slog.Int("status", resp.Status))
		return &Error{Kind: KindNetwork, Status: resp.Status, Message: apiMessage(resp.Body, "refresh unavailable")}
	}
}

// apiMessage достает текст ошибки из стандартного конверта ответа.
func apiMessage(body []byte, fallback string) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return fallback
}
