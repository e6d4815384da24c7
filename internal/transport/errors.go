package transport

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку клиентского ядра.
type Kind string

const (
	// KindInvalidCredentials — логин отклонен; состояние сессии не меняется.
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindAuthExpired — обновление токена провалилось; сессия принудительно завершена.
	KindAuthExpired Kind = "auth_expired"
	// KindForbidden — аутентифицирован, но уровень или роль недостаточны.
	KindForbidden Kind = "forbidden"
	// KindUnauthenticated — вызов, требующий аутентификации, без сессии.
	KindUnauthenticated Kind = "unauthenticated"
	// KindBadRequest — прочие клиентские ошибки (4xx), не связанные с авторизацией.
	KindBadRequest Kind = "bad_request"
	// KindNetwork — транспортный сбой или ошибка сервера; сессия не трогается,
	// решение о повторе остается за вызывающим кодом.
	KindNetwork Kind = "network"
)

// Error — типизированная ошибка транспортного клиента.
// UI-код никогда не видит сырых ошибок net/http.
type Error struct {
	Kind    Kind   // Классификация ошибки
	Status  int    // HTTP-статус ответа, 0 при транспортном сбое
	Message string // Сообщение для вызывающего кода
	Err     error  // Исходная ошибка, если была
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind сообщает, относится ли ошибка (в том числе обернутая) к данному виду.
func IsKind(err error, kind Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}
