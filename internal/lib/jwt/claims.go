// Package jwt реализует генерацию и парсинг JWT токенов доступа
// с пользовательскими claim полями тарифного уровня и признака администратора.
//
// Maker определяет интерфейс для выпуска и проверки токенов; MakerImpl —
// конкретная реализация на секретном ключе HS256 и сроке жизни токена.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// Claims описывает пользовательские данные, хранящиеся в токене доступа.
type Claims struct {
	Username             string    `json:"username"`           // Имя пользователя
	Tier                 tier.Tier `json:"tier"`               // Тарифный уровень
	IsAdmin              bool      `json:"is_admin"`           // Признак администратора
	Features             []string  `json:"features,omitempty"` // Персональные фичи
	jwt.RegisteredClaims           // Стандартные claims (Subject, ExpiresAt, IssuedAt и пр.)
}

// Maker описывает интерфейс для выпуска и парсинга токенов доступа.
type Maker interface {
	// Generate выпускает токен для пользователя и возвращает момент его истечения.
	Generate(user models.User) (token string, expiresAt time.Time, err error)
	// Parse проверяет подпись и срок токена и возвращает его claims.
	Parse(tokenStr string) (*Claims, error)
}

// MakerImpl реализует Maker на секретном ключе и времени жизни токена.
type MakerImpl struct {
	secretKey string        // Секретный ключ подписи
	tokenTTL  time.Duration // Время жизни токена доступа
}

// NewMaker создает MakerImpl с заданным ключом и TTL.
func NewMaker(secretKey string, tokenTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
	}
}
