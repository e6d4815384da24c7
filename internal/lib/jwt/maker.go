package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meteoboard/meteoboard-client/internal/models"
)

// Generate выпускает подписанный HS256 токен с claims пользователя.
// Subject токена — идентификатор пользователя.
func (m *MakerImpl) Generate(user models.User) (string, time.Time, error) {
	const op = "jwt.Generate"

	expiresAt := time.Now().Add(m.tokenTTL)
	claims := Claims{
		Username: user.Username,
		Tier:     user.Tier,
		IsAdmin:  user.IsAdmin,
		Features: user.Features,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, expiresAt, nil
}

// Parse парсит токен, проверяет подпись и срок действия,
// возвращает Claims, если токен корректен.
func (m *MakerImpl) Parse(tokenStr string) (*Claims, error) {
	const op = "jwt.Parse"

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}

// ExpiryOf извлекает момент истечения токена без проверки подписи.
// Используется на клиентской стороне, у которой нет секретного ключа,
// когда бэкенд не прислал expires_at явно.
func ExpiryOf(tokenStr string) (time.Time, error) {
	const op = "jwt.ExpiryOf"

	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%s: token has no expiry", op)
	}
	return claims.ExpiresAt.Time, nil
}
