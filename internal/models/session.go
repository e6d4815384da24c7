package models

import "time"

// Session — сессия пользователя, переживающая перезапуск клиента.
// Инвариант: сессия либо заполнена целиком, либо отсутствует;
// частично заполненная запись считается отсутствующей.
type Session struct {
	AccessToken  string    `json:"access_token"`  // Короткоживущий токен доступа
	RefreshToken string    `json:"refresh_token"` // Токен обновления
	ExpiresAt    time.Time `json:"expires_at"`    // Момент истечения токена доступа
	User         User      `json:"user"`          // Кэшированный профиль пользователя
}

// Valid сообщает, заполнена ли сессия целиком.
func (s *Session) Valid() bool {
	return s.AccessToken != "" &&
		s.RefreshToken != "" &&
		!s.ExpiresAt.IsZero() &&
		s.User.ID != ""
}

// Expired сообщает, истек ли токен доступа к моменту now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
