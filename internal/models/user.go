// Package models содержит доменные структуры клиентского ядра:
// пользователя и сессию. Структуры используются менеджером сессии,
// хранилищем и транспортным клиентом.
package models

import (
	"slices"

	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// User представляет профиль пользователя, выданный бэкендом.
// Владелец структуры — менеджер сессии: профиль заменяется целиком
// при логине и обновлении, UI-код его не мутирует.
type User struct {
	ID       string    `json:"id"`                 // Уникальный идентификатор пользователя
	Username string    `json:"username"`           // Отображаемое имя пользователя
	Email    string    `json:"email"`              // Электронная почта
	Tier     tier.Tier `json:"tier"`               // Тарифный уровень подписки
	IsAdmin  bool      `json:"is_admin"`           // Признак администратора
	Features []string  `json:"features,omitempty"` // Персональные фичи, выданные пользователю
}

// HasFeature сообщает, входит ли фича в персональный набор пользователя.
func (u *User) HasFeature(name string) bool {
	return slices.Contains(u.Features, name)
}

// Clone возвращает глубокую копию пользователя.
func (u *User) Clone() *User {
	cp := *u
	cp.Features = slices.Clone(u.Features)
	return &cp
}
