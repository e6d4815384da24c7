// Package authstub реализует дев-стаб бэкенда аутентификации MeteoBoard:
// те же формы конечных точек, что у боевого сервера, но с пользователями
// в памяти процесса. Используется для локальной разработки клиента и как
// реалистичная обвязка в интеграционных тестах.
//
// Это не идентификационный сервис: пароли хранятся открытым текстом,
// refresh-токены живут в памяти и пропадают с перезапуском.
package authstub

import (
	"sync"

	"github.com/google/uuid"

	"github.com/meteoboard/meteoboard-client/internal/models"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// Account — учетная запись дев-стаба.
type Account struct {
	models.User
	Password string // Открытый текст: стаб не хэширует пароли
}

// Directory — каталог пользователей и выданных refresh-токенов.
type Directory struct {
	mu       sync.Mutex
	accounts map[string]*Account // ключ — email
	refresh  map[string]string   // refresh-токен -> email
}

// NewDirectory создает пустой каталог.
func NewDirectory() *Directory {
	return &Directory{
		accounts: make(map[string]*Account),
		refresh:  make(map[string]string),
	}
}

// Add регистрирует учетную запись, выдавая идентификатор при его отсутствии.
func (d *Directory) Add(acc Account) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	d.accounts[acc.Email] = &acc
}

// Authenticate проверяет пару email/пароль.
func (d *Directory) Authenticate(email, password string) (*models.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[email]
	if !ok || acc.Password != password {
		return nil, false
	}
	return acc.User.Clone(), true
}

// User возвращает профиль по email.
func (d *Directory) User(email string) (*models.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[email]
	if !ok {
		return nil, false
	}
	return acc.User.Clone(), true
}

// UserByID возвращает профиль по идентификатору.
func (d *Directory) UserByID(id string) (*models.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, acc := range d.accounts {
		if acc.ID == id {
			return acc.User.Clone(), true
		}
	}
	return nil, false
}

// IssueRefresh выпускает refresh-токен для пользователя.
func (d *Directory) IssueRefresh(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	token := uuid.NewString()
	d.refresh[token] = email
	return token
}

// RotateRefresh обменивает действующий refresh-токен на новый.
// Старый токен отзывается независимо от исхода.
func (d *Directory) RotateRefresh(token string) (*models.User, string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	email, ok := d.refresh[token]
	if !ok {
		return nil, "", false
	}
	delete(d.refresh, token)

	acc, ok := d.accounts[email]
	if !ok {
		return nil, "", false
	}
	next := uuid.NewString()
	d.refresh[next] = email
	return acc.User.Clone(), next, true
}

// RevokeUser отзывает все refresh-токены пользователя.
func (d *Directory) RevokeUser(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for token, owner := range d.refresh {
		if owner == email {
			delete(d.refresh, token)
		}
	}
}

// SetTier меняет тариф пользователя и возвращает обновленный профиль.
func (d *Directory) SetTier(email string, t tier.Tier) (*models.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[email]
	if !ok {
		return nil, false
	}
	acc.Tier = t
	return acc.User.Clone(), true
}
