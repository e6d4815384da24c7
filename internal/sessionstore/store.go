// Package sessionstore реализует долговременное хранилище сессии:
// токены и кэшированный профиль пользователя переживают перезапуск клиента.
//
// Контракт хранилища: чтение никогда не возвращает частичную сессию
// (испорченная запись считается отсутствующей), запись атомарна с точки
// зрения читателя, очистка идемпотентна.
package sessionstore

import "github.com/meteoboard/meteoboard-client/internal/models"

// Store описывает контракт хранилища сессии.
type Store interface {
	// Read возвращает сохраненную сессию. Второй результат равен false,
	// если сессии нет или запись испорчена.
	Read() (models.Session, bool)

	// Write сохраняет сессию целиком, заменяя предыдущую.
	Write(session models.Session) error

	// Clear удаляет сессию. Повторный вызов не является ошибкой.
	Clear() error
}
