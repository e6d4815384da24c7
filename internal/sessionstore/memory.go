package sessionstore

import (
	"sync"

	"github.com/meteoboard/meteoboard-client/internal/models"
)

// MemoryStore хранит сессию в памяти процесса. Используется в тестах
// и одноразовых запусках, где долговременность не нужна.
type MemoryStore struct {
	mu      sync.Mutex
	session models.Session
	present bool
}

// NewMemory создает пустое хранилище в памяти.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// Read возвращает сохраненную сессию, если она была записана.
func (m *MemoryStore) Read() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.present || !m.session.Valid() {
		return models.Session{}, false
	}
	return m.session, true
}

// Write заменяет сессию целиком.
func (m *MemoryStore) Write(session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = session
	m.present = true
	return nil
}

// Clear удаляет сессию.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = models.Session{}
	m.present = false
	return nil
}
