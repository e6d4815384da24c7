package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meteoboard/meteoboard-client/internal/models"
)

// FileStore хранит сессию в одном JSON-файле.
//
// Атомарность записи обеспечивается записью во временный файл в том же
// каталоге и переименованием: читатель видит либо старую сессию целиком,
// либо новую целиком.
type FileStore struct {
	path string
}

// NewFile создает FileStore по указанному пути. При пустом пути файл
// размещается в пользовательском каталоге конфигурации.
func NewFile(path string) (*FileStore, error) {
	const op = "sessionstore.NewFile"

	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		path = filepath.Join(dir, "meteoboard", "session.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &FileStore{path: path}, nil
}

// Read читает сессию из файла. Отсутствующий, нечитаемый или частично
// заполненный файл дает пустой результат.
func (f *FileStore) Read() (models.Session, bool) {
	var session models.Session

	data, err := os.ReadFile(f.path)
	if err != nil {
		return models.Session{}, false
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, false
	}
	if !session.Valid() {
		return models.Session{}, false
	}
	return session, true
}

// Write сохраняет сессию атомарно: временный файл плюс rename.
func (f *FileStore) Write(session models.Session) error {
	const op = "sessionstore.FileStore.Write"

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "session-*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет файл сессии. Отсутствие файла не является ошибкой.
func (f *FileStore) Clear() error {
	const op = "sessionstore.FileStore.Clear"

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
