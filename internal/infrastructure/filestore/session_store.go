// Package filestore persiste la sesión del cliente de línea de comandos en un YAML.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore una clave por campo, igual que el almacenamiento del navegador. Cada
// escritura reescribe el archivo completo; el último proceso en escribir gana.
type SessionStore struct {
	path string
	mu   sync.Mutex
}

// New usa path tal cual; no crea el archivo hasta la primera escritura.
func New(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultPath ~/.portal/session.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("directorio home: %w", err)
	}
	return filepath.Join(home, ".portal", "session.yaml"), nil
}

// Path ruta del archivo.
func (s *SessionStore) Path() string { return s.path }

func (s *SessionStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *SessionStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Clear elimina las claves de sesión y conserva cualquier otra que haya en el archivo.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	for _, k := range repository.SessionKeys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("borrar %s: %w", s.path, err)
		}
		return nil
	}
	return s.write(values)
}

func (s *SessionStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decodificar %s: %w", s.path, err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

// write escribe a un temporal y renombra para no dejar el archivo a medias.
func (s *SessionStore) write(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("codificar sesión: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("crear directorio: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("escribir %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("renombrar %s: %w", tmp, err)
	}
	return nil
}
