package memory

import (
	"sync"

	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore equivalente en memoria del localStorage de una pestaña.
type SessionStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSessionStore construye un almacén vacío.
func NewSessionStore() *SessionStore {
	return &SessionStore{values: make(map[string]string)}
}

func (s *SessionStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *SessionStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range repository.SessionKeys {
		delete(s.values, k)
	}
	return nil
}

// Snapshot copia del contenido actual (tests y depuración).
func (s *SessionStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
