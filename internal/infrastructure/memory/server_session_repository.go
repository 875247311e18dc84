package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

var _ repository.ServerSessionRepository = (*ServerSessionRepo)(nil)

type serverSessionEntry struct {
	session   entity.ServerSession
	expiresAt time.Time
}

// ServerSessionRepo sesiones de servidor en memoria, con expiración perezosa.
type ServerSessionRepo struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]serverSessionEntry
}

// NewServerSessionRepository construye el repositorio; now nil usa time.Now.
func NewServerSessionRepository(now func() time.Time) *ServerSessionRepo {
	if now == nil {
		now = time.Now
	}
	return &ServerSessionRepo{now: now, items: make(map[string]serverSessionEntry)}
}

func (r *ServerSessionRepo) Save(_ context.Context, s *entity.ServerSession, ttl time.Duration) (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = serverSessionEntry{session: *s, expiresAt: r.now().Add(ttl)}
	return ttl, nil
}

func (r *ServerSessionRepo) Get(_ context.Context, id string) (*entity.ServerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	if !r.now().Before(e.expiresAt) {
		delete(r.items, id)
		return nil, nil
	}
	s := e.session
	return &s, nil
}

func (r *ServerSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}
