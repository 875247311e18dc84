package repository

import (
	"context"
	"time"

	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
)

// ServerSessionRepository sesiones del lado servidor con expiración deslizante.
type ServerSessionRepository interface {
	// Save crea o renueva la sesión con el TTL dado y devuelve el tiempo restante.
	Save(ctx context.Context, s *entity.ServerSession, ttl time.Duration) (time.Duration, error)
	// Get devuelve (nil, nil) si la sesión no existe o expiró.
	Get(ctx context.Context, id string) (*entity.ServerSession, error)
	Delete(ctx context.Context, id string) error
}
