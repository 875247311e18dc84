package portal

import (
	"context"

	"github.com/jhoicas/portal-movimiento/internal/application/dto"
)

// Navigator carga otra página completa (cruce entre aplicaciones desplegadas por separado).
type Navigator interface {
	Navigate(url string) error
}

// History reemplaza la URL visible sin navegar ni recargar.
type History interface {
	Replace(url string) error
}

// Authenticator obtiene el par de tokens y los accesos a partir de credenciales.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*dto.TokenPairResponse, error)
}

// NavigatorFunc adapta una función a Navigator.
type NavigatorFunc func(url string) error

func (f NavigatorFunc) Navigate(url string) error { return f(url) }

// HistoryFunc adapta una función a History.
type HistoryFunc func(url string) error

func (f HistoryFunc) Replace(url string) error { return f(url) }
