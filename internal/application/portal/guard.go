package portal

import (
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

// Decision resultado del guard.
type Decision struct {
	Allowed     bool
	RedirectURL string
}

// Guard protege las vistas: sin token guardado redirige al origen raíz.
// No valida expiración ni firma; eso lo decide el backend con un 401.
type Guard struct {
	Store      repository.SessionStore
	RootOrigin string
}

// Check se evalúa en cada render; un token ilegible cuenta igual que ausente.
func (g Guard) Check() Decision {
	token, err := g.Store.Get(repository.KeyAccessToken)
	if err != nil || token == "" {
		return Decision{RedirectURL: g.RootOrigin}
	}
	return Decision{Allowed: true}
}
