package portal

import (
	"errors"

	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

// Unauthorized trata cualquier 401 del backend: borra la sesión y navega al login raíz.
// Siempre devuelve ErrSessionExpired (envuelto junto al error de limpieza si lo hubo).
func Unauthorized(store repository.SessionStore, nav Navigator, loginURL string) error {
	var errs []error
	if err := store.Clear(); err != nil {
		errs = append(errs, err)
	}
	if nav != nil {
		if err := nav.Navigate(loginURL); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(append([]error{domain.ErrSessionExpired}, errs...)...)
}
