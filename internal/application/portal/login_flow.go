package portal

import (
	"context"
	"fmt"

	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
)

// OutcomeKind qué pasó tras un login correcto.
type OutcomeKind int

const (
	// OutcomeRedirect un único sector: se navegó directo.
	OutcomeRedirect OutcomeKind = iota + 1
	// OutcomeSelect varios sectores: hay que mostrar la lista.
	OutcomeSelect
)

// Outcome resultado de Submit.
type Outcome struct {
	Kind    OutcomeKind
	URL     string   // destino si Kind == OutcomeRedirect
	Sectors []string // opciones si Kind == OutcomeSelect
	Session *entity.Session
}

// LoginFlow decide el destino después de iniciar sesión.
type LoginFlow struct {
	Auth      Authenticator
	Store     repository.SessionStore
	Resolver  *sector.Resolver
	Navigator Navigator
}

// Submit autentica y decide: cero sectores es un fallo (no se guarda nada ni se navega),
// uno navega directo, varios devuelven la lista para que el usuario elija.
// Un error de credenciales deja intacta cualquier sesión previa.
func (f LoginFlow) Submit(ctx context.Context, email, password string, env sector.Environment) (*Outcome, error) {
	pair, err := f.Auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if len(pair.Accesos) == 0 {
		return nil, domain.ErrNoSectors
	}

	sess := &entity.Session{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		Role:         pair.Role,
		Sectors:      append([]string(nil), pair.Accesos...),
		UserName:     pair.Name,
	}
	// Con un solo sector el destino se resuelve antes de guardar: si no resuelve, no queda sesión.
	var target string
	if len(sess.Sectors) == 1 {
		if target, err = f.Resolver.URLWithToken(sess.Sectors[0], env, sess.AccessToken); err != nil {
			return nil, err
		}
	}
	if err := SaveSession(f.Store, sess); err != nil {
		return nil, err
	}

	if target != "" {
		if err := f.navigate(target); err != nil {
			return nil, err
		}
		return &Outcome{Kind: OutcomeRedirect, URL: target, Session: sess}, nil
	}
	return &Outcome{Kind: OutcomeSelect, Sectors: sess.Sectors, Session: sess}, nil
}

// Choose navega al sector elegido de la lista; debe pertenecer a la sesión guardada.
func (f LoginFlow) Choose(_ context.Context, sectorID string, env sector.Environment) (string, error) {
	sess, err := LoadSession(f.Store)
	if err != nil {
		return "", err
	}
	if sess.AccessToken == "" {
		return "", domain.ErrNoSession
	}
	if !sess.HasSector(sectorID) {
		return "", fmt.Errorf("%w: %s", domain.ErrSectorNotGranted, sectorID)
	}
	return f.navigateTo(sectorID, env, sess.AccessToken)
}

func (f LoginFlow) navigateTo(sectorID string, env sector.Environment, token string) (string, error) {
	target, err := f.Resolver.URLWithToken(sectorID, env, token)
	if err != nil {
		return "", err
	}
	if err := f.navigate(target); err != nil {
		return "", err
	}
	return target, nil
}

func (f LoginFlow) navigate(target string) error {
	if f.Navigator == nil {
		return nil
	}
	return f.Navigator.Navigate(target)
}
