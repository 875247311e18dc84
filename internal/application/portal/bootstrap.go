package portal

import (
	"net/url"

	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

// TokenParam parámetro de consulta con el que otra app entrega el token.
const TokenParam = "token"

// BootstrapPolicy qué hacer con el resto de la consulta al limpiar la URL.
type BootstrapPolicy struct {
	// KeepOtherParams conserva los parámetros distintos de token. Por defecto se
	// descarta toda la consulta y queda solo la ruta.
	KeepOtherParams bool
}

// BootstrapResult estado tras revisar la URL. Ready se pone en true solo cuando la
// revisión terminó, para que el guard no evalúe un token todavía no restaurado.
type BootstrapResult struct {
	Ready    bool
	Captured bool
	CleanURL string
}

// Bootstrap toma el token entregado por URL y lo deja como credencial activa.
// No hace llamadas de red: solo escribe en el store y reemplaza la URL visible.
func Bootstrap(store repository.SessionStore, history History, page *url.URL, policy BootstrapPolicy) (BootstrapResult, error) {
	q := page.Query()
	token := q.Get(TokenParam)
	if !q.Has(TokenParam) || token == "" {
		return BootstrapResult{Ready: true, CleanURL: page.String()}, nil
	}

	if err := store.Set(repository.KeyAccessToken, token); err != nil {
		return BootstrapResult{}, err
	}

	clean := CleanURL(page, policy)
	if history != nil {
		if err := history.Replace(clean); err != nil {
			return BootstrapResult{}, err
		}
	}
	return BootstrapResult{Ready: true, Captured: true, CleanURL: clean}, nil
}

// CleanURL quita el token de la URL. Devuelve solo la ruta (y la consulta restante si
// la política lo pide); nunca el fragmento.
func CleanURL(page *url.URL, policy BootstrapPolicy) string {
	path := page.EscapedPath()
	if path == "" {
		path = "/"
	}
	if !policy.KeepOtherParams {
		return path
	}
	q := page.Query()
	q.Del(TokenParam)
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
