package repository

// Claves lógicas de la sesión del lado cliente: una clave por campo.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"
	KeyUserName     = "user_name"
	KeyAccesos      = "accesos"
)

// SessionKeys todas las claves que Clear debe eliminar.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyRole, KeyUserName, KeyAccesos}

// SessionStore almacenamiento persistente de la sesión del cliente (localStorage, cookies,
// archivo). Último en escribir gana; las lecturas pueden estar desactualizadas si otra
// pestaña o proceso acaba de escribir.
type SessionStore interface {
	// Get devuelve "" si la clave no existe.
	Get(key string) (string, error)
	Set(key, value string) error
	// Clear elimina todas las claves de sesión.
	Clear() error
}
