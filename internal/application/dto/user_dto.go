package dto

import "time"

// RegisterRequest alta de usuario por un admin: rol y sectores concedidos.
type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Name     string   `json:"name" validate:"omitempty,max=150"`
	Role     string   `json:"role" validate:"omitempty,oneof=admin jefe empleado"`
	Sectors  []string `json:"sectores"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"username"`
	Role      string    `json:"role"`
	Accesos   []string  `json:"accesos"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest credenciales.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPairResponse respuesta del login: tokens, rol, nombre y sectores autorizados.
type TokenPairResponse struct {
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
	Role    string   `json:"role"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Accesos []string `json:"accesos"`
}

// RefreshRequest entrada de /api/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse nuevo token de acceso.
type RefreshResponse struct {
	Access string `json:"access"`
}

// ExtendSessionResponse respuesta del heartbeat; Expiry en segundos.
type ExtendSessionResponse struct {
	Message string `json:"message"`
	Expiry  int64  `json:"expiry"`
}

// MeResponse datos del token actual.
type MeResponse struct {
	UserID  string   `json:"user_id"`
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Accesos []string `json:"accesos"`
}

// GrantSectorRequest sector a conceder a un usuario existente.
type GrantSectorRequest struct {
	Sector string `json:"sector" validate:"required"`
}
