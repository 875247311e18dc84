package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	// Sesión y sectores.
	ErrNoSectors        = errors.New("No tienes un sector asignado para ingresar.")
	ErrSessionExpired   = errors.New("sesión expirada")
	ErrInvalidSector    = errors.New("sector inválido")
	ErrSectorNotGranted = errors.New("el sector no está entre los accesos de la sesión")
	ErrNoSession        = errors.New("no hay sesión activa")
)
