package entity

import "time"

// Session es la credencial del lado cliente: se crea al iniciar sesión, se reemplaza
// entera al volver a iniciar sesión y se borra al cerrar, expirar o recibir un 401.
type Session struct {
	AccessToken  string
	RefreshToken string
	Role         string
	Sectors      []string
	UserName     string
}

// Navigable informa si la sesión tiene al menos un destino posible.
func (s *Session) Navigable() bool {
	return s != nil && s.AccessToken != "" && len(s.Sectors) > 0
}

// HasSector informa si sector está entre los accesos de la sesión.
func (s *Session) HasSector(sector string) bool {
	if s == nil {
		return false
	}
	for _, x := range s.Sectors {
		if x == sector {
			return true
		}
	}
	return false
}

// ServerSession sesión del lado servidor que mantiene viva el heartbeat.
type ServerSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}
