package dto

// Acciones posibles tras el login en el portal.
const (
	ActionRedirect = "redirect"
	ActionSelect   = "select"
)

// SectorOption una entrada de la lista de selección de sectores.
type SectorOption struct {
	Sector      string `json:"sector"`
	Label       string `json:"label"`
	Description string `json:"description"`
	URL         string `json:"url"` // ruta del portal que ejecuta la elección
}

// PortalLoginResponse resultado del login: redirección directa o lista de sectores.
type PortalLoginResponse struct {
	Action  string         `json:"action"`
	URL     string         `json:"url,omitempty"`
	Sectors []SectorOption `json:"sectors,omitempty"`
	Name    string         `json:"name"`
	Role    string         `json:"role"`
}

// AppSessionResponse vista protegida de una app de sector.
type AppSessionResponse struct {
	Sector  string   `json:"sector"`
	UserID  string   `json:"user_id"`
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Accesos []string `json:"accesos"`
}
