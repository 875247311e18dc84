package portal

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/portal-movimiento/internal/application/dto"
)

var titleES = cases.Title(language.Spanish)

// SectorOptions arma la lista de selección en el mismo orden que los accesos.
// chooseURL recibe el sector y devuelve la ruta que ejecuta la elección.
func SectorOptions(sectors []string, chooseURL func(string) string) []dto.SectorOption {
	out := make([]dto.SectorOption, 0, len(sectors))
	for _, s := range sectors {
		opt := dto.SectorOption{
			Sector:      s,
			Label:       titleES.String(strings.ReplaceAll(s, "-", " ")),
			Description: "Ingresar al sistema de " + s,
		}
		if chooseURL != nil {
			opt.URL = chooseURL(s)
		}
		out = append(out, opt)
	}
	return out
}
