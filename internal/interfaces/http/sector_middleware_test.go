package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apphttp "github.com/jhoicas/portal-movimiento/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/portal-movimiento/pkg/jwt"
)

const rootDomain = "ushuaiamovimiento.com.ar"

func TestHostSector(t *testing.T) {
	cases := map[string]string{
		"ventas.ushuaiamovimiento.com.ar":     "ventas",
		"VENTAS.ushuaiamovimiento.com.ar:443": "ventas",
		"jefe.ushuaiamovimiento.com.ar":       "jefe",
		"a.b.ushuaiamovimiento.com.ar":        "b",
		"ushuaiamovimiento.com.ar":            "www",
		"localhost:5173":                      "localhost",
		"127.0.0.1:8000":                      "localhost",
		"[::1]:8000":                          "localhost",
		"api.ushuaiamovimiento.com.ar":        "api",
		"stock.otro-dominio.com":              "stock",
	}
	for host, want := range cases {
		assert.Equal(t, want, apphttp.HostSector(host, rootDomain), host)
	}
}

func TestSectorAllowed(t *testing.T) {
	empleado := &pkgjwt.Claims{Role: "empleado", Sectors: []string{"ventas"}}
	jefe := &pkgjwt.Claims{Role: "jefe", Sectors: []string{"jefe"}}
	root := &pkgjwt.Claims{Role: "admin", Superuser: true}

	for _, open := range []string{"api", "admin", "www", "localhost"} {
		assert.True(t, apphttp.SectorAllowed(open, "jefe", nil), "host abierto %s", open)
	}
	assert.True(t, apphttp.SectorAllowed("ventas", "jefe", empleado))
	assert.False(t, apphttp.SectorAllowed("stock", "jefe", empleado))
	assert.False(t, apphttp.SectorAllowed("jefe", "jefe", empleado))
	assert.True(t, apphttp.SectorAllowed("jefe", "jefe", jefe))
	assert.True(t, apphttp.SectorAllowed("stock", "jefe", root), "superusuario pasa siempre")
	assert.False(t, apphttp.SectorAllowed("ventas", "jefe", nil))
}
