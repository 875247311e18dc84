package http

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-movimiento/internal/application/dto"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/pkg/jwt"
)

// LocalSector key de c.Locals con el sector del host atendido.
const LocalSector = "sector"

// openHosts hosts que no representan un sector.
var openHosts = map[string]bool{"api": true, "admin": true, "www": true, "localhost": true}

// HostSector nombre lógico del host: el primer label bajo rootDomain, "localhost" en
// loopback y "www" para el dominio raíz pelado.
func HostSector(host, rootDomain string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if sector.IsLoopback(host) {
		return "localhost"
	}
	rootDomain = strings.ToLower(rootDomain)
	if host == rootDomain {
		return "www"
	}
	if name, ok := strings.CutSuffix(host, "."+rootDomain); ok {
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

// SectorAllowed decide si los claims habilitan el host. Hosts abiertos pasan siempre; el
// host del sector de jefes exige rol jefe; el resto exige el sector en los accesos. Los
// superusuarios pasan en cualquier caso.
func SectorAllowed(hostSector, managersSector string, claims *jwt.Claims) bool {
	if openHosts[hostSector] {
		return true
	}
	if claims == nil {
		return false
	}
	if hostSector == managersSector && claims.Role == managersSector {
		return true
	}
	if claims.HasSector(hostSector) {
		return true
	}
	return claims.Superuser
}

// RequireSectorHost verifica que el usuario del token tenga acceso al sector del host.
// Debe usarse DESPUÉS de un middleware que cargue los claims.
func RequireSectorHost(rootDomain, managersSector string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := HostSector(c.Hostname(), rootDomain)
		if !SectorAllowed(name, managersSector, GetClaims(c)) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "SECTOR_FORBIDDEN",
				Message: "no tienes acceso al sector '" + name + "'",
			})
		}
		c.Locals(LocalSector, name)
		return c.Next()
	}
}
