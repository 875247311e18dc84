// Package sector resuelve el origen de cada aplicación de sector a partir de la
// topología de despliegue. No guarda estado: el mismo (sector, entorno) produce
// siempre el mismo destino.
package sector

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/jhoicas/portal-movimiento/internal/domain"
)

// EnvKind local (loopback) o producción.
type EnvKind int

const (
	Production EnvKind = iota
	Local
)

func (k EnvKind) String() string {
	if k == Local {
		return "local"
	}
	return "production"
}

// Environment datos de la página actual que influyen en la resolución.
type Environment struct {
	Kind     EnvKind
	Scheme   string // http | https
	Hostname string
}

// DetectEnvironment clasifica la URL de la página: local si el host es loopback.
func DetectEnvironment(page *url.URL) Environment {
	scheme := page.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := page.Hostname()
	env := Environment{Kind: Production, Scheme: scheme, Hostname: host}
	if IsLoopback(host) {
		env.Kind = Local
	}
	return env
}

// IsLoopback localhost, *.localhost o una IP de loopback.
func IsLoopback(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Topology configuración inyectada al arrancar: orígenes fijos, dominio raíz y puertos locales.
type Topology struct {
	ManagersSector string
	ManagersOrigin string
	ManagersPort   int
	RootDomain     string
	LocalPorts     map[string]int
	DefaultPort    int
}

// Resolver calcula destinos sobre una Topology.
type Resolver struct {
	topo Topology
}

// NewResolver construye el resolver; copia el mapa de puertos para que nadie lo mute después.
func NewResolver(topo Topology) *Resolver {
	ports := make(map[string]int, len(topo.LocalPorts))
	for k, v := range topo.LocalPorts {
		ports[strings.ToLower(k)] = v
	}
	topo.LocalPorts = ports
	topo.ManagersOrigin = strings.TrimRight(topo.ManagersOrigin, "/")
	return &Resolver{topo: topo}
}

// labelRe etiqueta de host de un sector; admite "_" como los hosts del backend (sector_<x>).
var labelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9_-]{0,61}[a-z0-9])?$`)

// ValidLabel informa si s sirve como etiqueta de host de un sector.
func ValidLabel(s string) bool {
	return labelRe.MatchString(s)
}

// Resolve devuelve el origen (esquema + host + puerto) del sector en el entorno dado.
func (r *Resolver) Resolve(sector string, env Environment) (string, error) {
	sector = strings.ToLower(strings.TrimSpace(sector))
	if !labelRe.MatchString(sector) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSector, sector)
	}

	if env.Kind == Local {
		host := env.Hostname
		if host == "" {
			host = "localhost"
		}
		port, ok := r.topo.LocalPorts[sector]
		if sector == r.topo.ManagersSector && r.topo.ManagersPort > 0 {
			port, ok = r.topo.ManagersPort, true
		}
		if !ok {
			port = r.topo.DefaultPort
		}
		return "http://" + net.JoinHostPort(host, strconv.Itoa(port)), nil
	}

	if sector == r.topo.ManagersSector && r.topo.ManagersOrigin != "" {
		return r.topo.ManagersOrigin, nil
	}
	scheme := env.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s.%s", scheme, sector, r.topo.RootDomain), nil
}

// URLWithToken resuelve el sector y agrega el token como parámetro ?token=.
func (r *Resolver) URLWithToken(sector string, env Environment, token string) (string, error) {
	origin, err := r.Resolve(sector, env)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("token", token)
	return origin + "?" + q.Encode(), nil
}
