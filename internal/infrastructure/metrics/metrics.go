// Package metrics métricas Prometheus del portal: login, redirecciones a sectores y
// ciclo de vida de la sesión.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

var (
	// HTTPRequestTotal solicitudes por método, ruta y estado.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de solicitudes HTTP por método, ruta y estado.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds latencia por método y ruta.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las solicitudes HTTP en segundos.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method", "path"},
	)

	// LoginsTotal resultado de cada login: redirect, select, no_sectors, invalid_credentials, error.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Logins por resultado.",
		},
		[]string{"outcome"},
	)

	// SectorRedirectsTotal redirecciones emitidas hacia cada sector.
	SectorRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sector_redirects_total",
			Help:      "Redirecciones hacia aplicaciones de sector.",
		},
		[]string{"sector"},
	)

	// BootstrapCapturesTotal tokens tomados de la URL.
	BootstrapCapturesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_captures_total",
			Help:      "Tokens recibidos por parámetro de URL y guardados.",
		},
	)

	// GuardRedirectsTotal vistas protegidas rechazadas por falta de token.
	GuardRedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_redirects_total",
			Help:      "Accesos sin token redirigidos al login principal.",
		},
	)

	// UnauthorizedTotal respuestas 401 tratadas (sesión borrada y vuelta al login).
	UnauthorizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unauthorized_total",
			Help:      "Respuestas 401 que cerraron la sesión del cliente.",
		},
	)

	// SessionExtensionsTotal heartbeats por resultado (ok, error).
	SessionExtensionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_extensions_total",
			Help:      "Extensiones de sesión por resultado.",
		},
		[]string{"result"},
	)

	// IdleExpirationsTotal sesiones cerradas por inactividad.
	IdleExpirationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_expirations_total",
			Help:      "Sesiones cerradas por inactividad.",
		},
	)
)

// Handler expone el registro por defecto en formato Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHeartbeat hook del extensor para contar heartbeats.
func ObserveHeartbeat(err error) {
	if err != nil {
		SessionExtensionsTotal.WithLabelValues("error").Inc()
		return
	}
	SessionExtensionsTotal.WithLabelValues("ok").Inc()
}

// ObserveIdleExpiration hook del extensor al expirar.
func ObserveIdleExpiration() {
	IdleExpirationsTotal.Inc()
}
