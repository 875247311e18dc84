// Package session implementa el cierre por inactividad del lado cliente con
// heartbeat al backend, independiente de la expiración del token.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/pkg/logger"
)

// State estado del extensor.
type State int32

const (
	Active  State = iota // hay interacción dentro de la ventana
	Expired              // terminal: sesión borrada y redirección hecha
)

func (s State) String() string {
	if s == Expired {
		return "expired"
	}
	return "active"
}

var (
	ErrAlreadyStarted = errors.New("session: el extensor ya fue iniciado")
	ErrExpired        = errors.New("session: la sesión expiró; hace falta una carga nueva")
)

// Timings tiempos del extensor.
type Timings struct {
	IdleTimeout       time.Duration // inactividad máxima antes de cerrar
	CheckInterval     time.Duration // cada cuánto se revisa la inactividad
	HeartbeatInterval time.Duration // cada cuánto se intenta extender la sesión del servidor
	FreshnessWindow   time.Duration // actividad reciente exigida para enviar el heartbeat
	HeartbeatTimeout  time.Duration // 0 = sin límite propio
}

// DefaultTimings 1 h de inactividad, chequeo por segundo, ping cada 15 min.
func DefaultTimings() Timings {
	return Timings{
		IdleTimeout:       time.Hour,
		CheckInterval:     time.Second,
		HeartbeatInterval: 15 * time.Minute,
		FreshnessWindow:   15 * time.Minute,
		HeartbeatTimeout:  30 * time.Second,
	}
}

// Validate la ventana de frescura nunca supera la de inactividad.
func (t Timings) Validate() error {
	if t.IdleTimeout <= 0 || t.CheckInterval <= 0 || t.HeartbeatInterval <= 0 || t.FreshnessWindow <= 0 {
		return errors.New("session: todos los intervalos deben ser positivos")
	}
	if t.FreshnessWindow > t.IdleTimeout {
		return fmt.Errorf("session: la ventana de frescura (%s) supera la inactividad máxima (%s)", t.FreshnessWindow, t.IdleTimeout)
	}
	if t.CheckInterval >= t.IdleTimeout {
		return fmt.Errorf("session: el chequeo (%s) debe ser menor que la inactividad máxima (%s)", t.CheckInterval, t.IdleTimeout)
	}
	return nil
}

// Heartbeat petición best-effort que mantiene viva la sesión del servidor.
type Heartbeat interface {
	ExtendSession(ctx context.Context) error
}

// Hooks callbacks opcionales (métricas).
type Hooks struct {
	OnHeartbeat func(err error)
	OnExpire    func()
}

// Config dependencias del extensor.
type Config struct {
	Timings    Timings
	Clock      Clock
	Store      repository.SessionStore
	Navigator  portal.Navigator
	Heartbeat  Heartbeat
	Activity   ActivitySource
	RootOrigin string
	Logger     *logger.Logger
	Hooks      Hooks
}

// Extender vigila la actividad, cierra la sesión tras la inactividad máxima y envía
// heartbeats mientras el usuario está activo. Los dos temporizadores corren en
// goroutines separadas para que un heartbeat lento no retrase el cierre.
type Extender struct {
	cfg      Config
	log      *logger.Logger
	activity *ActivityClock
	state    atomic.Int32

	mu          sync.Mutex
	started     bool
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup

	done     chan struct{}
	doneOnce sync.Once
}

// NewExtender valida la configuración y construye el extensor sin arrancarlo.
func NewExtender(cfg Config) (*Extender, error) {
	if err := cfg.Timings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return nil, errors.New("session: Store es obligatorio")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Extender{
		cfg:      cfg,
		log:      log,
		activity: NewActivityClock(cfg.Clock.Now()),
		done:     make(chan struct{}),
	}, nil
}

// Start conecta los listeners de actividad y arranca ambos temporizadores. Se llama
// una sola vez por vista montada.
func (e *Extender) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() == Expired {
		return ErrExpired
	}
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	e.activity.Touch(e.cfg.Clock.Now())

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	if e.cfg.Activity != nil {
		e.unsubscribe = e.cfg.Activity.Subscribe(e.Record)
	}

	idle := e.cfg.Clock.NewTicker(e.cfg.Timings.CheckInterval)
	ping := e.cfg.Clock.NewTicker(e.cfg.Timings.HeartbeatInterval)
	e.wg.Add(2)
	go e.idleLoop(ctx, idle)
	go e.heartbeatLoop(ctx, ping)
	return nil
}

// Stop desconecta los listeners, cancela ambos temporizadores y espera a que terminen
// (incluido un heartbeat en vuelo, que recibe la cancelación). Idempotente.
func (e *Extender) Stop() {
	e.detach()
	e.wg.Wait()
}

// Record registra un evento de actividad; los que no cuentan se ignoran.
func (e *Extender) Record(ev ActivityEvent) {
	if !ev.Counts() || e.State() == Expired {
		return
	}
	e.activity.Touch(e.cfg.Clock.Now())
}

// State estado actual.
func (e *Extender) State() State {
	return State(e.state.Load())
}

// LastActivity instante de la última actividad registrada.
func (e *Extender) LastActivity() time.Time {
	return e.activity.Last()
}

// Done se cierra al expirar la sesión.
func (e *Extender) Done() <-chan struct{} {
	return e.done
}

func (e *Extender) idleLoop(ctx context.Context, t Ticker) {
	defer e.wg.Done()
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C():
			if e.activity.Idle(now) >= e.cfg.Timings.IdleTimeout {
				e.expire()
				return
			}
		}
	}
}

func (e *Extender) heartbeatLoop(ctx context.Context, t Ticker) {
	defer e.wg.Done()
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C():
			if e.State() != Active {
				return
			}
			if e.activity.Idle(now) < e.cfg.Timings.FreshnessWindow {
				e.wg.Add(1)
				go e.ping(ctx)
			}
		}
	}
}

// ping dispara el heartbeat sin reintentos; cualquier error se descarta.
func (e *Extender) ping(ctx context.Context) {
	defer e.wg.Done()
	if e.cfg.Heartbeat == nil {
		return
	}
	if e.cfg.Timings.HeartbeatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timings.HeartbeatTimeout)
		defer cancel()
	}
	err := e.cfg.Heartbeat.ExtendSession(ctx)
	if err != nil {
		e.log.Debug().Err(err).Msg("heartbeat de sesión fallido")
	}
	if e.cfg.Hooks.OnHeartbeat != nil {
		e.cfg.Hooks.OnHeartbeat(err)
	}
}

// expire pasa a Expired una sola vez: borra la sesión, navega al origen raíz y
// detiene ambos temporizadores.
func (e *Extender) expire() {
	if !e.state.CompareAndSwap(int32(Active), int32(Expired)) {
		return
	}
	e.log.Warn().
		Time("ultima_actividad", e.activity.Last()).
		Dur("inactividad_maxima", e.cfg.Timings.IdleTimeout).
		Msg("inactividad detectada, cerrando sesión")

	if err := e.cfg.Store.Clear(); err != nil {
		e.log.Error().Err(err).Msg("borrar sesión al expirar")
	}
	if e.cfg.Navigator != nil {
		if err := e.cfg.Navigator.Navigate(e.cfg.RootOrigin); err != nil {
			e.log.Error().Err(err).Msg("redirigir al login principal")
		}
	}
	if e.cfg.Hooks.OnExpire != nil {
		e.cfg.Hooks.OnExpire()
	}
	e.doneOnce.Do(func() { close(e.done) })
	e.detach()
}

func (e *Extender) detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}
